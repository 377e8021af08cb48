package models

import "fmt"

// ActionKind names a legacy operation.
type ActionKind string

const (
	ActionLabel    ActionKind = "label"
	ActionCreate   ActionKind = "create"
	ActionAdd      ActionKind = "add"
	ActionShare    ActionKind = "share"
	ActionRecover  ActionKind = "recover"
	ActionDelete   ActionKind = "delete"
	ActionDestroy  ActionKind = "destroy"
	ActionRename   ActionKind = "rename"
	ActionMoveFrom ActionKind = "move_from"
	ActionMoveTo   ActionKind = "move_to"
	ActionPin      ActionKind = "pin"
	ActionBranch   ActionKind = "branch"
	ActionEdit     ActionKind = "edit"
	ActionArchive  ActionKind = "archive"
	ActionRestore  ActionKind = "restore"
)

// Action is the closed set of operations a revision can carry. Every
// implementation lives in this file.
type Action interface {
	Kind() ActionKind
	String() string
	isAction()
}

// NamedAction is an action that targets an item other than (or in addition
// to) the item whose history records it, e.g. a project's Add of a file.
type NamedAction interface {
	Action
	Target() ItemName
}

// Label tags the project state at this point in history.
type Label struct {
	Label string
}

type Create struct{ Name ItemName }

type Add struct{ Name ItemName }

type Share struct{ Name ItemName }

type Recover struct{ Name ItemName }

type Delete struct{ Name ItemName }

// Destroy is a Delete whose content is gone for good.
type Destroy struct{ Name ItemName }

// Rename changes Name's logical name; Name carries the new one.
type Rename struct {
	Name         ItemName
	OriginalName string
}

// MoveFrom reparents Name under the acting project. OriginalProject is the
// legacy path of the project it came from.
type MoveFrom struct {
	Name            ItemName
	OriginalProject string
}

// MoveTo is recorded by the old parent when Name moves to NewProject.
type MoveTo struct {
	Name       ItemName
	NewProject string
}

// Pin freezes Name at Revision within the acting project. Pinned is false
// for an unpin.
type Pin struct {
	Name     ItemName
	Pinned   bool
	Revision int
}

// Branch replaces Source in the acting project with the new physical file
// Name, which inherits Source's history.
type Branch struct {
	Name   ItemName
	Source ItemName
}

// Edit is a content change of a file's own history.
type Edit struct {
	PhysicalName string
}

type Archive struct {
	Name        ItemName
	ArchivePath string
}

type Restore struct {
	Name        ItemName
	ArchivePath string
}

func (Label) Kind() ActionKind    { return ActionLabel }
func (Create) Kind() ActionKind   { return ActionCreate }
func (Add) Kind() ActionKind      { return ActionAdd }
func (Share) Kind() ActionKind    { return ActionShare }
func (Recover) Kind() ActionKind  { return ActionRecover }
func (Delete) Kind() ActionKind   { return ActionDelete }
func (Destroy) Kind() ActionKind  { return ActionDestroy }
func (Rename) Kind() ActionKind   { return ActionRename }
func (MoveFrom) Kind() ActionKind { return ActionMoveFrom }
func (MoveTo) Kind() ActionKind   { return ActionMoveTo }
func (Pin) Kind() ActionKind      { return ActionPin }
func (Branch) Kind() ActionKind   { return ActionBranch }
func (Edit) Kind() ActionKind     { return ActionEdit }
func (Archive) Kind() ActionKind  { return ActionArchive }
func (Restore) Kind() ActionKind  { return ActionRestore }

func (Label) isAction()    {}
func (Create) isAction()   {}
func (Add) isAction()      {}
func (Share) isAction()    {}
func (Recover) isAction()  {}
func (Delete) isAction()   {}
func (Destroy) isAction()  {}
func (Rename) isAction()   {}
func (MoveFrom) isAction() {}
func (MoveTo) isAction()   {}
func (Pin) isAction()      {}
func (Branch) isAction()   {}
func (Edit) isAction()     {}
func (Archive) isAction()  {}
func (Restore) isAction()  {}

func (a Create) Target() ItemName   { return a.Name }
func (a Add) Target() ItemName      { return a.Name }
func (a Share) Target() ItemName    { return a.Name }
func (a Recover) Target() ItemName  { return a.Name }
func (a Delete) Target() ItemName   { return a.Name }
func (a Destroy) Target() ItemName  { return a.Name }
func (a Rename) Target() ItemName   { return a.Name }
func (a MoveFrom) Target() ItemName { return a.Name }
func (a MoveTo) Target() ItemName   { return a.Name }
func (a Pin) Target() ItemName      { return a.Name }
func (a Branch) Target() ItemName   { return a.Name }
func (a Archive) Target() ItemName  { return a.Name }
func (a Restore) Target() ItemName  { return a.Name }

func (a Label) String() string   { return fmt.Sprintf("Label %q", a.Label) }
func (a Create) String() string  { return "Create " + a.Name.LogicalName }
func (a Add) String() string     { return "Add " + a.Name.LogicalName }
func (a Share) String() string   { return "Share " + a.Name.LogicalName }
func (a Recover) String() string { return "Recover " + a.Name.LogicalName }
func (a Delete) String() string  { return "Delete " + a.Name.LogicalName }
func (a Destroy) String() string { return "Destroy " + a.Name.LogicalName }
func (a Rename) String() string {
	return fmt.Sprintf("Rename %s to %s", a.OriginalName, a.Name.LogicalName)
}
func (a MoveFrom) String() string {
	return fmt.Sprintf("Move %s from %s", a.Name.LogicalName, a.OriginalProject)
}
func (a MoveTo) String() string {
	return fmt.Sprintf("Move %s to %s", a.Name.LogicalName, a.NewProject)
}
func (a Pin) String() string {
	if a.Pinned {
		return fmt.Sprintf("Pin %s at revision %d", a.Name.LogicalName, a.Revision)
	}
	return fmt.Sprintf("Unpin %s at revision %d", a.Name.LogicalName, a.Revision)
}
func (a Branch) String() string {
	return fmt.Sprintf("Branch %s from %s", a.Name.LogicalName, a.Source.PhysicalName)
}
func (a Edit) String() string { return "Edit " + a.PhysicalName }
func (a Archive) String() string {
	return fmt.Sprintf("Archive %s to %s", a.Name.LogicalName, a.ArchivePath)
}
func (a Restore) String() string {
	return fmt.Sprintf("Restore %s from %s", a.Name.LogicalName, a.ArchivePath)
}

// TargetOf returns the item an action operates on: the named target when
// there is one, otherwise the acting item itself.
func TargetOf(item ItemName, action Action) ItemName {
	if named, ok := action.(NamedAction); ok {
		return named.Target()
	}
	return item
}
