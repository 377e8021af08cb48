package tree

import (
	"path/filepath"
	"strings"

	"github.com/mattsolo1/vss2git/pkg/models"
)

// Mapper is the state of one replay session. It is not safe for concurrent
// use.
type Mapper struct {
	nodes map[string]*Node
	roots []string
}

func NewMapper() *Mapper {
	return &Mapper{nodes: make(map[string]*Node)}
}

// WorkingPath maps a legacy path under workingRoot: "$" is the root itself
// and "$/a/b" becomes workingRoot/a/b.
func WorkingPath(workingRoot, legacyPath string) string {
	if legacyPath == "$" {
		return workingRoot
	}
	rel := strings.TrimPrefix(legacyPath, "$/")
	return filepath.Join(workingRoot, filepath.FromSlash(rel))
}

// Node returns the node for physical, if one exists.
func (m *Mapper) Node(physical string) (*Node, bool) {
	n, ok := m.nodes[physical]
	return n, ok
}

func (m *Mapper) project(name models.ItemName) *Node {
	return m.getOrCreate(name.PhysicalName, name.LogicalName, KindProject)
}

func (m *Mapper) file(name models.ItemName) *Node {
	return m.getOrCreate(name.PhysicalName, name.LogicalName, KindFile)
}

func (m *Mapper) getOrCreate(physical, logical string, kind Kind) *Node {
	if n, ok := m.nodes[physical]; ok {
		return n
	}
	n := newNode(physical, logical, kind)
	m.nodes[physical] = n
	return n
}

// SetProjectPath maps a root project to a working directory. sourcePath is
// its legacy path, used to resolve move destinations.
func (m *Mapper) SetProjectPath(physical, workingPath, sourcePath string) {
	n := m.getOrCreate(physical, workingPath, KindProject)
	n.LogicalName = workingPath
	n.isRoot = true
	n.rootPath = sourcePath
	m.roots = appendUnique(m.roots, physical)
}

// IsProjectRooted reports whether the project hangs under a mapped root.
func (m *Mapper) IsProjectRooted(physical string) bool {
	n, ok := m.nodes[physical]
	if !ok {
		return false
	}
	for n.parent != "" {
		n = m.nodes[n.parent]
	}
	return n.isRoot
}

// ProjectPath returns the working directory of a rooted project.
func (m *Mapper) ProjectPath(physical string) (string, bool) {
	n, ok := m.nodes[physical]
	if !ok || !m.IsProjectRooted(physical) {
		return "", false
	}
	return m.path(n), true
}

func (m *Mapper) path(n *Node) string {
	if n.parent == "" {
		return n.LogicalName
	}
	return filepath.Join(m.path(m.nodes[n.parent]), n.LogicalName)
}

// isSameOrSubproject reports whether physical is ancestor or ancestor's
// descendant.
func (m *Mapper) isSameOrSubproject(physical, ancestor string) bool {
	for physical != "" {
		if physical == ancestor {
			return true
		}
		physical = m.nodes[physical].parent
	}
	return false
}

// setParent moves a project under parent ("" detaches). A move that would
// create a cycle is ignored.
func (m *Mapper) setParent(n *Node, parent string) {
	if n.parent == parent {
		return
	}
	if parent != "" && m.isSameOrSubproject(parent, n.PhysicalName) {
		return
	}
	if n.parent != "" {
		m.nodes[n.parent].removeChild(n.PhysicalName)
	}
	n.parent = parent
	if parent != "" {
		m.nodes[parent].addChild(n.PhysicalName)
	}
}

func (m *Mapper) attach(parent *Node, name models.ItemName) *Node {
	if name.IsProject {
		n := m.project(name)
		m.setParent(n, parent.PhysicalName)
		return n
	}
	n := m.file(name)
	n.projects = appendUnique(n.projects, parent.PhysicalName)
	parent.addChild(n.PhysicalName)
	return n
}

func (m *Mapper) detach(parent *Node, name models.ItemName) *Node {
	if name.IsProject {
		n := m.project(name)
		m.setParent(n, "")
		return n
	}
	n := m.file(name)
	n.projects = remove(n.projects, parent.PhysicalName)
	parent.removeChild(n.PhysicalName)
	return n
}

// AddItem attaches name to project and refreshes its logical name.
func (m *Mapper) AddItem(project, name models.ItemName) *Node {
	n := m.attach(m.project(project), name)
	n.LogicalName = name.LogicalName
	return n
}

// RecoverItem reattaches a deleted item to project and refreshes its name.
func (m *Mapper) RecoverItem(project, name models.ItemName) *Node {
	n := m.attach(m.project(project), name)
	if name.LogicalName != "" {
		n.LogicalName = name.LogicalName
	}
	return n
}

// DeleteItem detaches name from project. The node is kept.
func (m *Mapper) DeleteItem(project, name models.ItemName) *Node {
	return m.detach(m.project(project), name)
}

// RenameItem updates the logical name of name.
func (m *Mapper) RenameItem(name models.ItemName) *Node {
	var n *Node
	if name.IsProject {
		n = m.project(name)
	} else {
		n = m.file(name)
	}
	n.LogicalName = name.LogicalName
	return n
}

// PinItem stops name from receiving edits in project.
func (m *Mapper) PinItem(project, name models.ItemName) *Node {
	return m.DeleteItem(project, name)
}

// UnpinItem makes name receive edits in project again.
func (m *Mapper) UnpinItem(project, name models.ItemName) *Node {
	return m.RecoverItem(project, name)
}

// BranchFile replaces oldName in project with newName, which starts at
// oldName's current version.
func (m *Mapper) BranchFile(project, newName, oldName models.ItemName) *Node {
	parent := m.project(project)
	oldFile := m.detach(parent, oldName)
	newFile := m.attach(parent, newName)
	newFile.version = oldFile.version
	return newFile
}

// MoveProjectFrom reparents subproject under project.
func (m *Mapper) MoveProjectFrom(project, subproject models.ItemName, oldProjectPath string) *Node {
	n := m.project(subproject)
	m.setParent(n, m.project(project).PhysicalName)
	return n
}

// MoveProjectTo follows subproject to newProjectPath, a legacy path. If the
// destination's parent is not mapped, the subproject is marked destroyed.
func (m *Mapper) MoveProjectTo(project, subproject models.ItemName, newProjectPath string) *Node {
	n := m.project(subproject)
	lastSlash := strings.LastIndex(newProjectPath, "/")
	if lastSlash <= 0 {
		return n
	}
	parent := m.resolveLegacyPath(newProjectPath[:lastSlash])
	if parent == nil {
		n.Destroyed = true
		return n
	}
	m.setParent(n, parent.PhysicalName)
	n.Destroyed = n.Destroyed || parent.Destroyed
	return n
}

func (m *Mapper) resolveLegacyPath(legacyPath string) *Node {
	for _, physical := range m.roots {
		root := m.nodes[physical]
		rootPath := root.rootPath
		if legacyPath == rootPath {
			return root
		}
		prefix := strings.TrimSuffix(rootPath, "/") + "/"
		if !strings.HasPrefix(legacyPath, prefix) {
			continue
		}
		current := root
		for _, segment := range strings.Split(legacyPath[len(prefix):], "/") {
			var next *Node
			for _, child := range current.children {
				c := m.nodes[child]
				if c.IsProject() && c.LogicalName == segment {
					next = c
					break
				}
			}
			if next == nil {
				return nil
			}
			current = next
		}
		return current
	}
	return nil
}

// SetFileVersion records the version a file's working copy should show.
func (m *Mapper) SetFileVersion(name models.ItemName, version int) {
	m.file(name).version = version
}

// FileVersion returns a file's current version, 1 if unknown.
func (m *Mapper) FileVersion(physical string) int {
	if n, ok := m.nodes[physical]; ok {
		return n.version
	}
	return 1
}

// FilePaths returns the working path of file in every rooted project that
// contains it. With underProject set, only that project's subtree counts.
func (m *Mapper) FilePaths(file, underProject string) []string {
	n, ok := m.nodes[file]
	if !ok {
		return nil
	}
	if underProject != "" {
		if _, ok := m.nodes[underProject]; !ok {
			return nil
		}
	}
	var paths []string
	for _, project := range n.projects {
		if underProject != "" && !m.isSameOrSubproject(project, underProject) {
			continue
		}
		if dir, ok := m.ProjectPath(project); ok {
			paths = append(paths, filepath.Join(dir, n.LogicalName))
		}
	}
	return paths
}

// ProjectContainsLogicalName reports whether project has an entry named
// like name.
func (m *Mapper) ProjectContainsLogicalName(project, name models.ItemName) bool {
	parent := m.project(project)
	for _, child := range parent.children {
		if m.nodes[child].LogicalName == name.LogicalName {
			return true
		}
	}
	return false
}

// walk visits every descendant of project breadth first.
func (m *Mapper) walk(project string, visit func(*Node)) {
	n, ok := m.nodes[project]
	if !ok {
		return
	}
	queue := []*Node{n}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, child := range current.children {
			c := m.nodes[child]
			visit(c)
			if c.IsProject() {
				queue = append(queue, c)
			}
		}
	}
}

// ContainsFiles reports whether any file lives in project's subtree.
func (m *Mapper) ContainsFiles(project string) bool {
	found := false
	m.walk(project, func(n *Node) {
		if !n.IsProject() {
			found = true
		}
	})
	return found
}

// AllFiles returns every file in project's subtree.
func (m *Mapper) AllFiles(project string) []*Node {
	var files []*Node
	m.walk(project, func(n *Node) {
		if !n.IsProject() {
			files = append(files, n)
		}
	})
	return files
}

// AllProjects returns every subproject in project's subtree, parents first.
func (m *Mapper) AllProjects(project string) []*Node {
	var projects []*Node
	m.walk(project, func(n *Node) {
		if n.IsProject() {
			projects = append(projects, n)
		}
	})
	return projects
}
