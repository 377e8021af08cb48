package tree

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattsolo1/vss2git/pkg/models"
)

func proj(physical, logical string) models.ItemName {
	return models.ItemName{PhysicalName: physical, LogicalName: logical, IsProject: true}
}

func file(physical, logical string) models.ItemName {
	return models.ItemName{PhysicalName: physical, LogicalName: logical}
}

var (
	root     = proj("AAAAAAAA", "$")
	src      = proj("BAAAAAAA", "src")
	lib      = proj("CAAAAAAA", "lib")
	deep     = proj("DAAAAAAA", "deep")
	mainFile = file("FAAAAAAA", "main.c")
)

func newRooted(t *testing.T) (*Mapper, string) {
	t.Helper()
	dir := t.TempDir()
	m := NewMapper()
	m.SetProjectPath(root.PhysicalName, dir, "$")
	return m, dir
}

func TestWorkingPath(t *testing.T) {
	assert.Equal(t, "/repo", WorkingPath("/repo", "$"))
	assert.Equal(t, filepath.Join("/repo", "a", "b"), WorkingPath("/repo", "$/a/b"))
}

func TestAddAndPaths(t *testing.T) {
	m, dir := newRooted(t)

	m.AddItem(root, src)
	m.AddItem(src, mainFile)

	assert.True(t, m.IsProjectRooted(src.PhysicalName))
	path, ok := m.ProjectPath(src.PhysicalName)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "src"), path)
	assert.Equal(t, []string{filepath.Join(dir, "src", "main.c")}, m.FilePaths(mainFile.PhysicalName, ""))

	// an unrooted project has no path
	m.AddItem(lib, file("GAAAAAAA", "x.c"))
	assert.False(t, m.IsProjectRooted(lib.PhysicalName))
	_, ok = m.ProjectPath(lib.PhysicalName)
	assert.False(t, ok)
	assert.Empty(t, m.FilePaths("GAAAAAAA", ""))
	assert.False(t, m.IsProjectRooted("ZZZZZZZZ"))
}

func TestAddRefreshesSpeculativeName(t *testing.T) {
	m, _ := newRooted(t)

	m.SetFileVersion(file(mainFile.PhysicalName, "speculative"), 3)
	n := m.AddItem(root, mainFile)
	assert.Equal(t, "main.c", n.LogicalName)
	assert.Equal(t, 3, n.Version())
}

func TestSharedFilePaths(t *testing.T) {
	m, dir := newRooted(t)
	m.AddItem(root, src)
	m.AddItem(root, lib)
	m.AddItem(src, mainFile)
	m.AddItem(lib, mainFile)
	m.AddItem(lib, mainFile)

	paths := m.FilePaths(mainFile.PhysicalName, "")
	assert.Equal(t, []string{
		filepath.Join(dir, "src", "main.c"),
		filepath.Join(dir, "lib", "main.c"),
	}, paths)
	assert.Equal(t, []string{filepath.Join(dir, "lib", "main.c")}, m.FilePaths(mainFile.PhysicalName, lib.PhysicalName))
	assert.Empty(t, m.FilePaths(mainFile.PhysicalName, "NOTMAPPED"))

	m.PinItem(src, mainFile)
	assert.Equal(t, []string{filepath.Join(dir, "lib", "main.c")}, m.FilePaths(mainFile.PhysicalName, ""))
	m.UnpinItem(src, mainFile)
	assert.Len(t, m.FilePaths(mainFile.PhysicalName, ""), 2)
}

func TestDeleteThenRecoverRestoresState(t *testing.T) {
	m, _ := newRooted(t)
	m.AddItem(root, src)
	m.AddItem(src, mainFile)
	m.SetFileVersion(mainFile, 4)
	before := m.FilePaths(mainFile.PhysicalName, "")
	beforePath, _ := m.ProjectPath(src.PhysicalName)

	m.DeleteItem(src, mainFile)
	m.DeleteItem(root, src)
	assert.Empty(t, m.FilePaths(mainFile.PhysicalName, ""))
	assert.False(t, m.IsProjectRooted(src.PhysicalName))

	m.RecoverItem(root, src)
	m.RecoverItem(src, mainFile)
	assert.Equal(t, before, m.FilePaths(mainFile.PhysicalName, ""))
	afterPath, _ := m.ProjectPath(src.PhysicalName)
	assert.Equal(t, beforePath, afterPath)
	assert.Equal(t, 4, m.FileVersion(mainFile.PhysicalName))

	n, ok := m.Node(mainFile.PhysicalName)
	require.True(t, ok)
	assert.Equal(t, []string{src.PhysicalName}, n.Projects())

	// a node first seen under a stale name takes the recovered name
	m.DeleteItem(src, mainFile)
	m.RenameItem(file(mainFile.PhysicalName, "stale.c"))
	m.RecoverItem(src, mainFile)
	assert.Equal(t, mainFile.LogicalName, n.LogicalName)
	assert.Equal(t, before, m.FilePaths(mainFile.PhysicalName, ""))
}

func TestRename(t *testing.T) {
	m, dir := newRooted(t)
	m.AddItem(root, src)
	m.AddItem(src, mainFile)

	m.RenameItem(proj(src.PhysicalName, "source"))
	m.RenameItem(file(mainFile.PhysicalName, "Main.c"))
	assert.Equal(t, []string{filepath.Join(dir, "source", "Main.c")}, m.FilePaths(mainFile.PhysicalName, ""))
	assert.True(t, m.ProjectContainsLogicalName(src, file("", "Main.c")))
	assert.False(t, m.ProjectContainsLogicalName(src, file("", "main.c")))
}

func TestBranchFileCarriesVersion(t *testing.T) {
	m, dir := newRooted(t)
	m.AddItem(root, src)
	m.AddItem(src, mainFile)
	m.SetFileVersion(mainFile, 7)

	branched := file("HAAAAAAA", "main.c")
	n := m.BranchFile(src, branched, mainFile)
	assert.Equal(t, 7, n.Version())
	assert.Empty(t, m.FilePaths(mainFile.PhysicalName, ""))
	assert.Equal(t, []string{filepath.Join(dir, "src", "main.c")}, m.FilePaths(branched.PhysicalName, ""))
}

func TestMoveProject(t *testing.T) {
	m, dir := newRooted(t)
	m.AddItem(root, src)
	m.AddItem(root, lib)
	m.AddItem(src, deep)

	m.MoveProjectFrom(lib, deep, "$/src")
	m.MoveProjectTo(src, deep, "$/lib/deep")
	path, ok := m.ProjectPath(deep.PhysicalName)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "lib", "deep"), path)
	n, _ := m.Node(deep.PhysicalName)
	assert.False(t, n.Destroyed)
	assert.Equal(t, []string{lib.PhysicalName}, []string{n.Parent()})

	// unresolvable destination
	m.MoveProjectTo(lib, deep, "$/elsewhere/deep")
	assert.True(t, n.Destroyed)
}

func TestMoveProjectToPropagatesDestroyed(t *testing.T) {
	m, _ := newRooted(t)
	m.AddItem(root, src)
	srcNode, _ := m.Node(src.PhysicalName)
	srcNode.Destroyed = true

	n := m.MoveProjectTo(lib, deep, "$/src/deep")
	assert.True(t, n.Destroyed)
}

func TestMoveIntoOwnSubtreeIgnored(t *testing.T) {
	m, _ := newRooted(t)
	m.AddItem(root, src)
	m.AddItem(src, deep)

	m.MoveProjectFrom(deep, src, "$")
	n, _ := m.Node(src.PhysicalName)
	assert.Equal(t, root.PhysicalName, n.Parent())
}

func TestSubtreeQueries(t *testing.T) {
	m, _ := newRooted(t)
	m.AddItem(root, src)
	m.AddItem(src, deep)
	m.AddItem(deep, lib)

	assert.False(t, m.ContainsFiles(root.PhysicalName))
	assert.Len(t, m.AllProjects(root.PhysicalName), 3)

	m.AddItem(lib, mainFile)
	m.AddItem(src, file("GAAAAAAA", "b.c"))
	assert.True(t, m.ContainsFiles(root.PhysicalName))
	assert.True(t, m.ContainsFiles(deep.PhysicalName))

	var names []string
	for _, n := range m.AllFiles(root.PhysicalName) {
		names = append(names, n.LogicalName)
	}
	assert.Equal(t, []string{"b.c", "main.c"}, names)

	var projects []string
	for _, n := range m.AllProjects(root.PhysicalName) {
		projects = append(projects, n.LogicalName)
	}
	assert.Equal(t, []string{"src", "deep", "lib"}, projects)
}

func TestFileVersionDefault(t *testing.T) {
	m := NewMapper()
	assert.Equal(t, 1, m.FileVersion("UNKNOWN"))
}
