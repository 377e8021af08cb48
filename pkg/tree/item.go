// Package tree tracks the names and locations of legacy projects and files
// while their history is replayed.
package tree

// Kind distinguishes project and file nodes.
type Kind int

const (
	KindProject Kind = iota
	KindFile
)

// Node is one item in the replay tree. Nodes reference each other by
// physical name, never by pointer; the Mapper owns them all.
type Node struct {
	PhysicalName string
	LogicalName  string
	Kind         Kind
	// Destroyed is set once the item's content can no longer be read.
	Destroyed bool

	// Projects only.
	parent   string
	children []string
	isRoot   bool
	rootPath string

	// Files only.
	projects []string
	version  int
}

func newNode(physical, logical string, kind Kind) *Node {
	return &Node{PhysicalName: physical, LogicalName: logical, Kind: kind, version: 1}
}

func (n *Node) IsProject() bool { return n.Kind == KindProject }

// Parent returns the physical name of a project's parent, or "".
func (n *Node) Parent() string { return n.parent }

// Children returns a project's direct entries in insertion order.
func (n *Node) Children() []string { return append([]string(nil), n.children...) }

// Projects returns the projects a file currently belongs to.
func (n *Node) Projects() []string { return append([]string(nil), n.projects...) }

// Version returns a file's current version.
func (n *Node) Version() int { return n.version }

// IsRoot reports whether the project is a mapped root.
func (n *Node) IsRoot() bool { return n.isRoot }

// RootPath returns the legacy path a root project was mapped from.
func (n *Node) RootPath() string { return n.rootPath }

func (n *Node) addChild(physical string) {
	n.children = appendUnique(n.children, physical)
}

func (n *Node) removeChild(physical string) {
	n.children = remove(n.children, physical)
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}

func remove(list []string, s string) []string {
	for i, v := range list {
		if v == s {
			return append(list[:i:i], list[i+1:]...)
		}
	}
	return list
}
