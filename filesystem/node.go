package filesystem

import (
	"slices"
	"time"

	"github.com/brettbedarf/simfs"
	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v4"
)

// Node is a directory or a file in the tree. Nodes are only mutated by the
// FileSystem that owns them, under its lock.
type Node struct {
	id        string
	kind      simfs.NodeType
	name      string
	parent    *Node // non-owning back reference; nil for root and detached nodes
	createdAt time.Time
	updatedAt time.Time

	// Directory only
	children []*Node                   // ordered by insertion
	index    *xsync.Map[string, *Node] // name -> first child with that name

	// File only
	content   string
	extension string
}

func newDirectory(name string, now time.Time) *Node {
	return &Node{
		id:        uuid.NewString(),
		kind:      simfs.DirectoryType,
		name:      name,
		createdAt: now,
		updatedAt: now,
		index:     newIndex(),
	}
}

func newIndex() *xsync.Map[string, *Node] {
	return xsync.NewMap[string, *Node]()
}

func newFile(name string, now time.Time) *Node {
	return &Node{
		id:        uuid.NewString(),
		kind:      simfs.FileType,
		name:      name,
		createdAt: now,
		updatedAt: now,
		extension: Extension(name),
	}
}

func (n *Node) ID() string { return n.id }

func (n *Node) Type() simfs.NodeType { return n.kind }

func (n *Node) Name() string { return n.name }

func (n *Node) IsDir() bool { return n.kind == simfs.DirectoryType }

func (n *Node) IsRoot() bool { return n.parent == nil && n.name == rootName }

// AddChild appends child and sets its parent to n.
// Name uniqueness must be checked by the caller.
func (n *Node) AddChild(child *Node, now time.Time) {
	n.children = append(n.children, child)
	n.index.LoadOrStore(child.name, child)
	child.parent = n
	n.updatedAt = now
}

// RemoveChild detaches child by identity. Returns false if child is not
// one of n's children.
func (n *Node) RemoveChild(child *Node, now time.Time) bool {
	i := slices.Index(n.children, child)
	if i < 0 {
		return false
	}
	n.children = slices.Delete(n.children, i, i+1)

	if cur, ok := n.index.Load(child.name); ok && cur == child {
		n.index.Delete(child.name)
		// a duplicate loaded from a damaged image takes over the name
		for _, c := range n.children {
			if c.name == child.name {
				n.index.Store(c.name, c)
				break
			}
		}
	}
	child.parent = nil
	n.updatedAt = now
	return true
}

// ChildByName returns the child with exactly the given name or nil
func (n *Node) ChildByName(name string) *Node {
	if n.index != nil {
		if child, ok := n.index.Load(name); ok {
			return child
		}
		return nil
	}
	for _, c := range n.children {
		if c.name == name {
			return c
		}
	}
	return nil
}

// Path rebuilds the absolute path of n by walking parent references.
// The root's path is "/".
func (n *Node) Path() string {
	if n.parent == nil {
		if n.name == rootName {
			return rootName
		}
		return n.name
	}
	var names []string
	for cur := n; cur.parent != nil; cur = cur.parent {
		names = append(names, cur.name)
	}
	slices.Reverse(names)

	size := 0
	for _, name := range names {
		size += len(name) + 1
	}
	buf := make([]byte, 0, size)
	for _, name := range names {
		buf = append(buf, '/')
		buf = append(buf, name...)
	}
	return string(buf)
}

// isWithin reports whether n is ancestor or n itself
func (n *Node) isWithin(ancestor *Node) bool {
	for cur := n; cur != nil; cur = cur.parent {
		if cur == ancestor {
			return true
		}
	}
	return false
}

func (n *Node) setContent(content string, now time.Time) {
	n.content = content
	n.updatedAt = now
}

// duplicate returns a detached copy of a file with a new identity
func (n *Node) duplicate(name string, now time.Time) *Node {
	dup := newFile(name, now)
	dup.content = n.content
	dup.extension = n.extension
	return dup
}

func (n *Node) info() simfs.NodeInfo {
	size := int64(len(n.content))
	if n.IsDir() {
		size = int64(len(n.children))
	}
	return simfs.NodeInfo{
		ID:        n.id,
		Type:      n.kind,
		Name:      n.name,
		Path:      n.Path(),
		Size:      size,
		Extension: n.extension,
		CreatedAt: n.createdAt,
		UpdatedAt: n.updatedAt,
	}
}

func (n *Node) listEntry() simfs.ListEntry {
	return simfs.ListEntry{Type: n.kind, LastModified: n.updatedAt, Name: n.name}
}
