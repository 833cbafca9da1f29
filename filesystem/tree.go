package filesystem

import "github.com/brettbedarf/simfs"

// Read accessors for consumers that walk the tree by node reference, such
// as the FUSE mount. They take the engine lock, so the returned values are
// consistent snapshots of the moment of the call.

// Root returns the current root node
func (fs *FileSystem) Root() *Node {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.root
}

// Children returns a copy of a directory's ordered children
func (fs *FileSystem) Children(n *Node) []*Node {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return append([]*Node(nil), n.children...)
}

// Lookup returns the named child of a directory or nil
func (fs *FileSystem) Lookup(n *Node, name string) *Node {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if !n.IsDir() {
		return nil
	}
	return n.ChildByName(name)
}

func (fs *FileSystem) Info(n *Node) simfs.NodeInfo {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return n.info()
}

// Content returns a file's content; directories have none
func (fs *FileSystem) Content(n *Node) string {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return n.content
}

// Image returns a serializable copy of the whole tree
func (fs *FileSystem) Image() *simfs.NodeImage {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return toImage(fs.root)
}
