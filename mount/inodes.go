package mount

import (
	"sync"

	"github.com/brettbedarf/simfs/filesystem"
	"github.com/hanwen/go-fuse/v2/fuse"
)

// inodeTable maps kernel node IDs to tree nodes. IDs stay stable for as long
// as the kernel holds a lookup reference; the root is pinned.
type inodeTable struct {
	mu     sync.Mutex
	nextID uint64
	byID   map[uint64]*inodeEntry
	byNode map[*filesystem.Node]uint64
}

type inodeEntry struct {
	node    *filesystem.Node
	lookups uint64
}

func newInodeTable(root *filesystem.Node) *inodeTable {
	t := &inodeTable{
		nextID: fuse.FUSE_ROOT_ID,
		byID:   map[uint64]*inodeEntry{},
		byNode: map[*filesystem.Node]uint64{},
	}
	t.byID[fuse.FUSE_ROOT_ID] = &inodeEntry{node: root, lookups: 1}
	t.byNode[root] = fuse.FUSE_ROOT_ID
	return t
}

// get returns the node registered under id
func (t *inodeTable) get(id uint64) (*filesystem.Node, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.byID[id]
	if !ok {
		return nil, false
	}
	return e.node, true
}

// lookup registers one more kernel reference to n and returns its ID
func (t *inodeTable) lookup(n *filesystem.Node) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if id, ok := t.byNode[n]; ok {
		t.byID[id].lookups++
		return id
	}
	t.nextID++
	id := t.nextID
	t.byID[id] = &inodeEntry{node: n, lookups: 1}
	t.byNode[n] = id
	return id
}

// peek returns n's ID without taking a reference; 0 if unregistered
func (t *inodeTable) peek(n *filesystem.Node) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.byNode[n]
}

// forget drops nlookup references and releases the ID at zero
func (t *inodeTable) forget(id, nlookup uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if id == fuse.FUSE_ROOT_ID {
		return
	}
	e, ok := t.byID[id]
	if !ok {
		return
	}
	if nlookup >= e.lookups {
		delete(t.byID, id)
		delete(t.byNode, e.node)
		return
	}
	e.lookups -= nlookup
}

func (t *inodeTable) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.byID)
}
