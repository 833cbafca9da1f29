package mount

import (
	"os"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/brettbedarf/simfs"
	"github.com/brettbedarf/simfs/filesystem"
	"github.com/brettbedarf/simfs/internal/util"
	"github.com/hanwen/go-fuse/v2/fuse"
	"github.com/puzpuzpuz/xsync/v4"
)

const (
	dirMode  = syscall.S_IFDIR | 0o555
	fileMode = syscall.S_IFREG | 0o444
	blkSize  = 4096
)

// Tree is the read side of the file system the mount serves
type Tree interface {
	Root() *filesystem.Node
	Children(n *filesystem.Node) []*filesystem.Node
	Lookup(n *filesystem.Node, name string) *filesystem.Node
	Info(n *filesystem.Node) simfs.NodeInfo
	Content(n *filesystem.Node) string
}

// FuseRaw implements the low-level FUSE wire protocol as a read-only view
// of the simulated tree.
// See https://www.man7.org/linux//man-pages/man4/fuse.4.html
type FuseRaw struct {
	fuse.RawFileSystem
	tree         Tree
	inodes       *inodeTable
	attrTimeout  time.Duration
	entryTimeout time.Duration
	uid, gid     uint32
	server       *fuse.Server

	lastFh atomic.Uint64
	files  *xsync.Map[uint64, []byte]          // open file handles -> content at open time
	dirs   *xsync.Map[uint64, []fuse.DirEntry] // open dir handles -> listing at open time
}

func NewFuseRaw(tree Tree, attrTimeout, entryTimeout time.Duration) *FuseRaw {
	return &FuseRaw{
		RawFileSystem: fuse.NewDefaultRawFileSystem(),
		tree:          tree,
		inodes:        newInodeTable(tree.Root()),
		attrTimeout:   attrTimeout,
		entryTimeout:  entryTimeout,
		files:         xsync.NewMap[uint64, []byte](),
		dirs:          xsync.NewMap[uint64, []fuse.DirEntry](),
		uid:           uint32(os.Getuid()),
		gid:           uint32(os.Getgid()),
	}
}

func (r *FuseRaw) Init(s *fuse.Server) {
	logger := util.GetLogger("Fuse.Init")
	logger.Debug().Msg("FUSE initialized")
	r.server = s
}

func (r *FuseRaw) OnUnmount() {
	logger := util.GetLogger("Fuse.OnUnmount")
	logger.Info().Msg("FUSE unmounted")
}

func (r *FuseRaw) String() string {
	return "simfs"
}

// Access allows every read; writes are refused at open time
func (r *FuseRaw) Access(cancel <-chan struct{}, input *fuse.AccessIn) fuse.Status {
	if _, ok := r.inodes.get(input.NodeId); !ok {
		return fuse.ENOENT
	}
	if input.Mask&0o2 != 0 { // W_OK
		return fuse.EROFS
	}
	return fuse.OK
}

// Lookup resolves a child by name and takes a kernel reference on it
func (r *FuseRaw) Lookup(cancel <-chan struct{}, header *fuse.InHeader, name string, out *fuse.EntryOut) fuse.Status {
	logger := util.GetLogger("Fuse.Lookup")
	logger.Trace().Uint64("parent", header.NodeId).Str("name", name).Msg("Lookup called")

	parent, ok := r.inodes.get(header.NodeId)
	if !ok {
		return fuse.ENOENT
	}
	if !parent.IsDir() {
		return fuse.ENOTDIR
	}
	child := r.tree.Lookup(parent, name)
	if child == nil {
		return fuse.ENOENT
	}

	id := r.inodes.lookup(child)
	out.NodeId = id
	r.fillAttr(child, id, &out.Attr)
	out.SetAttrTimeout(r.attrTimeout)
	out.SetEntryTimeout(r.entryTimeout)
	return fuse.OK
}

// Forget is called when the kernel discards entries from its dentry cache
func (r *FuseRaw) Forget(nodeid, nlookup uint64) {
	r.inodes.forget(nodeid, nlookup)
}

func (r *FuseRaw) GetAttr(cancel <-chan struct{}, input *fuse.GetAttrIn, out *fuse.AttrOut) fuse.Status {
	node, ok := r.inodes.get(input.NodeId)
	if !ok {
		return fuse.ENOENT
	}
	r.fillAttr(node, input.NodeId, &out.Attr)
	out.SetTimeout(r.attrTimeout)
	return fuse.OK
}

// Open snapshots the file content into a handle. Write access is refused.
func (r *FuseRaw) Open(cancel <-chan struct{}, input *fuse.OpenIn, out *fuse.OpenOut) fuse.Status {
	node, ok := r.inodes.get(input.NodeId)
	if !ok {
		return fuse.ENOENT
	}
	if node.IsDir() {
		return fuse.EISDIR
	}
	if input.Flags&(syscall.O_WRONLY|syscall.O_RDWR|syscall.O_TRUNC|syscall.O_APPEND) != 0 {
		return fuse.EROFS
	}
	fh := r.lastFh.Add(1)
	r.files.Store(fh, []byte(r.tree.Content(node)))
	out.Fh = fh
	return fuse.OK
}

func (r *FuseRaw) Read(cancel <-chan struct{}, input *fuse.ReadIn, buf []byte) (fuse.ReadResult, fuse.Status) {
	data, ok := r.files.Load(input.Fh)
	if !ok {
		return nil, fuse.EBADF
	}
	if input.Offset >= uint64(len(data)) {
		return fuse.ReadResultData(nil), fuse.OK
	}
	end := min(input.Offset+uint64(input.Size), uint64(len(data)))
	return fuse.ReadResultData(data[input.Offset:end]), fuse.OK
}

func (r *FuseRaw) Release(cancel <-chan struct{}, input *fuse.ReleaseIn) {
	r.files.Delete(input.Fh)
}

// OpenDir snapshots the listing so offsets stay stable while the tree changes
func (r *FuseRaw) OpenDir(cancel <-chan struct{}, input *fuse.OpenIn, out *fuse.OpenOut) fuse.Status {
	node, ok := r.inodes.get(input.NodeId)
	if !ok {
		return fuse.ENOENT
	}
	if !node.IsDir() {
		return fuse.ENOTDIR
	}
	fh := r.lastFh.Add(1)
	r.dirs.Store(fh, r.listing(node, input.NodeId))
	out.Fh = fh
	return fuse.OK
}

func (r *FuseRaw) ReadDir(cancel <-chan struct{}, input *fuse.ReadIn, out *fuse.DirEntryList) fuse.Status {
	logger := util.GetLogger("Fuse.ReadDir")
	logger.Trace().Uint64("fh", input.Fh).Uint64("offset", input.Offset).Msg("ReadDir called")

	entries, ok := r.dirs.Load(input.Fh)
	if !ok {
		return fuse.EBADF
	}
	for i := input.Offset; i < uint64(len(entries)); i++ {
		e := entries[i]
		e.Off = i + 1
		if !out.AddDirEntry(e) {
			// buffer full; the kernel asks again from the last offset
			break
		}
	}
	return fuse.OK
}

func (r *FuseRaw) ReleaseDir(input *fuse.ReleaseIn) {
	r.dirs.Delete(input.Fh)
}

func (r *FuseRaw) StatFs(cancel <-chan struct{}, input *fuse.InHeader, out *fuse.StatfsOut) fuse.Status {
	out.Bsize = blkSize
	out.NameLen = 255
	out.Files = uint64(r.inodes.len())
	return fuse.OK
}

// listing builds the directory stream including "." and ".."
func (r *FuseRaw) listing(dir *filesystem.Node, id uint64) []fuse.DirEntry {
	children := r.tree.Children(dir)
	entries := make([]fuse.DirEntry, 0, len(children)+2)
	entries = append(entries,
		fuse.DirEntry{Name: ".", Mode: dirMode, Ino: id},
		fuse.DirEntry{Name: "..", Mode: dirMode},
	)
	for _, c := range children {
		mode := uint32(fileMode)
		if c.IsDir() {
			mode = dirMode
		}
		// Ino is advisory here; Lookup assigns the real one
		entries = append(entries, fuse.DirEntry{Name: c.Name(), Mode: mode, Ino: r.inodes.peek(c)})
	}
	return entries
}

func (r *FuseRaw) fillAttr(n *filesystem.Node, id uint64, attr *fuse.Attr) {
	info := r.tree.Info(n)
	attr.Ino = id
	attr.Owner = fuse.Owner{Uid: r.uid, Gid: r.gid}
	attr.Blksize = blkSize
	if info.IsDir() {
		attr.Mode = dirMode
		attr.Nlink = 2
		attr.Size = blkSize
	} else {
		attr.Mode = fileMode
		attr.Nlink = 1
		attr.Size = uint64(info.Size)
	}
	attr.Blocks = (attr.Size + 511) / 512

	mtime := info.UpdatedAt
	attr.Mtime, attr.Mtimensec = uint64(mtime.Unix()), uint32(mtime.Nanosecond())
	attr.Atime, attr.Atimensec = attr.Mtime, attr.Mtimensec
	ctime := info.CreatedAt
	attr.Ctime, attr.Ctimensec = uint64(ctime.Unix()), uint32(ctime.Nanosecond())
}
