package filesystem

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/brettbedarf/simfs"
	"github.com/brettbedarf/simfs/internal/metrics"
	"github.com/brettbedarf/simfs/internal/util"
)

const (
	bootFormatMsg = "No file system found. Formatting disk."
	bootLoadedMsg = "File System loaded successfully."
)

// FileSystem is the mutation engine: it owns the tree, the working
// directory, and couples each tree edit to the journal and snapshot store.
// All methods are serialized by a single lock.
type FileSystem struct {
	mu      sync.Mutex
	root    *Node
	cwd     *Node
	journal simfs.Journal       // may be nil
	store   simfs.SnapshotStore // may be nil
	metrics *metrics.Metrics    // may be nil
	now     func() time.Time
	closed  bool
}

type Option func(*FileSystem)

// WithMetrics records operation outcomes on m
func WithMetrics(m *metrics.Metrics) Option {
	return func(fs *FileSystem) { fs.metrics = m }
}

// WithClock overrides the time source used for node timestamps
func WithClock(now func() time.Time) Option {
	return func(fs *FileSystem) { fs.now = now }
}

// NewFS returns a file system holding only an empty root. Call Boot to
// replace it with the tree from the snapshot store.
func NewFS(store simfs.SnapshotStore, journal simfs.Journal, opts ...Option) *FileSystem {
	fs := &FileSystem{
		journal: journal,
		store:   store,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(fs)
	}
	fs.root = newDirectory(rootName, fs.now())
	fs.cwd = fs.root
	return fs
}

// Boot loads the tree from the snapshot store. When the store has no image
// a fresh root is formatted and persisted. A damaged image is reported and
// the current tree is left untouched.
func (fs *FileSystem) Boot() error {
	logger := util.GetLogger("FS.Boot")
	fs.mu.Lock()
	defer fs.mu.Unlock()

	var img *simfs.NodeImage
	var err error
	if fs.store != nil {
		img, err = fs.store.Load()
	} else {
		err = simfs.ErrNoSnapshot
	}

	switch {
	case errors.Is(err, simfs.ErrNoSnapshot):
		fs.logJournal(simfs.EventBoot, bootFormatMsg)
		fs.root = newDirectory(rootName, fs.now())
		fs.cwd = fs.root
		if err := fs.persist(); err != nil {
			return fs.persistFailed("boot", "", bootFormatMsg, err)
		}
		logger.Info().Msg("Formatted new file system")
	case err != nil:
		logger.Error().Err(err).Msg("Failed to load snapshot")
		return fmt.Errorf("load snapshot: %w", err)
	default:
		root, err := fromImage(img)
		if err != nil {
			logger.Error().Err(err).Msg("Snapshot image is invalid")
			return fmt.Errorf("load snapshot: %w", err)
		}
		fs.root = root
		fs.cwd = root
		fs.logJournal(simfs.EventBoot, bootLoadedMsg)
		fs.metrics.SetNodes(img.Count())
		logger.Info().Int("nodes", img.Count()).Msg("Loaded file system")
	}
	return nil
}

// CreateDirectory creates the final segment of p as a directory, creating
// missing intermediate directories first.
func (fs *FileSystem) CreateDirectory(p string) (err error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	defer fs.observe("mkdir", p, &err)

	return fs.create("mkdir", p, newDirectory)
}

// CreateFile creates an empty file at p, creating missing intermediate
// directories first.
func (fs *FileSystem) CreateFile(p string) (err error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	defer fs.observe("touch", p, &err)

	return fs.create("touch", p, newFile)
}

func (fs *FileSystem) create(op, p string, newNode func(string, time.Time) *Node) error {
	plan, err := fs.planParent(op, p, true)
	if err != nil {
		return err
	}
	return fs.commit(op, p, op+" "+p, func(now time.Time) {
		parent := plan.materialize(now)
		parent.AddChild(newNode(plan.name, now), now)
	})
}

// ChangeDirectory moves the working directory. It is session state and is
// never journaled or persisted.
func (fs *FileSystem) ChangeDirectory(p string) (err error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	defer fs.observe("cd", p, &err)

	node, err := fs.resolveNode("cd", p)
	if err != nil {
		return err
	}
	if !node.IsDir() {
		return simfs.NewPathError("cd", p, simfs.ErrNotADirectory)
	}
	fs.cwd = node
	return nil
}

// ListDirectory lists the children of the directory at p, or of the
// working directory when p is omitted. A file yields a single row
// describing itself.
func (fs *FileSystem) ListDirectory(p ...string) (entries []simfs.ListEntry, err error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	target := "."
	if len(p) > 0 && p[0] != "" {
		target = p[0]
	}
	defer fs.observe("ls", target, &err)

	node, err := fs.resolveNode("ls", target)
	if err != nil {
		return nil, err
	}
	if !node.IsDir() {
		return []simfs.ListEntry{node.listEntry()}, nil
	}
	entries = make([]simfs.ListEntry, 0, len(node.children))
	for _, c := range node.children {
		entries = append(entries, c.listEntry())
	}
	return entries, nil
}

// Rename moves the node at oldPath. If newPath names an existing directory
// the node moves into it under its own name; otherwise newPath is split
// into a destination parent, which must exist, and a new name.
func (fs *FileSystem) Rename(oldPath, newPath string) (err error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	defer fs.observe("mv", oldPath, &err)

	src, err := fs.resolveNode("mv", oldPath)
	if err != nil {
		return err
	}
	if src.parent == nil {
		return simfs.NewPathError("mv", oldPath, simfs.ErrInvalidPath)
	}
	desc := "mv " + oldPath + " " + newPath

	if dst, err := fs.resolveNode("mv", newPath); err == nil && dst.IsDir() {
		if dst.isWithin(src) {
			return simfs.NewPathError("mv", newPath, simfs.ErrInvalidPath)
		}
		if dst.ChildByName(src.name) != nil {
			return simfs.NewPathError("mv", newPath+"/"+src.name, simfs.ErrAlreadyExists)
		}
		return fs.commit("mv", oldPath, desc, func(now time.Time) {
			src.parent.RemoveChild(src, now)
			dst.AddChild(src, now)
		})
	}

	plan, err := fs.planParent("mv", newPath, false)
	if err != nil {
		return err
	}
	if plan.base.isWithin(src) {
		return simfs.NewPathError("mv", newPath, simfs.ErrInvalidPath)
	}
	return fs.commit("mv", oldPath, desc, func(now time.Time) {
		src.parent.RemoveChild(src, now)
		src.name = plan.name
		src.updatedAt = now
		plan.base.AddChild(src, now)
	})
}

// Copy duplicates the file at srcPath. Destination handling mirrors Rename.
// Directories cannot be copied.
func (fs *FileSystem) Copy(srcPath, dstPath string) (err error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	defer fs.observe("cp", srcPath, &err)

	src, err := fs.resolveNode("cp", srcPath)
	if err != nil {
		return err
	}
	if src.IsDir() {
		return simfs.NewPathError("cp", srcPath, simfs.ErrUnsupported)
	}
	desc := "cp " + srcPath + " " + dstPath

	if dst, err := fs.resolveNode("cp", dstPath); err == nil && dst.IsDir() {
		if dst.ChildByName(src.name) != nil {
			return simfs.NewPathError("cp", dstPath+"/"+src.name, simfs.ErrAlreadyExists)
		}
		return fs.commit("cp", srcPath, desc, func(now time.Time) {
			dst.AddChild(src.duplicate(src.name, now), now)
		})
	}

	plan, err := fs.planParent("cp", dstPath, false)
	if err != nil {
		return err
	}
	return fs.commit("cp", srcPath, desc, func(now time.Time) {
		plan.base.AddChild(src.duplicate(plan.name, now), now)
	})
}

// Delete detaches the node at p together with its descendants. If the
// working directory was inside the removed subtree it falls back to the
// removed node's parent.
func (fs *FileSystem) Delete(p string) (err error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	defer fs.observe("rm", p, &err)

	node, err := fs.resolveNode("rm", p)
	if err != nil {
		return err
	}
	parent := node.parent
	if parent == nil {
		return simfs.NewPathError("rm", p, simfs.ErrUnsupported)
	}
	return fs.commit("rm", p, "rm "+p, func(now time.Time) {
		if fs.cwd.isWithin(node) {
			fs.cwd = parent
		}
		parent.RemoveChild(node, now)
	})
}

// WriteFile replaces the content of the existing file at p
func (fs *FileSystem) WriteFile(p, content string) (err error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	defer fs.observe("write", p, &err)

	node, err := fs.resolveNode("write", p)
	if err != nil {
		return err
	}
	if node.IsDir() {
		return simfs.NewPathError("write", p, simfs.ErrIsADirectory)
	}
	return fs.commit("write", p, fmt.Sprintf("write %s (%d bytes)", p, len(content)), func(now time.Time) {
		node.setContent(content, now)
	})
}

// ReadFile returns the content of the file at p
func (fs *FileSystem) ReadFile(p string) (content string, err error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	defer fs.observe("cat", p, &err)

	node, err := fs.resolveNode("cat", p)
	if err != nil {
		return "", err
	}
	if node.IsDir() {
		return "", simfs.NewPathError("cat", p, simfs.ErrIsADirectory)
	}
	return node.content, nil
}

// Stat describes the node at p
func (fs *FileSystem) Stat(p string) (info simfs.NodeInfo, err error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	defer fs.observe("stat", p, &err)

	node, err := fs.resolveNode("stat", p)
	if err != nil {
		return simfs.NodeInfo{}, err
	}
	return node.info(), nil
}

// CurrentPath returns the absolute path of the working directory
func (fs *FileSystem) CurrentPath() string {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.cwd.Path()
}

// Shutdown records the shutdown and closes the journal. Calling it more
// than once is a no-op.
func (fs *FileSystem) Shutdown() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.closed {
		return nil
	}
	fs.closed = true
	if fs.journal == nil {
		return nil
	}
	fs.logJournal(simfs.EventShutdown, "File System shut down.")
	if err := fs.journal.Close(); err != nil {
		return fmt.Errorf("close journal: %w", err)
	}
	return nil
}

// commit runs the journal and snapshot protocol around apply. apply must
// not fail: every check happens before commit is called. After Shutdown
// nothing is applied and os.ErrClosed is returned.
func (fs *FileSystem) commit(op, p, desc string, apply func(now time.Time)) error {
	if fs.closed {
		return simfs.NewPathError(op, p, os.ErrClosed)
	}
	fs.logJournal(simfs.EventStart, desc)
	apply(fs.now())
	if err := fs.persist(); err != nil {
		return fs.persistFailed(op, p, desc, err)
	}
	fs.logJournal(simfs.EventCommit, desc)
	return nil
}

func (fs *FileSystem) persist() error {
	if fs.store == nil {
		fs.metrics.SetNodes(countNodes(fs.root))
		return nil
	}
	img := toImage(fs.root)
	start := time.Now()
	err := fs.store.Save(img)
	fs.metrics.ObserveSnapshot(time.Since(start))
	fs.metrics.SetNodes(img.Count())
	return err
}

// persistFailed reports a snapshot failure after the in-memory edit was
// applied. The edit stands.
func (fs *FileSystem) persistFailed(op, p, desc string, err error) error {
	logger := util.GetLogger("FS.persist")
	logger.Error().Err(err).Str("op", op).Str("path", p).Msg("Snapshot write failed; memory and store have diverged")
	fs.logJournal(simfs.EventCriticalError, "Failed to save to disk: "+desc+": "+err.Error())
	fs.metrics.ObservePersistenceFailure()
	return simfs.NewPathError(op, p, fmt.Errorf("%w: %w", simfs.ErrPersistence, err))
}

func (fs *FileSystem) logJournal(event simfs.JournalEvent, desc string) {
	if fs.journal == nil || fs.closed && event != simfs.EventShutdown {
		return
	}
	if err := fs.journal.Log(event, desc); err != nil {
		logger := util.GetLogger("FS.journal")
		logger.Warn().Err(err).Str("event", string(event)).Msg("Failed to append journal entry")
	}
}

func (fs *FileSystem) observe(op, p string, err *error) {
	fs.metrics.ObserveOperation(op, *err)
	if *err == nil {
		return
	}
	if errors.Is(*err, simfs.ErrPersistence) {
		return // already logged at error level
	}
	logger := util.GetLogger("FS." + op)
	logger.Debug().Err(*err).Str("path", p).Msg("Operation rejected")
}

func countNodes(n *Node) int {
	c := 1
	for _, child := range n.children {
		c += countNodes(child)
	}
	return c
}

