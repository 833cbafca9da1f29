package filesystem

import (
	"strings"
	"time"

	"github.com/brettbedarf/simfs"
)

const rootName = "/"

// resolveNode maps p to an existing node. Absolute paths start at root and
// relative ones at the working directory. Empty and "." segments are
// skipped, ".." moves to the parent and is absorbed at root.
func (fs *FileSystem) resolveNode(op, p string) (*Node, error) {
	if p == "" {
		return nil, simfs.NewPathError(op, p, simfs.ErrInvalidPath)
	}
	if p == rootName {
		return fs.root, nil
	}

	cur := fs.cwd
	if strings.HasPrefix(p, "/") {
		cur = fs.root
	}
	for seg := range strings.SplitSeq(p, "/") {
		if seg == "" || seg == "." {
			continue
		}
		if !cur.IsDir() {
			return nil, simfs.NewPathError(op, p, simfs.ErrNotADirectory)
		}
		if seg == ".." {
			if cur.parent != nil {
				cur = cur.parent
			}
			continue
		}
		child := cur.ChildByName(seg)
		if child == nil {
			return nil, simfs.NewPathError(op, p, simfs.ErrNotFound)
		}
		cur = child
	}
	return cur, nil
}

// parentPlan is the outcome of walking the parent portion of a path.
// Nothing in the tree changes until materialize is called.
type parentPlan struct {
	base    *Node    // deepest existing directory on the parent path
	missing []string // directories still to be created under base, in order
	name    string   // validated final name
}

// planParent splits p into a parent directory and a final name. With
// createMissing set, absent intermediate directories are recorded in the
// plan; otherwise they fail with ErrNotFound. The final name is validated
// and checked for collisions before the caller mutates anything.
func (fs *FileSystem) planParent(op, p string, createMissing bool) (*parentPlan, error) {
	if p == "" {
		return nil, simfs.NewPathError(op, p, simfs.ErrInvalidPath)
	}
	trimmed := strings.TrimRight(p, "/")
	if trimmed == "" {
		// only slashes: names the root itself
		return nil, simfs.NewPathError(op, p, simfs.ErrAlreadyExists)
	}

	cur := fs.cwd
	dir, name := "", trimmed
	if i := strings.LastIndexByte(trimmed, '/'); i >= 0 {
		dir, name = trimmed[:i], trimmed[i+1:]
	}
	if strings.HasPrefix(trimmed, "/") {
		cur = fs.root
	}
	if err := ValidateName(name); err != nil {
		return nil, simfs.NewPathError(op, p, err)
	}

	var missing []string
	for seg := range strings.SplitSeq(dir, "/") {
		if seg == "" || seg == "." {
			continue
		}
		if seg == ".." {
			switch {
			case len(missing) > 0:
				missing = missing[:len(missing)-1]
			case !cur.IsDir():
				return nil, simfs.NewPathError(op, p, simfs.ErrNotADirectory)
			case cur.parent != nil:
				cur = cur.parent
			}
			continue
		}
		if len(missing) > 0 {
			if err := ValidateName(seg); err != nil {
				return nil, simfs.NewPathError(op, p, err)
			}
			missing = append(missing, seg)
			continue
		}
		if !cur.IsDir() {
			return nil, simfs.NewPathError(op, p, simfs.ErrNotADirectory)
		}
		if child := cur.ChildByName(seg); child != nil {
			cur = child
			continue
		}
		if !createMissing {
			return nil, simfs.NewPathError(op, p, simfs.ErrNotFound)
		}
		if err := ValidateName(seg); err != nil {
			return nil, simfs.NewPathError(op, p, err)
		}
		missing = append(missing, seg)
	}

	if len(missing) == 0 {
		if !cur.IsDir() {
			return nil, simfs.NewPathError(op, p, simfs.ErrNotADirectory)
		}
		if cur.ChildByName(name) != nil {
			return nil, simfs.NewPathError(op, p, simfs.ErrAlreadyExists)
		}
	}
	return &parentPlan{base: cur, missing: missing, name: name}, nil
}

// materialize creates the plan's missing directories and returns the
// parent that the final name belongs in
func (plan *parentPlan) materialize(now time.Time) *Node {
	cur := plan.base
	for _, name := range plan.missing {
		dir := newDirectory(name, now)
		cur.AddChild(dir, now)
		cur = dir
	}
	return cur
}
