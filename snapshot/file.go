// Package snapshot persists whole-tree images of the simulated file system.
package snapshot

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/brettbedarf/simfs"
	"github.com/brettbedarf/simfs/internal/util"
)

// FileStore keeps the image in a single file that is replaced atomically
// on every Save.
type FileStore struct {
	path        string
	compression string
	now         func() time.Time
}

var _ simfs.SnapshotStore = (*FileStore)(nil)

// NewFileStore returns a store for the image at path
func NewFileStore(path, compression string) (*FileStore, error) {
	if !ValidCompression(compression) {
		return nil, fmt.Errorf("unknown compression %q", compression)
	}
	return &FileStore{path: path, compression: compression, now: time.Now}, nil
}

func (s *FileStore) Path() string { return s.path }

// Load reads the image. A missing or empty file yields simfs.ErrNoSnapshot.
func (s *FileStore) Load() (*simfs.NodeImage, error) {
	logger := util.GetLogger("FileStore.Load")

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, simfs.ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	if len(data) == 0 {
		logger.Warn().Str("path", s.path).Msg("Snapshot file is empty")
		return nil, simfs.ErrNoSnapshot
	}
	img, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.path, err)
	}
	logger.Debug().Str("path", s.path).Int("bytes", len(data)).Msg("Loaded snapshot")
	return img, nil
}

// Save encodes root and replaces the image file through a temp file rename
func (s *FileStore) Save(root *simfs.NodeImage) error {
	logger := util.GetLogger("FileStore.Save")

	data, err := Encode(root, s.compression, s.now())
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	logger.Trace().Str("path", s.path).Int("bytes", len(data)).Msg("Saved snapshot")
	return nil
}
