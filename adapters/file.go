package adapters

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/brettbedarf/simfs"
	"github.com/bytedance/sonic"
)

// LocalFileSource reads content from a file on the host
type LocalFileSource struct {
	Path string `json:"path"`
}

func RegisterFile(r *Registry) {
	r.Register(FileAdapterType, func(raw []byte) (simfs.AdapterProvider, error) {
		var config LocalFileSource
		if err := sonic.Unmarshal(raw, &config); err != nil {
			return nil, err
		}
		if config.Path == "" {
			return nil, fmt.Errorf("file source: path is required")
		}
		return &config, nil
	})
}

func (s *LocalFileSource) Adapter() simfs.ContentAdapter {
	return &LocalFileAdapter{path: s.Path}
}

// LocalFileAdapter implements [simfs.ContentAdapter] for host files
type LocalFileAdapter struct {
	path string
}

func (a *LocalFileAdapter) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.Open(a.path)
}

func (a *LocalFileAdapter) Exists(context.Context) (bool, error) {
	info, err := os.Stat(a.path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return info.Mode().IsRegular(), nil
}
