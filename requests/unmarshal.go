package requests

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/brettbedarf/simfs"
	"github.com/brettbedarf/simfs/adapters"
	"github.com/bytedance/sonic"
	"gopkg.in/yaml.v3"
)

// Seed is an ordered set of node requests. Directories are applied before
// files.
type Seed struct {
	Dirs  []*simfs.DirCreateRequest
	Files []*simfs.FileCreateRequest
}

// Len returns the number of requests in the seed
func (s *Seed) Len() int {
	return len(s.Dirs) + len(s.Files)
}

// LoadSeedFile reads a .json, .yaml or .yml seed file
func LoadSeedFile(path string, reg *adapters.Registry) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var dto SeedDTO
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &dto)
	case ".json":
		err = sonic.Unmarshal(data, &dto)
	default:
		return nil, fmt.Errorf("unsupported seed file type %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	return ConvertSeed(&dto, reg)
}

// UnmarshalSeed parses a JSON seed document
func UnmarshalSeed(data []byte, reg *adapters.Registry) (*Seed, error) {
	var dto SeedDTO
	if err := sonic.Unmarshal(data, &dto); err != nil {
		return nil, err
	}
	return ConvertSeed(&dto, reg)
}

// ConvertSeed turns parsed DTOs into requests, resolving every source
// through reg
func ConvertSeed(dto *SeedDTO, reg *adapters.Registry) (*Seed, error) {
	seed := &Seed{}
	for i, n := range dto.Nodes {
		if strings.TrimSpace(n.Path) == "" {
			return nil, fmt.Errorf("node %d: path is required", i)
		}
		typ := n.Type
		if typ == "" {
			typ = simfs.FileNodeType
		}
		req := simfs.NodeRequest{Path: n.Path, Type: typ}

		switch typ {
		case simfs.DirNodeType:
			if n.Content != nil || len(n.Sources) > 0 {
				return nil, fmt.Errorf("node %d (%s): directories take no content", i, n.Path)
			}
			seed.Dirs = append(seed.Dirs, &simfs.DirCreateRequest{NodeRequest: req})
		case simfs.FileNodeType:
			sources, err := unmarshalSources(n, reg)
			if err != nil {
				return nil, fmt.Errorf("node %d (%s): %w", i, n.Path, err)
			}
			seed.Files = append(seed.Files, &simfs.FileCreateRequest{NodeRequest: req, Sources: sources})
		default:
			return nil, fmt.Errorf("node %d (%s): unknown type %q", i, n.Path, typ)
		}
	}
	return seed, nil
}

// Helper function to process a node's content shorthand and sources array
func unmarshalSources(n NodeRequestDTO, reg *adapters.Registry) ([]simfs.ContentSource, error) {
	var sources []simfs.ContentSource
	if n.Content != nil {
		sources = append(sources, simfs.ContentSource{
			AdapterProvider: &adapters.InlineSource{Content: *n.Content},
			Priority:        -1,
		})
	}

	for i, src := range n.Sources {
		// Re-encode so adapter factories always see JSON, whatever the seed format
		raw, err := sonic.Marshal(map[string]any(src))
		if err != nil {
			return nil, fmt.Errorf("source %d: %w", i, err)
		}
		provider, err := reg.Provider(raw)
		if err != nil {
			return nil, fmt.Errorf("source %d: %w", i, err)
		}

		// Apply priority default
		priority := i
		if p, ok := src.priority(); ok {
			priority = p
		}

		sources = append(sources, simfs.ContentSource{
			AdapterProvider: provider,
			Priority:        priority,
		})
	}
	return sources, nil
}

func (s SourceConfigDTO) priority() (int, bool) {
	switch v := s["priority"].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}
