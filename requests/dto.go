package requests

import "github.com/brettbedarf/simfs"

// SeedDTO is the JSON/YAML representation of a seed file
type SeedDTO struct {
	Nodes []NodeRequestDTO `json:"nodes" yaml:"nodes"`
}

// NodeRequestDTO is the serialized form of a [simfs.NodeRequest]. Type
// defaults to "file".
type NodeRequestDTO struct {
	Path string                      `json:"path" yaml:"path"`
	Type simfs.NodeCreateRequestType `json:"type,omitempty" yaml:"type,omitempty"`

	// Content is shorthand for a single inline source
	Content *string `json:"content,omitempty" yaml:"content,omitempty"`

	Sources []SourceConfigDTO `json:"sources,omitempty" yaml:"sources,omitempty"`
}

// SourceConfigDTO is a source definition. "type" selects the adapter and
// "priority" orders sources (lower first, defaults to the array index);
// every other field belongs to the adapter.
//
// Ex. For type="http" (see [adapters.HTTPSource]):
//
//	url      string
//	method   string
//	headers  map[string]string
//	timeout  int (seconds)
type SourceConfigDTO map[string]any
