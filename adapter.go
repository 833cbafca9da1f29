package simfs

import (
	"context"
	"io"
)

// ContentAdapter retrieves the initial content of a seeded file from some
// source. Instances are 1:1 with a single source definition.
type ContentAdapter interface {
	// Opens the source and returns a Reader over its full content
	Open(ctx context.Context) (io.ReadCloser, error)

	// Checks if the source exists and is readable
	Exists(ctx context.Context) (bool, error)
}

// AdapterProvider is a factory for concrete [ContentAdapter] implementations
// generated from a request's source config.
type AdapterProvider interface {
	Adapter() ContentAdapter
}

// ContentSource is a container for concrete adapter implementations that can
// be attached to a [FileCreateRequest]
type ContentSource struct {
	AdapterProvider
	Priority int `json:"priority,omitempty"` // Lower number = higher priority
}
