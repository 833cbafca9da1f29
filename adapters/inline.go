package adapters

import (
	"context"
	"io"
	"strings"

	"github.com/brettbedarf/simfs"
	"github.com/bytedance/sonic"
)

// InlineSource carries the content in the seed definition itself
type InlineSource struct {
	Content string `json:"content"`
}

func RegisterInline(r *Registry) {
	r.Register(InlineAdapterType, func(raw []byte) (simfs.AdapterProvider, error) {
		var config InlineSource
		if err := sonic.Unmarshal(raw, &config); err != nil {
			return nil, err
		}
		return &config, nil
	})
}

func (s *InlineSource) Adapter() simfs.ContentAdapter {
	return &InlineAdapter{content: s.Content}
}

// InlineAdapter implements [simfs.ContentAdapter] over a string
type InlineAdapter struct {
	content string
}

func (a *InlineAdapter) Open(context.Context) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(a.content)), nil
}

func (a *InlineAdapter) Exists(context.Context) (bool, error) {
	return true, nil
}
