package adapters

import (
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/brettbedarf/simfs"
	"github.com/brettbedarf/simfs/internal/util"
)

// MaxContentSize caps how much a single source may contribute
const MaxContentSize = 16 << 20

// FetchContent reads the first source, by ascending priority, that can be
// opened. No sources yields empty content.
func FetchContent(ctx context.Context, sources []simfs.ContentSource) (string, error) {
	logger := util.GetLogger("Adapters.FetchContent")
	if len(sources) == 0 {
		return "", nil
	}

	ordered := slices.Clone(sources)
	slices.SortStableFunc(ordered, func(a, b simfs.ContentSource) int {
		return a.Priority - b.Priority
	})

	var lastErr error
	for _, src := range ordered {
		if src.AdapterProvider == nil {
			continue
		}
		adapter := src.Adapter()
		if adapter == nil {
			continue
		}
		content, err := readAll(ctx, adapter)
		if err != nil {
			logger.Warn().Err(err).Int("priority", src.Priority).Msg("Source failed; trying next")
			lastErr = err
			continue
		}
		return content, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no usable adapters")
	}
	return "", fmt.Errorf("all sources failed: %w", lastErr)
}

func readAll(ctx context.Context, adapter simfs.ContentAdapter) (string, error) {
	rc, err := adapter.Open(ctx)
	if err != nil {
		return "", err
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, MaxContentSize+1))
	if err != nil {
		return "", err
	}
	if len(data) > MaxContentSize {
		return "", fmt.Errorf("content exceeds %d bytes", MaxContentSize)
	}
	return string(data), nil
}
