package requests

import (
	"context"
	"errors"

	"github.com/brettbedarf/simfs"
	"github.com/brettbedarf/simfs/adapters"
	"github.com/brettbedarf/simfs/internal/util"
)

// Target is the part of the file system a seed writes to
type Target interface {
	CreateDirectory(p string) error
	CreateFile(p string) error
	WriteFile(p, content string) error
}

// Result summarizes an applied seed
type Result struct {
	Created int
	Skipped int
}

// Apply creates every requested node on fs. Existing directories and files
// are skipped so a seed can be applied repeatedly. Any other failure stops
// the run.
func Apply(ctx context.Context, fs Target, seed *Seed) (Result, error) {
	logger := util.GetLogger("Requests.Apply")
	var res Result

	for _, req := range seed.Dirs {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		err := fs.CreateDirectory(req.Path)
		switch {
		case errors.Is(err, simfs.ErrAlreadyExists):
			res.Skipped++
		case err != nil:
			return res, err
		default:
			res.Created++
		}
	}

	for _, req := range seed.Files {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		err := fs.CreateFile(req.Path)
		if errors.Is(err, simfs.ErrAlreadyExists) {
			logger.Warn().Str("path", req.Path).Msg("File already exists; leaving it untouched")
			res.Skipped++
			continue
		}
		if err != nil {
			return res, err
		}
		res.Created++

		content, err := adapters.FetchContent(ctx, req.Sources)
		if err != nil {
			logger.Error().Err(err).Str("path", req.Path).Msg("Failed to fetch content; file left empty")
			return res, err
		}
		if content == "" {
			continue
		}
		if err := fs.WriteFile(req.Path, content); err != nil {
			return res, err
		}
		logger.Debug().Str("path", req.Path).Int("bytes", len(content)).Msg("Seeded file")
	}

	logger.Info().Int("created", res.Created).Int("skipped", res.Skipped).Msg("Applied seed")
	return res, nil
}
