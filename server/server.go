// Package server wires configuration, persistence, the file system engine
// and its outer surfaces (FUSE mount, metrics endpoint) together.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/brettbedarf/simfs"
	"github.com/brettbedarf/simfs/config"
	"github.com/brettbedarf/simfs/filesystem"
	"github.com/brettbedarf/simfs/internal/metrics"
	"github.com/brettbedarf/simfs/internal/util"
	"github.com/brettbedarf/simfs/journal"
	"github.com/brettbedarf/simfs/mount"
	"github.com/brettbedarf/simfs/snapshot"
)

// SimFs contains the booted file system together with the resources it
// owns
type SimFs struct {
	*filesystem.FileSystem
	cfg     *config.Config
	metrics *metrics.Metrics
	mount   *mount.Mount
	httpSrv *http.Server
}

// New opens the journal and snapshot store described by cfg and boots the
// file system from them
func New(cfg *config.Config) (*SimFs, error) {
	logger := util.GetLogger("Server.New")
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		store simfs.SnapshotStore
		jrnl  simfs.Journal
	)
	if cfg.InMemory {
		store = snapshot.NewMemoryStore()
		jrnl = journal.Discard()
	} else {
		fileStore, err := snapshot.NewFileStore(cfg.SnapshotPath(), cfg.Compression)
		if err != nil {
			return nil, err
		}
		j, err := journal.Open(cfg.JournalPath())
		if err != nil {
			return nil, err
		}
		store, jrnl = fileStore, j
	}

	m := metrics.New()
	fs := filesystem.NewFS(store, jrnl, filesystem.WithMetrics(m))
	if err := fs.Boot(); err != nil {
		if !errors.Is(err, simfs.ErrPersistence) {
			jrnl.Close()
			return nil, fmt.Errorf("boot: %w", err)
		}
		// formatted in memory but not on disk; keep going like any other drift
		logger.Error().Err(err).Msg("Booted without a persisted snapshot")
	}
	logger.Debug().
		Str("snapshot", cfg.SnapshotPath()).
		Str("journal", cfg.JournalPath()).
		Bool("in_memory", cfg.InMemory).
		Msg("File system ready")

	return &SimFs{FileSystem: fs, cfg: cfg, metrics: m}, nil
}

func (s *SimFs) Metrics() *metrics.Metrics {
	return s.metrics
}

// Serve mounts and serves the file system at the given mountPoint
func (s *SimFs) Serve(mountPoint string) error {
	s.mount = mount.New(s.FileSystem, s.cfg)
	return s.mount.Serve(mountPoint)
}

// Wait blocks until the mount goes away
func (s *SimFs) Wait() {
	if s.mount != nil {
		s.mount.Wait()
	}
}

// Unmount cleanly unmounts the file system
func (s *SimFs) Unmount() error {
	if s.mount == nil {
		return nil
	}
	return s.mount.Unmount()
}

// ServeMetrics exposes the prometheus endpoint at cfg.MetricsAddr and
// returns the bound address. An empty address disables it.
func (s *SimFs) ServeMetrics() (string, error) {
	logger := util.GetLogger("Server.ServeMetrics")
	if s.cfg.MetricsAddr == "" {
		return "", nil
	}

	ln, err := net.Listen("tcp", s.cfg.MetricsAddr)
	if err != nil {
		return "", fmt.Errorf("metrics listener: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", s.metrics.Handler())
	s.httpSrv = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := s.httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("Metrics server stopped")
		}
	}()
	logger.Info().Str("addr", ln.Addr().String()).Msg("Serving metrics")
	return ln.Addr().String(), nil
}

// Close unmounts, stops the metrics endpoint and shuts the file system
// down. Every step runs and all failures are joined.
func (s *SimFs) Close() error {
	var errs []error
	if err := s.Unmount(); err != nil {
		errs = append(errs, fmt.Errorf("unmount: %w", err))
	}
	if s.httpSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpSrv.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("metrics shutdown: %w", err))
		}
	}
	if err := s.Shutdown(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
