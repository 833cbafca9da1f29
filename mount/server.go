// Package mount exposes the simulated tree as a read-only FUSE file system.
package mount

import (
	"time"

	"github.com/brettbedarf/simfs/config"
	"github.com/brettbedarf/simfs/internal/util"
	"github.com/hanwen/go-fuse/v2/fuse"
)

// Mount serves a Tree at a mount point
type Mount struct {
	raw    *FuseRaw
	opts   config.MountOptions
	logLvl util.LogLevel
	server *fuse.Server
}

// New prepares a mount of tree using the mount options and timeouts in cfg
func New(tree Tree, cfg *config.Config) *Mount {
	return &Mount{
		raw:    NewFuseRaw(tree, seconds(cfg.AttrTimeout), seconds(cfg.EntryTimeout)),
		opts:   cfg.MountOptions,
		logLvl: cfg.LogLvl,
	}
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// Serve mounts and serves the file system at mountPoint. It returns once
// the mount is live; requests are handled in the background.
func (m *Mount) Serve(mountPoint string) error {
	logger := util.GetLogger("Mount.Serve")

	srv, err := fuse.NewServer(m.raw, mountPoint, &fuse.MountOptions{
		Name:          m.opts.Name,
		FsName:        m.opts.FsName,
		Debug:         m.opts.Debug || m.logLvl == util.TraceLevel,
		Logger:        util.NewLogLogger("FuseServer", util.DebugLevel),
		DisableXAttrs: true,
	})
	if err != nil {
		return err
	}
	m.server = srv

	go srv.Serve()
	if err := srv.WaitMount(); err != nil {
		return err
	}
	logger.Info().Str("mountpoint", mountPoint).Msg("Mounted")
	return nil
}

// Wait blocks until the file system is unmounted
func (m *Mount) Wait() {
	if m.server != nil {
		m.server.Wait()
	}
}

// Unmount cleanly unmounts the file system
func (m *Mount) Unmount() error {
	if m.server == nil {
		return nil
	}
	return m.server.Unmount()
}
