package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/brettbedarf/simfs/config"
	"github.com/brettbedarf/simfs/internal/shell"
	"github.com/brettbedarf/simfs/internal/util"
	"github.com/brettbedarf/simfs/server"
	"github.com/spf13/cobra"
)

type mountOptions struct {
	metricsAddr string
	umount      bool
	withShell   bool
	debug       bool
}

func newMountCmd(cfg func() *config.Config) *cobra.Command {
	opts := &mountOptions{}
	cmd := &cobra.Command{
		Use:   "mount <mountpoint>",
		Short: "Mount the file system read-only through FUSE",
		Long: `Mount the simulated tree at <mountpoint>. The mount is read-only; edits
made through --shell become visible through the mount immediately.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := cfg()
			if cmd.Flags().Changed("metrics-addr") {
				c.MetricsAddr = opts.metricsAddr
			}
			if opts.debug {
				c.Debug = true
			}
			return runMount(cmd, c, args[0], opts)
		},
	}
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve prometheus metrics at this address, e.g. :9090")
	cmd.Flags().BoolVarP(&opts.umount, "umount", "u", false,
		"Unmount the mountpoint first if needed. Useful after a crash.")
	cmd.Flags().BoolVar(&opts.withShell, "shell", false, "Run the interactive shell while mounted")
	cmd.Flags().BoolVar(&opts.debug, "fuse-debug", false, "Log every FUSE request")
	return cmd
}

func runMount(cmd *cobra.Command, cfg *config.Config, mnt string, opts *mountOptions) (err error) {
	logger := util.GetLogger("main")

	if opts.umount {
		// not mounted is fine
		exec.Command("fusermount", "-u", mnt).Run() // nolint:errcheck
	}

	fs, err := server.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := fs.Close(); cerr != nil {
			logger.Error().Err(cerr).Msg("Failed to shut down cleanly")
			err = errors.Join(err, cerr)
		} else {
			logger.Info().Msg("Filesystem unmounted successfully")
		}
	}()

	if addr, err := fs.ServeMetrics(); err != nil {
		return err
	} else if addr != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "metrics: http://%s/metrics\n", addr)
	}

	if err := fs.Serve(mnt); err != nil {
		return fmt.Errorf("mount %s: %w", mnt, err)
	}
	logger.Info().Str("mountpoint", mnt).Msg("Filesystem mounted successfully")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	unmounted := make(chan struct{})
	go func() {
		fs.Wait()
		close(unmounted)
	}()

	if opts.withShell {
		shellDone := make(chan error, 1)
		go func() {
			shellDone <- shell.New(fs, cmd.InOrStdin(), cmd.OutOrStdout()).Run(ctx)
		}()
		select {
		case err := <-shellDone:
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
		case <-unmounted:
			logger.Warn().Msg("Mount went away; stopping")
		}
		return nil
	}

	select {
	case <-ctx.Done():
		logger.Info().Msg("Received signal, unmounting filesystem")
	case <-unmounted:
		logger.Warn().Msg("Mount went away; stopping")
	}
	return nil
}
