package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/brettbedarf/simfs/config"
	"github.com/brettbedarf/simfs/internal/shell"
	"github.com/brettbedarf/simfs/server"
	"github.com/spf13/cobra"
)

func newShellCmd(cfg func() *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Start the interactive shell (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShell(cmd, cfg())
		},
	}
}

func runShell(cmd *cobra.Command, cfg *config.Config) (err error) {
	fs, err := server.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, fs.Close())
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sh := shell.New(fs, cmd.InOrStdin(), cmd.OutOrStdout())
	if err := sh.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
