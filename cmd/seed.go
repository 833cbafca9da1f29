package main

import (
	"errors"
	"fmt"

	"github.com/brettbedarf/simfs/adapters"
	"github.com/brettbedarf/simfs/config"
	"github.com/brettbedarf/simfs/internal/util"
	"github.com/brettbedarf/simfs/requests"
	"github.com/brettbedarf/simfs/server"
	"github.com/spf13/cobra"
)

func newSeedCmd(cfg func() *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <file>",
		Short: "Create the directories and files listed in a YAML or JSON seed file",
		Long: `Apply a seed file to the persisted tree. Existing nodes are left untouched,
so a seed can be applied repeatedly. File content comes from inline text or
from sources (inline, file, http) tried in priority order.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			logger := util.GetLogger("main")
			seed, err := requests.LoadSeedFile(args[0], adapters.Default())
			if err != nil {
				return err
			}
			logger.Debug().Int("dirs", len(seed.Dirs)).Int("files", len(seed.Files)).Msg("Seed loaded")

			fs, err := server.New(cfg())
			if err != nil {
				return err
			}
			defer func() {
				err = errors.Join(err, fs.Close())
			}()

			res, err := requests.Apply(cmd.Context(), fs, seed)
			fmt.Fprintf(cmd.OutOrStdout(), "created %d, skipped %d\n", res.Created, res.Skipped)
			return err
		},
	}
}
