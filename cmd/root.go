package main

import (
	"fmt"
	"os"

	"github.com/brettbedarf/simfs/config"
	"github.com/brettbedarf/simfs/internal/util"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// EnvPrefix prefixes every environment override, e.g. SIMFS_DATA_DIR
const EnvPrefix = "SIMFS"

type rootOptions struct {
	configPath string
	verbose    int
	dataDir    string
	inMemory   bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	var cfg *config.Config

	cmd := &cobra.Command{
		Use:   "simfs",
		Short: "A simulated hierarchical file system with a journal and snapshots",
		Long: `simfs keeps a tree of directories and text files in memory, records every
change in an append-only journal and writes a snapshot of the whole tree after
each change. Run it as an interactive shell, mount it read-only through FUSE,
or pre-populate it from a seed file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			util.InitializeLogger(cfg.LogLvl)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShell(cmd, cfg)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "Path to a YAML or JSON config file")
	flags.IntVarP(&opts.verbose, "verbose", "v", config.InfoVerbose, "Log verbosity between 1 (error) and 5 (trace)")
	flags.StringVar(&opts.dataDir, "data-dir", "", "Directory holding the snapshot and journal")
	flags.BoolVar(&opts.inMemory, "in-memory", false, "Keep everything in memory and discard the journal")

	cfgFn := func() *config.Config { return cfg }
	cmd.AddCommand(
		newShellCmd(cfgFn),
		newMountCmd(cfgFn),
		newSeedCmd(cfgFn),
		newJournalCmd(cfgFn),
		newVersionCmd(),
	)
	return cmd
}

// loadConfig layers defaults, the config file, a .env file plus the
// environment and finally explicitly set flags
func loadConfig(cmd *cobra.Command, opts *rootOptions) (*config.Config, error) {
	logger := util.GetLogger("main")
	cfg := config.NewDefaultConfig()

	if opts.configPath != "" {
		override, err := config.LoadConfigOverrideFile(opts.configPath)
		if err != nil {
			return nil, fmt.Errorf("config file %s: %w", opts.configPath, err)
		}
		cfg.Merge(override)
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Warn().Err(err).Msg("Ignoring unreadable .env file")
	}
	envOverride, err := config.LoadEnvOverride(EnvPrefix)
	if err != nil {
		return nil, err
	}
	cfg.Merge(envOverride)

	flags := cmd.Flags()
	override := &config.ConfigOverride{}
	if flags.Changed("verbose") {
		override.LogLvl = &opts.verbose
	}
	if flags.Changed("data-dir") {
		override.DataDir = &opts.dataDir
	}
	if flags.Changed("in-memory") {
		override.InMemory = &opts.inMemory
	}
	cfg.Merge(override)

	return cfg, cfg.Validate()
}

// Execute runs the root command against os.Args
func Execute() error {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	return nil
}
