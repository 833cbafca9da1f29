package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/brettbedarf/simfs/internal/util"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Snapshot compression codecs
const (
	CompressionNone = "none"
	CompressionGzip = "gzip"
	CompressionZstd = "zstd"
)

// CLI verbosity values accepted by [ConfigOverride.LogLvl]
const (
	ErrorVerbose = iota + 1
	WarnVerbose
	InfoVerbose
	DebugVerbose
	TraceVerbose
)

// Default configuration constants. See [Config] for field descriptions.
const (
	DefaultLogLvl = util.InfoLevel

	DefaultDataDir      = "."
	DefaultSnapshotFile = "filesystem.dat"
	DefaultJournalFile  = "journal.log"
	DefaultCompression  = CompressionZstd

	DefaultFsName = "simfs"
	DefaultName   = "simfs"

	// DefaultAttrTimeout is the attribute cache timeout in seconds
	DefaultAttrTimeout = 1.0

	// DefaultEntryTimeout is the directory entry cache timeout in seconds
	DefaultEntryTimeout = 1.0
)

// Config contains runtime configuration values for the simulator.
type Config struct {
	MountOptions
	LogLvl util.LogLevel

	DataDir      string // Directory holding the snapshot and journal (Default ".")
	SnapshotFile string // Snapshot file name relative to DataDir (Default "filesystem.dat")
	JournalFile  string // Journal file name relative to DataDir (Default "journal.log")
	Compression  string // Snapshot codec: none, gzip or zstd (Default zstd)
	InMemory     bool   // Keep snapshots in memory and discard the journal (Default false)
	MetricsAddr  string // Listen address for the prometheus endpoint; empty disables it

	AttrTimeout  float64 // Mount attribute cache timeout in seconds (Default 1.0)
	EntryTimeout float64 // Mount directory entry cache timeout in seconds (Default 1.0)
}

// SnapshotPath returns the full path of the snapshot file
func (c *Config) SnapshotPath() string {
	return filepath.Join(c.DataDir, c.SnapshotFile)
}

// JournalPath returns the full path of the journal file
func (c *Config) JournalPath() string {
	return filepath.Join(c.DataDir, c.JournalFile)
}

// Validate reports configuration values that cannot be used
func (c *Config) Validate() error {
	switch c.Compression {
	case CompressionNone, CompressionGzip, CompressionZstd:
	default:
		return fmt.Errorf("unknown snapshot compression: %q", c.Compression)
	}
	if !c.InMemory && (c.SnapshotFile == "" || c.JournalFile == "") {
		return fmt.Errorf("snapshot and journal file names are required")
	}
	return nil
}

// ConfigOverride uses pointer fields to distinguish between unset and zero values
// when loading partial configuration. See [Config] for field descriptions.
type ConfigOverride struct {
	LogLvl       *int     `yaml:"verbose,omitempty" json:"verbose,omitempty" envconfig:"VERBOSE"` // CLI verbosity 1 (error) to 5 (trace)
	DataDir      *string  `yaml:"data_dir,omitempty" json:"data_dir,omitempty" envconfig:"DATA_DIR"`
	SnapshotFile *string  `yaml:"snapshot_file,omitempty" json:"snapshot_file,omitempty" envconfig:"SNAPSHOT_FILE"`
	JournalFile  *string  `yaml:"journal_file,omitempty" json:"journal_file,omitempty" envconfig:"JOURNAL_FILE"`
	Compression  *string  `yaml:"compression,omitempty" json:"compression,omitempty" envconfig:"COMPRESSION"`
	InMemory     *bool    `yaml:"in_memory,omitempty" json:"in_memory,omitempty" envconfig:"IN_MEMORY"`
	MetricsAddr  *string  `yaml:"metrics_addr,omitempty" json:"metrics_addr,omitempty" envconfig:"METRICS_ADDR"`
	AttrTimeout  *float64 `yaml:"attr_timeout,omitempty" json:"attr_timeout,omitempty" envconfig:"ATTR_TIMEOUT"`
	EntryTimeout *float64 `yaml:"entry_timeout,omitempty" json:"entry_timeout,omitempty" envconfig:"ENTRY_TIMEOUT"`
	FsName       *string  `yaml:"fs_name,omitempty" json:"fs_name,omitempty" envconfig:"FS_NAME"`
	Name         *string  `yaml:"name,omitempty" json:"name,omitempty" envconfig:"NAME"`
	Debug        *bool    `yaml:"debug,omitempty" json:"debug,omitempty" envconfig:"DEBUG"`
}

// NewDefaultConfig creates a new Config with all default values.
func NewDefaultConfig() *Config {
	return &Config{
		MountOptions: MountOptions{
			FsName: DefaultFsName,
			Name:   DefaultName,
		},
		LogLvl:       DefaultLogLvl,
		DataDir:      DefaultDataDir,
		SnapshotFile: DefaultSnapshotFile,
		JournalFile:  DefaultJournalFile,
		Compression:  DefaultCompression,
		AttrTimeout:  DefaultAttrTimeout,
		EntryTimeout: DefaultEntryTimeout,
	}
}

// NewConfig returns the defaults with override applied; a nil override
// yields the defaults unchanged
func NewConfig(override *ConfigOverride) *Config {
	cfg := NewDefaultConfig()
	if override != nil {
		cfg.Merge(override)
	}
	return cfg
}

// Merge applies non-nil values from override onto this Config.
// This allows partial configuration updates while preserving existing values.
func (c *Config) Merge(override *ConfigOverride) {
	if override.LogLvl != nil {
		c.LogLvl = VerboseToLogLevel(*override.LogLvl)
	}
	if override.DataDir != nil {
		c.DataDir = *override.DataDir
	}
	if override.SnapshotFile != nil {
		c.SnapshotFile = *override.SnapshotFile
	}
	if override.JournalFile != nil {
		c.JournalFile = *override.JournalFile
	}
	if override.Compression != nil {
		c.Compression = strings.ToLower(*override.Compression)
	}
	if override.InMemory != nil {
		c.InMemory = *override.InMemory
	}
	if override.MetricsAddr != nil {
		c.MetricsAddr = *override.MetricsAddr
	}
	if override.AttrTimeout != nil {
		c.AttrTimeout = *override.AttrTimeout
	}
	if override.EntryTimeout != nil {
		c.EntryTimeout = *override.EntryTimeout
	}
	if override.FsName != nil {
		c.FsName = *override.FsName
	}
	if override.Name != nil {
		c.Name = *override.Name
	}
	if override.Debug != nil {
		c.Debug = *override.Debug
	}
}

// VerboseToLogLevel maps CLI verbosity (1 error .. 5 trace) to a log level,
// clamping out of range values
func VerboseToLogLevel(verbose int) util.LogLevel {
	verbose = max(ErrorVerbose, min(TraceVerbose, verbose))
	logLvls := [5]util.LogLevel{util.ErrorLevel, util.WarnLevel, util.InfoLevel, util.DebugLevel, util.TraceLevel}
	return logLvls[verbose-1]
}

// LoadConfigOverrideFile loads configuration overrides from a file without merging.
// Supports both YAML (.yaml, .yml) and JSON (.json) formats.
func LoadConfigOverrideFile(path string) (*ConfigOverride, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var override ConfigOverride

	// Determine format by file extension
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &override); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config file: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &override); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config file: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown config file extension: %s", path)
	}

	return &override, nil
}

// LoadEnvOverride reads overrides from environment variables named
// <prefix>_<KEY>, e.g. SIMFS_DATA_DIR. Unset variables leave fields nil.
func LoadEnvOverride(prefix string) (*ConfigOverride, error) {
	var override ConfigOverride
	if err := envconfig.Process(prefix, &override); err != nil {
		return nil, fmt.Errorf("failed to load env config: %w", err)
	}
	return &override, nil
}

// NewConfigFromFile creates a new Config by merging file overrides with defaults.
// This is a convenience function that combines NewDefaultConfig, LoadConfigOverrideFile, and Merge.
func NewConfigFromFile(path string) (*Config, error) {
	cfg := NewDefaultConfig()
	override, err := LoadConfigOverrideFile(path)
	if err != nil {
		return nil, err
	}
	cfg.Merge(override)
	return cfg, nil
}
