package config

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	ConfigDataPath     = "data-path"
	ConfigSessionStore = "session-store"
	ConfigBranching    = "branching"
	ConfigGraftPolicy  = "graft-policy"
	ConfigCheckMode    = "check-mode"
	ConfigSuits        = "suits"
	ConfigRanks        = "ranks"
	ConfigColumns      = "columns"
	ConfigCells        = "cells"
	ConfigDebug        = "debug"
	ConfigCPUProfile   = "cpu-profile"
	ConfigFile         = "config-file"
)

const envPrefix = "BRAINJAM"

type Config struct {
	*viper.Viper
	// Args are the command-line arguments left over after flags.
	Args []string
}

func defaults(v *viper.Viper) {
	v.SetDefault(ConfigDataPath, "./data/sessions")
	v.SetDefault(ConfigSessionStore, "file")
	v.SetDefault(ConfigBranching, true)
	v.SetDefault(ConfigGraftPolicy, "copy")
	v.SetDefault(ConfigCheckMode, "check")
	v.SetDefault(ConfigSuits, 4)
	v.SetDefault(ConfigRanks, 7)
	v.SetDefault(ConfigColumns, 6)
	v.SetDefault(ConfigCells, 2)
	v.SetDefault(ConfigDebug, false)
}

// DefaultConfig returns a config with every setting at its default. It is
// mostly useful for tests.
func DefaultConfig() *Config {
	v := viper.New()
	defaults(v)
	return &Config{Viper: v}
}

// Load reads settings from, in increasing order of precedence: defaults, a
// YAML config file, BRAINJAM_* environment variables, and args.
func (c *Config) Load(args []string) error {
	c.Viper = viper.New()
	defaults(c.Viper)

	fs := pflag.NewFlagSet("brainjam", pflag.ContinueOnError)
	fs.String(ConfigDataPath, "./data/sessions", "directory holding saved sessions")
	fs.String(ConfigSessionStore, "file", "where sessions are kept: file, sqlite or badger")
	fs.Bool(ConfigBranching, true, "keep alternative lines instead of replacing them")
	fs.String(ConfigGraftPolicy, "copy", "what to do on reaching a known layout: copy or graft")
	fs.String(ConfigCheckMode, "check", "when to update better-position links: check, later or none")
	fs.Int(ConfigSuits, 4, "number of suits")
	fs.Int(ConfigRanks, 7, "number of ranks per suit")
	fs.Int(ConfigColumns, 6, "number of tableau columns")
	fs.Int(ConfigCells, 2, "number of free cells")
	fs.Bool(ConfigDebug, false, "debug logging on")
	fs.String(ConfigCPUProfile, "", "file to write a CPU profile to")
	fs.String(ConfigFile, "", "YAML config file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	c.Args = fs.Args()
	if err := c.BindPFlags(fs); err != nil {
		return err
	}

	c.SetEnvPrefix(envPrefix)
	c.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.AutomaticEnv()

	if f := c.GetString(ConfigFile); f != "" {
		c.SetConfigFile(f)
		c.SetConfigType("yaml")
		if err := c.ReadInConfig(); err != nil {
			return err
		}
		log.Debug().Str("file", f).Msg("read-config-file")
	}
	return nil
}

// Write saves the current settings to the config file, or to brainjam.yaml
// in the data directory if no config file was named.
func (c *Config) Write() error {
	if c.Viper == nil {
		return errors.New("config not loaded")
	}
	f := c.GetString(ConfigFile)
	if f == "" {
		f = filepath.Join(c.GetString(ConfigDataPath), "brainjam.yaml")
	}
	c.SetConfigType("yaml")
	return c.WriteConfigAs(f)
}

// AdjustRelativePaths makes relative paths relative to basedir, normally
// the directory holding the executable.
func (c *Config) AdjustRelativePaths(basedir string) {
	for _, key := range []string{ConfigDataPath} {
		p := c.GetString(key)
		if p != "" && !filepath.IsAbs(p) {
			c.Set(key, filepath.Join(basedir, p))
		}
	}
}

// SanitizedSettings is every setting, for logging.
func (c *Config) SanitizedSettings() map[string]any {
	return c.AllSettings()
}
