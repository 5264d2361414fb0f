// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the docharvest CLI.
package main

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/docharvest/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// logger writes human-readable diagnostics to stderr. Results go to stdout.
	logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger()

	// loadedSecrets holds credentials read from .secrets/ at startup.
	loadedSecrets *secrets.Store
)

var rootCmd = &cobra.Command{
	Use:   "docharvest",
	Short: "Download PDFs, repair damaged ones, and highlight search terms",
	Long: `docharvest fetches a batch of PDF URLs concurrently, checks that each
download is a structurally sound PDF, makes one repair attempt on damaged
files, and writes a copy with every occurrence of the search terms
highlighted.

Every URL gets an outcome; one bad document never stops the batch.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := zerolog.ParseLevel(viper.GetString("log.level"))
		if err != nil {
			return err
		}
		logger = logger.Level(level)
		if f := viper.ConfigFileUsed(); f != "" {
			logger.Debug().Str("file", f).Msg("using config file")
		}

		s, err := secrets.Load(viper.GetString("secrets_dir"))
		if err != nil {
			return err
		}
		loadedSecrets = s
		if keys := s.Keys(); len(keys) > 0 {
			logger.Debug().Strs("keys", keys).Msg("loaded secrets")
		}
		for _, name := range s.Unreadable {
			logger.Warn().Str("secret", name).Msg("could not read secret")
		}
		for _, name := range s.Exposed {
			logger.Warn().Str("secret", name).Msg("secret file is readable by other users")
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./docharvest.yaml or ~/.config/docharvest/docharvest.yaml)")
	pf.String("log-level", "info", "log level (debug, info, warn, error)")
	pf.String("secrets-dir", ".secrets", "directory of secret files")
	pf.String("ledger", "", "SQLite run ledger (empty disables recording)")

	viper.BindPFlag("log.level", pf.Lookup("log-level"))
	viper.BindPFlag("secrets_dir", pf.Lookup("secrets-dir"))
	viper.BindPFlag("ledger.path", pf.Lookup("ledger"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("docharvest")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "docharvest"))
		}
	}

	viper.SetEnvPrefix("DOCHARVEST")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, missing := err.(viper.ConfigFileNotFoundError); !missing {
			logger.Warn().Err(err).Msg("ignoring config file")
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
