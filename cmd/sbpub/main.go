// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the sbpub CLI: bulk retrieval of
// open-access PDFs from PubMed Central for the Space Biology
// publication corpus.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the sbpub CLI.
var rootCmd = &cobra.Command{
	Use:   "sbpub",
	Short: "Bulk retrieval of open-access PDFs from PubMed Central",
	Long: `sbpub downloads the full-text PDFs of the Space Biology publication
corpus from the PubMed Central open-access subset. It reads PMCIDs from a
publication table (CSV), resolves each through the NCBI OA service, and
downloads either the direct PDF or the largest PDF inside the OA package.

Runs are resumable: articles already on disk are skipped, and identifiers
that could not be retrieved are written to a ledger for the next attempt.`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./sbpub.yaml or ~/.config/sbpub/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("sbpub")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "sbpub"))
		}
	}

	viper.SetEnvPrefix("SBPUB")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
