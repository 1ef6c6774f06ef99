// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the docling-service CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/docling-service/internal/config"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the docling-service CLI.
var rootCmd = &cobra.Command{
	Use:   "docling-service",
	Short: "PDF to Markdown conversion service",
	Long: `docling-service converts PDF documents to Markdown. The serve subcommand
exposes conversion over HTTP behind an API key; the convert subcommand runs the
same backends over files on disk.

Settings come from flags, then environment variables (PORT, WORKERS,
MAX_FILE_SIZE, DOCLING_SERVICE_API_KEY, ...), then docling-service.yaml.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return config.Bind(viper.GetViper())
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./docling-service.yaml or ~/.config/docling-service/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("docling-service")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "docling-service"))
		}
	}

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
