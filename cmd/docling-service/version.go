// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/docling-service/pkg/api"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of docling-service",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("docling-service %s (api %s)\n", version, api.ServiceVersion)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
