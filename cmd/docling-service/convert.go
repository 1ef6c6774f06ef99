// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/docling-service/internal/config"
	"github.com/pdiddy/docling-service/internal/convert"
)

var convertCmd = &cobra.Command{
	Use:   "convert [files or directories...]",
	Short: "Convert PDF files on disk to Markdown",
	Long: `Convert runs the configured backend (native, container, or docling) over
PDF files and writes <out-dir>/<name>.md with YAML frontmatter. Directories
are expanded to the PDFs they contain. Files whose Markdown already exists
are skipped.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := viper.BindPFlag(config.KeyBackend, cmd.Flags().Lookup("backend")); err != nil {
			return err
		}
		outDir, _ := cmd.Flags().GetString("out-dir")

		paths, err := collectPDFs(args)
		if err != nil {
			return err
		}
		if len(paths) == 0 {
			return fmt.Errorf("no PDF files found in %s", strings.Join(args, ", "))
		}

		cfg := config.Conversion(viper.GetViper())
		conv, err := convert.New(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("starting converter: %w", err)
		}

		batch := convert.Batch{
			Converter: convert.WithTimeout(conv, viper.GetDuration(config.KeyConversionTimeout)),
			Backend:   cfg.Backend,
			OutDir:    outDir,
			Log:       os.Stdout,
		}
		result := batch.ConvertPaths(cmd.Context(), paths)
		if result.HasFailures() {
			return fmt.Errorf("%d of %d documents failed", result.Failed, result.Total())
		}
		return nil
	},
}

// collectPDFs expands directory arguments to the PDFs inside them, sorted.
func collectPDFs(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, err
		}
		var found []string
		for _, e := range entries {
			if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
				found = append(found, filepath.Join(arg, e.Name()))
			}
		}
		sort.Strings(found)
		paths = append(paths, found...)
	}
	return paths, nil
}

func init() {
	convertCmd.Flags().String("backend", "native", "conversion backend: native, container, or docling")
	convertCmd.Flags().String("out-dir", "markdown", "directory for converted Markdown files")

	rootCmd.AddCommand(convertCmd)
}
