// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/OscarGarciaF/SB-publications/internal/catalog"
	"github.com/OscarGarciaF/SB-publications/pkg/types"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Summarize the fetch catalog",
	Long: `Status reads the catalog database written by download runs and prints
how many articles are downloaded, skipped, and failed, plus the failed
identifiers. With --export it also writes the full catalog as YAML.`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().String("output-dir", types.DefaultOutputDir, "directory holding the catalog database")
	statusCmd.Flags().String("export", "", "write the full catalog to this YAML file")

	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	outputDir, _ := cmd.Flags().GetString("output-dir")
	exportPath, _ := cmd.Flags().GetString("export")

	dbPath := filepath.Join(outputDir, catalog.DBName)
	if _, err := os.Stat(dbPath); errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "No catalog at %s. Run `sbpub download` first.\n", dbPath)
		return nil
	}

	store, err := catalog.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()
	counts, err := store.Summary(ctx)
	if err != nil {
		return err
	}

	total := 0
	for _, n := range counts {
		total += n
	}
	fmt.Printf("Catalog: %s\n", dbPath)
	fmt.Printf("  Articles:   %d\n", total)
	fmt.Printf("  Downloaded: %d\n", counts[types.StatusDownloaded])
	fmt.Printf("  Skipped:    %d\n", counts[types.StatusSkipped])
	fmt.Printf("  Failed:     %d\n", counts[types.StatusFailed])

	if counts[types.StatusFailed] > 0 {
		failed, err := store.List(ctx, types.StatusFailed)
		if err != nil {
			return err
		}
		fmt.Println("Failed identifiers:")
		for _, a := range failed {
			fmt.Printf("  %s\n", a.PMCID)
		}
	}

	if exportPath != "" {
		if err := store.ExportYAML(ctx, exportPath); err != nil {
			return err
		}
		fmt.Printf("Catalog exported to %s\n", exportPath)
	}
	return nil
}
