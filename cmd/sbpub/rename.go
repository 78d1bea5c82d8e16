// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/OscarGarciaF/SB-publications/internal/manifest"
	"github.com/OscarGarciaF/SB-publications/internal/rename"
	"github.com/OscarGarciaF/SB-publications/pkg/types"
)

var renameCmd = &cobra.Command{
	Use:   "rename",
	Short: "Copy downloaded PDFs under their article titles",
	Long: `Rename copies <PMCID>.pdf files into a second directory named after the
article titles from the publication table. Titles are sanitized for the
filesystem and collisions get a numeric suffix. The PMCID-named originals
are left in place.`,
	RunE: runRename,
}

func init() {
	renameCmd.Flags().String("csv", defaultCSV, "publication table with titles and PMC links")
	renameCmd.Flags().String("pdf-dir", types.DefaultOutputDir, "directory holding <PMCID>.pdf files")
	renameCmd.Flags().String("out-dir", "named_pdfs", "destination directory for titled copies")
	renameCmd.Flags().Bool("dry-run", false, "print intended copies without writing anything")

	rootCmd.AddCommand(renameCmd)
}

func runRename(cmd *cobra.Command, args []string) error {
	var cfg types.RenameConfig
	cfg.CSVPath, _ = cmd.Flags().GetString("csv")
	cfg.PDFDir, _ = cmd.Flags().GetString("pdf-dir")
	cfg.OutDir, _ = cmd.Flags().GetString("out-dir")
	cfg.DryRun, _ = cmd.Flags().GetBool("dry-run")

	labels, err := manifest.LoadLabels(cfg.CSVPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "Publication table not found: %s\n", cfg.CSVPath)
			return nil
		}
		return err
	}
	if labels.Len() == 0 {
		fmt.Fprintln(os.Stderr, "No PMCIDs found in the publication table.")
		return nil
	}

	s, err := rename.CopyAll(labels, cfg.PDFDir, cfg.OutDir, cfg.DryRun, os.Stdout)
	if err != nil {
		return err
	}

	if cfg.DryRun {
		fmt.Printf("Dry run complete. %d source file(s) missing.\n", len(s.Missing))
		return nil
	}
	fmt.Printf("Copied %d file(s) to %s. Missing sources: %d\n", s.Copied, cfg.OutDir, len(s.Missing))
	return nil
}
