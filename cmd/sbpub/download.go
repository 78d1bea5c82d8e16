// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/OscarGarciaF/SB-publications/internal/catalog"
	"github.com/OscarGarciaF/SB-publications/internal/fetch"
	"github.com/OscarGarciaF/SB-publications/internal/manifest"
	"github.com/OscarGarciaF/SB-publications/internal/oa"
	"github.com/OscarGarciaF/SB-publications/internal/progress"
	"github.com/OscarGarciaF/SB-publications/pkg/types"
)

// defaultCSV is the publication table shipped with the corpus.
const defaultCSV = "SB_publication_PMC.csv"

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download open-access PDFs for all PMCIDs in the publication table",
	Long: `Download reads PMCIDs from the publication table, resolves each through
the NCBI OA service, and saves <PMCID>.pdf files into the output directory.
Articles already present are skipped, so interrupted runs can simply be
restarted. Identifiers that could not be retrieved are written to
missing_pmcids.txt in the output directory.`,
	RunE: runDownload,
}

func init() {
	downloadCmd.Flags().String("csv", defaultCSV, "publication table with PMC links")
	downloadCmd.Flags().String("output-dir", types.DefaultOutputDir, "directory for downloaded PDFs")
	downloadCmd.Flags().Int("workers", types.DefaultMaxConcurrent, "number of concurrent downloads")
	downloadCmd.Flags().Int("retries", types.DefaultMaxRetries, "attempts per HTTP request")
	downloadCmd.Flags().Duration("retry-delay", types.DefaultRetryDelay, "pause between retry attempts")
	downloadCmd.Flags().String("email", "", "contact email sent to the NCBI OA service")

	rootCmd.AddCommand(downloadCmd)
}

func runDownload(cmd *cobra.Command, args []string) error {
	csvPath, _ := cmd.Flags().GetString("csv")
	outputDir, _ := cmd.Flags().GetString("output-dir")
	workers, _ := cmd.Flags().GetInt("workers")
	retries, _ := cmd.Flags().GetInt("retries")
	retryDelay, _ := cmd.Flags().GetDuration("retry-delay")
	email, _ := cmd.Flags().GetString("email")

	ids, err := manifest.LoadIDs(csvPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "Publication table not found: %s\n", csvPath)
			fmt.Fprintln(os.Stderr, "Nothing to download.")
			return nil
		}
		return err
	}
	if len(ids) == 0 {
		fmt.Fprintln(os.Stderr, "No PMCIDs found in the publication table.")
		return nil
	}
	fmt.Printf("Found %d unique PMCIDs in %s\n", len(ids), csvPath)

	cfg := types.DefaultFetchConfig()
	cfg.OutputDir = outputDir
	cfg.MaxConcurrent = workers
	cfg.MaxRetries = retries
	cfg.RetryDelay = retryDelay
	if email != "" {
		cfg.Email = email
	}

	// Per-request deadlines come from the fetch config; a client-level
	// timeout would cap slow archive transfers too early.
	client := &http.Client{}

	rep := progress.NewReporter(progress.Options{
		TotalArticles:  len(ids),
		Output:         os.Stderr,
		UpdateInterval: time.Second,
	})
	rep.Start()

	f := fetch.New(client, oa.NewClient(client, cfg), cfg, os.Stdout, rep)
	result, err := fetch.Run(cmd.Context(), f, ids, os.Stdout)
	rep.Stop()
	if err != nil {
		return err
	}

	recordBatch(cmd.Context(), csvPath, outputDir, result)

	fmt.Printf("Done. Success: %d | Failed: %d | Output: %s\n",
		result.Succeeded(), result.Failed, outputDir)
	if result.HasFailures() {
		fmt.Printf("Missing identifiers written to %s\n", result.LedgerPath)
	}
	return nil
}

// recordBatch writes per-article outcomes into the catalog database.
// Catalog failures are reported but never fail the download run.
func recordBatch(ctx context.Context, csvPath, outputDir string, result fetch.BatchResult) {
	store, err := catalog.Open(filepath.Join(outputDir, catalog.DBName))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not open catalog: %v\n", err)
		return
	}
	defer store.Close()

	labels, err := manifest.LoadLabels(csvPath)
	if err != nil {
		labels = nil
	}

	now := time.Now()
	for _, r := range result.Results {
		a := types.Article{
			PMCID:     r.PMCID,
			SourceURL: r.SourceURL,
			Route:     r.Route,
			SizeBytes: r.Bytes,
			Status:    r.Status,
			FetchedAt: now,
		}
		if labels != nil {
			a.Title = labels.Resolve(r.PMCID)
		}
		if err := store.Record(ctx, a); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: catalog record for %s: %v\n", r.PMCID, err)
		}
	}
}
