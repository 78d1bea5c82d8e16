// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/OscarGarciaF/SB-publications/pkg/types"
)

// BatchResult holds the outcome of one batch run.
type BatchResult struct {
	Requested  int
	Downloaded int
	Skipped    int
	Failed     int

	// Missing lists the failed PMCIDs in completion order; the ledger
	// reproduces it.
	Missing []string

	// Results holds one entry per identifier, skips included.
	Results []Result

	// LedgerPath is where the run ledger was written, empty if the
	// write failed.
	LedgerPath string
}

// Succeeded counts identifiers whose output file exists, whether it was
// downloaded this run or earlier.
func (r BatchResult) Succeeded() int {
	return r.Downloaded + r.Skipped
}

// HasFailures reports whether any article failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// Run drives the full pipeline over ids: identifiers already satisfied
// on disk are counted without submitting work, the rest are dispatched
// across a bounded worker pool, and the run ledger is written
// unconditionally at the end. Per-identifier failures, worker panics
// included, never abort the batch; only an unusable output directory is
// fatal.
func Run(ctx context.Context, f *Fetcher, ids []string, w io.Writer) (BatchResult, error) {
	if w == nil {
		w = io.Discard
	}
	if err := os.MkdirAll(f.cfg.OutputDir, 0o755); err != nil {
		return BatchResult{}, fmt.Errorf("creating output directory %s: %w", f.cfg.OutputDir, err)
	}

	result := BatchResult{Requested: len(ids)}

	// Pre-satisfied identifiers are counted up front; input order is
	// preserved so the skip set is reproducible run to run.
	var toProcess []string
	for _, id := range ids {
		if f.Satisfied(id) {
			fmt.Fprintf(w, "[%s] skipped (already downloaded)\n", id)
			result.Skipped++
			result.Results = append(result.Results, Result{PMCID: id, Status: types.StatusSkipped})
			if f.rep != nil {
				f.rep.ArticleDone(false)
			}
			continue
		}
		toProcess = append(toProcess, id)
	}

	if len(toProcess) > 0 {
		workers := f.cfg.MaxConcurrent
		if workers <= 0 {
			workers = types.DefaultMaxConcurrent
		}

		jobs := make(chan string)
		outcomes := make(chan Result)

		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for id := range jobs {
					outcomes <- f.processSafe(ctx, id)
				}
			}()
		}

		go func() {
			defer close(jobs)
			for _, id := range toProcess {
				select {
				case jobs <- id:
				case <-ctx.Done():
					return
				}
			}
		}()

		go func() {
			wg.Wait()
			close(outcomes)
		}()

		for res := range outcomes {
			switch res.Status {
			case types.StatusDownloaded:
				result.Downloaded++
			case types.StatusSkipped:
				result.Skipped++
			default:
				result.Failed++
				result.Missing = append(result.Missing, res.PMCID)
			}
			result.Results = append(result.Results, res)
			if f.rep != nil {
				f.rep.ArticleDone(res.Status == types.StatusFailed)
			}
		}
	}

	path, err := WriteLedger(f.cfg.OutputDir, result.Requested, result.Succeeded(), result.Failed, result.Missing, time.Now())
	if err != nil {
		fmt.Fprintf(w, "failed to write missing PMCIDs file: %v\n", err)
	} else {
		result.LedgerPath = path
	}

	return result, nil
}

// processSafe confines a worker's unexpected failure to its own
// identifier.
func (f *Fetcher) processSafe(ctx context.Context, id string) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(f.w, "[%s] exception in worker: %v\n", id, r)
			res = Result{PMCID: id, Status: types.StatusFailed, Err: fmt.Errorf("worker panic: %v", r)}
		}
	}()
	return f.Process(ctx, id)
}
