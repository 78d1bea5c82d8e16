// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch downloads open-access PDFs resolved by the OA service,
// preferring the direct link and falling back to the article's archive
// package. It also drives batches of such downloads across a bounded
// worker pool.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/OscarGarciaF/SB-publications/internal/httputil"
	"github.com/OscarGarciaF/SB-publications/internal/oa"
	"github.com/OscarGarciaF/SB-publications/internal/progress"
	"github.com/OscarGarciaF/SB-publications/pkg/types"
)

// copyChunk is the streaming copy buffer size.
const copyChunk = 1 << 20

// Terminal per-article failure kinds. Neither is retried: the OA
// service said everything it had to say.
var (
	// ErrNotOpenAccess means resolution produced no delivery location.
	ErrNotOpenAccess = errors.New("no OA PDF or TGZ available (not in open-access subset)")

	// ErrNoPDFInArchive means the archive was fetched but contains no
	// PDF member.
	ErrNoPDFInArchive = errors.New("no PDF found inside archive")
)

// Resolver translates one PMCID into candidate delivery locations.
// *oa.Client implements it; tests substitute stubs.
type Resolver interface {
	Resolve(ctx context.Context, id string) (oa.Links, error)
}

// Result is the typed outcome of one article's pipeline run.
type Result struct {
	PMCID     string
	Status    types.FetchStatus
	Route     types.FetchRoute
	SourceURL string
	Bytes     int64
	Err       error
}

// Fetcher executes the per-article resolve-then-retrieve pipeline.
// The HTTP client is shared across workers; its connection pool must be
// (and is, for *http.Client) safe for concurrent use.
type Fetcher struct {
	client   *http.Client
	resolver Resolver
	cfg      types.FetchConfig
	w        io.Writer
	rep      *progress.Reporter
}

// New returns a Fetcher. w receives per-article status lines and may be
// nil; rep receives byte/article progress and may be nil.
func New(client *http.Client, resolver Resolver, cfg types.FetchConfig, w io.Writer, rep *progress.Reporter) *Fetcher {
	if w == nil {
		w = io.Discard
	}
	return &Fetcher{client: client, resolver: resolver, cfg: cfg, w: w, rep: rep}
}

// OutputPath returns the final on-disk location for one article.
func (f *Fetcher) OutputPath(id string) string {
	return filepath.Join(f.cfg.OutputDir, id+".pdf")
}

// Satisfied reports whether a non-empty output file already exists for
// id. Size is the only check: a truncated non-empty file passes, a
// known gap kept from the original behavior.
func (f *Fetcher) Satisfied(id string) bool {
	info, err := os.Stat(f.OutputPath(id))
	return err == nil && info.Size() > 0
}

// Process runs the full pipeline for one identifier: skip check,
// resolution, retrieval. Failures are returned in the Result, never
// panicked or escalated.
func (f *Fetcher) Process(ctx context.Context, id string) Result {
	if f.Satisfied(id) {
		fmt.Fprintf(f.w, "[%s] skipped (already downloaded)\n", id)
		return Result{PMCID: id, Status: types.StatusSkipped}
	}

	links, err := f.resolver.Resolve(ctx, id)
	if err != nil {
		fmt.Fprintf(f.w, "[%s] OA API error: %v\n", id, err)
		return Result{PMCID: id, Status: types.StatusFailed, Err: err}
	}

	return f.FetchArticle(ctx, id, links)
}

// FetchArticle retrieves one article given its resolved delivery
// locations, in priority order: existing file, direct PDF link, archive
// package. A failed direct download falls through to the archive route
// rather than aborting.
func (f *Fetcher) FetchArticle(ctx context.Context, id string, links oa.Links) Result {
	outPath := f.OutputPath(id)

	if f.Satisfied(id) {
		fmt.Fprintf(f.w, "[%s] skipped (already downloaded)\n", id)
		return Result{PMCID: id, Status: types.StatusSkipped}
	}

	if links.PDF != "" {
		n, err := f.downloadFile(ctx, links.PDF, outPath, f.cfg.PDFTimeout)
		if err == nil {
			fmt.Fprintf(f.w, "[%s] downloaded PDF via direct link\n", id)
			return Result{PMCID: id, Status: types.StatusDownloaded, Route: types.RoutePDF, SourceURL: links.PDF, Bytes: n}
		}
		// The archive route may still succeed.
		fmt.Fprintf(f.w, "[%s] failed direct PDF download: %v\n", id, err)
	}

	if links.TGZ != "" {
		n, err := f.fetchFromArchive(ctx, id, links.TGZ, outPath)
		if err != nil {
			fmt.Fprintf(f.w, "[%s] TGZ download/extract error: %v\n", id, err)
			removeIfEmpty(outPath)
			return Result{PMCID: id, Status: types.StatusFailed, Route: types.RouteTGZ, SourceURL: links.TGZ, Err: err}
		}
		fmt.Fprintf(f.w, "[%s] extracted PDF from TGZ\n", id)
		return Result{PMCID: id, Status: types.StatusDownloaded, Route: types.RouteTGZ, SourceURL: links.TGZ, Bytes: n}
	}

	fmt.Fprintf(f.w, "[%s] %v\n", id, ErrNotOpenAccess)
	return Result{PMCID: id, Status: types.StatusFailed, Err: ErrNotOpenAccess}
}

// downloadFile streams url to destPath through a temp file in the same
// directory, renamed only after a complete write. Nothing ever sits at
// destPath in a partially written state. timeout bounds each attempt,
// not the whole retry budget.
func (f *Fetcher) downloadFile(ctx context.Context, url, destPath string, timeout time.Duration) (int64, error) {
	resp, err := httputil.Get(ctx, f.client, url, f.cfg.UserAgent, f.cfg.MaxRetries, f.cfg.RetryDelay, timeout)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	tmp, err := os.CreateTemp(filepath.Dir(destPath), ".sbpub-*.tmp")
	if err != nil {
		return 0, fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	n, copyErr := f.copyBody(tmp, resp.Body)
	closeErr := tmp.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("writing download: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("renaming temp file: %w", err)
	}
	return n, nil
}

// fetchFromArchive downloads the tgz to a scoped temp file, removed on
// all exit paths, and extracts its best PDF member to destPath.
func (f *Fetcher) fetchFromArchive(ctx context.Context, id, url, destPath string) (int64, error) {
	tmp, err := os.CreateTemp("", id+"-*.tar.gz")
	if err != nil {
		return 0, fmt.Errorf("creating archive temp file: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	if _, err := f.downloadFile(ctx, url, tmpPath, f.cfg.TGZTimeout); err != nil {
		return 0, err
	}

	return extractBestPDF(tmpPath, destPath)
}

// copyBody streams src to dst in fixed-size chunks, feeding the
// progress reporter as bytes land.
func (f *Fetcher) copyBody(dst io.Writer, src io.Reader) (int64, error) {
	buf := make([]byte, copyChunk)
	var total int64
	for {
		nr, rerr := src.Read(buf)
		if nr > 0 {
			nw, werr := dst.Write(buf[:nr])
			total += int64(nw)
			if f.rep != nil {
				f.rep.AddBytes(int64(nw))
			}
			if werr != nil {
				return total, werr
			}
			if nw != nr {
				return total, io.ErrShortWrite
			}
		}
		if rerr == io.EOF {
			return total, nil
		}
		if rerr != nil {
			return total, rerr
		}
	}
}

// removeIfEmpty deletes path when a zero-byte file was left behind, so
// a failed run never masquerades as a satisfied one.
func removeIfEmpty(path string) {
	if info, err := os.Stat(path); err == nil && info.Size() == 0 {
		os.Remove(path)
	}
}
