// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/OscarGarciaF/SB-publications/internal/oa"
	"github.com/OscarGarciaF/SB-publications/pkg/types"
)

// routeResolver maps each PMCID to fixed links, and can panic on demand.
type routeResolver struct {
	links map[string]oa.Links
	panic map[string]bool
}

func (r *routeResolver) Resolve(ctx context.Context, id string) (oa.Links, error) {
	if r.panic[id] {
		panic("resolver exploded for " + id)
	}
	return r.links[id], nil
}

func TestRunMixedOutcomes(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, fakePDFContent)
	}))
	defer ts.Close()

	dir := t.TempDir()

	// PMC1 pre-satisfied, PMC2 downloads, PMC3 not open access.
	if err := os.WriteFile(filepath.Join(dir, "PMC1.pdf"), []byte("existing"), 0o644); err != nil {
		t.Fatal(err)
	}

	resolver := &routeResolver{links: map[string]oa.Links{
		"PMC2": {PDF: ts.URL + "/PMC2.pdf"},
		"PMC3": {},
	}}

	var buf bytes.Buffer
	f := New(ts.Client(), resolver, testFetchConfig(dir), &buf, nil)

	result, err := Run(context.Background(), f, []string{"PMC1", "PMC2", "PMC3"}, &buf)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.Requested != 3 {
		t.Errorf("Requested = %d, want 3", result.Requested)
	}
	if result.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", result.Skipped)
	}
	if result.Downloaded != 1 {
		t.Errorf("Downloaded = %d, want 1", result.Downloaded)
	}
	if result.Failed != 1 {
		t.Errorf("Failed = %d, want 1", result.Failed)
	}
	if result.Succeeded() != 2 {
		t.Errorf("Succeeded = %d, want 2", result.Succeeded())
	}
	if len(result.Missing) != 1 || result.Missing[0] != "PMC3" {
		t.Errorf("Missing = %v, want [PMC3]", result.Missing)
	}
	if !result.HasFailures() {
		t.Error("HasFailures should be true")
	}
	if len(result.Results) != 3 {
		t.Errorf("len(Results) = %d, want 3", len(result.Results))
	}

	statuses := make(map[string]types.FetchStatus, len(result.Results))
	for _, r := range result.Results {
		statuses[r.PMCID] = r.Status
	}
	if statuses["PMC1"] != types.StatusSkipped {
		t.Errorf("PMC1 status = %v, want skipped", statuses["PMC1"])
	}
	if statuses["PMC2"] != types.StatusDownloaded {
		t.Errorf("PMC2 status = %v, want downloaded", statuses["PMC2"])
	}
	if statuses["PMC3"] != types.StatusFailed {
		t.Errorf("PMC3 status = %v, want failed", statuses["PMC3"])
	}
}

func TestRunWritesLedgerUnconditionally(t *testing.T) {
	dir := t.TempDir()
	resolver := &routeResolver{links: map[string]oa.Links{}}
	f := New(http.DefaultClient, resolver, testFetchConfig(dir), nil, nil)

	// Empty input: no work, ledger still written.
	result, err := Run(context.Background(), f, nil, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.LedgerPath == "" {
		t.Fatal("LedgerPath empty, ledger must be written even for empty runs")
	}

	data, err := os.ReadFile(result.LedgerPath)
	if err != nil {
		t.Fatalf("reading ledger: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "# Missing PMCIDs - generated:") {
		t.Error("ledger missing generation header")
	}
	if !strings.Contains(content, "# Requested: 0  Succeeded: 0  Failed: 0") {
		t.Errorf("ledger counts wrong: %q", content)
	}
}

func TestRunLedgerCounts(t *testing.T) {
	dir := t.TempDir()

	// Two pre-satisfied, one failure.
	for _, id := range []string{"PMC1", "PMC2"} {
		if err := os.WriteFile(filepath.Join(dir, id+".pdf"), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	resolver := &routeResolver{links: map[string]oa.Links{"PMC3": {}}}
	f := New(http.DefaultClient, resolver, testFetchConfig(dir), nil, nil)

	result, err := Run(context.Background(), f, []string{"PMC1", "PMC2", "PMC3"}, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	data, err := os.ReadFile(result.LedgerPath)
	if err != nil {
		t.Fatalf("reading ledger: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "# Requested: 3  Succeeded: 2  Failed: 1") {
		t.Errorf("ledger counts wrong: %q", content)
	}
	if !strings.Contains(content, "PMC3\n") {
		t.Errorf("ledger should list PMC3: %q", content)
	}
	if strings.Contains(content, "PMC1\n") {
		t.Error("ledger must not list succeeded identifiers")
	}
}

func TestRunLedgerRewrittenEachRun(t *testing.T) {
	dir := t.TempDir()
	resolver := &routeResolver{links: map[string]oa.Links{"PMC9": {}}}
	f := New(http.DefaultClient, resolver, testFetchConfig(dir), nil, nil)

	if _, err := Run(context.Background(), f, []string{"PMC9"}, nil); err != nil {
		t.Fatal(err)
	}
	// Second run over an empty list must truncate, not append.
	result, err := Run(context.Background(), f, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(result.LedgerPath)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "PMC9") {
		t.Error("ledger from prior run leaked into the latest run")
	}
}

func TestRunWorkerPanicBecomesFailure(t *testing.T) {
	dir := t.TempDir()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, fakePDFContent)
	}))
	defer ts.Close()

	resolver := &routeResolver{
		links: map[string]oa.Links{"PMC2": {PDF: ts.URL + "/PMC2.pdf"}},
		panic: map[string]bool{"PMC1": true},
	}
	var buf bytes.Buffer
	f := New(ts.Client(), resolver, testFetchConfig(dir), &buf, nil)

	result, err := Run(context.Background(), f, []string{"PMC1", "PMC2"}, &buf)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Failed != 1 {
		t.Errorf("Failed = %d, want 1 (panic converted)", result.Failed)
	}
	if result.Downloaded != 1 {
		t.Errorf("Downloaded = %d, want 1 (sibling unaffected)", result.Downloaded)
	}
	if !strings.Contains(buf.String(), "exception in worker") {
		t.Error("status output should report the worker exception")
	}
}

func TestRunIdempotentSecondPass(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, fakePDFContent)
	}))
	defer ts.Close()

	dir := t.TempDir()
	ids := []string{"PMC1", "PMC2"}
	resolver := &routeResolver{links: map[string]oa.Links{
		"PMC1": {PDF: ts.URL + "/PMC1.pdf"},
		"PMC2": {PDF: ts.URL + "/PMC2.pdf"},
	}}
	f := New(ts.Client(), resolver, testFetchConfig(dir), nil, nil)

	first, err := Run(context.Background(), f, ids, nil)
	if err != nil {
		t.Fatal(err)
	}
	if first.Downloaded != 2 || first.Failed != 0 {
		t.Fatalf("first run: %+v", first)
	}

	second, err := Run(context.Background(), f, ids, nil)
	if err != nil {
		t.Fatal(err)
	}
	if second.Skipped != 2 || second.Downloaded != 0 || second.Failed != 0 {
		t.Errorf("second run not fully skip-derived: %+v", second)
	}
	if second.Succeeded() != 2 {
		t.Errorf("second run Succeeded = %d, want 2", second.Succeeded())
	}
}

func TestRunUnusableOutputDirIsFatal(t *testing.T) {
	dir := t.TempDir()
	// A regular file where the output directory should be.
	blocked := filepath.Join(dir, "outfile")
	if err := os.WriteFile(blocked, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := testFetchConfig(filepath.Join(blocked, "sub"))
	f := New(http.DefaultClient, &routeResolver{}, cfg, nil, nil)

	if _, err := Run(context.Background(), f, []string{"PMC1"}, nil); err == nil {
		t.Fatal("expected fatal error for unusable output directory")
	}
}
