// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package rename copies PMCID-named PDFs to human-readable filenames
// taken from the publication table.
package rename

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/OscarGarciaF/SB-publications/internal/manifest"
)

// maxNameLen caps sanitized filenames, counted in runes; long article
// titles overflow path limits on some filesystems.
const maxNameLen = 200

// invalidChars are characters rejected by Windows and generally
// problematic in filenames.
var invalidChars = regexp.MustCompile(`[<>:"/\\|?*` + "\n\r\t" + `]`)

// squeeze collapses runs of underscores and whitespace.
var squeeze = regexp.MustCompile(`[_\s]+`)

// Sanitize converts a title into a filesystem-safe name: invalid
// characters become underscores, runs of separators collapse to a
// single space, overlong names are truncated, and an empty result
// falls back to "untitled".
func Sanitize(name string) string {
	out := invalidChars.ReplaceAllString(name, "_")
	out = strings.TrimSpace(squeeze.ReplaceAllString(out, " "))
	if r := []rune(out); len(r) > maxNameLen {
		out = strings.TrimSpace(string(r[:maxNameLen]))
	}
	if out == "" {
		return "untitled"
	}
	return out
}

// Summary holds the outcome of a copy run.
type Summary struct {
	Copied  int
	Missing []string
}

// CopyAll copies <PMCID>.pdf files from pdfDir to outDir under their
// sanitized labels, appending " (n)" on name collisions. Identifiers
// with no source file are collected, not errors. With dryRun set it
// prints intended actions and copies nothing.
func CopyAll(labels *manifest.LabelMap, pdfDir, outDir string, dryRun bool, w io.Writer) (Summary, error) {
	if w == nil {
		w = io.Discard
	}
	if !dryRun {
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return Summary{}, fmt.Errorf("creating output directory %s: %w", outDir, err)
		}
	}

	var s Summary
	for _, id := range labels.IDs() {
		srcPath := filepath.Join(pdfDir, id+".pdf")
		if _, err := os.Stat(srcPath); err != nil {
			s.Missing = append(s.Missing, id)
			continue
		}

		destPath := collisionFree(filepath.Join(outDir, Sanitize(labels.Resolve(id))+".pdf"))
		if dryRun {
			fmt.Fprintf(w, "would copy: %s -> %s\n", srcPath, destPath)
			continue
		}

		if err := copyFile(srcPath, destPath); err != nil {
			return s, fmt.Errorf("copying %s: %w", id, err)
		}
		s.Copied++
		fmt.Fprintf(w, "copied: %s -> %s\n", filepath.Base(srcPath), filepath.Base(destPath))
	}
	return s, nil
}

// collisionFree returns path, or the first " (n)"-suffixed variant that
// does not exist yet.
func collisionFree(path string) string {
	if _, err := os.Stat(path); err != nil {
		return path
	}
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s (%d)%s", base, i, ext)
		if _, err := os.Stat(candidate); err != nil {
			return candidate
		}
	}
}

// copyFile writes src's bytes to dest through a temp file so a failed
// copy never leaves a partial file at the final name.
func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".sbpub-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	_, copyErr := io.Copy(tmp, in)
	closeErr := tmp.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return copyErr
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return closeErr
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}
