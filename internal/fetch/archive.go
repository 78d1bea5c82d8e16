// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// extractBestPDF extracts the best PDF member of the gzip-tar archive
// at archivePath and writes it to destPath via a temp file. Best means
// the largest regular file whose name ends in .pdf (case-insensitive),
// which in OA packages is the main article rather than a supplement;
// ties keep the first-encountered member. It returns the number of
// bytes written.
func extractBestPDF(archivePath, destPath string) (int64, error) {
	name, index, err := bestPDFMember(archivePath)
	if err != nil {
		return 0, err
	}

	src, err := openMember(archivePath, index)
	if err != nil {
		return 0, err
	}
	defer src.close()

	tmp, err := os.CreateTemp(filepath.Dir(destPath), ".sbpub-*.tmp")
	if err != nil {
		return 0, fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	n, copyErr := io.Copy(tmp, src.reader)
	closeErr := tmp.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("extracting %s: %w", name, copyErr)
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

// bestPDFMember scans the archive once and returns the name and ordinal
// index of the largest PDF member, or ErrNoPDFInArchive. The index, not
// the name, identifies the member: tar permits duplicate entry names.
func bestPDFMember(archivePath string) (string, int, error) {
	walk, err := newArchiveWalker(archivePath)
	if err != nil {
		return "", 0, err
	}
	defer walk.close()

	var bestName string
	bestIndex := -1
	var bestSize int64 = -1
	for i := 0; ; i++ {
		hdr, err := walk.tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", 0, fmt.Errorf("reading archive: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		if !strings.HasSuffix(strings.ToLower(hdr.Name), ".pdf") {
			continue
		}
		// Strictly greater keeps the first member on ties.
		if hdr.Size > bestSize {
			bestName = hdr.Name
			bestIndex = i
			bestSize = hdr.Size
		}
	}
	if bestIndex < 0 {
		return "", 0, ErrNoPDFInArchive
	}
	return bestName, bestIndex, nil
}

// archiveWalker pairs a tar reader with the file handles it drains.
type archiveWalker struct {
	f      *os.File
	gz     *gzip.Reader
	tr     *tar.Reader
	reader io.Reader
}

func newArchiveWalker(archivePath string) (*archiveWalker, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}
	gz, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("opening archive: %w", err)
	}
	return &archiveWalker{f: f, gz: gz, tr: tar.NewReader(gz)}, nil
}

func (w *archiveWalker) close() {
	w.gz.Close()
	w.f.Close()
}

// openMember positions a fresh walker at the member with the given
// ordinal index from the selection scan.
func openMember(archivePath string, index int) (*archiveWalker, error) {
	walk, err := newArchiveWalker(archivePath)
	if err != nil {
		return nil, err
	}
	for i := 0; ; i++ {
		hdr, err := walk.tr.Next()
		if err == io.EOF {
			walk.close()
			return nil, ErrNoPDFInArchive
		}
		if err != nil {
			walk.close()
			return nil, fmt.Errorf("reading archive: %w", err)
		}
		if i == index {
			if hdr.Typeflag != tar.TypeReg {
				walk.close()
				return nil, fmt.Errorf("archive member %d changed between scans", index)
			}
			walk.reader = walk.tr
			return walk, nil
		}
	}
}
