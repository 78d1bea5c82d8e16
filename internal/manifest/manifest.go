// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package manifest reads the publication table and extracts the ordered
// set of PMCIDs it references.
package manifest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/OscarGarciaF/SB-publications/internal/pmcid"
)

// LoadIDs reads the delimited file at path and returns the deduplicated
// PMCIDs found across all cells of all rows, in order of first
// appearance. No schema is assumed: every cell is a candidate source for
// an embedded identifier, so a header row (which carries no identifier)
// contributes nothing and needs no special handling here. A missing file
// propagates the underlying not-found error.
func LoadIDs(path string) ([]string, error) {
	rows, err := readRows(path)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var ids []string
	for _, row := range rows {
		for _, id := range pmcid.Extract(row) {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// LabelMap maps PMCIDs to a human-readable label, preferring the Title
// column of the manifest.
type LabelMap struct {
	ids    []string
	labels map[string]string
}

// LoadLabels builds a LabelMap from the manifest at path. For each row
// the label is, in preference order: the cell of a column literally
// named "Title", the first cell that does not look like a URL, the first
// cell, the identifier itself.
func LoadLabels(path string) (*LabelMap, error) {
	rows, err := readRows(path)
	if err != nil {
		return nil, err
	}

	titleCol := -1
	if len(rows) > 0 && isHeader(rows[0]) {
		for i, name := range rows[0] {
			if strings.TrimSpace(name) == "Title" {
				titleCol = i
				break
			}
		}
		rows = rows[1:]
	}

	m := &LabelMap{labels: make(map[string]string)}
	for _, row := range rows {
		var values []string
		for _, cell := range row {
			if v := strings.TrimSpace(cell); v != "" {
				values = append(values, v)
			}
		}

		for _, id := range pmcid.Extract(values) {
			label := ""
			if titleCol >= 0 && titleCol < len(row) {
				label = strings.TrimSpace(row[titleCol])
			}
			if label == "" {
				for _, v := range values {
					if !strings.HasPrefix(strings.ToLower(v), "http") {
						label = v
						break
					}
				}
			}
			if label == "" && len(values) > 0 {
				label = values[0]
			}
			if label == "" {
				label = id
			}
			if _, ok := m.labels[id]; !ok {
				m.ids = append(m.ids, id)
			}
			m.labels[id] = label
		}
	}
	return m, nil
}

// IDs returns the mapped PMCIDs in order of first appearance.
func (m *LabelMap) IDs() []string {
	return m.ids
}

// Resolve returns the label for id, falling back to the identifier
// itself when the manifest never mentioned it.
func (m *LabelMap) Resolve(id string) string {
	if label, ok := m.labels[id]; ok {
		return label
	}
	return id
}

// Len returns the number of mapped identifiers.
func (m *LabelMap) Len() int {
	return len(m.ids)
}

// isHeader reports whether row looks like a header. A header row never
// embeds a PMCID while every useful data row in this table does.
func isHeader(row []string) bool {
	return len(pmcid.Extract(row)) == 0
}

// readRows parses the whole file, tolerating ragged rows and a UTF-8
// byte order mark.
func readRows(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening manifest: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(stripBOM(f))
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	return rows, nil
}

// stripBOM removes a leading UTF-8 BOM, which spreadsheet exports
// commonly prepend.
func stripBOM(r io.Reader) io.Reader {
	buf := make([]byte, 3)
	n, _ := io.ReadFull(r, buf)
	if n == 3 && buf[0] == 0xEF && buf[1] == 0xBB && buf[2] == 0xBF {
		return r
	}
	return io.MultiReader(strings.NewReader(string(buf[:n])), r)
}
