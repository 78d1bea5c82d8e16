// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LedgerName is the run ledger filename inside the output directory.
const LedgerName = "missing_pmcids.txt"

// WriteLedger rewrites the run ledger: a generation timestamp, the run
// counts, and one failed PMCID per line. It is written on every run,
// empty failure list included, and always reflects only the latest run.
// It returns the ledger path.
func WriteLedger(dir string, requested, succeeded, failed int, missing []string, now time.Time) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "# Missing PMCIDs - generated: %s\n", now.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "# Requested: %d  Succeeded: %d  Failed: %d\n", requested, succeeded, failed)
	for _, id := range missing {
		b.WriteString(id)
		b.WriteByte('\n')
	}

	path := filepath.Join(dir, LedgerName)
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return path, fmt.Errorf("writing ledger: %w", err)
	}
	return path, nil
}
