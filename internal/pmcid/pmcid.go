// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pmcid recognizes and normalizes PubMed Central identifiers
// embedded in arbitrary text.
package pmcid

import (
	"regexp"
	"strings"
)

// pattern matches a PMCID embedded anywhere in a string: the PMC prefix
// immediately followed by digits, in any case ("pmc123", "PMC123",
// "https://www.ncbi.nlm.nih.gov/pmc/articles/PMC123/").
var pattern = regexp.MustCompile(`(?i)(PMC\d+)`)

// digitsOnly matches a bare numeric suffix with no prefix.
var digitsOnly = regexp.MustCompile(`^\d+$`)

// Extract scans values in order and returns each distinct PMCID exactly
// once, upper-cased, in order of first appearance. Values with no match
// contribute nothing. The dedup state is local to one call.
func Extract(values []string) []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, val := range values {
		m := pattern.FindString(val)
		if m == "" {
			continue
		}
		id := strings.ToUpper(m)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

// Normalize trims and upper-cases an identifier, prepending the PMC
// prefix when given a bare numeric suffix. It returns the empty string
// for input that is neither a PMCID nor bare digits.
func Normalize(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	if digitsOnly.MatchString(s) {
		return "PMC" + s
	}
	if pattern.MatchString(s) {
		return pattern.FindString(s)
	}
	return ""
}

// Numeric returns the digits of a normalized PMCID, for use as the id
// parameter of the OA resolution endpoint.
func Numeric(id string) string {
	return strings.TrimPrefix(strings.ToUpper(id), "PMC")
}
