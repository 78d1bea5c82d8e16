// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pmcid

import (
	"reflect"
	"testing"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name   string
		values []string
		want   []string
	}{
		{"bare id", []string{"PMC123"}, []string{"PMC123"}},
		{"lowercase", []string{"pmc123"}, []string{"PMC123"}},
		{"embedded in url", []string{"https://www.ncbi.nlm.nih.gov/pmc/articles/PMC4136787/"}, []string{"PMC4136787"}},
		{"embedded in text", []string{"see PMC123 for details"}, []string{"PMC123"}},
		{"duplicate across values", []string{"pmc123", "PMC123", "http://x/PMC123"}, []string{"PMC123"}},
		{"order of first appearance", []string{"PMC2", "PMC1", "PMC2", "PMC3"}, []string{"PMC2", "PMC1", "PMC3"}},
		{"no match", []string{"Mice in Bion-M 1 space mission", ""}, nil},
		{"mixed match and miss", []string{"Title text", "PMC99", "other"}, []string{"PMC99"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.values)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Extract(%v) = %v, want %v", tt.values, got, tt.want)
			}
		})
	}
}

func TestExtractStateless(t *testing.T) {
	// Dedup state must not leak across calls.
	first := Extract([]string{"PMC7"})
	second := Extract([]string{"PMC7"})
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Extract not restartable: first %v, second %v", first, second)
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"PMC123", "PMC123"},
		{"pmc123", "PMC123"},
		{"  pmc123  ", "PMC123"},
		{"123", "PMC123"},
		{"link to pmc55 here", "PMC55"},
		{"not-an-id", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNumeric(t *testing.T) {
	if got := Numeric("PMC4136787"); got != "4136787" {
		t.Errorf("Numeric(PMC4136787) = %q, want 4136787", got)
	}
	if got := Numeric("pmc12"); got != "12" {
		t.Errorf("Numeric(pmc12) = %q, want 12", got)
	}
}
