// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the configuration values and records shared
// across the sbpub pipeline stages.
package types

import "time"

// FetchStatus records the outcome of one article fetch.
type FetchStatus string

const (
	// StatusDownloaded means the PDF was written during this run.
	StatusDownloaded FetchStatus = "downloaded"

	// StatusSkipped means a non-empty PDF already existed on disk.
	StatusSkipped FetchStatus = "skipped"

	// StatusFailed means no usable content was found or all attempts
	// were exhausted.
	StatusFailed FetchStatus = "failed"
)

// FetchRoute records which delivery mechanism produced the PDF.
type FetchRoute string

const (
	// RoutePDF is a direct PDF link.
	RoutePDF FetchRoute = "pdf"

	// RouteTGZ is a gzip-tar archive containing the PDF.
	RouteTGZ FetchRoute = "tgz"

	// RouteNone means no route produced a file.
	RouteNone FetchRoute = ""
)

// Article is one catalog record: a PMCID and what happened to it.
type Article struct {
	PMCID     string      `json:"pmcid" yaml:"pmcid"`
	Title     string      `json:"title,omitempty" yaml:"title,omitempty"`
	SourceURL string      `json:"source_url,omitempty" yaml:"source_url,omitempty"`
	Route     FetchRoute  `json:"route,omitempty" yaml:"route,omitempty"`
	SizeBytes int64       `json:"size_bytes" yaml:"size_bytes"`
	Status    FetchStatus `json:"status" yaml:"status"`
	FetchedAt time.Time   `json:"fetched_at" yaml:"fetched_at"`
}
