// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package oa resolves PMCIDs to download locations through the NCBI
// open-access service.
package oa

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/OscarGarciaF/SB-publications/internal/httputil"
	"github.com/OscarGarciaF/SB-publications/internal/pmcid"
	"github.com/OscarGarciaF/SB-publications/pkg/types"
)

// ftp links in OA responses point here; the same paths are mirrored
// over HTTPS on the same host.
const (
	ftpHost   = "ftp://ftp.ncbi.nlm.nih.gov"
	httpsHost = "https://ftp.ncbi.nlm.nih.gov"
)

// Links holds the candidate delivery locations for one article. Either
// field may be empty; both empty means the article is not retrievable
// from the open-access subset.
type Links struct {
	PDF string
	TGZ string
}

// Empty reports whether no delivery location is available.
func (l Links) Empty() bool {
	return l.PDF == "" && l.TGZ == ""
}

// Client queries the OA resolution endpoint. The HTTP client is shared
// with the retrieval engine for connection pooling and is safe for
// concurrent use.
type Client struct {
	http *http.Client
	cfg  types.FetchConfig
}

// NewClient returns a Client using the given shared HTTP client.
func NewClient(client *http.Client, cfg types.FetchConfig) *Client {
	return &Client{http: client, cfg: cfg}
}

// oa.fcgi XML structures.
type oaResponse struct {
	Records []oaRecord `xml:"records>record"`
}

type oaRecord struct {
	Links []oaLink `xml:"link"`
}

type oaLink struct {
	Format string `xml:"format,attr"`
	Href   string `xml:"href,attr"`
}

// Resolve queries the OA endpoint for one PMCID and returns the
// available delivery locations. A response with no record element is
// not an error: it yields empty Links (the article is simply not in
// the open-access subset). Transport errors and non-2xx responses are
// retried with the configured fixed-delay budget before propagating.
func (c *Client) Resolve(ctx context.Context, id string) (Links, error) {
	resp, err := httputil.Get(ctx, c.http, c.requestURL(id), c.cfg.UserAgent, c.cfg.MaxRetries, c.cfg.RetryDelay, c.cfg.ResolveTimeout)
	if err != nil {
		return Links{}, fmt.Errorf("OA API request for %s: %w", id, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Links{}, fmt.Errorf("reading OA response for %s: %w", id, err)
	}
	return parseRecord(body)
}

// requestURL builds the resolution URL for one PMCID, appending the
// optional tool and email parameters.
func (c *Client) requestURL(id string) string {
	q := url.Values{}
	q.Set("id", pmcid.Numeric(id))
	if c.cfg.Tool != "" {
		q.Set("tool", c.cfg.Tool)
	}
	if c.cfg.Email != "" {
		q.Set("email", c.cfg.Email)
	}
	return c.cfg.OABaseURL + "?" + q.Encode()
}

// parseRecord extracts the first pdf-format and tgz-format hrefs from
// the first record of an oa.fcgi response body.
func parseRecord(body []byte) (Links, error) {
	var parsed oaResponse
	if err := xml.Unmarshal(body, &parsed); err != nil {
		return Links{}, fmt.Errorf("parsing OA response: %w", err)
	}
	if len(parsed.Records) == 0 {
		return Links{}, nil
	}

	var links Links
	for _, l := range parsed.Records[0].Links {
		switch l.Format {
		case "pdf":
			if links.PDF == "" {
				links.PDF = ftpToHTTPS(l.Href)
			}
		case "tgz":
			if links.TGZ == "" {
				links.TGZ = ftpToHTTPS(l.Href)
			}
		}
	}
	return links, nil
}

// ftpToHTTPS rewrites an NCBI ftp link to its HTTPS mirror; retrieval
// speaks HTTPS only.
func ftpToHTTPS(href string) string {
	if strings.HasPrefix(href, ftpHost) {
		return httpsHost + strings.TrimPrefix(href, ftpHost)
	}
	return href
}
