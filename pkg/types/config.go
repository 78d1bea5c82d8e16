package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make
// network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout applied when no per-call
	// timeout is configured.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "sbpub/1.1 (+you@example.com)").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// FetchConfig holds settings for the resolve-and-download pipeline.
// A single value is constructed at the CLI boundary and passed into
// each component; nothing reads package-level state.
type FetchConfig struct {
	HTTPConfig `yaml:",inline"`

	// OABaseURL is the NCBI open-access resolution endpoint. The PMCID's
	// numeric portion is sent as the id query parameter.
	OABaseURL string `json:"oa_base_url" yaml:"oa_base_url"`

	// Tool and Email are appended to resolution requests for API
	// citizenship. Either may be empty.
	Tool  string `json:"tool" yaml:"tool"`
	Email string `json:"email,omitempty" yaml:"email,omitempty"`

	// OutputDir receives one <PMCID>.pdf per article plus the run ledger.
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// MaxConcurrent bounds the number of in-flight article fetches.
	MaxConcurrent int `json:"max_concurrent" yaml:"max_concurrent"`

	// MaxRetries is the attempt budget per HTTP call. RetryDelay is the
	// fixed pause between attempts (not exponential).
	MaxRetries int           `json:"max_retries" yaml:"max_retries"`
	RetryDelay time.Duration `json:"retry_delay" yaml:"retry_delay"`

	// Per-call timeouts: resolution calls are short, direct PDF
	// downloads longer, archive downloads longest.
	ResolveTimeout time.Duration `json:"resolve_timeout" yaml:"resolve_timeout"`
	PDFTimeout     time.Duration `json:"pdf_timeout" yaml:"pdf_timeout"`
	TGZTimeout     time.Duration `json:"tgz_timeout" yaml:"tgz_timeout"`
}

// Default values for FetchConfig.
const (
	DefaultOABaseURL      = "https://www.ncbi.nlm.nih.gov/pmc/utils/oa/oa.fcgi"
	DefaultTool           = "sbpub"
	DefaultOutputDir      = "PMC_PDFs"
	DefaultMaxConcurrent  = 5
	DefaultMaxRetries     = 3
	DefaultRetryDelay     = 2 * time.Second
	DefaultResolveTimeout = 20 * time.Second
	DefaultPDFTimeout     = 120 * time.Second
	DefaultTGZTimeout     = 300 * time.Second
	DefaultUserAgent      = "sbpub/1.1 (+you@example.com)"
)

// DefaultFetchConfig returns a FetchConfig populated with defaults.
func DefaultFetchConfig() FetchConfig {
	return FetchConfig{
		HTTPConfig: HTTPConfig{
			Timeout:   DefaultResolveTimeout,
			UserAgent: DefaultUserAgent,
		},
		OABaseURL:      DefaultOABaseURL,
		Tool:           DefaultTool,
		OutputDir:      DefaultOutputDir,
		MaxConcurrent:  DefaultMaxConcurrent,
		MaxRetries:     DefaultMaxRetries,
		RetryDelay:     DefaultRetryDelay,
		ResolveTimeout: DefaultResolveTimeout,
		PDFTimeout:     DefaultPDFTimeout,
		TGZTimeout:     DefaultTGZTimeout,
	}
}

// RenameConfig holds settings for the title-based copy utility.
type RenameConfig struct {
	// CSVPath is the publication table with Title and Link columns.
	CSVPath string `json:"csv_path" yaml:"csv_path"`

	// PDFDir contains the <PMCID>.pdf files produced by download.
	PDFDir string `json:"pdf_dir" yaml:"pdf_dir"`

	// OutDir receives the title-named copies.
	OutDir string `json:"out_dir" yaml:"out_dir"`

	// DryRun prints intended actions without copying.
	DryRun bool `json:"dry_run" yaml:"dry_run"`
}
