package types

import (
	"os"
	"time"
)

// Defaults applied by the WithDefaults methods.
const (
	DefaultTimeout         = 30 * time.Second
	DefaultUserAgent       = "docharvest/0.1"
	DefaultMaxBodyBytes    = 100 << 20
	DefaultWorkers         = 4
	DefaultOutputDir       = "downloads"
	DefaultHighlightPrefix = "highlighted_"
	DefaultOpacity         = 0.4
)

// HTTPConfig holds the settings the fetch stage uses for network requests.
type HTTPConfig struct {
	// Timeout bounds a single request including reading the body.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with every request.
	UserAgent string `json:"user_agent" yaml:"user_agent"`

	// AuthToken, when set, is sent as a bearer token. Usually loaded from
	// .secrets/fetch-auth-token rather than the config file.
	AuthToken string `json:"-" yaml:"-"`

	// MaxBodyBytes caps the payload size accepted from a single response.
	MaxBodyBytes int64 `json:"max_body_bytes" yaml:"max_body_bytes"`
}

// WithDefaults returns a copy with zero fields replaced by defaults.
func (c HTTPConfig) WithDefaults() HTTPConfig {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = DefaultMaxBodyBytes
	}
	return c
}

// AnnotateConfig controls how highlights look and how outputs are named.
type AnnotateConfig struct {
	// Prefix is prepended to the file name of highlighted copies.
	Prefix string `json:"prefix" yaml:"prefix"`

	// Color is the RGB highlight colour, each component in [0,1].
	Color [3]float64 `json:"color" yaml:"color"`

	// Opacity is the constant alpha of the highlight (CA entry).
	Opacity float64 `json:"opacity" yaml:"opacity"`
}

// WithDefaults returns a copy with zero fields replaced by defaults.
// A zero colour means yellow.
func (c AnnotateConfig) WithDefaults() AnnotateConfig {
	if c.Prefix == "" {
		c.Prefix = DefaultHighlightPrefix
	}
	if c.Color == [3]float64{} {
		c.Color = [3]float64{1, 1, 0}
	}
	if c.Opacity <= 0 || c.Opacity > 1 {
		c.Opacity = DefaultOpacity
	}
	return c
}

// HarvestConfig holds settings for a batch run.
type HarvestConfig struct {
	HTTPConfig `yaml:",inline"`
	Annotate   AnnotateConfig `json:"annotate" yaml:"annotate"`

	// OutputDir receives the final artifacts.
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// TempDir holds short-lived repair files. Empty means os.TempDir().
	TempDir string `json:"temp_dir" yaml:"temp_dir"`

	// Workers bounds how many document pipelines run at once.
	Workers int `json:"workers" yaml:"workers"`

	// FetchConcurrency caps simultaneous downloads. Zero means one
	// goroutine per URL.
	FetchConcurrency int `json:"fetch_concurrency" yaml:"fetch_concurrency"`
}

// WithDefaults returns a copy with zero fields replaced by defaults.
func (c HarvestConfig) WithDefaults() HarvestConfig {
	c.HTTPConfig = c.HTTPConfig.WithDefaults()
	c.Annotate = c.Annotate.WithDefaults()
	if c.OutputDir == "" {
		c.OutputDir = DefaultOutputDir
	}
	if c.TempDir == "" {
		c.TempDir = os.TempDir()
	}
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
	if c.FetchConcurrency < 0 {
		c.FetchConcurrency = 0
	}
	return c
}

// LedgerConfig locates the SQLite database that records batch runs.
type LedgerConfig struct {
	// Path is the database file. Empty disables the ledger.
	Path string `json:"path" yaml:"path"`

	// MaxResults bounds history listings (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}
