// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch retrieves PDF payloads over HTTP. It never writes to disk;
// persistence happens only after the rest of the pipeline succeeds.
package fetch

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pdiddy/docharvest/internal/httputil"
	"github.com/pdiddy/docharvest/internal/pdfdoc"
	"github.com/pdiddy/docharvest/pkg/types"
)

// Fetcher downloads one URL per call. It is safe for concurrent use.
type Fetcher struct {
	client *http.Client
	cfg    types.HTTPConfig
}

// New returns a Fetcher using client for transport. A nil client gets a
// plain http.Client; the per-request timeout comes from cfg either way.
func New(client *http.Client, cfg types.HTTPConfig) *Fetcher {
	if client == nil {
		client = &http.Client{}
	}
	return &Fetcher{client: client, cfg: cfg.WithDefaults()}
}

// Fetch returns the full body of url. Network errors, timeouts, non-2xx
// statuses, and oversized bodies wrap types.ErrTransport. A successful
// response that is not a PDF wraps types.ErrFormatMismatch.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
	defer cancel()

	req, err := httputil.NewGet(ctx, url, httputil.Headers{
		UserAgent: f.cfg.UserAgent,
		Accept:    "application/pdf",
		Bearer:    f.cfg.AuthToken,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrTransport, err)
	}

	resp, err := httputil.Do(f.client, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrTransport, err)
	}
	defer resp.Body.Close()

	data, err := httputil.ReadLimited(resp.Body, f.cfg.MaxBodyBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %w", types.ErrTransport, err)
	}

	if !pdfdoc.HasSignature(data) {
		return nil, fmt.Errorf("%w: %s", types.ErrFormatMismatch,
			describeMismatch(data, resp.Header.Get("Content-Type")))
	}
	return data, nil
}
