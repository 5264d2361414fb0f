// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/docharvest/internal/httputil"
	"github.com/pdiddy/docharvest/pkg/types"
)

const fakePDFContent = "%PDF-1.4 fake"

const errorPageHTML = `<!DOCTYPE html>
<html><head><title>  Document
 not found </title></head><body><h1>404</h1></body></html>`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/docs/ok.pdf":
			w.Header().Set("Content-Type", "application/pdf")
			fmt.Fprint(w, fakePDFContent)
		case "/docs/auth.pdf":
			if r.Header.Get("Authorization") != "Bearer s3cret" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			fmt.Fprint(w, fakePDFContent)
		case "/docs/error.pdf":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			fmt.Fprint(w, errorPageHTML)
		case "/docs/binary.pdf":
			w.Header().Set("Content-Type", "application/octet-stream")
			w.Write([]byte{0x89, 'P', 'N', 'G', 0, 1, 2})
		case "/docs/empty.pdf":
			w.Header().Set("Content-Type", "application/pdf")
		case "/docs/big.pdf":
			fmt.Fprint(w, "%PDF-1.4 "+strings.Repeat("x", 2048))
		case "/docs/slow.pdf":
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		default:
			http.NotFound(w, r)
		}
	}))
}

func testConfig() types.HTTPConfig {
	return types.HTTPConfig{
		Timeout:      2 * time.Second,
		UserAgent:    "docharvest-test/0.1",
		MaxBodyBytes: 1024,
	}
}

func TestFetchSuccess(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	f := New(ts.Client(), testConfig())
	data, err := f.Fetch(context.Background(), ts.URL+"/docs/ok.pdf")
	require.NoError(t, err)
	assert.Equal(t, fakePDFContent, string(data))
}

func TestFetchBearerToken(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	cfg := testConfig()
	_, err := New(ts.Client(), cfg).Fetch(context.Background(), ts.URL+"/docs/auth.pdf")
	require.ErrorIs(t, err, types.ErrTransport)

	cfg.AuthToken = "s3cret"
	data, err := New(ts.Client(), cfg).Fetch(context.Background(), ts.URL+"/docs/auth.pdf")
	require.NoError(t, err)
	assert.Equal(t, fakePDFContent, string(data))
}

func TestFetchFailures(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	tests := []struct {
		name       string
		path       string
		wantErr    error
		wantReason string
	}{
		{"not found", "/docs/missing.pdf", types.ErrTransport, "HTTP 404"},
		{"html error page", "/docs/error.pdf", types.ErrFormatMismatch, `"Document not found"`},
		{"binary payload", "/docs/binary.pdf", types.ErrFormatMismatch, "application/octet-stream"},
		{"empty body", "/docs/empty.pdf", types.ErrFormatMismatch, "empty response body"},
		{"oversized body", "/docs/big.pdf", types.ErrTransport, "exceeds limit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := New(ts.Client(), testConfig())
			data, err := f.Fetch(context.Background(), ts.URL+tt.path)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, data)
			assert.Contains(t, err.Error(), tt.wantReason)
		})
	}
}

func TestFetchStatusErrorIsInspectable(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	_, err := New(ts.Client(), testConfig()).Fetch(context.Background(), ts.URL+"/nope")
	var se *httputil.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.Code)
}

func TestFetchTimeoutIsTransportError(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	cfg := testConfig()
	cfg.Timeout = 50 * time.Millisecond
	start := time.Now()
	_, err := New(ts.Client(), cfg).Fetch(context.Background(), ts.URL+"/docs/slow.pdf")
	require.ErrorIs(t, err, types.ErrTransport)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestFetchUnreachableHost(t *testing.T) {
	ts := newTestServer(t)
	url := ts.URL + "/docs/ok.pdf"
	ts.Close()

	_, err := New(nil, testConfig()).Fetch(context.Background(), url)
	require.ErrorIs(t, err, types.ErrTransport)
}

func TestDescribeMismatch(t *testing.T) {
	tests := []struct {
		name        string
		data        string
		contentType string
		want        string
	}{
		{"html with title", "<html><head><title>Oops</title></head></html>", "text/html", `got HTML page "Oops" instead of a PDF`},
		{"html sniffed", "<!DOCTYPE html><html><body>x</body></html>", "", "got an HTML page instead of a PDF"},
		{"plain text", "hello", "text/plain", "content type text/plain"},
		{"empty", "", "application/pdf", "empty response body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := describeMismatch([]byte(tt.data), tt.contentType)
			assert.Contains(t, got, tt.want)
		})
	}
}
