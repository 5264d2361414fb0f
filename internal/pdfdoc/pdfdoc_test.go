// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdfdoc

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/docharvest/internal/testpdf"
)

func TestFileName(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"plain", "https://zoek.officielebekendmakingen.nl/kst-36410-VIII-2.pdf", "kst-36410-VIII-2.pdf"},
		{"query dropped", "https://example.com/docs/blg-996338.pdf?download=1", "blg-996338.pdf"},
		{"escaped", "https://example.com/a%20b.pdf", "a b.pdf"},
		{"escaped slash", "https://example.com/a%2Fb.pdf", "a-b.pdf"},
		{"escaped percent decoded once", "https://example.com/a%2520b.pdf", "a%20b.pdf"},
		{"escaped dot segment", "https://example.com/docs/%2E%2E", urlHashName("https://example.com/docs/%2E%2E")},
		{"no extension kept as is", "https://example.com/files/report", "report"},
		{"trailing slash", "https://example.com/", urlHashName("https://example.com/")},
		{"no path", "https://example.com", urlHashName("https://example.com")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FileName(tt.url))
		})
	}
}

func TestFileNameHashIsStable(t *testing.T) {
	a := FileName("https://example.com/")
	b := FileName("https://example.com/")
	assert.Equal(t, a, b)
	assert.True(t, strings.HasPrefix(a, "url-"))
	assert.True(t, strings.HasSuffix(a, ".pdf"))
	assert.NotEqual(t, a, FileName("https://example.org/"))
}

func TestFileNameKeepsEscapedSlashPrefix(t *testing.T) {
	x := FileName("https://example.com/x%2Fb.pdf")
	y := FileName("https://example.com/y%2Fb.pdf")
	assert.Equal(t, "x-b.pdf", x)
	assert.Equal(t, "y-b.pdf", y)
	assert.NotEqual(t, x, y)
}

func TestPrefixedPath(t *testing.T) {
	got := PrefixedPath(filepath.Join("out", "doc.pdf"), "highlighted_")
	assert.Equal(t, filepath.Join("out", "highlighted_doc.pdf"), got)
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "nested", "doc.pdf")

	require.NoError(t, WriteFileAtomic(dest, []byte("first")))
	require.NoError(t, WriteFileAtomic(dest, []byte("second")))

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	entries, err := os.ReadDir(filepath.Dir(dest))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files should remain")
}

func TestWriteFileAtomicUnwritableDir(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	err := WriteFileAtomic(filepath.Join(blocker, "doc.pdf"), []byte("data"))
	require.Error(t, err)
}

func TestOpen(t *testing.T) {
	r, err := Open(testpdf.Build("hello", "world"))
	require.NoError(t, err)
	assert.Equal(t, 2, r.NumPage())

	_, err = Open([]byte("%PDF-1.4 not really"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "opening document")
}

func TestSafely(t *testing.T) {
	err := Safely("op", func() error { panic("boom") })
	require.Error(t, err)
	assert.Equal(t, "op: boom", err.Error())

	sentinel := errors.New("plain")
	err = Safely("op", func() error { return sentinel })
	assert.ErrorIs(t, err, sentinel)

	assert.NoError(t, Safely("op", func() error { return nil }))
}

func TestConfigIsRelaxedAndFresh(t *testing.T) {
	a, b := Config(), Config()
	assert.NotSame(t, a, b)
	assert.Equal(t, a.ValidationMode, b.ValidationMode)
}

func TestHasSignature(t *testing.T) {
	assert.True(t, HasSignature([]byte("%PDF-1.7\n")))
	assert.False(t, HasSignature([]byte("<html>")))
	assert.False(t, HasSignature(nil))
	assert.False(t, HasSignature([]byte("%PD")))
}
