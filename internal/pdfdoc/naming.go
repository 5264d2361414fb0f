// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdfdoc

import (
	"crypto/sha256"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// FileName derives the artifact name from the final path segment of
// rawURL. URLs without a usable segment get a stable hash-based name.
func FileName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return urlHashName(rawURL)
	}
	// Split on the escaped path so an encoded slash stays inside the name
	// and the segment is unescaped exactly once.
	base := path.Base(u.EscapedPath())
	if base == "" || base == "." || base == "/" {
		return urlHashName(rawURL)
	}
	if unescaped, err := url.PathUnescape(base); err == nil {
		base = unescaped
	}
	// Keep the name inside the output directory.
	base = strings.NewReplacer("/", "-", `\`, "-").Replace(base)
	if base == "." || base == ".." {
		return urlHashName(rawURL)
	}
	return base
}

// PrefixedPath returns dest with prefix prepended to its file name.
func PrefixedPath(dest, prefix string) string {
	return filepath.Join(filepath.Dir(dest), prefix+filepath.Base(dest))
}

func urlHashName(rawURL string) string {
	h := sha256.Sum256([]byte(rawURL))
	return fmt.Sprintf("url-%x.pdf", h[:8])
}

// WriteFileAtomic writes data to a temporary file next to dest and renames
// it into place, so dest never holds a partial file.
func WriteFileAtomic(dest string, data []byte) error {
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	tmpFile, err := os.CreateTemp(dir, ".docharvest-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, writeErr := tmpFile.Write(data)
	closeErr := tmpFile.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing %s: %w", dest, writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("setting permissions: %w", err)
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
