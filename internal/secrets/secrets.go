// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets reads credentials from a directory holding one file per
// key. The file name is the key and the trimmed contents are the value.
//
// Known keys: fetch-auth-token.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// FetchAuthToken is the bearer token sent with every download.
const FetchAuthToken = "fetch-auth-token"

// Store holds the secrets found in a directory.
type Store struct {
	values map[string]string

	// Unreadable lists files that exist but could not be read.
	Unreadable []string

	// Exposed lists files that group or other users may read.
	Exposed []string
}

// Load reads every regular, non-hidden file in dir. A missing directory
// yields an empty Store. Files that cannot be read are listed in
// Unreadable instead of failing the load.
func Load(dir string) (*Store, error) {
	s := &Store{values: make(map[string]string)}
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if !entry.Type().IsRegular() || strings.HasPrefix(name, ".") {
			continue
		}
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			s.Unreadable = append(s.Unreadable, name)
			continue
		}
		if info, err := entry.Info(); err == nil && info.Mode().Perm()&0o077 != 0 {
			s.Exposed = append(s.Exposed, name)
		}
		if v := strings.TrimSpace(string(data)); v != "" {
			s.values[name] = v
		}
	}
	return s, nil
}

// Get returns the value for key, or "" when absent.
func (s *Store) Get(key string) string {
	if s == nil {
		return ""
	}
	return s.values[key]
}

// Or returns explicit when it is set, otherwise the stored value for key.
// Flags and config take precedence over files.
func (s *Store) Or(key, explicit string) string {
	if explicit != "" {
		return explicit
	}
	return s.Get(key)
}

// Keys returns the loaded key names, sorted.
func (s *Store) Keys() []string {
	if s == nil {
		return nil
	}
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
