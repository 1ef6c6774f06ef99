// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads credentials from directories of plain-text files, the
// layout used by .secrets/ in development and /run/secrets under Docker and
// Kubernetes. The filename is the key; the trimmed contents are the value.
package secrets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// APIKeyName is the file holding the service API key.
const APIKeyName = "docling-service-api-key"

// ErrNotFound is returned by Lookup when no directory holds the secret.
var ErrNotFound = errors.New("secret not found")

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory is not an error; Load returns an empty map. Dotfiles,
// subdirectories, empty values and unreadable files are skipped.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		value, err := readValue(filepath.Join(dir, name))
		if err != nil || value == "" {
			continue
		}
		secrets[name] = value
	}

	return secrets, nil
}

// Lookup returns the first value for name that Load finds in dirs, in order.
func Lookup(name string, dirs ...string) (string, error) {
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		secrets, err := Load(dir)
		if err != nil {
			return "", fmt.Errorf("looking up %s: %w", name, err)
		}
		if value, ok := secrets[name]; ok {
			return value, nil
		}
	}
	return "", fmt.Errorf("%s: %w", name, ErrNotFound)
}

func readValue(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
