package repository

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
	"gopkg.in/yaml.v3"
)

// NewFile creates a Memory repository persisted to a YAML file. Every
// mutation rewrites the whole file, which is fine for a single device.
func NewFile(path string) (*Memory, error) {
	data := newSnapshot()

	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(raw, data); err != nil {
			return nil, goerr.Wrap(err, "failed to parse state file", goerr.V("path", path))
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, goerr.Wrap(err, "failed to read state file", goerr.V("path", path))
	}

	// maps decoded from an older or partial file may be nil
	fresh := newSnapshot()
	if data.Collections == nil {
		data.Collections = fresh.Collections
	}
	if data.Quotas == nil {
		data.Quotas = fresh.Quotas
	}
	if data.Users == nil {
		data.Users = fresh.Users
	}
	if data.ImageCache == nil {
		data.ImageCache = fresh.ImageCache
	}

	return &Memory{
		data:  data,
		flush: func(s *snapshot) error { return writeSnapshot(path, s) },
	}, nil
}

func writeSnapshot(path string, s *snapshot) error {
	raw, err := yaml.Marshal(s)
	if err != nil {
		return goerr.Wrap(err, "failed to encode state")
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return goerr.Wrap(err, "failed to create state directory", goerr.V("dir", dir))
		}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return goerr.Wrap(err, "failed to write state file", goerr.V("path", tmp))
	}
	if err := os.Rename(tmp, path); err != nil {
		return goerr.Wrap(err, "failed to replace state file", goerr.V("path", path))
	}
	return nil
}
