package store

import (
	"errors"
	"os"
	"path/filepath"
)

// ErrNotFound is returned when a record id or index does not resolve.
var ErrNotFound = errors.New("not found")

const dataDirName = ".chemecare"

// EnsureDataDir creates the session data directory if missing and returns it.
func EnsureDataDir(dataDir string) (string, error) {
	path := filepath.Join(dataDir, dataDirName)
	if err := os.MkdirAll(path, 0o755); err != nil {
		return "", err
	}
	return path, nil
}

// FilePath returns the path of a backing file inside the data directory.
func FilePath(dataDir, name string) string {
	if dataDir == "" {
		dataDir = "."
	}
	return filepath.Join(dataDir, dataDirName, name)
}

// UploadsDir returns (and creates) the inspection photo directory.
func UploadsDir(dataDir string) (string, error) {
	path := filepath.Join(dataDir, dataDirName, "uploads")
	if err := os.MkdirAll(path, 0o755); err != nil {
		return "", err
	}
	return path, nil
}
