// Package storage keeps uploaded resumes and their rendered previews on disk.
package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Logger is global since we will need it everywhere
var Logger *slog.Logger

// ErrNotFound is returned when a path has no file behind it
var ErrNotFound = errors.New("file not found")

// ErrInvalidPath is returned for paths that would escape the storage root
var ErrInvalidPath = errors.New("invalid storage path")

// FileStore reads and writes files addressed by slash separated relative paths
type FileStore interface {
	Write(name string, data []byte) error
	Read(name string) ([]byte, error)
	Delete(name string) error
	Size(name string) (int64, error)
}

// Local is a FileStore rooted at a directory
type Local struct {
	root string
}

// NewLocal creates the root directory if needed
func NewLocal(root string) (*Local, error) {
	if err := os.MkdirAll(root, os.ModePerm); err != nil {
		return nil, fmt.Errorf("failed to create storage root %s: %w", root, err)
	}
	return &Local{root: root}, nil
}

// Root returns the directory files are stored under
func (l *Local) Root() string {
	return l.root
}

// resolve maps a slash path onto the filesystem, refusing anything outside root
func (l *Local) resolve(name string) (string, error) {
	clean := path.Clean("/" + filepath.ToSlash(name))
	if clean == "/" || strings.Contains(name, "\x00") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, name)
	}
	return filepath.Join(l.root, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}

// Write stores data at name, creating parent folders
func (l *Local) Write(name string, data []byte) error {
	full, err := l.resolve(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), os.ModePerm); err != nil {
		return fmt.Errorf("failed to create folder for %s: %w", name, err)
	}
	// write then rename so readers never see a partial file
	tmp := full + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := os.Rename(tmp, full); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to move %s into place: %w", name, err)
	}
	if Logger != nil {
		Logger.Debug("Stored file", "path", name, "bytes", len(data))
	}
	return nil
}

// Read returns the content at name, or ErrNotFound
func (l *Local) Read(name string) ([]byte, error) {
	full, err := l.resolve(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return data, err
}

// Delete removes name. Deleting a missing file is not an error.
func (l *Local) Delete(name string) error {
	full, err := l.resolve(name)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete %s: %w", name, err)
	}
	return nil
}

// Size returns the length of the file at name, or ErrNotFound
func (l *Local) Size(name string) (int64, error) {
	full, err := l.resolve(name)
	if err != nil {
		return 0, err
	}
	info, err := os.Stat(full)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
