// Package sink provides output destinations for generated units.
package sink

import (
	"bytes"
	"cmp"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"go.uber.org/multierr"
)

// OutputSink receives generated file content. Implementations must be safe
// for concurrent calls.
type OutputSink interface {
	// WriteFile writes content to path, a clean slash-separated path
	// relative to the sink root.
	WriteFile(ctx context.Context, path string, content []byte) error
}

// File is one generated file.
type File struct {
	// Path is relative to the module root.
	Path    string
	Content []byte
}

// WriteAll writes every file, continuing past failures. It returns the
// paths written, in order, and all write errors combined.
func WriteAll(ctx context.Context, s OutputSink, files []File) ([]string, error) {
	files = slices.Clone(files)
	slices.SortFunc(files, func(a, b File) int { return cmp.Compare(a.Path, b.Path) })

	var written []string
	var errs error
	for _, f := range files {
		if err := s.WriteFile(ctx, f.Path, f.Content); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("write %s: %w", f.Path, err))
			if ctx.Err() != nil {
				break
			}
			continue
		}
		written = append(written, f.Path)
	}
	return written, errs
}

// FilesystemSink writes below a directory on the local filesystem.
type FilesystemSink struct {
	// Root is the base directory for all writes.
	Root string

	// Mode is the file permission mode (default: 0644).
	Mode os.FileMode

	// SkipUnchanged leaves files whose content is already current
	// untouched, so their modification times do not trigger rebuilds.
	SkipUnchanged bool
}

// NewFilesystemSink creates a FilesystemSink writing below root.
func NewFilesystemSink(root string) *FilesystemSink {
	return &FilesystemSink{
		Root:          root,
		Mode:          0644,
		SkipUnchanged: true,
	}
}

// WriteFile writes content to path below the root, creating parent
// directories as needed. Writes go through a temp file and a rename.
func (s *FilesystemSink) WriteFile(ctx context.Context, path string, content []byte) error {
	if err := ValidatePath(path); err != nil {
		return fmt.Errorf("invalid path %q: %w", path, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	fullPath := filepath.Join(s.Root, filepath.FromSlash(path))
	absRoot, err := filepath.Abs(s.Root)
	if err != nil {
		return fmt.Errorf("failed to resolve root directory: %w", err)
	}
	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}
	if !strings.HasPrefix(absPath, absRoot+string(filepath.Separator)) {
		return fmt.Errorf("path escapes root directory: %q", path)
	}

	if s.SkipUnchanged {
		if old, err := os.ReadFile(fullPath); err == nil && bytes.Equal(old, content) {
			return nil
		}
	}

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}
	mode := s.Mode
	if mode == 0 {
		mode = 0644
	}

	tempFile, err := os.CreateTemp(dir, ".fastenum-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := tempFile.Name()
	_, writeErr := tempFile.Write(content)
	closeErr := tempFile.Close()

	// Leftover temp files keep the .fastenum-*.tmp pattern.
	cleanup := func() { _ = os.Remove(tempPath) }

	if writeErr != nil {
		cleanup()
		return fmt.Errorf("failed to write temp file: %w", writeErr)
	}
	if closeErr != nil {
		cleanup()
		return fmt.Errorf("failed to close temp file: %w", closeErr)
	}
	if err := os.Chmod(tempPath, mode); err != nil {
		cleanup()
		return fmt.Errorf("failed to set file mode: %w", err)
	}
	if err := ctx.Err(); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tempPath, fullPath); err != nil {
		cleanup()
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// MemorySink stores generated files in memory. It is used for dry runs.
type MemorySink struct {
	mu    sync.RWMutex
	files map[string][]byte
}

// NewMemorySink creates a new MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{files: make(map[string][]byte)}
}

// WriteFile stores a copy of content.
func (s *MemorySink) WriteFile(ctx context.Context, path string, content []byte) error {
	if err := ValidatePath(path); err != nil {
		return fmt.Errorf("invalid path %q: %w", path, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[path] = bytes.Clone(content)
	return nil
}

// Files returns a copy of all written files.
func (s *MemorySink) Files() map[string][]byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make(map[string][]byte, len(s.files))
	for path, content := range s.files {
		result[path] = bytes.Clone(content)
	}
	return result
}

// Get returns the content of a single file, or nil if not found.
func (s *MemorySink) Get(path string) []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return bytes.Clone(s.files[path])
}

// ValidatePath checks that path is relative, slash-separated, clean and
// stays below the root.
func ValidatePath(path string) error {
	if path == "" {
		return errors.New("path is empty")
	}
	if filepath.IsAbs(path) || strings.HasPrefix(path, "/") {
		return errors.New("absolute paths not allowed")
	}
	if len(path) >= 2 && path[1] == ':' && ((path[0] >= 'A' && path[0] <= 'Z') || (path[0] >= 'a' && path[0] <= 'z')) {
		return errors.New("absolute paths not allowed")
	}
	if slices.Contains(strings.Split(path, "/"), "..") {
		return errors.New("path traversal not allowed")
	}
	if cleaned := filepath.ToSlash(filepath.Clean(path)); cleaned != path {
		return fmt.Errorf("path is not clean (expected %q, got %q)", cleaned, path)
	}
	return nil
}
