// Package carrier finds, reads and writes the bitmap files that hold shares.
package carrier

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/Davincible/shadowshare/pkg/bmp"
	"github.com/gobwas/glob"
	"github.com/spf13/afero"
)

// DefaultPattern matches carrier files when no pattern is configured.
const DefaultPattern = "*.bmp"

var (
	ErrNotEnoughCarriers = errors.New("carrier: not enough carrier images")
	ErrInvalidPattern    = errors.New("carrier: invalid file pattern")
)

// Store reads and writes bitmaps on an afero filesystem.
type Store struct {
	fs afero.Fs
}

// NewStore returns a store backed by fs. A nil fs means the OS filesystem.
func NewStore(fs afero.Fs) *Store {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Store{fs: fs}
}

// List returns the paths of regular files in dir whose base name matches
// pattern, sorted by name. It fails with ErrNotEnoughCarriers when fewer than
// count files match; count <= 0 accepts any number.
func (s *Store) List(dir, pattern string, count int) ([]string, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidPattern, pattern, err)
	}

	entries, err := afero.ReadDir(s.fs, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if !e.Mode().IsRegular() {
			continue
		}
		if g.Match(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	if len(names) < count {
		return nil, fmt.Errorf("%w: need %d in %s, found %d matching %q",
			ErrNotEnoughCarriers, count, dir, len(names), pattern)
	}

	paths := make([]string, len(names))
	for i, name := range names {
		paths[i] = filepath.Join(dir, name)
	}
	return paths, nil
}

// Load decodes the bitmap at path.
func (s *Store) Load(path string) (*bmp.Image, error) {
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	img, err := bmp.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return img, nil
}

// Save encodes img to path, creating parent directories as needed. Files are
// written owner-only.
func (s *Store) Save(path string, img *bmp.Image) error {
	if err := s.fs.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	var buf bytes.Buffer
	if err := bmp.Encode(&buf, img); err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}

	if err := afero.WriteFile(s.fs, path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Exists reports whether path exists.
func (s *Store) Exists(path string) bool {
	_, err := s.fs.Stat(path)
	return err == nil || !errors.Is(err, os.ErrNotExist)
}
