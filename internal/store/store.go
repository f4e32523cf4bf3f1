package store

import (
	"errors"
	"fmt"
	"geoblog/internal/domain/content"
	domainerr "geoblog/internal/domain/errors"
	"geoblog/internal/ingest"
	"github.com/rs/zerolog"
	"io/fs"
	"os"
	"path/filepath"
)

// Root selects one of the two storage directories.
type Root int

const (
	Published Root = iota
	Drafts
)

func (r Root) String() string {
	if r == Drafts {
		return "drafts"
	}
	return "published"
}

// Store is the flat-file article collection. Every call goes to disk; there
// is no cache. Concurrent writes to one name are last-writer-wins.
type Store struct {
	published string
	drafts    string
	log       zerolog.Logger
}

func New(publishedDir, draftsDir string, log zerolog.Logger) *Store {
	return &Store{published: publishedDir, drafts: draftsDir, log: log}
}

func (s *Store) Dir(r Root) string {
	if r == Drafts {
		return s.drafts
	}
	return s.published
}

// Dirs returns both roots, published first.
func (s *Store) Dirs() []string {
	return []string{s.published, s.drafts}
}

// EnsureRoots prepares both root directories; see EnsureRoots.
func (s *Store) EnsureRoots() error {
	return EnsureRoots(s.log, s.Dirs()...)
}

// LoadAll returns the raw entries of a root in directory order. Entries are
// not validated. A root that was never created loads as empty.
func (s *Store) LoadAll(r Root) ([]ingest.Entry, error) {
	dir := s.Dir(r)
	entries, err := ingest.Ingest(dir)
	if err != nil {
		return nil, classify("load", dir, err)
	}
	return entries, nil
}

// LoadOne reads a single article by name (with or without Ext).
func (s *Store) LoadOne(r Root, name string) (ingest.Entry, error) {
	if !content.ValidName(name) {
		return ingest.Entry{}, fmt.Errorf("%q: %w", name, domainerr.ErrNotFound)
	}
	fn := content.FileName(name)
	path := filepath.Join(s.Dir(r), fn)

	st, err := os.Stat(path)
	if err != nil {
		return ingest.Entry{}, classify("load", path, err)
	}
	if st.IsDir() {
		return ingest.Entry{}, fmt.Errorf("%s: %w", fn, domainerr.ErrNotFound)
	}

	e, err := ingest.ReadFile(ingest.SourceFile{Path: path, Name: fn})
	if err != nil {
		return ingest.Entry{}, classify("load", path, err)
	}
	return e, nil
}

// Names lists the article names of a root without reading file contents.
func (s *Store) Names(r Root) ([]string, error) {
	dir := s.Dir(r)
	files, err := ingest.DiscoverSource(dir)
	if err != nil {
		return nil, classify("list", dir, err)
	}
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, content.Article{Filename: f.Name}.Name())
	}
	return out, nil
}

// Remove deletes one article file. Removal is permanent.
func (s *Store) Remove(r Root, name string) error {
	if !content.ValidName(name) {
		return fmt.Errorf("%q: %w", name, domainerr.ErrNotFound)
	}
	fn := content.FileName(name)
	path := filepath.Join(s.Dir(r), fn)

	st, err := os.Lstat(path)
	if err != nil {
		return classify("remove", path, err)
	}
	if st.IsDir() {
		return fmt.Errorf("%s: %w", fn, domainerr.ErrNotFound)
	}
	if err := os.Remove(path); err != nil {
		return classify("remove", path, err)
	}
	return nil
}

// classify maps a missing file to ErrNotFound, keeps front matter errors
// as they are and wraps the rest as storage failures.
func classify(op, path string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%s %s: %w", op, filepath.Base(path), domainerr.ErrNotFound)
	case errors.Is(err, ingest.ErrInvalidFrontMatter):
		return err
	default:
		return &domainerr.StorageError{Op: op, Path: path, Err: err}
	}
}
