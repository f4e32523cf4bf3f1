package store

import (
	"errors"
	domainerr "geoblog/internal/domain/errors"
	"github.com/rs/zerolog"
	"io/fs"
	"os"
)

// EnsureRoots makes every path a directory. Symlinks are followed, so a link
// to a directory counts as one. A non-directory entry in the way, including
// a dangling link, is removed first; an existing directory is left alone.
// Safe to call on every start, but not across processes sharing the same
// paths.
func EnsureRoots(log zerolog.Logger, paths ...string) error {
	for _, dir := range paths {
		st, err := os.Stat(dir)
		switch {
		case err == nil && st.IsDir():
			log.Debug().Str("dir", dir).Msg("root already exists")
			continue
		case err == nil:
			log.Warn().Str("dir", dir).Msg("replacing non-directory root")
			if err := os.Remove(dir); err != nil {
				return &domainerr.StorageError{Op: "setup", Path: dir, Err: err}
			}
		case errors.Is(err, fs.ErrNotExist):
			if _, lerr := os.Lstat(dir); lerr == nil {
				log.Warn().Str("dir", dir).Msg("replacing dangling root link")
				if err := os.Remove(dir); err != nil {
					return &domainerr.StorageError{Op: "setup", Path: dir, Err: err}
				}
			}
		default:
			return &domainerr.StorageError{Op: "setup", Path: dir, Err: err}
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return &domainerr.StorageError{Op: "setup", Path: dir, Err: err}
		}
		log.Info().Str("dir", dir).Msg("created root")
	}
	return nil
}
