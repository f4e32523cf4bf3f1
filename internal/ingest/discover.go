package ingest

import (
	"errors"
	"geoblog/internal/domain/content"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

type SourceFile struct {
	Path string
	Name string
}

// DiscoverSource lists the markdown files directly under root, in directory
// order. Subdirectories are not consulted. A root that does not exist yet
// is reported as empty.
func DiscoverSource(root string) ([]SourceFile, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	out := make([]SourceFile, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		// dot files include in-flight temp files from atomic writes
		if strings.HasPrefix(name, ".") || !strings.HasSuffix(name, content.Ext) {
			continue
		}
		out = append(out, SourceFile{Path: filepath.Join(root, name), Name: name})
	}
	return out, nil
}
