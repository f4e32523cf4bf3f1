package store

import (
	"bytes"
	"fmt"
	"geoblog/internal/domain/content"
	domainerr "geoblog/internal/domain/errors"
	"gopkg.in/yaml.v3"
	"os"
	"path/filepath"
)

// Write replaces <root>/<name>.md with the serialized article. Readers see
// either the old file or the new one, never a partial write. The root must
// already exist.
func (s *Store) Write(r Root, name string, meta content.MDField, body string) error {
	if !content.ValidName(name) {
		var ve domainerr.ValidationError
		ve.Add("filename", "must be a plain file name")
		return ve
	}
	data, err := FormatMarkdown(meta, body)
	if err != nil {
		return &domainerr.StorageError{Op: "encode", Path: name, Err: err}
	}

	dir := s.Dir(r)
	path := filepath.Join(dir, content.FileName(name))
	if err := writeAtomic(dir, path, data); err != nil {
		return &domainerr.StorageError{Op: "write", Path: path, Err: err}
	}
	s.log.Debug().Str("root", r.String()).Str("file", filepath.Base(path)).Int("bytes", len(data)).Msg("article written")
	return nil
}

func writeAtomic(dir, path string, data []byte) error {
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		if tmpName != "" {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	tmpName = ""
	return nil
}

// FormatMarkdown renders the front matter block in fixed field order
// (title, description, date, tags, then geoAllow or geoBlock), a blank
// line, and the body.
func FormatMarkdown(meta content.MDField, body string) ([]byte, error) {
	fm, err := yaml.Marshal(frontMatterNode(meta))
	if err != nil {
		return nil, fmt.Errorf("marshal front matter: %w", err)
	}

	var buf bytes.Buffer
	buf.Grow(len(fm) + len(body) + 16)
	buf.WriteString("---\n")
	buf.Write(fm)
	buf.WriteString("---\n\n")
	buf.WriteString(body)
	return buf.Bytes(), nil
}

func frontMatterNode(m content.MDField) *yaml.Node {
	doc := &yaml.Node{Kind: yaml.MappingNode}
	add := func(key string, value *yaml.Node) {
		doc.Content = append(doc.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: key}, value)
	}

	add("title", quoted(m.Title))
	add("description", quoted(m.Description))
	add("date", quoted(m.Date))
	add("tags", flowList(m.Tags))
	if m.GeoAllow != nil {
		add("geoAllow", flowList(m.GeoAllow))
	}
	if m.GeoBlock != nil {
		add("geoBlock", flowList(m.GeoBlock))
	}
	return doc
}

func quoted(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s, Style: yaml.DoubleQuotedStyle}
}

func flowList(items []string) *yaml.Node {
	n := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
	for _, item := range items {
		n.Content = append(n.Content, quoted(item))
	}
	return n
}
