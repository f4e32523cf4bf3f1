package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"github.com/adrg/frontmatter"
	"gopkg.in/yaml.v3"
)

var ErrInvalidFrontMatter = errors.New("invalid front matter")

var yamlFormat = frontmatter.NewFormat("---", "---", yaml.Unmarshal)

// Entry is one markdown file before schema validation.
type Entry struct {
	Filename string
	Fields   map[string]any
	Content  string
}

// ParseFrontMatter splits the leading "---" block from the body and decodes
// it as YAML. A file without front matter yields empty fields, which the
// schema then rejects.
func ParseFrontMatter(raw []byte) (map[string]any, []byte, error) {
	raw = bytes.ReplaceAll(raw, []byte("\r\n"), []byte("\n"))

	fields := map[string]any{}
	body, err := frontmatter.Parse(bytes.NewReader(raw), &fields, yamlFormat)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidFrontMatter, err)
	}
	return fields, trimBlankLine(body), nil
}

// trimBlankLine drops the single separator line written after the block.
func trimBlankLine(body []byte) []byte {
	return bytes.TrimPrefix(body, []byte("\n"))
}
