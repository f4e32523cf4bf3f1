// Package render turns article bodies into HTML for display. Nothing here
// is used for storage or validation.
package render

import (
	"bytes"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
)

type Heading struct {
	Level int    `json:"level"`
	ID    string `json:"id"`
	Text  string `json:"text"`
}

type MarkdownRenderer struct {
	md goldmark.Markdown
}

func NewMarkdownRenderer() *MarkdownRenderer {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Footnote,
		),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)
	return &MarkdownRenderer{md: md}
}

type MarkdownResult struct {
	HTML     []byte
	Headings []Heading
}

// Render converts src and collects its headings in document order.
func (r *MarkdownRenderer) Render(src []byte) (MarkdownResult, error) {
	var buf bytes.Buffer

	ctx := parser.NewContext()
	doc := r.md.Parser().Parse(text.NewReader(src), parser.WithContext(ctx))

	heads := []Heading{}
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		var idStr string
		if id, ok := h.AttributeString("id"); ok {
			switch v := id.(type) {
			case string:
				idStr = v
			case []byte:
				idStr = string(v)
			}
		}
		var textBuf bytes.Buffer
		collectText(&textBuf, h, src)
		heads = append(heads, Heading{
			Level: h.Level,
			ID:    idStr,
			Text:  textBuf.String(),
		})
		return ast.WalkSkipChildren, nil
	})
	if err != nil {
		return MarkdownResult{}, err
	}

	if err := r.md.Renderer().Render(&buf, src, doc); err != nil {
		return MarkdownResult{}, err
	}
	return MarkdownResult{
		HTML:     buf.Bytes(),
		Headings: heads,
	}, nil
}

// collectText gathers the literal text under n, including text nested in
// emphasis, links and code spans.
func collectText(buf *bytes.Buffer, n ast.Node, src []byte) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch v := c.(type) {
		case *ast.Text:
			buf.Write(v.Segment.Value(src))
			if v.SoftLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(v.Value)
		default:
			collectText(buf, c, src)
		}
	}
}

// MinLevel is the shallowest heading level, the base indent of a table of
// contents. It is 0 when there are no headings.
func MinLevel(heads []Heading) int {
	min := 0
	for _, h := range heads {
		if min == 0 || h.Level < min {
			min = h.Level
		}
	}
	return min
}
