// Package richtext turns Portable Text documents into a closed set of typed
// nodes and renders them to HTML.
package richtext

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/blog-post-pages/internal/models"
)

// Node is a block level node: Heading, Paragraph, ListItem or Image
type Node interface {
	blockNode()
}

// Inline is an inline node: Text or Link
type Inline interface {
	inlineNode()
}

// Heading is a block with style h1..h6
type Heading struct {
	Level    int
	Children []Inline
}

// Paragraph is a normal or blockquote block
type Paragraph struct {
	Quote    bool
	Children []Inline
}

// ListItem is a block carrying a listItem kind
type ListItem struct {
	Ordered  bool
	Level    int
	Children []Inline
}

// Image is an embedded image block
type Image struct {
	Asset models.ImageAsset
	Alt   string
}

// Text is a run of text with decorator marks (strong, em, code, ...)
type Text struct {
	Text  string
	Marks []string
}

// Link wraps text runs annotated with the same link
type Link struct {
	Href     string
	Children []Text

	key string
}

func (Heading) blockNode()   {}
func (Paragraph) blockNode() {}
func (ListItem) blockNode()  {}
func (Image) blockNode()     {}

func (Text) inlineNode() {}
func (Link) inlineNode() {}

// Document is a parsed rich text body
type Document []Node

type rawBlock struct {
	Type     string            `json:"_type"`
	Style    string            `json:"style"`
	ListItem string            `json:"listItem"`
	Level    int               `json:"level"`
	Children []rawSpan         `json:"children"`
	MarkDefs []rawMarkDef      `json:"markDefs"`
	Asset    models.ImageAsset `json:"asset"`
	Alt      string            `json:"alt"`
}

type rawSpan struct {
	Type  string   `json:"_type"`
	Text  string   `json:"text"`
	Marks []string `json:"marks"`
}

type rawMarkDef struct {
	Key  string `json:"_key"`
	Type string `json:"_type"`
	Href string `json:"href"`
}

// Parse decodes a Portable Text array. Unknown node types are skipped.
func Parse(raw json.RawMessage) (Document, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Document{}, nil
	}

	var blocks []rawBlock
	if err := json.Unmarshal(trimmed, &blocks); err != nil {
		return nil, fmt.Errorf("richtext: decode body: %w", err)
	}

	doc := make(Document, 0, len(blocks))
	for _, block := range blocks {
		switch block.Type {
		case "block":
			doc = append(doc, parseBlock(block))
		case "image":
			doc = append(doc, Image{Asset: block.Asset, Alt: block.Alt})
		}
	}
	return doc, nil
}

func parseBlock(block rawBlock) Node {
	children := parseInlines(block)

	if block.ListItem != "" {
		level := block.Level
		if level < 1 {
			level = 1
		}
		return ListItem{
			Ordered:  block.ListItem == "number",
			Level:    level,
			Children: children,
		}
	}

	if len(block.Style) == 2 && block.Style[0] == 'h' && block.Style[1] >= '1' && block.Style[1] <= '6' {
		return Heading{Level: int(block.Style[1] - '0'), Children: children}
	}

	return Paragraph{Quote: block.Style == "blockquote", Children: children}
}

func parseInlines(block rawBlock) []Inline {
	links := make(map[string]string, len(block.MarkDefs))
	for _, def := range block.MarkDefs {
		if def.Type == "link" {
			links[def.Key] = def.Href
		}
	}

	inlines := make([]Inline, 0, len(block.Children))
	for _, span := range block.Children {
		if span.Type != "" && span.Type != "span" {
			continue
		}

		var linkKey string
		decorators := make([]string, 0, len(span.Marks))
		for _, mark := range span.Marks {
			if _, ok := links[mark]; ok {
				if linkKey == "" {
					linkKey = mark
				}
				continue
			}
			if isDecorator(mark) {
				decorators = append(decorators, mark)
			}
		}

		text := Text{Text: span.Text, Marks: decorators}
		if linkKey == "" {
			inlines = append(inlines, text)
			continue
		}

		// Adjacent spans under the same annotation share one link
		if n := len(inlines); n > 0 {
			if last, ok := inlines[n-1].(Link); ok && last.key == linkKey {
				last.Children = append(last.Children, text)
				inlines[n-1] = last
				continue
			}
		}
		inlines = append(inlines, Link{Href: links[linkKey], Children: []Text{text}, key: linkKey})
	}
	return inlines
}

var decorators = map[string]string{
	"strong":         "strong",
	"em":             "em",
	"code":           "code",
	"underline":      "u",
	"strike-through": "s",
}

func isDecorator(mark string) bool {
	_, ok := decorators[mark]
	return ok
}
