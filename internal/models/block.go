package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// BlockKind discriminates the Block variants.
type BlockKind string

// Block kinds.
const (
	KindText      BlockKind = "text"
	KindHeading   BlockKind = "heading"
	KindList      BlockKind = "list"
	KindChecklist BlockKind = "checklist"
	KindCallout   BlockKind = "callout"
	KindDivider   BlockKind = "divider"
	KindLink      BlockKind = "link"
	KindEmbed     BlockKind = "embed"
	KindTable     BlockKind = "table"
)

// Block is one content block of a note. The set of implementations is closed:
// only the types in this file satisfy it.
type Block interface {
	Kind() BlockKind
	// PlainText returns the searchable text of the block, including any
	// inline [[wikilinks]] verbatim.
	PlainText() string
	isBlock()
}

// TextBlock is a plain paragraph.
type TextBlock struct {
	Text string `json:"text"`
}

// HeadingBlock is a section heading, Level 1 through 6.
type HeadingBlock struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
}

// ListBlock is a bulleted or numbered list.
type ListBlock struct {
	Ordered bool     `json:"ordered"`
	Items   []string `json:"items"`
}

// CheckItem is one entry of a ChecklistBlock.
type CheckItem struct {
	Text    string `json:"text"`
	Checked bool   `json:"checked"`
}

// ChecklistBlock is a task list.
type ChecklistBlock struct {
	Items []CheckItem `json:"items"`
}

// CalloutBlock is a highlighted quote. Variant is "quote" for plain
// blockquotes and the admonition name (note, warning, ...) otherwise.
type CalloutBlock struct {
	Variant string `json:"variant"`
	Text    string `json:"text"`
}

// DividerBlock is a horizontal rule.
type DividerBlock struct{}

// LinkBlock is a standalone reference. Target is set for wikilinks, URL for
// external links.
type LinkBlock struct {
	Target string `json:"target,omitempty"`
	URL    string `json:"url,omitempty"`
	Label  string `json:"label,omitempty"`
}

// EmbedBlock is an embedded image or document.
type EmbedBlock struct {
	URL     string `json:"url"`
	Caption string `json:"caption,omitempty"`
}

// TableBlock is a pipe table.
type TableBlock struct {
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

func (TextBlock) Kind() BlockKind      { return KindText }
func (HeadingBlock) Kind() BlockKind   { return KindHeading }
func (ListBlock) Kind() BlockKind      { return KindList }
func (ChecklistBlock) Kind() BlockKind { return KindChecklist }
func (CalloutBlock) Kind() BlockKind   { return KindCallout }
func (DividerBlock) Kind() BlockKind   { return KindDivider }
func (LinkBlock) Kind() BlockKind      { return KindLink }
func (EmbedBlock) Kind() BlockKind     { return KindEmbed }
func (TableBlock) Kind() BlockKind     { return KindTable }

func (TextBlock) isBlock()      {}
func (HeadingBlock) isBlock()   {}
func (ListBlock) isBlock()      {}
func (ChecklistBlock) isBlock() {}
func (CalloutBlock) isBlock()   {}
func (DividerBlock) isBlock()   {}
func (LinkBlock) isBlock()      {}
func (EmbedBlock) isBlock()     {}
func (TableBlock) isBlock()     {}

func (b TextBlock) PlainText() string    { return b.Text }
func (b HeadingBlock) PlainText() string { return b.Text }
func (b ListBlock) PlainText() string    { return strings.Join(b.Items, "\n") }

func (b ChecklistBlock) PlainText() string {
	parts := make([]string, len(b.Items))
	for i, it := range b.Items {
		parts[i] = it.Text
	}
	return strings.Join(parts, "\n")
}

func (b CalloutBlock) PlainText() string { return b.Text }
func (DividerBlock) PlainText() string   { return "" }

func (b LinkBlock) PlainText() string {
	if b.Target != "" {
		return "[[" + b.Target + "]]"
	}
	return b.Label
}

func (b EmbedBlock) PlainText() string { return b.Caption }

func (b TableBlock) PlainText() string {
	lines := []string{strings.Join(b.Header, " ")}
	for _, row := range b.Rows {
		lines = append(lines, strings.Join(row, " "))
	}
	return strings.Join(lines, "\n")
}

// Blocks is an ordered block list with a kind-tagged JSON encoding:
// each element is an object carrying a "kind" field next to its own fields.
type Blocks []Block

// PlainText joins the plain text of every block with blank lines.
func (bs Blocks) PlainText() string {
	parts := make([]string, 0, len(bs))
	for _, b := range bs {
		if t := b.PlainText(); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n\n")
}

// MarshalJSON implements json.Marshaler.
func (bs Blocks) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, b := range bs {
		if i > 0 {
			buf.WriteByte(',')
		}
		body, err := json.Marshal(b)
		if err != nil {
			return nil, err
		}
		buf.WriteString(`{"kind":`)
		kind, _ := json.Marshal(b.Kind())
		buf.Write(kind)
		// body is a JSON object; splice its fields after the kind.
		if inner := bytes.TrimSpace(body[1 : len(body)-1]); len(inner) > 0 {
			buf.WriteByte(',')
			buf.Write(inner)
		}
		buf.WriteByte('}')
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (bs *Blocks) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Blocks, 0, len(raw))
	for _, r := range raw {
		var head struct {
			Kind BlockKind `json:"kind"`
		}
		if err := json.Unmarshal(r, &head); err != nil {
			return err
		}
		b, err := decodeBlock(head.Kind, r)
		if err != nil {
			return err
		}
		out = append(out, b)
	}
	*bs = out
	return nil
}

func decodeBlock(kind BlockKind, r json.RawMessage) (Block, error) {
	switch kind {
	case KindText:
		var b TextBlock
		err := json.Unmarshal(r, &b)
		return b, err
	case KindHeading:
		var b HeadingBlock
		err := json.Unmarshal(r, &b)
		return b, err
	case KindList:
		var b ListBlock
		err := json.Unmarshal(r, &b)
		return b, err
	case KindChecklist:
		var b ChecklistBlock
		err := json.Unmarshal(r, &b)
		return b, err
	case KindCallout:
		var b CalloutBlock
		err := json.Unmarshal(r, &b)
		return b, err
	case KindDivider:
		return DividerBlock{}, nil
	case KindLink:
		var b LinkBlock
		err := json.Unmarshal(r, &b)
		return b, err
	case KindEmbed:
		var b EmbedBlock
		err := json.Unmarshal(r, &b)
		return b, err
	case KindTable:
		var b TableBlock
		err := json.Unmarshal(r, &b)
		return b, err
	}
	return nil, fmt.Errorf("models: unknown block kind %q", kind)
}
