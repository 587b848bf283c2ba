package parser

import (
	"regexp"
	"strings"

	"github.com/starford/arbor/internal/models"
)

var (
	headingRe   = regexp.MustCompile(`^(#{1,6})\s+(.*)$`)
	checkItemRe = regexp.MustCompile(`^[-*+]\s+\[([ xX])\]\s+(.*)$`)
	bulletRe    = regexp.MustCompile(`^[-*+]\s+(.*)$`)
	numberedRe  = regexp.MustCompile(`^\d+[.)]\s+(.*)$`)
	calloutRe   = regexp.MustCompile(`^\[!(\w+)\]\s*(.*)$`)
	embedRe     = regexp.MustCompile(`^!\[(.*?)\]\((.*?)\)$`)
	mdLinkRe    = regexp.MustCompile(`^\[(.*?)\]\((.*?)\)$`)
	wikiOnlyRe  = regexp.MustCompile(`^\[\[(.*?)\]\]$`)
	tableSepRe  = regexp.MustCompile(`^\|?\s*:?-{3,}:?\s*(\|\s*:?-{3,}:?\s*)*\|?$`)
)

// ParseBlocks splits a Markdown body into typed blocks. Fenced code is kept
// verbatim as a text block. Unrecognised lines become paragraphs; a blank line
// ends the current block.
func ParseBlocks(body string) models.Blocks {
	p := &blockParser{}
	for _, raw := range strings.Split(strings.ReplaceAll(body, "\r\n", "\n"), "\n") {
		p.line(raw)
	}
	p.flush()
	if p.out == nil {
		return models.Blocks{}
	}
	return p.out
}

type blockParser struct {
	out models.Blocks

	// pending is the block being accumulated; nil when between blocks.
	pending models.Block
	para    []string
	fence   []string
	inFence bool
}

func (p *blockParser) line(raw string) {
	trimmed := strings.TrimSpace(raw)

	if p.inFence {
		p.fence = append(p.fence, raw)
		if strings.HasPrefix(trimmed, "```") {
			p.inFence = false
			p.out = append(p.out, models.TextBlock{Text: strings.Join(p.fence, "\n")})
			p.fence = nil
		}
		return
	}
	if strings.HasPrefix(trimmed, "```") {
		p.flush()
		p.inFence = true
		p.fence = []string{raw}
		return
	}

	if trimmed == "" {
		p.flush()
		return
	}

	if trimmed == "---" || trimmed == "***" || trimmed == "___" {
		p.flush()
		p.out = append(p.out, models.DividerBlock{})
		return
	}

	if m := headingRe.FindStringSubmatch(trimmed); m != nil {
		p.flush()
		p.out = append(p.out, models.HeadingBlock{Level: len(m[1]), Text: strings.TrimSpace(m[2])})
		return
	}

	if m := checkItemRe.FindStringSubmatch(trimmed); m != nil {
		item := models.CheckItem{Text: m[2], Checked: m[1] != " "}
		if cl, ok := p.pending.(models.ChecklistBlock); ok {
			cl.Items = append(cl.Items, item)
			p.pending = cl
			return
		}
		p.flush()
		p.pending = models.ChecklistBlock{Items: []models.CheckItem{item}}
		return
	}

	if m := bulletRe.FindStringSubmatch(trimmed); m != nil {
		p.listItem(false, m[1])
		return
	}
	if m := numberedRe.FindStringSubmatch(trimmed); m != nil {
		p.listItem(true, m[1])
		return
	}

	if strings.HasPrefix(trimmed, ">") {
		text := strings.TrimSpace(strings.TrimPrefix(trimmed, ">"))
		if co, ok := p.pending.(models.CalloutBlock); ok {
			co.Text = joinNonEmpty(co.Text, text)
			p.pending = co
			return
		}
		p.flush()
		co := models.CalloutBlock{Variant: "quote", Text: text}
		if m := calloutRe.FindStringSubmatch(text); m != nil {
			co = models.CalloutBlock{Variant: strings.ToLower(m[1]), Text: m[2]}
		}
		p.pending = co
		return
	}

	if strings.HasPrefix(trimmed, "|") {
		p.tableRow(trimmed)
		return
	}

	if len(p.para) == 0 {
		if m := embedRe.FindStringSubmatch(trimmed); m != nil {
			p.flush()
			p.out = append(p.out, models.EmbedBlock{URL: m[2], Caption: m[1]})
			return
		}
		if m := wikiOnlyRe.FindStringSubmatch(trimmed); m != nil {
			p.flush()
			target, label := m[1], ""
			if i := strings.Index(target, "|"); i >= 0 {
				target, label = target[:i], strings.TrimSpace(target[i+1:])
			}
			p.out = append(p.out, models.LinkBlock{Target: strings.TrimSpace(target), Label: label})
			return
		}
		if m := mdLinkRe.FindStringSubmatch(trimmed); m != nil {
			p.flush()
			p.out = append(p.out, models.LinkBlock{URL: m[2], Label: m[1]})
			return
		}
	}

	if p.pending != nil {
		p.flush()
	}
	p.para = append(p.para, trimmed)
}

func (p *blockParser) listItem(ordered bool, text string) {
	if l, ok := p.pending.(models.ListBlock); ok && l.Ordered == ordered {
		l.Items = append(l.Items, text)
		p.pending = l
		return
	}
	p.flush()
	p.pending = models.ListBlock{Ordered: ordered, Items: []string{text}}
}

func (p *blockParser) tableRow(line string) {
	t, ok := p.pending.(models.TableBlock)
	if !ok {
		p.flush()
		p.pending = models.TableBlock{Header: splitRow(line), Rows: [][]string{}}
		return
	}
	if tableSepRe.MatchString(line) {
		return
	}
	t.Rows = append(t.Rows, splitRow(line))
	p.pending = t
}

func (p *blockParser) flush() {
	if len(p.para) > 0 {
		p.out = append(p.out, models.TextBlock{Text: strings.Join(p.para, "\n")})
		p.para = nil
	}
	if p.pending != nil {
		p.out = append(p.out, p.pending)
		p.pending = nil
	}
	if p.inFence {
		// Unterminated fence at end of input.
		p.out = append(p.out, models.TextBlock{Text: strings.Join(p.fence, "\n")})
		p.fence = nil
		p.inFence = false
	}
}

func splitRow(line string) []string {
	line = strings.TrimSpace(line)
	line = strings.TrimPrefix(line, "|")
	line = strings.TrimSuffix(line, "|")
	cells := strings.Split(line, "|")
	for i, c := range cells {
		cells[i] = strings.TrimSpace(c)
	}
	return cells
}

func joinNonEmpty(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	}
	return a + "\n" + b
}
