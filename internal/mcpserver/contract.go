package mcpserver

// NoteFormatContract describes the canonical Markdown note format that
// LLM consumers should follow when creating or updating notes.
const NoteFormatContract = `# Arbor Note Format Contract

Every Markdown note stored in Arbor MUST follow this structure. The
frontmatter fields ` + "`" + `id` + "`" + `, ` + "`" + `parent` + "`" + `, ` + "`" + `order` + "`" + ` and ` + "`" + `color` + "`" + ` place the note in the
hierarchy graph; everything else is content.

## Structure

` + "```" + `markdown
---
title: Human-readable title        # OPTIONAL – defaults to the first heading
id: api-design                     # OPTIONAL – defaults to the path without .md
parent: "[[projects]]"             # OPTIONAL – omit for a root note
order: 2                           # OPTIONAL – position among siblings (default 0)
color: "#4f46e5"                   # OPTIONAL – accent colour for graph views
tags:                              # OPTIONAL – YAML list; used for filtering
  - tag-one
created: 2025-01-15                # OPTIONAL – ISO-8601 date or datetime
---

Body text in standard Markdown.

Use [[wikilinks]] to reference other notes (without .md extension).
Use [[target|alias]] for display text that differs from the target.
` + "```" + `

## Rules

1. **Frontmatter** fences must be the first thing in the file (no leading
   blank lines).
2. **` + "`" + `parent` + "`" + `** names exactly one note, by id, by path stem or by title. A
   note with no parent is a root; a note whose parent does not exist is an
   orphan and is reported by ` + "`" + `validate_hierarchy` + "`" + `.
3. **Cycles** (a note that is its own ancestor) are never repaired
   automatically; they are reported by ` + "`" + `validate_hierarchy` + "`" + `.
4. **Siblings** are ordered by ` + "`" + `order` + "`" + `, then by id.
5. **Tags** are lowercase, kebab-case (e.g. ` + "`" + `project-x` + "`" + `).
6. **Wikilinks** use double brackets: ` + "`" + `[[other-note]]` + "`" + `. A wikilink between a
   parent and its child adds no extra edge to the graph.
7. **File paths** end with ` + "`" + `.md` + "`" + ` and use forward slashes.
8. **Encoding** is UTF-8 with a trailing newline.

## Example

` + "```" + `markdown
---
id: standup-2025-01-20
parent: "[[meetings]]"
order: 3
tags:
  - meeting-notes
---

# Weekly standup 2025-01-20

- [ ] [[alice]] to review the [[design-doc]]
- [x] Bob to update [[project-x/roadmap|the roadmap]]

> [!warning] Release freeze starts Friday.
` + "```" + `
`
