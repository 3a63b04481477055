// Copyright 2024-2026 Aiku AI

package message

import "strings"

const (
	plainBreak = "|"
	htmlBreak  = "<br>"
)

// Part lets a value render itself into both encodings of a message. The
// break string passed in is the separator the builder is using; the
// implementor appends it itself so multi-line parts can place separators
// between their own lines.
type Part interface {
	Plain(breakStr string) string
	HTML(breakStr string) string
}

// Builder assembles a Data forward-only. Plain segments are separated by
// " | ", HTML segments by "<br>"; trailing separators are trimmed when the
// message is built.
type Builder struct {
	plain strings.Builder
	html  strings.Builder
}

// AddHeading starts a section: "key: value" in plain text, an <h1> in HTML.
func (b *Builder) AddHeading(key, value string) *Builder {
	b.plain.WriteString(key)
	b.plain.WriteString(": ")
	b.plain.WriteString(value)

	b.html.WriteString("<h1>")
	b.html.WriteString(key)
	b.html.WriteString(": ")
	b.html.WriteString(value)
	b.html.WriteString("</h1>")
	return b.Break()
}

// AddKeyValue appends "key: value", bolding the key in HTML.
func (b *Builder) AddKeyValue(key, value string) *Builder {
	b.plain.WriteString(" ")
	b.plain.WriteString(key)
	b.plain.WriteString(": ")
	b.plain.WriteString(value)

	b.html.WriteString("<strong>")
	b.html.WriteString(key)
	b.html.WriteString("</strong>: ")
	b.html.WriteString(value)
	return b.Break()
}

// AddKeyValueCode is AddKeyValue with the value wrapped in <code> tags in
// the HTML encoding. Used for IDs, credentials, and file paths.
func (b *Builder) AddKeyValueCode(key, value string) *Builder {
	b.plain.WriteString(" ")
	b.plain.WriteString(key)
	b.plain.WriteString(": ")
	b.plain.WriteString(value)

	b.html.WriteString("<strong>")
	b.html.WriteString(key)
	b.html.WriteString("</strong>: <code>")
	b.html.WriteString(value)
	b.html.WriteString("</code>")
	return b.Break()
}

// AddLine appends a line of text followed by a break.
func (b *Builder) AddLine(line string) *Builder {
	b.plain.WriteString(line)
	b.html.WriteString(line)
	return b.Break()
}

// AddPart appends a Part as-is. The part is responsible for its own
// separators.
func (b *Builder) AddPart(part Part) *Builder {
	b.plain.WriteString(part.Plain(plainBreak))
	b.html.WriteString(part.HTML(htmlBreak))
	return b
}

// Break appends the separator to both encodings.
func (b *Builder) Break() *Builder {
	b.plain.WriteString(" ")
	b.plain.WriteString(plainBreak)
	b.html.WriteString(" ")
	b.html.WriteString(htmlBreak)
	return b
}

// Message returns the assembled Data. Trailing separators and surrounding
// whitespace are trimmed from the plain encoding; trailing separators from
// the HTML encoding.
func (b *Builder) Message() Data {
	return Data{
		Plain: strings.TrimSpace(strings.TrimSuffix(strings.TrimRight(b.plain.String(), " "), plainBreak)),
		HTML:  strings.TrimSpace(strings.TrimSuffix(strings.TrimRight(b.html.String(), " "), htmlBreak)),
	}
}
