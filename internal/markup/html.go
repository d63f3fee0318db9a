package markup

import (
	"fmt"
	"strings"
)

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
	"*", "&#42;",
	"[", "&#91;",
)

// Format renders content as HTML. Only a fixed set of tags is produced, all
// text is escaped and the result contains no newlines. Those tags and
// character references are copied through when met again, so formatting
// already formatted output returns it unchanged.
func Format(content string) string {
	return Parse(content).HTML()
}

// HTML renders the document. Consecutive lines are joined with <br />;
// headings and lists are blocks and need no separator.
func (d *Document) HTML() string {
	var sb strings.Builder
	prevLine := false

	for _, b := range d.Blocks {
		switch b := b.(type) {
		case *Line:
			if prevLine {
				sb.WriteString("<br />")
			}
			writeInlineHTML(&sb, b.Inline)
			prevLine = true
		case *Heading:
			fmt.Fprintf(&sb, "<h%d>", b.Level)
			writeInlineHTML(&sb, b.Inline)
			fmt.Fprintf(&sb, "</h%d>", b.Level)
			prevLine = false
		case *List:
			sb.WriteString("<ul>")
			for _, item := range b.Items {
				sb.WriteString("<li>")
				writeInlineHTML(&sb, item)
				sb.WriteString("</li>")
			}
			sb.WriteString("</ul>")
			prevLine = false
		}
	}

	return escapeLeadingMarker(sb.String())
}

// escapeLeadingMarker keeps output that begins like a heading or list item
// from parsing as one. Only the start matters as the output is one line.
func escapeLeadingMarker(out string) string {
	if _, _, ok := headingPrefix(out); ok {
		return "&#35;" + out[1:]
	}
	if strings.HasPrefix(out, "- ") {
		return "&#45;" + out[1:]
	}
	return out
}

func writeInlineHTML(sb *strings.Builder, nodes []Node) {
	for _, n := range nodes {
		switch n := n.(type) {
		case Text:
			sb.WriteString(htmlEscaper.Replace(n.Value))
		case Raw:
			sb.WriteString(n.Value)
		case Strong:
			sb.WriteString("<strong>")
			writeInlineHTML(sb, n.Children)
			sb.WriteString("</strong>")
		case Emphasis:
			sb.WriteString("<em>")
			writeInlineHTML(sb, n.Children)
			sb.WriteString("</em>")
		case Link:
			if !n.Safe() {
				writeInlineHTML(sb, n.Children)
				continue
			}
			sb.WriteString(`<a href="`)
			sb.WriteString(htmlEscaper.Replace(n.Href))
			sb.WriteString(`">`)
			writeInlineHTML(sb, n.Children)
			sb.WriteString("</a>")
		}
	}
}
