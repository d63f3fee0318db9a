package markup

import (
	"html"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles controls how Render draws each element
type Styles struct {
	Text     lipgloss.Style
	Strong   lipgloss.Style
	Emphasis lipgloss.Style
	Link     lipgloss.Style
	LinkURL  lipgloss.Style
	Bullet   lipgloss.Style
	Headings [3]lipgloss.Style
}

// DefaultStyles uses text attributes only, no colors
func DefaultStyles() Styles {
	heading := lipgloss.NewStyle().Bold(true)
	return Styles{
		Text:     lipgloss.NewStyle(),
		Strong:   lipgloss.NewStyle().Bold(true),
		Emphasis: lipgloss.NewStyle().Italic(true),
		Link:     lipgloss.NewStyle().Underline(true),
		LinkURL:  lipgloss.NewStyle().Faint(true),
		Bullet:   lipgloss.NewStyle(),
		Headings: [3]lipgloss.Style{heading.Underline(true), heading, heading.Faint(true)},
	}
}

// Render draws content for a terminal
func Render(content string, styles Styles) string {
	return Parse(content).Terminal(styles)
}

// Terminal renders the document as styled lines
func (d *Document) Terminal(styles Styles) string {
	var lines []string

	for _, b := range d.Blocks {
		switch b := b.(type) {
		case *Line:
			lines = append(lines, renderInline(b.Inline, styles, styles.Text))
		case *Heading:
			lines = append(lines, renderInline(b.Inline, styles, styles.Headings[b.Level-1]))
		case *List:
			for _, item := range b.Items {
				lines = append(lines, styles.Bullet.Render("  • ")+renderInline(item, styles, styles.Text))
			}
		}
	}

	return strings.Join(lines, "\n")
}

// renderInline draws nodes with base, layering the attributes of each
// enclosing element onto it
func renderInline(nodes []Node, styles Styles, base lipgloss.Style) string {
	var sb strings.Builder

	for _, n := range nodes {
		switch n := n.(type) {
		case Text:
			sb.WriteString(renderText(n.Value, base))
		case Raw:
			sb.WriteString(renderRaw(n.Value, base))
		case Strong:
			sb.WriteString(renderInline(n.Children, styles, base.Inherit(styles.Strong).Bold(true)))
		case Emphasis:
			sb.WriteString(renderInline(n.Children, styles, base.Inherit(styles.Emphasis).Italic(true)))
		case Link:
			label := renderInline(n.Children, styles, styles.Link.Inherit(base))
			sb.WriteString(label)
			if n.Safe() && plainText(n.Children) != n.Href {
				sb.WriteString(renderText(" ("+n.Href+")", styles.LinkURL))
			}
		}
	}

	return sb.String()
}

func renderText(s string, style lipgloss.Style) string {
	if s == "" {
		return ""
	}
	return style.Render(s)
}

// renderRaw turns a passthrough tag or entity back into terminal text
func renderRaw(raw string, style lipgloss.Style) string {
	if raw == "<br />" {
		return "\n"
	}
	if strings.HasPrefix(raw, "<") {
		return ""
	}
	return renderText(html.UnescapeString(raw), style)
}

// plainText flattens nodes to their unstyled text
func plainText(nodes []Node) string {
	var sb strings.Builder
	for _, n := range nodes {
		switch n := n.(type) {
		case Text:
			sb.WriteString(n.Value)
		case Raw:
			if !strings.HasPrefix(n.Value, "<") {
				sb.WriteString(html.UnescapeString(n.Value))
			}
		case Strong:
			sb.WriteString(plainText(n.Children))
		case Emphasis:
			sb.WriteString(plainText(n.Children))
		case Link:
			sb.WriteString(plainText(n.Children))
		}
	}
	return sb.String()
}
