// Package markup parses the small markdown subset chat replies use and
// renders it as HTML or as styled terminal text.
package markup

import "strings"

// Node is an inline element
type Node interface {
	inline()
}

// Text is literal text, unescaped
type Text struct{ Value string }

// Raw is a tag or character reference copied through verbatim
type Raw struct{ Value string }

type Strong struct{ Children []Node }

type Emphasis struct{ Children []Node }

// Link keeps its target even when it is not safe to render as an anchor
type Link struct {
	Href     string
	Children []Node
}

func (Text) inline()     {}
func (Raw) inline()      {}
func (Strong) inline()   {}
func (Emphasis) inline() {}
func (Link) inline()     {}

// Safe reports whether the link may be rendered as an anchor
func (l Link) Safe() bool {
	return safeURL(l.Href)
}

// Block is a line-level element
type Block interface {
	block()
}

type Heading struct {
	Level  int
	Inline []Node
}

type List struct {
	Items [][]Node
}

// Line is an ordinary line of text, possibly empty
type Line struct {
	Inline []Node
}

func (Heading) block() {}
func (List) block()    {}
func (Line) block()    {}

type Document struct {
	Blocks []Block
}

// Parse builds the document tree for content
func Parse(content string) *Document {
	content = strings.ReplaceAll(content, "\r\n", "\n")

	doc := &Document{}
	var list *List

	for _, line := range strings.Split(content, "\n") {
		if item, ok := strings.CutPrefix(line, "- "); ok {
			if list == nil {
				list = &List{}
				doc.Blocks = append(doc.Blocks, list)
			}
			list.Items = append(list.Items, parseInline(item))
			continue
		}
		list = nil

		if level, rest, ok := headingPrefix(line); ok {
			doc.Blocks = append(doc.Blocks, &Heading{Level: level, Inline: parseInline(rest)})
			continue
		}

		doc.Blocks = append(doc.Blocks, &Line{Inline: parseInline(line)})
	}

	return doc
}

func headingPrefix(line string) (int, string, bool) {
	for level, prefix := range []string{"### ", "## ", "# "} {
		if rest, ok := strings.CutPrefix(line, prefix); ok {
			return 3 - level, rest, true
		}
	}
	return 0, "", false
}

// frame is an open emphasis run on the delimiter stack
type frame struct {
	delim    string
	children []Node
}

// parseInline builds inline nodes in a single pass. A star run closes the
// innermost open run only when both have the same length; otherwise it
// opens a new run if it can, or stays literal. Runs still open at the end
// of the line are turned back into text.
func parseInline(s string) []Node {
	stack := []*frame{{}}
	top := func() *frame { return stack[len(stack)-1] }
	appendNode := func(n Node) {
		f := top()
		f.children = append(f.children, n)
	}

	for _, tok := range tokenize(s) {
		switch tok.kind {
		case tokText:
			appendNode(Text{Value: tok.value})
		case tokRaw:
			appendNode(Raw{Value: tok.value})
		case tokLink:
			appendNode(Link{Href: tok.href, Children: parseInline(tok.label)})
		case tokStars:
			f := top()
			switch {
			case tok.canClose && len(stack) > 1 && f.delim == tok.value:
				stack = stack[:len(stack)-1]
				appendNode(wrap(f))
			case tok.canOpen && tok.n <= 3:
				stack = append(stack, &frame{delim: tok.value})
			default:
				appendNode(Text{Value: tok.value})
			}
		}
	}

	for len(stack) > 1 {
		f := top()
		stack = stack[:len(stack)-1]
		appendNode(Text{Value: f.delim})
		for _, n := range f.children {
			appendNode(n)
		}
	}

	return stack[0].children
}

func wrap(f *frame) Node {
	switch len(f.delim) {
	case 1:
		return Emphasis{Children: f.children}
	case 2:
		return Strong{Children: f.children}
	default:
		return Strong{Children: []Node{Emphasis{Children: f.children}}}
	}
}
