package markup

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tokText tokenKind = iota
	tokRaw
	tokStars
	tokLink
)

type token struct {
	kind  tokenKind
	value string

	// stars
	n        int
	canOpen  bool
	canClose bool

	// link
	label string
	href  string
}

// tags Format emits. They pass through the tokenizer untouched.
var passthroughTags = []string{
	"<strong>", "</strong>",
	"<em>", "</em>",
	"<br />",
	"<h1>", "</h1>", "<h2>", "</h2>", "<h3>", "</h3>",
	"<ul>", "</ul>", "<li>", "</li>",
	"</a>",
}

// tokenize splits one line into inline tokens
func tokenize(line string) []token {
	var (
		tokens []token
		text   strings.Builder
	)

	flush := func() {
		if text.Len() > 0 {
			tokens = append(tokens, token{kind: tokText, value: text.String()})
			text.Reset()
		}
	}

	for i := 0; i < len(line); {
		switch line[i] {
		case '<':
			if n := matchTag(line[i:]); n > 0 {
				flush()
				tokens = append(tokens, token{kind: tokRaw, value: line[i : i+n]})
				i += n
				continue
			}
		case '&':
			if n := matchEntity(line[i:]); n > 0 {
				flush()
				tokens = append(tokens, token{kind: tokRaw, value: line[i : i+n]})
				i += n
				continue
			}
		case '*':
			j := i
			for j < len(line) && line[j] == '*' {
				j++
			}
			prev, _ := utf8.DecodeLastRuneInString(line[:i])
			next, _ := utf8.DecodeRuneInString(line[j:])
			flush()
			tokens = append(tokens, token{
				kind:     tokStars,
				value:    line[i:j],
				n:        j - i,
				canOpen:  j < len(line) && !unicode.IsSpace(next),
				canClose: i > 0 && !unicode.IsSpace(prev),
			})
			i = j
			continue
		case '[':
			if label, href, n := matchLink(line[i:]); n > 0 {
				flush()
				tokens = append(tokens, token{kind: tokLink, value: line[i : i+n], label: label, href: href})
				i += n
				continue
			}
		}

		text.WriteByte(line[i])
		i++
	}

	flush()
	return tokens
}

// matchTag returns the length of a known tag at the start of s, or 0
func matchTag(s string) int {
	for _, tag := range passthroughTags {
		if strings.HasPrefix(s, tag) {
			return len(tag)
		}
	}

	const open = `<a href="`
	if !strings.HasPrefix(s, open) {
		return 0
	}
	end := strings.Index(s[len(open):], `">`)
	if end < 0 {
		return 0
	}
	href := s[len(open) : len(open)+end]
	if !safeURL(href) {
		return 0
	}
	return len(open) + end + len(`">`)
}

// matchEntity returns the length of a character reference at the start of s, or 0
func matchEntity(s string) int {
	if len(s) < 3 || s[0] != '&' {
		return 0
	}

	i := 1
	switch {
	case s[i] == '#' && i+1 < len(s) && (s[i+1] == 'x' || s[i+1] == 'X'):
		i += 2
		start := i
		for i < len(s) && i-start < 6 && isHex(s[i]) {
			i++
		}
		if i == start {
			return 0
		}
	case s[i] == '#':
		i++
		start := i
		for i < len(s) && i-start < 7 && s[i] >= '0' && s[i] <= '9' {
			i++
		}
		if i == start {
			return 0
		}
	case isAlpha(s[i]):
		start := i
		for i < len(s) && i-start < 32 && (isAlpha(s[i]) || (s[i] >= '0' && s[i] <= '9')) {
			i++
		}
	default:
		return 0
	}

	if i >= len(s) || s[i] != ';' {
		return 0
	}
	return i + 1
}

// matchLink matches [label](href) at the start of s. The label ends at the
// first "](" and the href at the next ")".
func matchLink(s string) (label, href string, n int) {
	mid := strings.Index(s, "](")
	if mid < 1 {
		return "", "", 0
	}
	end := strings.IndexByte(s[mid+2:], ')')
	if end < 1 {
		return "", "", 0
	}
	return s[1:mid], s[mid+2 : mid+2+end], mid + 2 + end + 1
}

// safeURL accepts http, https and mailto targets without whitespace or
// characters that could leave an attribute
func safeURL(href string) bool {
	lower := strings.ToLower(href)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") && !strings.HasPrefix(lower, "mailto:") {
		return false
	}
	return !strings.ContainsAny(href, "\"'<> \t\r\n`")
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
