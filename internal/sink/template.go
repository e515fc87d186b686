// Package sink writes transformed content back to a relational database in
// batched transactions.
package sink

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Placeholder names accepted in write templates.
const (
	PlaceholderContent = "content"
	PlaceholderID      = "id"
)

// Template errors.
var (
	ErrUnknownPlaceholder = errors.New("unknown placeholder in sink query")
	ErrMissingPlaceholder = errors.New("sink query is missing a required placeholder")
)

// BindStyle selects how placeholders are rendered for a driver.
type BindStyle int

// Supported bind styles.
const (
	// BindDollar renders $1, $2, ... and reuses the number for repeated names.
	BindDollar BindStyle = iota
	// BindQuestion renders ? for every occurrence.
	BindQuestion
)

type segment struct {
	text string
	name string
}

// Template is a write statement with :content and :id placeholders.
type Template struct {
	raw      string
	segments []segment
}

// ParseTemplate parses query. Only :content and :id are accepted and both
// must appear. Casts such as ::text and text inside quotes are left alone.
func ParseTemplate(query string) (Template, error) {
	t := Template{raw: query}
	seen := make(map[string]bool, 2)

	var literal strings.Builder
	flush := func() {
		if literal.Len() > 0 {
			t.segments = append(t.segments, segment{text: literal.String()})
			literal.Reset()
		}
	}

	for i := 0; i < len(query); i++ {
		c := query[i]

		switch {
		case c == '\'' || c == '"':
			end := closingQuote(query, i)
			literal.WriteString(query[i:end])
			i = end - 1
		case c == ':' && i+1 < len(query) && query[i+1] == ':':
			literal.WriteString("::")
			i++
		case c == ':' && i+1 < len(query) && isNameStart(query[i+1]):
			j := i + 1
			for j < len(query) && isNamePart(query[j]) {
				j++
			}
			name := query[i+1 : j]
			if name != PlaceholderContent && name != PlaceholderID {
				return Template{}, fmt.Errorf("%w: :%s (only :%s and :%s are allowed)",
					ErrUnknownPlaceholder, name, PlaceholderContent, PlaceholderID)
			}
			flush()
			t.segments = append(t.segments, segment{name: name})
			seen[name] = true
			i = j - 1
		default:
			literal.WriteByte(c)
		}
	}
	flush()

	for _, name := range []string{PlaceholderContent, PlaceholderID} {
		if !seen[name] {
			return Template{}, fmt.Errorf("%w: :%s", ErrMissingPlaceholder, name)
		}
	}

	return t, nil
}

// String returns the template as written.
func (t Template) String() string { return t.raw }

// Render returns the statement for style and the order in which values
// must be bound.
func (t Template) Render(style BindStyle) (string, []string) {
	var sb strings.Builder
	var order []string
	numbers := make(map[string]int, 2)

	for _, seg := range t.segments {
		if seg.name == "" {
			sb.WriteString(seg.text)
			continue
		}

		switch style {
		case BindDollar:
			n, ok := numbers[seg.name]
			if !ok {
				order = append(order, seg.name)
				n = len(order)
				numbers[seg.name] = n
			}
			sb.WriteString("$" + strconv.Itoa(n))
		case BindQuestion:
			order = append(order, seg.name)
			sb.WriteString("?")
		}
	}

	return sb.String(), order
}

// bindArgs orders the values of one pending write to match order.
func bindArgs(order []string, w pendingWrite) []any {
	args := make([]any, len(order))
	for i, name := range order {
		if name == PlaceholderContent {
			args[i] = w.content
		} else {
			args[i] = w.id
		}
	}
	return args
}

// closingQuote returns the index just past the quote that closes the one at
// start. A doubled quote is an escape.
func closingQuote(s string, start int) int {
	q := s[start]
	for i := start + 1; i < len(s); i++ {
		if s[i] != q {
			continue
		}
		if i+1 < len(s) && s[i+1] == q {
			i++
			continue
		}
		return i + 1
	}
	return len(s)
}

func isNameStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isNamePart(c byte) bool {
	return isNameStart(c) || (c >= '0' && c <= '9')
}
