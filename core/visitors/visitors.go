// Package visitors holds one extraction visitor per work. Each visitor walks
// the body of a snapshot once and accumulates typed paragraph records.
//
// Visitors are single-use and not safe for concurrent use. Missing
// structure and unresolved citations abort the walk with an error; a visitor
// never hands back a partial record list.
package visitors

import (
	"unicode/utf8"

	"github.com/FocuswithJustin/writings/core/errors"
	"github.com/FocuswithJustin/writings/core/markup"
	"github.com/FocuswithJustin/writings/core/walker"
	"github.com/FocuswithJustin/writings/core/writings"
	"golang.org/x/net/html"
)

// Extractor is a visitor that accumulates records of type T.
type Extractor[T writings.Writing] interface {
	walker.Visitor

	// Records returns the records collected so far, in document order.
	Records() []T
}

// Extract parses doc and walks its body with v.
func Extract[T writings.Writing](v Extractor[T], doc string) ([]T, error) {
	body, err := walker.ParseBody(doc)
	if err != nil {
		return nil, err
	}
	if err := walker.Traverse(v, body); err != nil {
		return nil, err
	}
	return v.Records(), nil
}

var refAnchor = markup.Descendants("a", "sf")

// refID returns the id of the first a.sf anchor below n.
func refID(work string, n *html.Node) (string, error) {
	a := refAnchor.First(n)
	if a == nil {
		return "", errors.NewStructure(work, "a.sf anchor", preview(n))
	}
	id, ok := markup.Attr(a, "id")
	if !ok || id == "" {
		return "", errors.NewStructure(work, "a.sf anchor id", preview(n))
	}
	return id, nil
}

// preview returns the start of n's text for error messages.
func preview(n *html.Node) string {
	const limit = 40
	text := markup.Text(n, 4, true)
	if len(text) <= limit {
		return text
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + "..."
}

var (
	instructionClasses = []markup.ClassList{
		markup.NewClassList("cb"),
		markup.NewClassList("z"),
	}
)

// classifyStyle returns the style of a paragraph with class list cl. A nil
// invocation signature disables invocation detection. Blockquote is never
// returned; it is assigned while splitting stanzas.
func classifyStyle(cl, invocation markup.ClassList, text string) writings.ParagraphStyle {
	if invocation != nil && cl.Equal(invocation) {
		return writings.StyleInvocation
	}
	for _, c := range instructionClasses {
		if cl.Contains(c) {
			return writings.StyleInstruction
		}
	}
	if len(text) > 0 && text[0] == '(' {
		return writings.StyleInstruction
	}
	return writings.StyleText
}
