package markup

import (
	"fmt"
	"strings"

	"github.com/antchfx/htmlquery"
	"github.com/antchfx/xpath"
	"golang.org/x/net/html"
)

// Selector is a compiled XPath expression evaluated relative to a node.
type Selector struct {
	src  string
	expr *xpath.Expr
}

// Compile compiles an XPath expression.
func Compile(expr string) (Selector, error) {
	e, err := xpath.Compile(expr)
	if err != nil {
		return Selector{}, fmt.Errorf("compiling selector %q: %w", expr, err)
	}
	return Selector{src: expr, expr: e}, nil
}

// MustCompile is like Compile but panics on error. It is meant for
// package-level selector variables.
func MustCompile(expr string) Selector {
	s, err := Compile(expr)
	if err != nil {
		panic(err)
	}
	return s
}

// First returns the first node in document order matched from n, or nil.
func (s Selector) First(n *html.Node) *html.Node {
	if n == nil {
		return nil
	}
	return htmlquery.QuerySelector(n, s.expr)
}

// All returns every node matched from n in document order.
func (s Selector) All(n *html.Node) []*html.Node {
	if n == nil {
		return nil
	}
	return htmlquery.QuerySelectorAll(n, s.expr)
}

// String returns the source expression.
func (s Selector) String() string {
	return s.src
}

// ClassStep builds an XPath step matching tag (use "*" for any) with all of
// the given classes, e.g. ClassStep("a", "sf") is the CSS selector "a.sf".
func ClassStep(tag string, classes ...string) string {
	var sb strings.Builder
	sb.WriteString(tag)
	for _, c := range classes {
		sb.WriteString("[" + ClassTest(c) + "]")
	}
	return sb.String()
}

// ClassTest builds an XPath predicate that holds when the context node
// carries class. Predicates can be joined with "or" for selector groups.
func ClassTest(class string) string {
	return fmt.Sprintf("contains(concat(' ', normalize-space(@class), ' '), ' %s ')", class)
}

// Descendants returns a selector for matching descendants of the context
// node, excluding the node itself.
func Descendants(tag string, classes ...string) Selector {
	return MustCompile(".//" + ClassStep(tag, classes...))
}

// SelfOrDescendants returns a selector that also considers the context node.
func SelfOrDescendants(tag string, classes ...string) Selector {
	return MustCompile("descendant-or-self::" + ClassStep(tag, classes...))
}
