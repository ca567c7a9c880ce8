// Package walker drives a pre-order traversal of an HTML tree, asking a
// Visitor at every element whether to descend, skip or stop.
package walker

import (
	"strings"

	"github.com/FocuswithJustin/writings/core/errors"
	"github.com/FocuswithJustin/writings/core/markup"
	"golang.org/x/net/html"
)

// Action tells Traverse how to continue after visiting a node.
type Action int

const (
	// VisitChildren descends into the node's children.
	VisitChildren Action = iota
	// SkipChildren moves on to the node's next sibling.
	SkipChildren
	// Stop ends the whole traversal.
	Stop
)

func (a Action) String() string {
	switch a {
	case VisitChildren:
		return "visit-children"
	case SkipChildren:
		return "skip-children"
	case Stop:
		return "stop"
	}
	return "unknown"
}

// Visitor is called for every element in document order. depth is 0 for the
// traversal root. A non-nil error aborts the traversal.
type Visitor interface {
	Visit(n *html.Node, depth int) (Action, error)
}

// VisitorFunc adapts a function to the Visitor interface.
type VisitorFunc func(n *html.Node, depth int) (Action, error)

// Visit calls f(n, depth).
func (f VisitorFunc) Visit(n *html.Node, depth int) (Action, error) {
	return f(n, depth)
}

// Traverse visits root and its element descendants in pre-order. It returns
// the first error produced by v.
func Traverse(v Visitor, root *html.Node) error {
	_, err := traverse(v, root, 0)
	return err
}

func traverse(v Visitor, n *html.Node, depth int) (Action, error) {
	action, err := v.Visit(n, depth)
	if err != nil {
		return Stop, err
	}
	if action != VisitChildren {
		return action, nil
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		childAction, err := traverse(v, c, depth+1)
		if err != nil {
			return Stop, err
		}
		if childAction == Stop {
			return Stop, nil
		}
	}
	return action, nil
}

var bodySelector = markup.MustCompile("//body")

// ParseBody parses a complete document and returns its body element.
func ParseBody(doc string) (*html.Node, error) {
	root, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		return nil, errors.Wrap(err, "parsing document")
	}
	body := bodySelector.First(root)
	if body == nil {
		return nil, errors.NewStructure("document", "body element", "")
	}
	return body, nil
}
