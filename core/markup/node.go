package markup

import (
	"strings"

	"golang.org/x/net/html"
)

// IsElement reports whether n is an element node.
func IsElement(n *html.Node) bool {
	return n != nil && n.Type == html.ElementNode
}

// Name returns the tag name of an element, or "" for other nodes.
func Name(n *html.Node) string {
	if !IsElement(n) {
		return ""
	}
	return n.Data
}

// Attr returns the value of the attribute key on n.
func Attr(n *html.Node, key string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, key) {
			return a.Val, true
		}
	}
	return "", false
}

// Is reports whether n is an element with the given tag (any tag when tag is
// empty) carrying all of the given classes.
func Is(n *html.Node, tag string, classes ...string) bool {
	if !IsElement(n) {
		return false
	}
	if tag != "" && n.Data != tag {
		return false
	}
	if len(classes) == 0 {
		return true
	}
	cl := ClassesOf(n)
	for _, c := range classes {
		if !cl.Has(c) {
			return false
		}
	}
	return true
}

// HasAncestor reports whether some proper ancestor of n satisfies match.
func HasAncestor(n *html.Node, match func(*html.Node) bool) bool {
	for a := range n.Ancestors() {
		if match(a) {
			return true
		}
	}
	return false
}
