package markup

import (
	"sort"
	"strings"

	"golang.org/x/net/html"
)

// ClassList is the set of class tokens on an element. Order and duplicates
// in the source attribute are irrelevant.
type ClassList map[string]struct{}

// NewClassList splits a space-separated class attribute value.
func NewClassList(s string) ClassList {
	fields := strings.Fields(s)
	c := make(ClassList, len(fields))
	for _, f := range fields {
		c[f] = struct{}{}
	}
	return c
}

// ClassesOf returns the class list of n. Non-element nodes and elements
// without a class attribute have an empty list.
func ClassesOf(n *html.Node) ClassList {
	v, _ := Attr(n, "class")
	return NewClassList(v)
}

// Has reports whether token is in the list.
func (c ClassList) Has(token string) bool {
	_, ok := c[token]
	return ok
}

// Contains reports whether every token of other is in c.
func (c ClassList) Contains(other ClassList) bool {
	for t := range other {
		if _, ok := c[t]; !ok {
			return false
		}
	}
	return true
}

// Intersects reports whether c and other share at least one token.
func (c ClassList) Intersects(other ClassList) bool {
	for t := range other {
		if _, ok := c[t]; ok {
			return true
		}
	}
	return false
}

// Equal reports whether c and other hold the same tokens.
func (c ClassList) Equal(other ClassList) bool {
	return len(c) == len(other) && c.Contains(other)
}

// String returns the tokens sorted and space-separated.
func (c ClassList) String() string {
	tokens := make([]string, 0, len(c))
	for t := range c {
		tokens = append(tokens, t)
	}
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}
