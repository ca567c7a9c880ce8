// Package markup holds the HTML primitives the extraction visitors are built
// on: class-set matching, compiled XPath selectors and bounded-depth text
// extraction with citation offsets.
package markup
