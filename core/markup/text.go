package markup

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/FocuswithJustin/writings/core/errors"
	"github.com/FocuswithJustin/writings/core/writings"
	"golang.org/x/net/html"
)

// newlineRun matches a whitespace run containing at least one line break.
// RE2's \s is ASCII only, so Unicode spaces are listed explicitly.
var newlineRun = regexp.MustCompile(`[\s\v\x{85}\p{Z}]*\n[\s\v\x{85}\p{Z}]*`)

var markerAnchor = Descendants("a")

// Text returns the text beneath n down to maxDepth levels of child elements.
// A depth of 0 reads only n's own text nodes. Citation markers (sup
// elements) never contribute text. When stripNewlines is set, every
// whitespace run containing a line break collapses to a single space and the
// result is trimmed on both ends; otherwise only trailing whitespace is
// removed.
func Text(n *html.Node, maxDepth int, stripNewlines bool) string {
	text, _, _ := extract(n, maxDepth, stripNewlines, nil, false)
	return text
}

// TextSkip is like Text but leaves out the subtrees rooted at skip.
func TextSkip(n *html.Node, maxDepth int, stripNewlines bool, skip ...*html.Node) string {
	set := make(map[*html.Node]bool, len(skip))
	for _, s := range skip {
		set[s] = true
	}
	text, _, _ := extract(n, maxDepth, stripNewlines, set, false)
	return text
}

// TextWithCitations is like Text but also turns each citation marker into a
// Citation whose Offset is the byte position of the marker in the returned
// text. A marker whose label is not an integer is an error.
func TextWithCitations(n *html.Node, maxDepth int, stripNewlines bool) (string, []writings.Citation, error) {
	return extract(n, maxDepth, stripNewlines, nil, true)
}

// CitationMarker converts a sup element into a Citation at offset. ok is
// false when n is not a sup or carries no link.
func CitationMarker(n *html.Node, offset int) (c writings.Citation, ok bool, err error) {
	if Name(n) != "sup" {
		return c, false, nil
	}
	a := markerAnchor.First(n)
	if a == nil {
		return c, false, nil
	}
	href, found := Attr(a, "href")
	if !found {
		return c, false, nil
	}
	label := Text(n, 1, true)
	number, convErr := strconv.Atoi(label)
	if convErr != nil {
		return c, false, errors.NewParse("citation number", label, "not an integer")
	}
	return writings.Citation{
		RefID:  strings.ReplaceAll(href, "#", ""),
		Number: number,
		Offset: offset,
	}, true, nil
}

type extractor struct {
	skip      map[*html.Node]bool
	citations bool
	buf       strings.Builder
	found     []writings.Citation
	err       error
}

func extract(n *html.Node, maxDepth int, stripNewlines bool, skip map[*html.Node]bool, citations bool) (string, []writings.Citation, error) {
	e := &extractor{skip: skip, citations: citations}
	e.walk(n, maxDepth)
	if e.err != nil {
		return "", nil, e.err
	}

	text, remap := finish(e.buf.String(), stripNewlines)
	for i := range e.found {
		e.found[i].Offset = remap(e.found[i].Offset)
	}
	return text, e.found, nil
}

func (e *extractor) walk(n *html.Node, depth int) {
	if e.err != nil || e.skip[n] {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.ElementNode:
			if c.Data == "sup" {
				if e.citations {
					cit, ok, err := CitationMarker(c, e.buf.Len())
					if err != nil {
						e.err = err
						return
					}
					if ok {
						e.found = append(e.found, cit)
					}
				}
				continue
			}
			if depth > 0 {
				e.walk(c, depth-1)
			}
		case html.TextNode:
			text := c.Data
			if e.buf.Len() == 0 {
				text = strings.TrimLeftFunc(text, unicode.IsSpace)
			}
			e.buf.WriteString(text)
		}
	}
}

// Normalize applies the whitespace handling of Text to raw. The returned
// function maps byte offsets in raw to offsets in the result.
func Normalize(raw string, stripNewlines bool) (string, func(int) int) {
	return finish(raw, stripNewlines)
}

// finish applies whitespace normalisation to raw and returns the result with
// a function mapping byte offsets in raw to offsets in the result.
func finish(raw string, stripNewlines bool) (string, func(int) int) {
	text := raw
	var runs [][]int
	if stripNewlines {
		runs = newlineRun.FindAllStringIndex(raw, -1)
		text = newlineRun.ReplaceAllLiteralString(raw, " ")
	}

	lead := 0
	if stripNewlines {
		trimmed := strings.TrimLeftFunc(text, unicode.IsSpace)
		lead = len(text) - len(trimmed)
		text = trimmed
	}
	text = strings.TrimRightFunc(text, unicode.IsSpace)

	remap := func(o int) int {
		shift := 0
		for _, r := range runs {
			if o >= r[1] {
				shift += (r[1] - r[0]) - 1
				continue
			}
			if o > r[0] {
				o = r[0] + 1
			}
			break
		}
		o = o - shift - lead
		if o < 0 {
			return 0
		}
		if o > len(text) {
			return len(text)
		}
		return o
	}
	return text, remap
}
