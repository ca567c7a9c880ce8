package visitors

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/FocuswithJustin/writings/core/citation"
	"github.com/FocuswithJustin/writings/core/errors"
	"github.com/FocuswithJustin/writings/core/markup"
	"github.com/FocuswithJustin/writings/core/walker"
	"github.com/FocuswithJustin/writings/core/writings"
	"github.com/FocuswithJustin/writings/internal/logging"
	"golang.org/x/net/html"
)

var (
	cdbInvocationClass = markup.NewClassList("ub w kf")

	cdbWorkTitle    = markup.SelfOrDescendants("*", "g")
	cdbWorkSubtitle = markup.MustCompile("descendant-or-self::*[" +
		markup.ClassTest("hb") + " or " + markup.ClassTest("j") + "]")
	cdbParagraphNumber = markup.Descendants("a", "td")
)

// CDBVisitor extracts The Call of the Divine Beloved. Its paragraphs mix
// prose with verse: every span.dd stanza inside a paragraph becomes a
// record of its own, and the prose around it is split accordingly.
type CDBVisitor struct {
	work     string
	subtitle string
	inWork   bool
	index    int
	pool     *citation.Pool
	records  []writings.CDBParagraph
}

// NewCDBVisitor returns an empty visitor.
func NewCDBVisitor() *CDBVisitor {
	return &CDBVisitor{pool: citation.NewPool(nil)}
}

// ParseCDB extracts every paragraph and stanza of doc.
func ParseCDB(doc string) ([]writings.CDBParagraph, error) {
	return Extract[writings.CDBParagraph](NewCDBVisitor(), doc)
}

// Records returns the paragraphs collected so far.
func (v *CDBVisitor) Records() []writings.CDBParagraph {
	return v.records
}

// Visit implements walker.Visitor.
func (v *CDBVisitor) Visit(n *html.Node, _ int) (walker.Action, error) {
	if n.Data == "body" {
		notes, err := citation.Harvest(n)
		if err != nil {
			return walker.Stop, err
		}
		v.pool = citation.NewPool(notes)
	}

	if n.Data == "h2" && strings.TrimSpace(markup.Text(n, 1, false)) == "Notes" {
		logging.Debug("notes reached", "work", WorkCDB, "records", len(v.records))
		return walker.Stop, nil
	}

	if title, ok := cdbTitle(n); ok {
		if title == "Preface" {
			return walker.VisitChildren, nil
		}
		if title != v.work {
			logging.Debug("work", "work", WorkCDB, "title", title)
			v.work = title
			v.subtitle = cdbSubtitle(n)
			v.index = 0
		}
		v.inWork = true
		return walker.VisitChildren, nil
	}

	if !v.inWork || n.Data != "p" {
		return walker.VisitChildren, nil
	}

	// Subtitles live in the title block and are not content.
	if isInsideIC(n) {
		cl := markup.ClassesOf(n)
		if cl.Has("hb") || cl.Has("j") {
			return walker.SkipChildren, nil
		}
	}

	id, err := refID(WorkCDB, n)
	if err != nil {
		return walker.Stop, err
	}

	var number int
	if a := cdbParagraphNumber.First(n); a != nil {
		number, _ = strconv.Atoi(markup.Text(a, 0, true))
	}

	base := writings.StyleText
	if markup.ClassesOf(n).Equal(cdbInvocationClass) {
		base = writings.StyleInvocation
	}

	s := &stanzaSplitter{pool: v.pool, owner: id, base: base}
	pieces, err := s.split(n)
	if err != nil {
		return walker.Stop, err
	}
	if len(pieces) == 0 {
		return walker.Stop, errors.NewStructure(WorkCDB, "paragraph text", id)
	}

	for k, p := range pieces {
		pid := id
		if k > 0 {
			pid = fmt.Sprintf("%s-%d", id, k)
		}
		v.index++
		v.records = append(v.records, writings.CDBParagraph{
			RefID:        pid,
			WorkTitle:    v.work,
			WorkSubtitle: v.subtitle,
			Number:       number,
			Index:        v.index,
			Style:        p.style,
			Text:         p.text,
			Citations:    p.citations,
		})
	}
	return walker.SkipChildren, nil
}

func isInsideIC(n *html.Node) bool {
	return markup.HasAncestor(n, func(a *html.Node) bool {
		return markup.Is(a, "", "ic")
	})
}

// cdbTitle returns the first ".ic .g" title at or below n.
func cdbTitle(n *html.Node) (string, bool) {
	for _, g := range cdbWorkTitle.All(n) {
		if isInsideIC(g) {
			return markup.Text(g, 0, true), true
		}
	}
	return "", false
}

func cdbSubtitle(n *html.Node) string {
	for _, s := range cdbWorkSubtitle.All(n) {
		if isInsideIC(s) {
			return markup.Text(s, 0, true)
		}
	}
	return ""
}

type piece struct {
	text      string
	style     writings.ParagraphStyle
	citations []writings.Citation
}

// stanzaSplitter cuts one paragraph into prose and stanza pieces. Text
// accumulates into the current line; lines accumulate into the current
// segment until a stanza boundary flushes it.
type stanzaSplitter struct {
	pool  *citation.Pool
	owner string
	base  writings.ParagraphStyle

	line      strings.Builder
	lineCites []writings.Citation

	lines    []string
	segLen   int
	segCites []writings.Citation

	out []piece
	err error
}

func (s *stanzaSplitter) split(p *html.Node) ([]piece, error) {
	s.walk(p)
	if s.err != nil {
		return nil, s.err
	}
	s.flush(s.base)

	// Markers after the last text stay with the last piece.
	if len(s.segCites) > 0 && len(s.out) > 0 {
		last := &s.out[len(s.out)-1]
		for _, c := range s.segCites {
			c.Offset = len(last.text)
			last.citations = append(last.citations, c)
		}
	}
	return s.out, nil
}

func (s *stanzaSplitter) walk(n *html.Node) {
	for c := n.FirstChild; c != nil && s.err == nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			if strings.TrimSpace(c.Data) == "" && s.line.Len() == 0 {
				continue
			}
			s.line.WriteString(c.Data)
		case html.ElementNode:
			s.element(c)
		}
	}
}

func (s *stanzaSplitter) element(c *html.Node) {
	if markup.Is(c, "a", "td") {
		return
	}
	cit, ok, err := markup.CitationMarker(c, s.line.Len())
	if err != nil {
		s.err = err
		return
	}
	if ok {
		if err := s.pool.ResolveOne(s.owner, &cit); err != nil {
			s.err = err
			return
		}
		s.lineCites = append(s.lineCites, cit)
		return
	}

	switch {
	case markup.Is(c, "span", "dd"):
		s.flush(s.base)
		s.walk(c)
		s.flush(writings.StyleBlockquote)
	case markup.Is(c, "span", "ce"):
		s.walk(c)
		s.endLine()
	default:
		s.walk(c)
	}
}

// endLine closes the current line, dropping it when blank. Citation offsets
// move from the raw line to the segment text.
func (s *stanzaSplitter) endLine() {
	text, remap := markup.Normalize(s.line.String(), true)
	start := s.segLen
	if text != "" && len(s.lines) > 0 {
		start++
	}
	for _, c := range s.lineCites {
		if text == "" {
			c.Offset = s.segLen
		} else {
			c.Offset = start + remap(c.Offset)
		}
		s.segCites = append(s.segCites, c)
	}
	if text != "" {
		s.lines = append(s.lines, text)
		s.segLen = start + len(text)
	}
	s.line.Reset()
	s.lineCites = nil
}

// flush emits the current segment as a piece of the given style. An empty
// segment emits nothing and keeps its citations for the next piece.
func (s *stanzaSplitter) flush(style writings.ParagraphStyle) {
	s.endLine()
	if len(s.lines) == 0 {
		return
	}
	cites := s.segCites
	if cites == nil {
		cites = []writings.Citation{}
	}
	s.out = append(s.out, piece{
		text:      strings.Join(s.lines, "\n"),
		style:     style,
		citations: cites,
	})
	s.lines = nil
	s.segLen = 0
	s.segCites = nil
}
