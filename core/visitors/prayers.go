package visitors

import (
	"github.com/FocuswithJustin/writings/core/citation"
	"github.com/FocuswithJustin/writings/core/markup"
	"github.com/FocuswithJustin/writings/core/walker"
	"github.com/FocuswithJustin/writings/core/writings"
	"github.com/FocuswithJustin/writings/internal/logging"
	"golang.org/x/net/html"
)

var (
	prayerEndnotesClass   = markup.NewClassList("bf wf")
	prayerTitleClass      = markup.NewClassList("e")
	prayerAuthorClass     = markup.NewClassList("hb ac")
	prayerKindClass       = markup.NewClassList("g c")
	prayerSectionClass    = markup.NewClassList("ub c l")
	prayerSubsectionClass = markup.NewClassList("xc jb c kf z nb zd ub")
	prayerTeachingClass   = markup.NewClassList("c kf z nb zd ub")

	prayerAuthorLine = markup.Descendants("*", "hb", "ac")
)

// PrayersVisitor extracts Bahá'í Prayers.
//
// The author line follows the prayer it signs, so the first paragraph of a
// prayer looks ahead for it. The author line then closes the prayer.
type PrayersVisitor struct {
	number    int
	paragraph int
	section   []string
	author    writings.Author
	pool      *citation.Pool
	records   []writings.PrayerParagraph
}

// NewPrayersVisitor returns an empty visitor.
func NewPrayersVisitor() *PrayersVisitor {
	return &PrayersVisitor{pool: citation.NewPool(nil)}
}

// ParsePrayers extracts every prayer paragraph of doc.
func ParsePrayers(doc string) ([]writings.PrayerParagraph, error) {
	return Extract[writings.PrayerParagraph](NewPrayersVisitor(), doc)
}

// Records returns the paragraphs collected so far.
func (v *PrayersVisitor) Records() []writings.PrayerParagraph {
	return v.records
}

// Visit implements walker.Visitor.
func (v *PrayersVisitor) Visit(n *html.Node, depth int) (walker.Action, error) {
	if n.Data == "body" {
		notes, err := citation.Harvest(n)
		if err != nil {
			return walker.Stop, err
		}
		v.pool = citation.NewPool(notes)
	}

	if n.Data == "nav" {
		logging.Debug("skip nav", "work", WorkPrayers)
		return walker.SkipChildren, nil
	}

	cl := markup.ClassesOf(n)
	if cl.Equal(prayerTitleClass) {
		return walker.SkipChildren, nil
	}
	if cl.Intersects(prayerEndnotesClass) {
		logging.Debug("end of body", "work", WorkPrayers, "records", len(v.records))
		return walker.Stop, nil
	}

	if level, ok := prayerSectionLevel(cl); ok {
		heading := markup.Text(n, 1, true)
		v.section = append(v.section[:min(level, len(v.section))], heading)
		logging.Debug("section", "work", WorkPrayers, "level", level, "depth", depth, "heading", heading)
		return walker.SkipChildren, nil
	}

	// The author line ends a prayer.
	if _, ok := prayerAuthor(n); ok {
		v.author = ""
		v.paragraph = 0
		return walker.SkipChildren, nil
	}

	if n.Data != "p" {
		return walker.VisitChildren, nil
	}

	if v.author == "" {
		if author, ok := findNextAuthor(n); ok {
			v.author = author
			v.number++
		}
	}
	if v.author == "" {
		return walker.VisitChildren, nil
	}

	text, cites, err := markup.TextWithCitations(n, 4, true)
	if err != nil {
		return walker.Stop, err
	}
	if text == "" {
		return walker.VisitChildren, nil
	}

	id, err := refID(WorkPrayers, n)
	if err != nil {
		return walker.Stop, err
	}
	if err := v.pool.Resolve(id, cites); err != nil {
		return walker.Stop, err
	}
	if cites == nil {
		cites = []writings.Citation{}
	}

	v.paragraph++
	v.records = append(v.records, writings.PrayerParagraph{
		RefID:     id,
		Source:    writings.SourceBahaiPrayers,
		Author:    v.author,
		Kind:      v.kind(),
		Section:   v.subsections(),
		Number:    v.number,
		Paragraph: v.paragraph,
		Style:     classifyStyle(cl, nil, markup.Text(n, 1, true)),
		Text:      text,
		Citations: cites,
	})
	return walker.SkipChildren, nil
}

// kind maps the outermost heading to a prayer kind. Content before the first
// category heading belongs to the prologue.
func (v *PrayersVisitor) kind() writings.PrayerKind {
	if len(v.section) > 0 {
		if k, ok := writings.ParsePrayerKind(v.section[0]); ok {
			return k
		}
	}
	return writings.PrayerPrologue
}

func (v *PrayersVisitor) subsections() []string {
	if len(v.section) <= 1 {
		return []string{}
	}
	out := make([]string, len(v.section)-1)
	copy(out, v.section[1:])
	return out
}

func prayerSectionLevel(cl markup.ClassList) (int, bool) {
	switch {
	case cl.Contains(prayerSubsectionClass):
		return 2, true
	case cl.Contains(prayerTeachingClass):
		return 3, true
	case cl.Contains(prayerSectionClass):
		return 1, true
	case cl.Equal(prayerKindClass):
		return 0, true
	}
	return 0, false
}

// prayerAuthor reports the author named by an author line.
func prayerAuthor(n *html.Node) (writings.Author, bool) {
	if !markup.ClassesOf(n).Contains(prayerAuthorClass) {
		return "", false
	}
	return writings.IdentifyAuthor(markup.Text(n, 1, true))
}

// findNextAuthor climbs from n's parent and returns the author of the first
// author line found below an ancestor.
func findNextAuthor(n *html.Node) (writings.Author, bool) {
	for a := n.Parent; a != nil; a = a.Parent {
		line := prayerAuthorLine.First(a)
		if line == nil {
			continue
		}
		if author, ok := prayerAuthor(line); ok {
			return author, true
		}
	}
	return "", false
}
