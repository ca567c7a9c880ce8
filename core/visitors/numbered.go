package visitors

import (
	"fmt"
	"strings"

	"github.com/FocuswithJustin/writings/core/errors"
	"github.com/FocuswithJustin/writings/core/markup"
	"github.com/FocuswithJustin/writings/core/roman"
	"github.com/FocuswithJustin/writings/core/walker"
	"github.com/FocuswithJustin/writings/core/writings"
	"github.com/FocuswithJustin/writings/internal/logging"
	"golang.org/x/net/html"
)

var (
	numberHeadingClass = markup.NewClassList("c q")
	footerClass        = markup.NewClassList("wf")
)

// numbered extracts works made of roman-numbered selections, each a run of
// plain paragraphs. The heading's numeral must match the running count.
type numbered[T writings.Writing] struct {
	work      string
	number    int
	paragraph int
	seenFirst bool
	build     func(number int, numeral string, paragraph int, refID, text string) T
	records   []T
}

// Records returns the paragraphs collected so far.
func (v *numbered[T]) Records() []T {
	return v.records
}

// Visit implements walker.Visitor.
func (v *numbered[T]) Visit(n *html.Node, _ int) (walker.Action, error) {
	cl := markup.ClassesOf(n)

	if cl.Equal(numberHeadingClass) {
		v.seenFirst = true
		v.number++
		v.paragraph = 0
		want, _ := roman.To(v.number)
		if got := upperASCII(markup.Text(n, 0, true)); got != want {
			return walker.Stop, &errors.StructureError{
				Work:    v.work,
				Element: "numeral heading",
				Context: fmt.Sprintf("selection %d", v.number),
				Err:     fmt.Errorf("got %q, want %q", got, want),
			}
		}
		return walker.SkipChildren, nil
	}

	if !v.seenFirst {
		return walker.VisitChildren, nil
	}

	if cl.Equal(footerClass) {
		logging.Debug("footer reached", "work", v.work, "records", len(v.records))
		return walker.Stop, nil
	}

	if n.Data != "p" {
		return walker.VisitChildren, nil
	}

	id, err := refID(v.work, n)
	if err != nil {
		return walker.Stop, err
	}
	v.paragraph++
	numeral, _ := roman.To(v.number)
	v.records = append(v.records, v.build(v.number, numeral, v.paragraph, id, markup.Text(n, 4, true)))
	return walker.SkipChildren, nil
}

func upperASCII(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if c := s[i]; c >= 'A' && c <= 'Z' {
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

// GleaningsVisitor extracts Gleanings from the Writings of Bahá’u’lláh.
type GleaningsVisitor struct {
	numbered[writings.GleaningParagraph]
}

// NewGleaningsVisitor returns an empty visitor.
func NewGleaningsVisitor() *GleaningsVisitor {
	return &GleaningsVisitor{numbered[writings.GleaningParagraph]{
		work: WorkGleanings,
		build: func(number int, numeral string, paragraph int, refID, text string) writings.GleaningParagraph {
			return writings.GleaningParagraph{
				RefID:     refID,
				Number:    number,
				Roman:     numeral,
				Paragraph: paragraph,
				Text:      text,
			}
		},
	}}
}

// ParseGleanings extracts every gleaning paragraph of doc.
func ParseGleanings(doc string) ([]writings.GleaningParagraph, error) {
	return Extract[writings.GleaningParagraph](NewGleaningsVisitor(), doc)
}

// MeditationsVisitor extracts Prayers and Meditations.
type MeditationsVisitor struct {
	numbered[writings.MeditationParagraph]
}

// NewMeditationsVisitor returns an empty visitor.
func NewMeditationsVisitor() *MeditationsVisitor {
	return &MeditationsVisitor{numbered[writings.MeditationParagraph]{
		work: WorkMeditations,
		build: func(number int, numeral string, paragraph int, refID, text string) writings.MeditationParagraph {
			return writings.MeditationParagraph{
				RefID:     refID,
				Number:    number,
				Roman:     numeral,
				Paragraph: paragraph,
				Text:      text,
			}
		},
	}}
}

// ParseMeditations extracts every meditation paragraph of doc.
func ParseMeditations(doc string) ([]writings.MeditationParagraph, error) {
	return Extract[writings.MeditationParagraph](NewMeditationsVisitor(), doc)
}
