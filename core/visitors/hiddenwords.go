package visitors

import (
	"github.com/FocuswithJustin/writings/core/errors"
	"github.com/FocuswithJustin/writings/core/markup"
	"github.com/FocuswithJustin/writings/core/walker"
	"github.com/FocuswithJustin/writings/core/writings"
	"github.com/FocuswithJustin/writings/internal/logging"
	"golang.org/x/net/html"
)

var (
	hwTopInvocationClass = markup.NewClassList("w")
	hwFramingClass       = markup.NewClassList("zd hb")
	hwPreludeClass       = markup.NewClassList("dd zd hb")
	hwSayingClass        = markup.NewClassList("dd zd")

	hwSalutation = markup.Descendants("span", "kf")
)

// HiddenWordsVisitor extracts The Hidden Words. The Arabic part opens with
// an invocation and a prologue; the Persian part closes with an epilogue,
// after which the walk stops.
type HiddenWordsVisitor struct {
	kind          writings.HiddenWordKind
	number        int
	seenPrologue  bool
	prologueRefID string

	// pending holds the top invocation before the prologue, and a prelude
	// before a Persian saying.
	pending string

	records []writings.HiddenWord
}

// NewHiddenWordsVisitor returns an empty visitor positioned in the Arabic
// part.
func NewHiddenWordsVisitor() *HiddenWordsVisitor {
	return &HiddenWordsVisitor{kind: writings.HiddenWordArabic}
}

// ParseHiddenWords extracts every saying of doc, with the prologue and
// epilogue as number 0.
func ParseHiddenWords(doc string) ([]writings.HiddenWord, error) {
	return Extract[writings.HiddenWord](NewHiddenWordsVisitor(), doc)
}

// Records returns the sayings collected so far.
func (v *HiddenWordsVisitor) Records() []writings.HiddenWord {
	return v.records
}

// Visit implements walker.Visitor.
func (v *HiddenWordsVisitor) Visit(n *html.Node, _ int) (walker.Action, error) {
	cl := markup.ClassesOf(n)
	isP := n.Data == "p"

	if v.kind == writings.HiddenWordPersian && cl.Equal(hwPreludeClass) {
		v.pending = markup.Text(n, 1, true)
		logging.Debug("prelude", "work", WorkHiddenWords, "after", v.number)
		return walker.SkipChildren, nil
	}

	if !v.seenPrologue && v.kind == writings.HiddenWordArabic && isP {
		if cl.Equal(hwTopInvocationClass) {
			id, err := refID(WorkHiddenWords, n)
			if err != nil {
				return walker.Stop, err
			}
			v.pending = markup.Text(n, 0, true)
			v.prologueRefID = id
			return walker.SkipChildren, nil
		}
		if cl.Equal(hwFramingClass) {
			if v.prologueRefID == "" {
				return walker.Stop, errors.NewStructure(WorkHiddenWords, "top invocation", "prologue")
			}
			v.records = append(v.records, writings.HiddenWord{
				RefID:      v.prologueRefID,
				Kind:       writings.HiddenWordArabic,
				Invocation: v.take(),
				Text:       markup.Text(n, 1, true),
			})
			v.seenPrologue = true
			return walker.SkipChildren, nil
		}
	}

	if v.kind == writings.HiddenWordPersian && isP && cl.Equal(hwFramingClass) {
		id, err := refID(WorkHiddenWords, n)
		if err != nil {
			return walker.Stop, err
		}
		v.records = append(v.records, writings.HiddenWord{
			RefID: id,
			Kind:  writings.HiddenWordPersian,
			Text:  markup.Text(n, 1, true),
		})
		logging.Debug("epilogue reached", "work", WorkHiddenWords, "records", len(v.records))
		return walker.Stop, nil
	}

	if v.kind == writings.HiddenWordArabic && n.Data == "h2" && markup.Text(n, 0, true) == "Part Two" {
		v.kind = writings.HiddenWordPersian
		v.number = 0
		logging.Debug("part two", "work", WorkHiddenWords, "arabic", len(v.records))
		return walker.SkipChildren, nil
	}

	if isP && cl.Equal(hwSayingClass) {
		salutation := hwSalutation.First(n)
		if salutation == nil {
			return walker.Stop, errors.NewStructure(WorkHiddenWords, "span.kf salutation", preview(n))
		}
		id, err := refID(WorkHiddenWords, n)
		if err != nil {
			return walker.Stop, err
		}
		v.number++
		v.records = append(v.records, writings.HiddenWord{
			RefID:      id,
			Kind:       v.kind,
			Number:     v.number,
			Prelude:    v.take(),
			Invocation: markup.Text(salutation, 1, true),
			Text:       markup.Text(n, 0, true),
		})
		return walker.SkipChildren, nil
	}

	return walker.VisitChildren, nil
}

func (v *HiddenWordsVisitor) take() string {
	s := v.pending
	v.pending = ""
	return s
}
