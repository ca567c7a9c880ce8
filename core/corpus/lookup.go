package corpus

import (
	"strconv"
	"strings"

	"github.com/FocuswithJustin/writings/core/errors"
	"github.com/FocuswithJustin/writings/core/ref"
	"github.com/FocuswithJustin/writings/core/textfold"
	"github.com/FocuswithJustin/writings/core/writings"
)

// Ref returns the record with the given ref_id.
func (c *Corpus) Ref(id string) (writings.Writing, error) {
	w, ok := c.byRef[id]
	if !ok {
		return nil, errors.NewNotFound("paragraph", id)
	}
	return w, nil
}

// HiddenWords returns the sayings of one kind, or all of them when kind is
// empty, including the prologue and epilogue.
func (c *Corpus) HiddenWords(kind writings.HiddenWordKind) []writings.HiddenWord {
	if kind == "" {
		return c.hiddenWords
	}
	var out []writings.HiddenWord
	for _, hw := range c.hiddenWords {
		if hw.Kind == kind {
			out = append(out, hw)
		}
	}
	return out
}

// HiddenWord returns one saying. Number 0 is the Arabic prologue or the
// Persian epilogue.
func (c *Corpus) HiddenWord(kind writings.HiddenWordKind, number int) (writings.HiddenWord, error) {
	for _, hw := range c.hiddenWords {
		if hw.Kind == kind && hw.Number == number {
			return hw, nil
		}
	}
	return writings.HiddenWord{}, errors.NewNotFound("hidden word", string(kind)+"/"+strconv.Itoa(number))
}

// Prayers returns the paragraphs of one kind (all kinds when empty) whose
// section headings match every part of sectionPath. A part matches when it
// is contained in some heading, ignoring case and diacritics, with "-"
// standing for a space.
func (c *Corpus) Prayers(kind writings.PrayerKind, sectionPath []string) []writings.PrayerParagraph {
	parts := make([]string, 0, len(sectionPath))
	for _, p := range sectionPath {
		if p = textfold.PathPart(p); p != "" {
			parts = append(parts, p)
		}
	}

	var out []writings.PrayerParagraph
	for _, p := range c.prayers {
		if kind != "" && p.Kind != kind {
			continue
		}
		if len(parts) > 0 && !sectionMatches(p.Section, parts) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func sectionMatches(section, parts []string) bool {
	folded := make([]string, len(section))
	for i, s := range section {
		folded[i] = textfold.Fold(s)
	}
	for _, part := range parts {
		found := false
		for _, s := range folded {
			if strings.Contains(s, part) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Gleanings returns the paragraphs of one selection, or every paragraph
// when number is 0.
func (c *Corpus) Gleanings(number int) []writings.GleaningParagraph {
	if number == 0 {
		return c.gleanings
	}
	var out []writings.GleaningParagraph
	for _, g := range c.gleanings {
		if g.Number == number {
			out = append(out, g)
		}
	}
	return out
}

// Gleaning returns one paragraph of a selection.
func (c *Corpus) Gleaning(number, paragraph int) (writings.GleaningParagraph, error) {
	for _, g := range c.gleanings {
		if g.Number == number && g.Paragraph == paragraph {
			return g, nil
		}
	}
	return writings.GleaningParagraph{}, errors.NewNotFound("gleaning", unitID(number, paragraph))
}

// Meditations returns the paragraphs of one prayer, or every paragraph when
// number is 0.
func (c *Corpus) Meditations(number int) []writings.MeditationParagraph {
	if number == 0 {
		return c.meditations
	}
	var out []writings.MeditationParagraph
	for _, m := range c.meditations {
		if m.Number == number {
			out = append(out, m)
		}
	}
	return out
}

// Meditation returns one paragraph of a prayer.
func (c *Corpus) Meditation(number, paragraph int) (writings.MeditationParagraph, error) {
	for _, m := range c.meditations {
		if m.Number == number && m.Paragraph == paragraph {
			return m, nil
		}
	}
	return writings.MeditationParagraph{}, errors.NewNotFound("meditation", unitID(number, paragraph))
}

func unitID(number, paragraph int) string {
	return strconv.Itoa(number) + "/" + strconv.Itoa(paragraph)
}

// CDBWorks returns the titles of the works in The Call of the Divine
// Beloved, in book order.
func (c *Corpus) CDBWorks() []string {
	var titles []string
	for _, p := range c.cdb {
		if len(titles) == 0 || titles[len(titles)-1] != p.WorkTitle {
			titles = append(titles, p.WorkTitle)
		}
	}
	return titles
}

// CDB returns the paragraphs of one work, named by title or slug, or every
// paragraph when name is empty. Titles compare ignoring case and
// diacritics.
func (c *Corpus) CDB(name string) []writings.CDBParagraph {
	if name == "" {
		return c.cdb
	}
	var out []writings.CDBParagraph
	for _, p := range c.cdb {
		if textfold.Equal(p.WorkTitle, name) || Slug(p.WorkTitle) == name {
			out = append(out, p)
		}
	}
	return out
}

// Slug turns a title into its reference form: folded words joined by "-",
// without a leading article. "The Seven Valleys" becomes "seven-valleys".
func Slug(title string) string {
	words := textfold.Words(title)
	if len(words) > 1 && words[0] == "the" {
		words = words[1:]
	}
	return strings.Join(words, "-")
}

// Resolve returns the records a parsed reference addresses, in document
// order.
func (c *Corpus) Resolve(r *ref.Ref) ([]writings.Writing, error) {
	var out []writings.Writing
	switch r.Work {
	case ref.Gleanings:
		for _, g := range c.Gleanings(r.Number) {
			if r.Contains(g.Paragraph) {
				out = append(out, g)
			}
		}
	case ref.Meditations:
		for _, m := range c.Meditations(r.Number) {
			if r.Contains(m.Paragraph) {
				out = append(out, m)
			}
		}
	case ref.HiddenWords:
		kind := writings.HiddenWordKind(r.Name)
		if r.HasNumber() {
			hw, err := c.HiddenWord(kind, r.Number)
			if err != nil {
				return nil, err
			}
			return []writings.Writing{hw}, nil
		}
		for _, hw := range c.HiddenWords(kind) {
			out = append(out, hw)
		}
	case ref.Prayers:
		for _, p := range c.Prayers(writings.PrayerKind(r.Name), nil) {
			if r.HasNumber() && p.Number != r.Number {
				continue
			}
			if r.Contains(p.Paragraph) {
				out = append(out, p)
			}
		}
	case ref.CDB:
		for _, p := range c.CDB(r.Name) {
			if r.Contains(p.Index) {
				out = append(out, p)
			}
		}
	default:
		return nil, errors.NewUnsupported("reference work", r.Work)
	}

	if len(out) == 0 {
		return nil, errors.NewNotFound("reference", r.String())
	}
	return out, nil
}
