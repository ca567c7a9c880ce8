// Package citation harvests footnote texts from a document's end-matter and
// resolves inline citation markers against them.
package citation

import (
	"strconv"

	"github.com/FocuswithJustin/writings/core/errors"
	"github.com/FocuswithJustin/writings/core/markup"
	"github.com/FocuswithJustin/writings/core/writings"
	"golang.org/x/net/html"
)

// Note is one footnote block from the end-matter.
type Note struct {
	Number int
	RefID  string
	Text   string
}

var (
	noteLabel  = markup.Descendants("*", "jf")
	noteAnchor = markup.MustCompile(".//p//a")
	noteText   = markup.Descendants("p")
)

// Harvest collects every note under root. A note is introduced by a ".jf"
// label holding its number; the label's parent holds the anchor (the id of
// its first "p a") and the text (its first "p").
func Harvest(root *html.Node) ([]Note, error) {
	var notes []Note
	for _, label := range noteLabel.All(root) {
		raw := markup.Text(label, 1, true)
		number, err := strconv.Atoi(raw)
		if err != nil {
			return nil, errors.NewParse("note number", raw, "not an integer")
		}
		parent := label.Parent
		if parent == nil {
			return nil, errors.NewStructure("citations", "note parent", "note "+raw)
		}
		anchor := noteAnchor.First(parent)
		if anchor == nil {
			return nil, errors.NewStructure("citations", "note anchor", "note "+raw)
		}
		id, ok := markup.Attr(anchor, "id")
		if !ok {
			return nil, errors.NewStructure("citations", "note anchor id", "note "+raw)
		}
		body := noteText.First(parent)
		if body == nil {
			return nil, errors.NewStructure("citations", "note text", "note "+raw)
		}
		notes = append(notes, Note{
			Number: number,
			RefID:  id,
			Text:   markup.Text(body, 1, true),
		})
	}
	return notes, nil
}

// Pool holds the notes not yet matched to a marker. A note is removed once
// it resolves a citation.
type Pool struct {
	notes []Note
}

// NewPool returns a pool over notes.
func NewPool(notes []Note) *Pool {
	p := &Pool{notes: make([]Note, len(notes))}
	copy(p.notes, notes)
	return p
}

// Len returns the number of unmatched notes.
func (p *Pool) Len() int {
	return len(p.notes)
}

// Remaining returns the unmatched notes.
func (p *Pool) Remaining() []Note {
	out := make([]Note, len(p.notes))
	copy(out, p.notes)
	return out
}

// ResolveOne fills c.Text from the pool. A note with the same ref_id wins;
// otherwise the first note with the same number is used. owner is the
// ref_id of the paragraph holding the marker, used in the error.
func (p *Pool) ResolveOne(owner string, c *writings.Citation) error {
	idx := -1
	for i, n := range p.notes {
		if n.RefID == c.RefID {
			idx = i
			break
		}
	}
	if idx < 0 {
		for i, n := range p.notes {
			if n.Number == c.Number {
				idx = i
				break
			}
		}
	}
	if idx < 0 || p.notes[idx].Text == "" {
		return &errors.CitationError{RefID: owner, CitationRefID: c.RefID, Number: c.Number}
	}
	c.Text = p.notes[idx].Text
	p.notes = append(p.notes[:idx], p.notes[idx+1:]...)
	return nil
}

// Resolve fills the text of every citation, in order.
func (p *Pool) Resolve(owner string, cs []writings.Citation) error {
	for i := range cs {
		if err := p.ResolveOne(owner, &cs[i]); err != nil {
			return err
		}
	}
	return nil
}
