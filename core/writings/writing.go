package writings

import (
	"encoding/json"
	"fmt"
)

// Type identifies a record variant.
type Type string

// Type constants, one per work type.
const (
	TypePrayer     Type = "prayer"
	TypeHiddenWord Type = "hidden_word"
	TypeGleaning   Type = "gleaning"
	TypeMeditation Type = "meditation"
	TypeCDB        Type = "cdb"
)

// Types returns every record type.
func Types() []Type {
	return []Type{TypePrayer, TypeHiddenWord, TypeGleaning, TypeMeditation, TypeCDB}
}

// IsValid returns true if the type is valid.
func (t Type) IsValid() bool {
	switch t {
	case TypePrayer, TypeHiddenWord, TypeGleaning, TypeMeditation, TypeCDB:
		return true
	}
	return false
}

// Writing is a paragraph record of any work type. The set of implementations
// is closed: PrayerParagraph, HiddenWord, GleaningParagraph,
// MeditationParagraph and CDBParagraph.
type Writing interface {
	writing()
}

// Header holds the fields every record variant can answer.
type Header struct {
	Type      Type   `json:"type"`
	RefID     string `json:"ref_id"`
	Title     string `json:"title"`
	Subtitle  string `json:"subtitle,omitempty"`
	Author    Author `json:"author"`
	Number    int    `json:"number,omitempty"`
	Paragraph int    `json:"paragraph"`
	Text      string `json:"text"`
}

const (
	hiddenWordsTitle = "The Hidden Words"
	gleaningsTitle   = "Gleanings from the Writings of Bahá’u’lláh"
	meditationsTitle = "Prayers and Meditations"
)

// HeaderOf returns the common fields of w.
func HeaderOf(w Writing) Header {
	switch v := w.(type) {
	case PrayerParagraph:
		return Header{
			Type:      TypePrayer,
			RefID:     v.RefID,
			Title:     v.Source.Title(),
			Subtitle:  v.Subtitle(),
			Author:    v.Author,
			Number:    v.Number,
			Paragraph: v.Paragraph,
			Text:      v.Text,
		}
	case HiddenWord:
		return Header{
			Type:      TypeHiddenWord,
			RefID:     v.RefID,
			Title:     hiddenWordsTitle,
			Subtitle:  v.Kind.Title(),
			Author:    Bahaullah,
			Number:    v.Number,
			Paragraph: v.Number,
			Text:      v.Text,
		}
	case GleaningParagraph:
		return Header{
			Type:      TypeGleaning,
			RefID:     v.RefID,
			Title:     gleaningsTitle,
			Author:    Bahaullah,
			Number:    v.Number,
			Paragraph: v.Paragraph,
			Text:      v.Text,
		}
	case MeditationParagraph:
		return Header{
			Type:      TypeMeditation,
			RefID:     v.RefID,
			Title:     meditationsTitle,
			Author:    Bahaullah,
			Number:    v.Number,
			Paragraph: v.Paragraph,
			Text:      v.Text,
		}
	case CDBParagraph:
		return Header{
			Type:      TypeCDB,
			RefID:     v.RefID,
			Title:     v.WorkTitle,
			Subtitle:  v.WorkSubtitle,
			Author:    Bahaullah,
			Paragraph: v.Index,
			Text:      v.Text,
		}
	}
	panic(fmt.Sprintf("writings: unknown record type %T", w))
}

// TypeOf returns the variant of w.
func TypeOf(w Writing) Type { return HeaderOf(w).Type }

// RefID returns the reference identifier of w.
func RefID(w Writing) string { return HeaderOf(w).RefID }

// Text returns the paragraph text of w.
func Text(w Writing) string { return HeaderOf(w).Text }

// CitationsOf returns the resolved citations of w, if its variant has any.
func CitationsOf(w Writing) []Citation {
	switch v := w.(type) {
	case PrayerParagraph:
		return v.Citations
	case CDBParagraph:
		return v.Citations
	case HiddenWord, GleaningParagraph, MeditationParagraph:
		return nil
	}
	panic(fmt.Sprintf("writings: unknown record type %T", w))
}

// Marshal encodes w as a JSON object carrying a "type" discriminator next to
// the variant's own fields.
func Marshal(w Writing) ([]byte, error) {
	switch v := w.(type) {
	case PrayerParagraph:
		return json.Marshal(struct {
			Type Type `json:"type"`
			PrayerParagraph
		}{TypePrayer, v})
	case HiddenWord:
		return json.Marshal(struct {
			Type Type `json:"type"`
			HiddenWord
		}{TypeHiddenWord, v})
	case GleaningParagraph:
		return json.Marshal(struct {
			Type Type `json:"type"`
			GleaningParagraph
		}{TypeGleaning, v})
	case MeditationParagraph:
		return json.Marshal(struct {
			Type Type `json:"type"`
			MeditationParagraph
		}{TypeMeditation, v})
	case CDBParagraph:
		return json.Marshal(struct {
			Type Type `json:"type"`
			CDBParagraph
		}{TypeCDB, v})
	}
	return nil, fmt.Errorf("writings: unknown record type %T", w)
}

// Unmarshal decodes a record produced by Marshal.
func Unmarshal(data []byte) (Writing, error) {
	var probe struct {
		Type Type `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, err
	}
	switch probe.Type {
	case TypePrayer:
		var v PrayerParagraph
		err := json.Unmarshal(data, &v)
		return v, err
	case TypeHiddenWord:
		var v HiddenWord
		err := json.Unmarshal(data, &v)
		return v, err
	case TypeGleaning:
		var v GleaningParagraph
		err := json.Unmarshal(data, &v)
		return v, err
	case TypeMeditation:
		var v MeditationParagraph
		err := json.Unmarshal(data, &v)
		return v, err
	case TypeCDB:
		var v CDBParagraph
		err := json.Unmarshal(data, &v)
		return v, err
	}
	return nil, fmt.Errorf("writings: unknown record type %q", probe.Type)
}

// Envelope wraps a Writing so it can be embedded in JSON documents.
type Envelope struct {
	Writing Writing
}

// MarshalJSON implements json.Marshaler.
func (e Envelope) MarshalJSON() ([]byte, error) {
	return Marshal(e.Writing)
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *Envelope) UnmarshalJSON(data []byte) error {
	w, err := Unmarshal(data)
	if err != nil {
		return err
	}
	e.Writing = w
	return nil
}

// Wrap converts records to envelopes.
func Wrap[T Writing](ws []T) []Envelope {
	out := make([]Envelope, len(ws))
	for i, w := range ws {
		out[i] = Envelope{Writing: w}
	}
	return out
}
