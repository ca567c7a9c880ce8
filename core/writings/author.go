package writings

import "strings"

// Author identifies one of the three Central Figures.
type Author string

// Author constants.
const (
	TheBab    Author = "TheBab"
	Bahaullah Author = "Bahaullah"
	AbdulBaha Author = "AbdulBaha"
)

// authors lists every Author in the order author signatures are matched.
var authors = []Author{TheBab, Bahaullah, AbdulBaha}

var authorNames = map[Author]string{
	TheBab:    "The Báb",
	Bahaullah: "Bahá’u’lláh",
	AbdulBaha: "‘Abdu’l‑Bahá",
}

// Authors returns all authors.
func Authors() []Author {
	out := make([]Author, len(authors))
	copy(out, authors)
	return out
}

// IsValid returns true if the author is known.
func (a Author) IsValid() bool {
	_, ok := authorNames[a]
	return ok
}

// Name returns the display name, with the typographic apostrophes and
// non-breaking hyphen used by the source documents.
func (a Author) Name() string {
	return authorNames[a]
}

func (a Author) String() string {
	return a.Name()
}

// IdentifyAuthor returns the first author whose display name occurs in text.
func IdentifyAuthor(text string) (Author, bool) {
	for _, a := range authors {
		if strings.Contains(text, a.Name()) {
			return a, true
		}
	}
	return "", false
}
