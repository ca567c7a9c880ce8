package visitors

import (
	"github.com/FocuswithJustin/writings/core/writings"
)

// Work describes one source document and how to parse it.
type Work struct {
	// Name is the short identifier used in routes, references and logs.
	Name string

	// Slug is the snapshot file name without extension.
	Slug string

	Type writings.Type
	URL  string

	// ExpectedCount is the number of records the current snapshot must
	// produce. A different count means the markup changed and the visitor
	// needs an update before the snapshot is accepted.
	ExpectedCount int

	// Parse extracts the records of one snapshot.
	Parse func(doc string) ([]writings.Writing, error)
}

// Work names.
const (
	WorkPrayers     = "prayers"
	WorkHiddenWords = "hidden-words"
	WorkGleanings   = "gleanings"
	WorkMeditations = "meditations"
	WorkCDB         = "cdb"
)

const libraryURL = "https://www.bahai.org/library/authoritative-texts/"

var works = []Work{
	{
		Name:          WorkPrayers,
		Slug:          "bahai-prayers",
		Type:          writings.TypePrayer,
		URL:           libraryURL + "prayers/bahai-prayers/bahai-prayers.xhtml",
		ExpectedCount: 981,
		Parse:         generic(ParsePrayers),
	},
	{
		Name:          WorkHiddenWords,
		Slug:          "hidden-words",
		Type:          writings.TypeHiddenWord,
		URL:           libraryURL + "bahaullah/hidden-words/hidden-words.xhtml",
		ExpectedCount: 155,
		Parse:         generic(ParseHiddenWords),
	},
	{
		Name:          WorkGleanings,
		Slug:          "gleanings-writings-bahaullah",
		Type:          writings.TypeGleaning,
		URL:           libraryURL + "bahaullah/gleanings-writings-bahaullah/gleanings-writings-bahaullah.xhtml",
		ExpectedCount: 716,
		Parse:         generic(ParseGleanings),
	},
	{
		Name:          WorkMeditations,
		Slug:          "prayers-meditations",
		Type:          writings.TypeMeditation,
		URL:           libraryURL + "bahaullah/prayers-meditations/prayers-meditations.xhtml",
		ExpectedCount: 877,
		Parse:         generic(ParseMeditations),
	},
	{
		Name:          WorkCDB,
		Slug:          "call-divine-beloved",
		Type:          writings.TypeCDB,
		URL:           libraryURL + "bahaullah/call-divine-beloved/call-divine-beloved.xhtml",
		ExpectedCount: 205,
		Parse:         generic(ParseCDB),
	},
}

// Works returns every known work in a stable order.
func Works() []Work {
	out := make([]Work, len(works))
	copy(out, works)
	return out
}

// Lookup finds a work by name or slug.
func Lookup(name string) (Work, bool) {
	for _, w := range works {
		if w.Name == name || w.Slug == name {
			return w, true
		}
	}
	return Work{}, false
}

// Names returns the names of all works.
func Names() []string {
	names := make([]string, len(works))
	for i, w := range works {
		names[i] = w.Name
	}
	return names
}

func generic[T writings.Writing](parse func(string) ([]T, error)) func(string) ([]writings.Writing, error) {
	return func(doc string) ([]writings.Writing, error) {
		records, err := parse(doc)
		if err != nil {
			return nil, err
		}
		out := make([]writings.Writing, len(records))
		for i, r := range records {
			out[i] = r
		}
		return out, nil
	}
}
