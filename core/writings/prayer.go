package writings

import "strings"

// PrayerKind is the top-level category of a prayer in the prayer book.
type PrayerKind string

// Prayer kind constants.
const (
	PrayerObligatory PrayerKind = "obligatory"
	PrayerGeneral    PrayerKind = "general"
	PrayerOccasional PrayerKind = "occasional"
	PrayerTablet     PrayerKind = "tablet"
	// PrayerPrologue holds content that precedes the first category heading.
	PrayerPrologue PrayerKind = "prologue"
)

var prayerKindTitles = map[PrayerKind]string{
	PrayerObligatory: "Obligatory Prayers",
	PrayerGeneral:    "General Prayers",
	PrayerOccasional: "Occasional Prayers",
	PrayerTablet:     "Special Tablets",
	PrayerPrologue:   "Prologue",
}

// PrayerKinds returns the categories in book order.
func PrayerKinds() []PrayerKind {
	return []PrayerKind{PrayerObligatory, PrayerGeneral, PrayerOccasional, PrayerTablet}
}

// IsValid returns true if the kind is valid.
func (k PrayerKind) IsValid() bool {
	_, ok := prayerKindTitles[k]
	return ok
}

// Title returns the heading used for the kind in the prayer book.
func (k PrayerKind) Title() string {
	return prayerKindTitles[k]
}

// ParsePrayerKind matches a category heading exactly, or a kind identifier
// case-insensitively.
func ParsePrayerKind(s string) (PrayerKind, bool) {
	for k, title := range prayerKindTitles {
		if title == s || strings.EqualFold(string(k), s) {
			return k, true
		}
	}
	return "", false
}

// PrayerSource is the published collection a prayer comes from.
type PrayerSource string

// Prayer source constants.
const (
	SourceBahaiPrayers                 PrayerSource = "bahai_prayers"
	SourceAdditionalPrayersBahaullah   PrayerSource = "additional_prayers_bahaullah"
	SourceAdditionalPrayersAbdulBaha   PrayerSource = "additional_prayers_abdul_baha"
	SourceTwentySixPrayersAbdulBaha    PrayerSource = "twenty_six_prayers_abdul_baha"
	SourcePrayersAndTabletsForChildren PrayerSource = "prayers_and_tablets_for_children"
)

var prayerSourceTitles = map[PrayerSource]string{
	SourceBahaiPrayers:                 "Bahá'í Prayers",
	SourceAdditionalPrayersBahaullah:   "Additional Prayers Revealed by Bahá’u’lláh",
	SourceAdditionalPrayersAbdulBaha:   "Additional Prayers Revealed by ‘Abdu’l‑Bahá",
	SourceTwentySixPrayersAbdulBaha:    "Twenty-six Prayers Revealed by ‘Abdu’l‑Bahá",
	SourcePrayersAndTabletsForChildren: "Bahá’í Prayers and Tablets for Children",
}

// Title returns the published title of the source.
func (s PrayerSource) Title() string {
	return prayerSourceTitles[s]
}

// PrayerParagraph is one paragraph of a prayer.
type PrayerParagraph struct {
	RefID  string       `json:"ref_id"`
	Source PrayerSource `json:"source"`
	Author Author       `json:"author"`
	Kind   PrayerKind   `json:"kind"`

	// Section lists the headings below the kind, outermost first.
	Section []string `json:"section"`

	// Number is the prayer's position in the book, starting at 1.
	Number int `json:"number"`

	// Paragraph is the position within the prayer, starting at 1.
	Paragraph int            `json:"paragraph"`
	Style     ParagraphStyle `json:"style"`
	Text      string         `json:"text"`
	Citations []Citation     `json:"citations"`
}

func (PrayerParagraph) writing() {}

// Subtitle joins the kind and the first section heading.
func (p PrayerParagraph) Subtitle() string {
	if len(p.Section) == 0 {
		return ""
	}
	return p.Kind.Title() + ": " + p.Section[0]
}
