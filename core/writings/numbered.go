package writings

// GleaningParagraph is one paragraph of a numbered selection in the Gleanings.
type GleaningParagraph struct {
	RefID     string `json:"ref_id"`
	Number    int    `json:"number"`
	Roman     string `json:"roman"`
	Paragraph int    `json:"paragraph"`
	Text      string `json:"text"`
}

func (GleaningParagraph) writing() {}

// MeditationParagraph is one paragraph of a numbered prayer in Prayers and
// Meditations.
type MeditationParagraph struct {
	RefID     string `json:"ref_id"`
	Number    int    `json:"number"`
	Roman     string `json:"roman"`
	Paragraph int    `json:"paragraph"`
	Text      string `json:"text"`
}

func (MeditationParagraph) writing() {}
