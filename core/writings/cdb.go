package writings

// CDBParagraph is a paragraph or stanza from The Call of the Divine Beloved.
type CDBParagraph struct {
	// RefID is the paragraph anchor. Records split out of the same source
	// paragraph carry the anchor followed by "-1", "-2", and so on.
	RefID string `json:"ref_id"`

	// WorkTitle is the title of the mystical work, e.g. "The Seven Valleys".
	WorkTitle    string `json:"work_title"`
	WorkSubtitle string `json:"work_subtitle,omitempty"`

	// Number is the printed paragraph number, 0 when the paragraph has none.
	Number int `json:"number,omitempty"`

	// Index is the record's position within the work, starting at 1.
	Index     int            `json:"index"`
	Style     ParagraphStyle `json:"style"`
	Text      string         `json:"text"`
	Citations []Citation     `json:"citations"`
}

func (CDBParagraph) writing() {}
