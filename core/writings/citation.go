package writings

// Citation is a footnote or endnote marker found inside a paragraph.
type Citation struct {
	// RefID links to the footnote block in the document's end-matter.
	RefID string `json:"ref_id"`

	// Number is the marker number as printed.
	Number int `json:"number"`

	// Offset is the byte offset in the paragraph text where the marker sat.
	Offset int `json:"offset"`

	// Text is the resolved footnote text.
	Text string `json:"text"`
}
