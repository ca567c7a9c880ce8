package writings

// ParagraphStyle classifies how a paragraph is presented.
type ParagraphStyle string

// Paragraph style constants.
const (
	// StyleText is regular text.
	StyleText ParagraphStyle = "text"
	// StyleInvocation is an opening invocation, often set in capitals.
	StyleInvocation ParagraphStyle = "invocation"
	// StyleInstruction is a direction to the reader, as in the obligatory prayers.
	StyleInstruction ParagraphStyle = "instruction"
	// StyleBlockquote is a poetry stanza or quoted block.
	StyleBlockquote ParagraphStyle = "blockquote"
)

var validStyles = map[ParagraphStyle]bool{
	StyleText:        true,
	StyleInvocation:  true,
	StyleInstruction: true,
	StyleBlockquote:  true,
}

// IsValid returns true if the style is valid.
func (s ParagraphStyle) IsValid() bool {
	return validStyles[s]
}
