package writings

import "strings"

// HiddenWordKind is the part of The Hidden Words a saying belongs to.
type HiddenWordKind string

// Hidden word kind constants.
const (
	HiddenWordArabic  HiddenWordKind = "arabic"
	HiddenWordPersian HiddenWordKind = "persian"
)

// Title returns the part heading.
func (k HiddenWordKind) Title() string {
	switch k {
	case HiddenWordArabic:
		return "Part One: From the Arabic"
	case HiddenWordPersian:
		return "Part Two: From the Persian"
	}
	return ""
}

// ParseHiddenWordKind parses a kind case-insensitively.
func ParseHiddenWordKind(s string) (HiddenWordKind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "arabic":
		return HiddenWordArabic, true
	case "persian":
		return HiddenWordPersian, true
	}
	return "", false
}

// HiddenWord is a single saying of The Hidden Words, or its prologue or
// epilogue.
type HiddenWord struct {
	RefID string         `json:"ref_id"`
	Kind  HiddenWordKind `json:"kind"`

	// Number is the saying's number within its part. It is 0 for the
	// prologue (Arabic) and the epilogue (Persian).
	Number int `json:"number"`

	// Prelude is the introductory line preceding some Persian sayings.
	Prelude string `json:"prelude,omitempty"`

	// Invocation is the salutation, such as "O Son of Spirit!".
	Invocation string `json:"invocation,omitempty"`
	Text       string `json:"text"`
}

func (HiddenWord) writing() {}
