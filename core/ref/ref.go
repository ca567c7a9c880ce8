// Package ref parses short textual references to records, such as
// "gleanings.XI.3" or "hidden-words.persian.37".
package ref

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/FocuswithJustin/writings/core/errors"
	"github.com/FocuswithJustin/writings/core/roman"
	"github.com/FocuswithJustin/writings/core/writings"
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Work names accepted as the first segment.
const (
	Prayers     = "prayers"
	HiddenWords = "hidden-words"
	Gleanings   = "gleanings"
	Meditations = "meditations"
	CDB         = "cdb"
)

// Ref is a parsed reference. Depending on the work, the unit is a number
// (gleanings, meditations, prayers, hidden words) or a name (hidden word
// kind, prayer kind, or a slug of a title in The Call of the Divine
// Beloved).
type Ref struct {
	Work string `json:"work"`

	// Name is the hidden word kind, prayer kind, or CDB work slug.
	Name string `json:"name,omitempty"`

	// Number is the selection, prayer or saying number. A hidden word
	// number of 0 with a name addresses the prologue or epilogue.
	Number int `json:"number,omitempty"`

	// Paragraph is 1-based; 0 addresses the whole unit.
	Paragraph    int `json:"paragraph,omitempty"`
	ParagraphEnd int `json:"paragraph_end,omitempty"`

	hasNumber bool
}

// refGrammar is the participle grammar for references.
// Examples: "gleanings", "gleanings.XI", "gleanings.11.3", "gleanings.XI.3-5",
// "hidden-words.arabic.1", "prayers.general", "prayers.12.2",
// "cdb.seven-valleys.4".
//
//nolint:govet // participle grammar tags are not standard struct tags
type refGrammar struct {
	Work string    `@Ident`
	Unit *unitPart `( "." @@ )?`
}

//nolint:govet // participle grammar tags are not standard struct tags
type unitPart struct {
	Value *unitValue `@@`
	Para  *paraPart  `( "." @@ )?`
}

//nolint:govet // participle grammar tags are not standard struct tags
type unitValue struct {
	Number *int    `  @Int`
	Name   *string `| @Ident`
}

//nolint:govet // participle grammar tags are not standard struct tags
type paraPart struct {
	Paragraph int  `@Int`
	End       *int `( "-" @Int )?`
}

// refLexer defines the lexer for references. Identifiers may contain inner
// hyphens ("hidden-words"); a hyphen between integers is a range.
var refLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "Ident", Pattern: `[A-Za-z]+(?:-[A-Za-z]+)*`},
	{Name: "Punct", Pattern: `[.\-]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var refParser = participle.MustBuild[refGrammar](
	participle.Lexer(refLexer),
	participle.Elide("Whitespace"),
)

func invalid(s, msg string) error {
	return errors.NewParse("reference", s, msg)
}

// Parse parses a reference string.
func Parse(s string) (*Ref, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, invalid(s, "empty reference")
	}

	parsed, err := refParser.ParseString("", s)
	if err != nil {
		return nil, invalid(s, err.Error())
	}

	r := &Ref{Work: strings.ToLower(parsed.Work)}
	var (
		name   string
		number *int
	)
	if parsed.Unit != nil {
		if parsed.Unit.Value.Name != nil {
			name = *parsed.Unit.Value.Name
		} else {
			number = parsed.Unit.Value.Number
		}
		if p := parsed.Unit.Para; p != nil {
			r.Paragraph = p.Paragraph
			if p.End != nil {
				r.ParagraphEnd = *p.End
			}
		}
	}

	switch r.Work {
	case Gleanings, Meditations:
		if name != "" {
			n, err := roman.Parse(strings.ToUpper(name))
			if err != nil {
				return nil, invalid(s, fmt.Sprintf("%q is not a roman numeral", name))
			}
			number = &n
		}
		if number != nil {
			r.Number, r.hasNumber = *number, true
		}
	case HiddenWords:
		if number != nil {
			return nil, invalid(s, "hidden words are addressed by kind, e.g. hidden-words.arabic.3")
		}
		if name != "" {
			kind, ok := writings.ParseHiddenWordKind(name)
			if !ok {
				return nil, invalid(s, fmt.Sprintf("unknown kind %q", name))
			}
			r.Name = string(kind)
		}
		if r.ParagraphEnd != 0 {
			return nil, invalid(s, "hidden words do not take a range")
		}
		// The segment after the kind is the saying number.
		if parsed.Unit != nil && parsed.Unit.Para != nil {
			r.Number, r.hasNumber = r.Paragraph, true
			r.Paragraph = 0
		}
	case Prayers:
		if name != "" {
			kind, ok := writings.ParsePrayerKind(name)
			if !ok {
				return nil, invalid(s, fmt.Sprintf("unknown prayer kind %q", name))
			}
			if r.Paragraph != 0 {
				return nil, invalid(s, "a prayer kind takes no paragraph")
			}
			r.Name = string(kind)
		}
		if number != nil {
			r.Number, r.hasNumber = *number, true
		}
	case CDB:
		if number != nil {
			return nil, invalid(s, "works are addressed by title, e.g. cdb.seven-valleys.1")
		}
		r.Name = strings.ToLower(name)
	default:
		return nil, invalid(s, fmt.Sprintf("unknown work %q", parsed.Work))
	}

	if r.hasNumber && r.Number <= 0 && r.Work != HiddenWords {
		return nil, invalid(s, "numbers start at 1")
	}
	if r.ParagraphEnd != 0 && r.ParagraphEnd < r.Paragraph {
		return nil, invalid(s, "range end precedes start")
	}
	if r.Paragraph == 0 && parsed.Unit != nil && parsed.Unit.Para != nil && r.Work != HiddenWords {
		return nil, invalid(s, "paragraphs start at 1")
	}
	return r, nil
}

// HasNumber reports whether the reference names a numbered unit.
func (r *Ref) HasNumber() bool {
	return r.hasNumber
}

// IsRange reports whether the reference spans several paragraphs.
func (r *Ref) IsRange() bool {
	return r.ParagraphEnd > r.Paragraph
}

// Contains reports whether paragraph p of the unit is addressed.
func (r *Ref) Contains(p int) bool {
	if r.Paragraph == 0 {
		return true
	}
	if r.IsRange() {
		return p >= r.Paragraph && p <= r.ParagraphEnd
	}
	return p == r.Paragraph
}

// String returns the canonical form. Gleanings and meditations use roman
// numerals.
func (r *Ref) String() string {
	var sb strings.Builder
	sb.WriteString(r.Work)

	switch {
	case r.Name != "":
		sb.WriteString("." + r.Name)
		if r.Work == HiddenWords && r.hasNumber {
			sb.WriteString("." + strconv.Itoa(r.Number))
		}
	case r.hasNumber:
		unit := strconv.Itoa(r.Number)
		if r.Work == Gleanings || r.Work == Meditations {
			if numeral, ok := roman.To(r.Number); ok {
				unit = numeral
			}
		}
		sb.WriteString("." + unit)
	}

	if r.Paragraph > 0 {
		sb.WriteString("." + strconv.Itoa(r.Paragraph))
		if r.ParagraphEnd > 0 {
			sb.WriteString("-" + strconv.Itoa(r.ParagraphEnd))
		}
	}
	return sb.String()
}
