// Package export writes corpus records as JSON, XLSX workbooks or XML.
package export

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/FocuswithJustin/writings/core/errors"
	"github.com/FocuswithJustin/writings/core/writings"
)

// Format is an output format.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatXLSX Format = "xlsx"
	FormatXML  Format = "xml"
)

// Formats returns every supported format.
func Formats() []Format {
	return []Format{FormatJSON, FormatXLSX, FormatXML}
}

// ParseFormat parses a format name case-insensitively.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats() {
		if f == known {
			return f, nil
		}
	}
	return "", errors.NewUnsupported("export format "+s, "use json, xlsx or xml")
}

// Ext returns the file extension for f, with the leading dot.
func (f Format) Ext() string {
	return "." + string(f)
}

// Write encodes records to w in format f.
func Write(w io.Writer, f Format, records []writings.Writing) error {
	switch f {
	case FormatJSON:
		return JSON(w, records)
	case FormatXLSX:
		return WriteXLSX(w, records)
	case FormatXML:
		return XML(w, records)
	}
	return errors.NewUnsupported("export format "+string(f), "use json, xlsx or xml")
}

// JSON writes records as an indented JSON array. Each object carries a
// "type" field naming its variant.
func JSON(w io.Writer, records []writings.Writing) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(writings.Wrap(records)); err != nil {
		return errors.Wrap(err, "encode json")
	}
	return nil
}

// groupByType splits records by variant, in writings.Types order, keeping
// the order of records within each group.
func groupByType(records []writings.Writing) map[writings.Type][]writings.Header {
	groups := make(map[writings.Type][]writings.Header)
	for _, r := range records {
		h := writings.HeaderOf(r)
		groups[h.Type] = append(groups[h.Type], h)
	}
	return groups
}
