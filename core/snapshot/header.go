// Package snapshot handles stored copies of the source documents: the
// retrieval header, content digests, xz compressed files, record diffs, and
// an archive of replaced snapshots.
package snapshot

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Header is the provenance line prepended to every stored snapshot.
type Header struct {
	URL       string
	Retrieved time.Time
}

var headerPattern = regexp.MustCompile(`^\s*<!-- Retrieved from (\S+) on (\S+) -->\r?\n?`)

// String formats the header comment.
func (h Header) String() string {
	return fmt.Sprintf("<!-- Retrieved from %s on %s -->", h.URL, h.Retrieved.UTC().Format(time.RFC3339))
}

// AddHeader prepends the retrieval header to doc.
func AddHeader(doc, url string, retrieved time.Time) string {
	return Header{URL: url, Retrieved: retrieved}.String() + "\n" + doc
}

// StripHeader removes a leading retrieval header, if present, so two copies of
// the same document retrieved at different times compare equal.
func StripHeader(doc string) string {
	loc := headerPattern.FindStringIndex(doc)
	if loc == nil {
		return doc
	}
	return doc[loc[1]:]
}

// ParseHeader reads the retrieval header of doc.
func ParseHeader(doc string) (Header, bool) {
	m := headerPattern.FindStringSubmatch(doc)
	if m == nil {
		return Header{}, false
	}
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(m[2]))
	if err != nil {
		return Header{}, false
	}
	return Header{URL: m[1], Retrieved: t}, true
}
