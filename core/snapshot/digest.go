package snapshot

import (
	"encoding/hex"
	"sort"

	"github.com/FocuswithJustin/writings/core/writings"
	"github.com/zeebo/blake3"
)

// Digest returns the hex BLAKE3 hash of data.
func Digest(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// DocumentDigest hashes a document with its retrieval header removed.
func DocumentDigest(doc string) string {
	return Digest([]byte(StripHeader(doc)))
}

// Diff lists the ref_ids that differ between two record sets.
type Diff struct {
	Added   []string `json:"added,omitempty"`
	Removed []string `json:"removed,omitempty"`
	Changed []string `json:"changed,omitempty"`
}

// Empty reports whether the two record sets were equivalent.
func (d Diff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0
}

func textDigests(records []writings.Writing) map[string]string {
	out := make(map[string]string, len(records))
	for _, r := range records {
		h := writings.HeaderOf(r)
		out[h.RefID] = Digest([]byte(h.Text))
	}
	return out
}

// DiffRecords compares records by ref_id. A record whose text digest differs
// is reported as changed. Each list is sorted.
func DiffRecords(before, after []writings.Writing) Diff {
	old := textDigests(before)
	cur := textDigests(after)

	var d Diff
	for id, sum := range cur {
		prev, ok := old[id]
		switch {
		case !ok:
			d.Added = append(d.Added, id)
		case prev != sum:
			d.Changed = append(d.Changed, id)
		}
	}
	for id := range old {
		if _, ok := cur[id]; !ok {
			d.Removed = append(d.Removed, id)
		}
	}
	sort.Strings(d.Added)
	sort.Strings(d.Removed)
	sort.Strings(d.Changed)
	return d
}
