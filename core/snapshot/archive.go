package snapshot

import (
	"os"
	"path/filepath"
	"regexp"

	"github.com/FocuswithJustin/writings/core/errors"
)

// digestPattern matches a lowercase hex BLAKE3-256 digest.
var digestPattern = regexp.MustCompile(`^[a-f0-9]{64}$`)

// Archive keeps replaced snapshots, compressed and addressed by the digest
// of their header-less content.
// Entries live at <root>/<first2>/<digest>.xhtml.xz.
type Archive struct {
	root string
}

// NewArchive opens or creates an archive rooted at root.
func NewArchive(root string) (*Archive, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, errors.NewIO("create directory", root, err)
	}
	return &Archive{root: root}, nil
}

// Put stores doc and returns its digest. Storing a document twice is a no-op.
func (a *Archive) Put(doc string) (string, error) {
	digest := DocumentDigest(doc)
	path := a.pathFor(digest)
	if _, err := os.Stat(path); err == nil {
		return digest, nil
	}
	if err := Write(path, doc); err != nil {
		return "", err
	}
	return digest, nil
}

// Get returns the archived document with the given digest.
func (a *Archive) Get(digest string) (string, error) {
	if !digestPattern.MatchString(digest) {
		return "", errors.NewValidation("digest", "not a BLAKE3 hex digest")
	}
	return Read(a.pathFor(digest))
}

// Exists reports whether a document with the given digest is archived.
func (a *Archive) Exists(digest string) bool {
	if !digestPattern.MatchString(digest) {
		return false
	}
	_, err := os.Stat(a.pathFor(digest))
	return err == nil
}

func (a *Archive) pathFor(digest string) string {
	return filepath.Join(a.root, digest[:2], digest+XZExt)
}
