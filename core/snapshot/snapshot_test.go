package snapshot

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	werrors "github.com/FocuswithJustin/writings/core/errors"
	"github.com/FocuswithJustin/writings/core/writings"
)

const testURL = "https://www.bahai.org/library/authoritative-texts/bahaullah/hidden-words/hidden-words.xhtml"

func TestHeaderRoundTrip(t *testing.T) {
	retrieved := time.Date(2026, 3, 21, 6, 30, 0, 0, time.UTC)
	doc := AddHeader("<html><body/></html>", testURL, retrieved)

	want := "<!-- Retrieved from " + testURL + " on 2026-03-21T06:30:00Z -->\n<html><body/></html>"
	if doc != want {
		t.Errorf("AddHeader() = %q, want %q", doc, want)
	}

	h, ok := ParseHeader(doc)
	if !ok {
		t.Fatal("ParseHeader() found no header")
	}
	if h.URL != testURL || !h.Retrieved.Equal(retrieved) {
		t.Errorf("ParseHeader() = %+v", h)
	}

	if got := StripHeader(doc); got != "<html><body/></html>" {
		t.Errorf("StripHeader() = %q", got)
	}
}

func TestStripHeader(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"no header", "<html></html>", "<html></html>"},
		{"no newline", "<!-- Retrieved from http://x on 2024-01-01T00:00:00+00:00 --><html></html>", "<html></html>"},
		{"other comment", "<!-- generated --><html></html>", "<!-- generated --><html></html>"},
		{"header later", "<html><!-- Retrieved from http://x on now --></html>", "<html><!-- Retrieved from http://x on now --></html>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripHeader(tt.doc); got != tt.want {
				t.Errorf("StripHeader() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDigest(t *testing.T) {
	const empty = "af1349b9f5f9a1a6a0404dea36dcc9499bcb25c9adc112b7cc9a93cae41f3262"
	if got := Digest(nil); got != empty {
		t.Errorf("Digest(nil) = %s, want %s", got, empty)
	}

	a := AddHeader("<html/>", testURL, time.Unix(0, 0))
	b := AddHeader("<html/>", testURL, time.Unix(86400, 0))
	if DocumentDigest(a) != DocumentDigest(b) {
		t.Error("DocumentDigest should ignore the retrieval header")
	}
	if DocumentDigest(a) == DocumentDigest("<html></html>") {
		t.Error("different documents should have different digests")
	}
}

func TestDiffRecords(t *testing.T) {
	before := []writings.Writing{
		writings.GleaningParagraph{RefID: "1", Number: 1, Paragraph: 1, Text: "Praise be to God"},
		writings.GleaningParagraph{RefID: "2", Number: 1, Paragraph: 2, Text: "unchanged"},
		writings.GleaningParagraph{RefID: "3", Number: 2, Paragraph: 1, Text: "gone"},
	}
	after := []writings.Writing{
		writings.GleaningParagraph{RefID: "1", Number: 1, Paragraph: 1, Text: "Praise be to Thee"},
		writings.GleaningParagraph{RefID: "2", Number: 1, Paragraph: 2, Text: "unchanged"},
		writings.GleaningParagraph{RefID: "4", Number: 2, Paragraph: 1, Text: "new"},
	}

	d := DiffRecords(before, after)
	if strings.Join(d.Added, ",") != "4" {
		t.Errorf("Added = %v, want [4]", d.Added)
	}
	if strings.Join(d.Removed, ",") != "3" {
		t.Errorf("Removed = %v, want [3]", d.Removed)
	}
	if strings.Join(d.Changed, ",") != "1" {
		t.Errorf("Changed = %v, want [1]", d.Changed)
	}
	if d.Empty() {
		t.Error("Empty() = true")
	}
	if !DiffRecords(after, after).Empty() {
		t.Error("identical record sets should have an empty diff")
	}
}

func TestReadWrite(t *testing.T) {
	dir := t.TempDir()
	doc := strings.Repeat("<p class=\"zd\">O Son of Being!</p>\n", 200)

	for _, name := range []string{"hidden-words" + Ext, "hidden-words" + XZExt} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			if err := Write(path, doc); err != nil {
				t.Fatalf("Write() error: %v", err)
			}
			got, err := Read(path)
			if err != nil {
				t.Fatalf("Read() error: %v", err)
			}
			if got != doc {
				t.Errorf("Read() returned %d bytes, want %d", len(got), len(doc))
			}
		})
	}

	raw, err := os.ReadFile(filepath.Join(dir, "hidden-words"+XZExt))
	if err != nil {
		t.Fatal(err)
	}
	if len(raw) >= len(doc) {
		t.Errorf("compressed size %d is not smaller than %d", len(raw), len(doc))
	}
}

func TestPathPrefersCompressed(t *testing.T) {
	dir := t.TempDir()
	if got := Path(dir, "gleanings"); got != filepath.Join(dir, "gleanings.xhtml") {
		t.Errorf("Path() = %s", got)
	}
	if err := Write(filepath.Join(dir, "gleanings"+XZExt), "<html/>"); err != nil {
		t.Fatal(err)
	}
	if got := Path(dir, "gleanings"); got != filepath.Join(dir, "gleanings.xhtml.xz") {
		t.Errorf("Path() = %s", got)
	}
}

func TestReadMissing(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "nope.xhtml"))
	if !errors.Is(err, werrors.ErrNotFound) {
		t.Errorf("Read() error = %v, want ErrNotFound", err)
	}
}

func TestReadCorruptXZ(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad"+XZExt)
	if err := os.WriteFile(path, []byte("not xz"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Read(path); err == nil {
		t.Error("Read() should fail on corrupt xz data")
	}
}

func TestWriteRenameError(t *testing.T) {
	orig := osRename
	osRename = func(string, string) error { return errors.New("rename failed") }
	defer func() { osRename = orig }()

	dir := t.TempDir()
	err := Write(filepath.Join(dir, "x.xhtml"), "<html/>")
	if err == nil {
		t.Fatal("Write() should fail when rename fails")
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("temp file left behind: %v", entries)
	}
}

func TestArchive(t *testing.T) {
	a, err := NewArchive(filepath.Join(t.TempDir(), "archive"))
	if err != nil {
		t.Fatalf("NewArchive() error: %v", err)
	}

	doc := AddHeader("<html><body><p>old</p></body></html>", testURL, time.Now())
	digest, err := a.Put(doc)
	if err != nil {
		t.Fatalf("Put() error: %v", err)
	}
	if digest != DocumentDigest(doc) {
		t.Errorf("Put() = %s, want %s", digest, DocumentDigest(doc))
	}
	if !a.Exists(digest) {
		t.Error("Exists() = false after Put")
	}

	again, err := a.Put(doc)
	if err != nil || again != digest {
		t.Errorf("second Put() = %s, %v", again, err)
	}

	got, err := a.Get(digest)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got != doc {
		t.Errorf("Get() = %q, want %q", got, doc)
	}
}

func TestArchiveInvalidDigest(t *testing.T) {
	a, err := NewArchive(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if a.Exists("xyz") {
		t.Error("Exists() should reject malformed digests")
	}
	if _, err := a.Get("xyz"); !errors.Is(err, werrors.ErrInvalidInput) {
		t.Errorf("Get() error = %v, want ErrInvalidInput", err)
	}
	if _, err := a.Get(Digest([]byte("absent"))); !errors.Is(err, werrors.ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}
