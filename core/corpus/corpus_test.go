package corpus

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"github.com/FocuswithJustin/writings/core/cache"
	"github.com/FocuswithJustin/writings/core/errors"
	"github.com/FocuswithJustin/writings/core/ref"
	"github.com/FocuswithJustin/writings/core/snapshot"
	"github.com/FocuswithJustin/writings/core/visitors"
	"github.com/FocuswithJustin/writings/core/writings"
)

const meditationsDoc = `<!DOCTYPE html><html><body>
<p class="c q">I</p>
<p><a class="sf" id="m1"></a>Glorified art Thou, O Lord my God!</p>
<p><a class="sf" id="m2"></a>I beseech Thee by Thy Name.</p>
</body></html>`

var fixtureCounts = map[string]int{
	visitors.WorkPrayers:     3,
	visitors.WorkHiddenWords: 6,
	visitors.WorkGleanings:   3,
	visitors.WorkMeditations: 2,
	visitors.WorkCDB:         8,
}

// testWorks returns the real works with counts matching the fixtures.
func testWorks() []visitors.Work {
	works := visitors.Works()
	for i := range works {
		works[i].ExpectedCount = fixtureCounts[works[i].Name]
	}
	return works
}

func fixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "visitors", "testdata", name))
	if err != nil {
		t.Fatalf("failed to read fixture %s: %v", name, err)
	}
	return string(data)
}

func testSource(t *testing.T) MapSource {
	t.Helper()
	return MapSource{
		visitors.WorkPrayers:     fixture(t, "prayers.html"),
		visitors.WorkHiddenWords: fixture(t, "hidden-words.html"),
		visitors.WorkGleanings:   fixture(t, "gleanings.html"),
		visitors.WorkMeditations: meditationsDoc,
		visitors.WorkCDB:         fixture(t, "cdb.html"),
	}
}

func loadTestCorpus(t *testing.T) *Corpus {
	t.Helper()
	c, err := Load(context.Background(), testSource(t), testWorks())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return c
}

func refIDs[T writings.Writing](records []T) []string {
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = writings.RefID(r)
	}
	return ids
}

func TestLoad(t *testing.T) {
	c := loadTestCorpus(t)

	if c.Len() != 22 {
		t.Errorf("Len() = %d, want 22", c.Len())
	}
	if len(c.ByRef()) != c.Len() {
		t.Errorf("len(ByRef()) = %d, want %d", len(c.ByRef()), c.Len())
	}
	if err := c.Verify(); err != nil {
		t.Errorf("Verify() = %v", err)
	}

	// All() keeps work order, then document order.
	all := refIDs(c.All())
	if all[0] != "p1" || all[3] != "hw-inv" || all[len(all)-1] != "c4" {
		t.Errorf("All() order = %v", all)
	}

	for _, n := range c.Counts() {
		if n.Digest == "" || len(n.Digest) != 64 {
			t.Errorf("%s digest = %q", n.Work, n.Digest)
		}
		if c.Digest(n.Work) != n.Digest {
			t.Errorf("Digest(%s) = %q, want %q", n.Work, c.Digest(n.Work), n.Digest)
		}
	}

	w, err := c.Ref("c2-1")
	if err != nil {
		t.Fatalf("Ref(c2-1) error: %v", err)
	}
	if writings.TypeOf(w) != writings.TypeCDB {
		t.Errorf("Ref(c2-1) type = %s", writings.TypeOf(w))
	}
	if _, err := c.Ref("late"); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("Ref(late) error = %v, want ErrNotFound", err)
	}
	if got := len(c.Records(visitors.WorkGleanings)); got != 3 {
		t.Errorf("Records(gleanings) = %d records, want 3", got)
	}
}

func TestLoadDuplicateRefID(t *testing.T) {
	src := testSource(t)
	src[visitors.WorkMeditations] = src[visitors.WorkGleanings]

	_, err := Load(context.Background(), src, testWorks())
	if err == nil {
		t.Fatal("Load should fail when two works share a ref_id")
	}
	var ve *errors.ValidationError
	if !errors.As(err, &ve) || ve.Field != "ref_id" || ve.Value != "g1" {
		t.Errorf("error = %v, want a ref_id validation error for g1", err)
	}
}

func TestLoadParseError(t *testing.T) {
	src := testSource(t)
	src[visitors.WorkHiddenWords] = `<html><body><h1>The Hidden Words</h1>
<p class="dd zd"><a class="sf" id="a1"></a>No salutation.</p></body></html>`

	_, err := Load(context.Background(), src, testWorks())
	if !errors.Is(err, errors.ErrStructure) {
		t.Errorf("Load error = %v, want ErrStructure", err)
	}
}

func TestLoadMissingSnapshot(t *testing.T) {
	src := testSource(t)
	delete(src, visitors.WorkCDB)

	_, err := Load(context.Background(), src, testWorks())
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("Load error = %v, want ErrNotFound", err)
	}
}

func TestVerifyMismatch(t *testing.T) {
	c, err := Load(context.Background(), testSource(t), visitors.Works())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	err = c.Verify()
	if !errors.Is(err, errors.ErrCountMismatch) {
		t.Fatalf("Verify() = %v, want ErrCountMismatch", err)
	}
	var cm *errors.CountMismatchError
	if !errors.As(err, &cm) || cm.Work != visitors.WorkPrayers || cm.Expected != 981 || cm.Actual != 3 {
		t.Errorf("first mismatch = %+v", cm)
	}
	for _, n := range c.Counts() {
		if n.OK() {
			t.Errorf("%s should not match its expected count", n.Work)
		}
	}
}

func TestDirSource(t *testing.T) {
	dir := t.TempDir()
	src := testSource(t)
	for i, w := range testWorks() {
		name := w.Slug + snapshot.Ext
		if i%2 == 0 {
			name = w.Slug + snapshot.XZExt
		}
		doc := snapshot.AddHeader(src[w.Name], w.URL, time.Now())
		if err := snapshot.Write(filepath.Join(dir, name), doc); err != nil {
			t.Fatalf("Write(%s) error: %v", name, err)
		}
	}

	fromDir, err := Load(context.Background(), DirSource{Dir: dir}, testWorks())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	fromMap := loadTestCorpus(t)
	if !reflect.DeepEqual(refIDs(fromDir.All()), refIDs(fromMap.All())) {
		t.Errorf("DirSource records differ: %v", refIDs(fromDir.All()))
	}
	for _, w := range testWorks() {
		if fromDir.Digest(w.Name) != fromMap.Digest(w.Name) {
			t.Errorf("%s digest should ignore the retrieval header", w.Name)
		}
	}
}

func TestLoadWithRecordCache(t *testing.T) {
	rc := cache.NewDefaultRecordCache()
	src := testSource(t)

	for i := 0; i < 2; i++ {
		if _, err := Load(context.Background(), src, testWorks(), WithRecordCache(rc)); err != nil {
			t.Fatalf("Load #%d failed: %v", i+1, err)
		}
	}
	stats := rc.Stats()
	if stats.Misses != 5 || stats.Hits != 5 {
		t.Errorf("record cache stats = %+v, want 5 misses then 5 hits", stats)
	}
}

type countingSource struct {
	Source
	loads atomic.Int32
}

func (s *countingSource) Load(ctx context.Context, work visitors.Work) (string, error) {
	s.loads.Add(1)
	return s.Source.Load(ctx, work)
}

func TestCacheLoadsOnce(t *testing.T) {
	src := &countingSource{Source: testSource(t)}
	c := NewCache(src, testWorks())

	first, err := c.Get(context.Background())
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	second, err := c.Get(context.Background())
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if first != second {
		t.Error("Get should return the same corpus")
	}
	if n := src.loads.Load(); n != 5 {
		t.Errorf("source loads = %d, want 5", n)
	}
}

func TestNewLengthMismatch(t *testing.T) {
	if _, err := New(testWorks(), nil); err == nil {
		t.Error("New should reject mismatched works and record sets")
	}
}

func TestHiddenWordLookups(t *testing.T) {
	c := loadTestCorpus(t)

	if got := refIDs(c.HiddenWords(writings.HiddenWordArabic)); !reflect.DeepEqual(got, []string{"hw-inv", "a1", "a2"}) {
		t.Errorf("HiddenWords(arabic) = %v", got)
	}
	if got := len(c.HiddenWords("")); got != 6 {
		t.Errorf("HiddenWords(\"\") = %d records, want 6", got)
	}

	tests := []struct {
		kind   writings.HiddenWordKind
		number int
		want   string
	}{
		{writings.HiddenWordArabic, 0, "hw-inv"},
		{writings.HiddenWordArabic, 2, "a2"},
		{writings.HiddenWordPersian, 0, "hw-epi"},
		{writings.HiddenWordPersian, 2, "b2"},
	}
	for _, tt := range tests {
		hw, err := c.HiddenWord(tt.kind, tt.number)
		if err != nil {
			t.Errorf("HiddenWord(%s, %d) error: %v", tt.kind, tt.number, err)
			continue
		}
		if hw.RefID != tt.want {
			t.Errorf("HiddenWord(%s, %d) = %s, want %s", tt.kind, tt.number, hw.RefID, tt.want)
		}
	}

	if _, err := c.HiddenWord(writings.HiddenWordPersian, 9); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("HiddenWord(persian, 9) error = %v, want ErrNotFound", err)
	}
}

func TestPrayerLookups(t *testing.T) {
	c := loadTestCorpus(t)

	tests := []struct {
		name string
		kind writings.PrayerKind
		path []string
		want int
	}{
		{"all", "", nil, 3},
		{"kind", writings.PrayerGeneral, nil, 3},
		{"other kind", writings.PrayerObligatory, nil, 0},
		{"hyphenated part", writings.PrayerGeneral, []string{"aid-and-assistance"}, 3},
		{"every part must match", writings.PrayerGeneral, []string{"ASSISTANCE", "morning"}, 3},
		{"substring", writings.PrayerGeneral, []string{"morn"}, 3},
		{"unmatched part", writings.PrayerGeneral, []string{"assistance", "evening"}, 0},
		{"empty parts ignored", "", []string{"", "aid"}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := len(c.Prayers(tt.kind, tt.path)); got != tt.want {
				t.Errorf("Prayers(%q, %q) = %d records, want %d", tt.kind, tt.path, got, tt.want)
			}
		})
	}
}

func TestNumberedLookups(t *testing.T) {
	c := loadTestCorpus(t)

	if got := refIDs(c.Gleanings(1)); !reflect.DeepEqual(got, []string{"g1", "g2"}) {
		t.Errorf("Gleanings(1) = %v", got)
	}
	if got := len(c.Gleanings(0)); got != 3 {
		t.Errorf("Gleanings(0) = %d records, want 3", got)
	}
	g, err := c.Gleaning(2, 1)
	if err != nil || g.RefID != "g3" {
		t.Errorf("Gleaning(2, 1) = %+v, %v", g, err)
	}
	if _, err := c.Gleaning(3, 1); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("Gleaning(3, 1) error = %v, want ErrNotFound", err)
	}

	m, err := c.Meditation(1, 2)
	if err != nil || m.RefID != "m2" {
		t.Errorf("Meditation(1, 2) = %+v, %v", m, err)
	}
	if got := len(c.Meditations(1)); got != 2 {
		t.Errorf("Meditations(1) = %d records, want 2", got)
	}
	if _, err := c.Meditation(1, 3); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("Meditation(1, 3) error = %v, want ErrNotFound", err)
	}
}

func TestCDBLookups(t *testing.T) {
	c := loadTestCorpus(t)

	if got := c.CDBWorks(); !reflect.DeepEqual(got, []string{"The Seven Valleys", "The Four Valleys"}) {
		t.Errorf("CDBWorks() = %v", got)
	}
	for _, name := range []string{"seven-valleys", "The Seven Valleys", "the seven valleys"} {
		if got := len(c.CDB(name)); got != 7 {
			t.Errorf("CDB(%q) = %d records, want 7", name, got)
		}
	}
	if got := len(c.CDB("")); got != 8 {
		t.Errorf("CDB(\"\") = %d records, want 8", got)
	}
	if got := len(c.CDB("valleys")); got != 0 {
		t.Errorf("CDB(valleys) = %d records, want 0", got)
	}
}

func TestSlug(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"The Seven Valleys", "seven-valleys"},
		{"The Four Valleys", "four-valleys"},
		{"From the Letter Bá’ to the Letter Há’", "from-the-letter-ba-to-the-letter-ha"},
		{"The", "the"},
	}
	for _, tt := range tests {
		if got := Slug(tt.title); got != tt.want {
			t.Errorf("Slug(%q) = %q, want %q", tt.title, got, tt.want)
		}
	}
}

func TestResolve(t *testing.T) {
	c := loadTestCorpus(t)

	tests := []struct {
		input string
		want  []string
	}{
		{"gleanings.I.2", []string{"g2"}},
		{"gleanings.I", []string{"g1", "g2"}},
		{"gleanings", []string{"g1", "g2", "g3"}},
		{"meditations.I.1-2", []string{"m1", "m2"}},
		{"hidden-words.persian.0", []string{"hw-epi"}},
		{"hidden-words.arabic", []string{"hw-inv", "a1", "a2"}},
		{"prayers.general", []string{"p1", "p2", "p3"}},
		{"prayers.2.1", []string{"p3"}},
		{"prayers.1", []string{"p1", "p2"}},
		{"cdb.seven-valleys.2-3", []string{"c2", "c2-1"}},
		{"cdb.four-valleys", []string{"c4"}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			r, err := ref.Parse(tt.input)
			if err != nil {
				t.Fatalf("ref.Parse(%q) error: %v", tt.input, err)
			}
			got, err := c.Resolve(r)
			if err != nil {
				t.Fatalf("Resolve(%q) error: %v", tt.input, err)
			}
			if ids := refIDs(got); !reflect.DeepEqual(ids, tt.want) {
				t.Errorf("Resolve(%q) = %v, want %v", tt.input, ids, tt.want)
			}
		})
	}

	for _, input := range []string{"gleanings.V", "gleanings.I.9", "cdb.hidden-valley", "prayers.obligatory", "hidden-words.arabic.40"} {
		r, err := ref.Parse(input)
		if err != nil {
			t.Fatalf("ref.Parse(%q) error: %v", input, err)
		}
		if _, err := c.Resolve(r); !errors.Is(err, errors.ErrNotFound) {
			t.Errorf("Resolve(%q) error = %v, want ErrNotFound", input, err)
		}
	}
}
