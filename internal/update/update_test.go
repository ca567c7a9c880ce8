package update

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/FocuswithJustin/writings/core/errors"
	"github.com/FocuswithJustin/writings/core/snapshot"
	"github.com/FocuswithJustin/writings/core/visitors"
)

var retrieved = time.Date(2026, 3, 21, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return retrieved }

func gleaningsDoc(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile("../../core/visitors/testdata/gleanings.html")
	if err != nil {
		t.Fatalf("reading fixture: %v", err)
	}
	return string(data)
}

func gleaningsWork(t *testing.T) visitors.Work {
	t.Helper()
	w, ok := visitors.Lookup(visitors.WorkGleanings)
	if !ok {
		t.Fatal("gleanings work not registered")
	}
	w.ExpectedCount = 3
	return w
}

type staticFetcher struct {
	doc   string
	err   error
	calls int
}

func (f *staticFetcher) Fetch(ctx context.Context, work visitors.Work) (string, error) {
	f.calls++
	return f.doc, f.err
}

func TestRunCreates(t *testing.T) {
	dir := t.TempDir()
	work := gleaningsWork(t)
	doc := gleaningsDoc(t)

	report, err := Run(context.Background(), work, &staticFetcher{doc: doc}, dir, Options{Now: fixedNow})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.Status != StatusCreated || report.Records != 3 {
		t.Errorf("report = %+v", report)
	}
	if !reflect.DeepEqual(report.Diff.Added, []string{"g1", "g2", "g3"}) {
		t.Errorf("Added = %v", report.Diff.Added)
	}
	wantPath := filepath.Join(dir, work.Slug+snapshot.Ext)
	if report.Path != wantPath {
		t.Errorf("Path = %q, want %q", report.Path, wantPath)
	}

	stored, err := snapshot.Read(wantPath)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	h, ok := snapshot.ParseHeader(stored)
	if !ok {
		t.Fatalf("stored snapshot has no header: %.80q", stored)
	}
	if h.URL != work.URL || !h.Retrieved.Equal(retrieved) {
		t.Errorf("header = %+v", h)
	}
	if snapshot.StripHeader(stored) != doc {
		t.Error("stored body differs from the fetched document")
	}
	if report.Digest != snapshot.DocumentDigest(doc) {
		t.Errorf("Digest = %s", report.Digest)
	}
}

func TestRunUnchanged(t *testing.T) {
	dir := t.TempDir()
	work := gleaningsWork(t)
	doc := gleaningsDoc(t)

	old := snapshot.AddHeader(doc, work.URL, retrieved.Add(-24*time.Hour))
	path := filepath.Join(dir, work.Slug+snapshot.Ext)
	if err := snapshot.Write(path, old); err != nil {
		t.Fatal(err)
	}

	fetched := snapshot.AddHeader(doc, work.URL, retrieved)
	report, err := Run(context.Background(), work, &staticFetcher{doc: fetched}, dir, Options{Now: fixedNow})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.Status != StatusUnchanged {
		t.Errorf("Status = %s, want unchanged", report.Status)
	}
	stored, _ := snapshot.Read(path)
	if stored != old {
		t.Error("an unchanged document should not be rewritten")
	}
}

func TestRunUpdatesCompressedAndArchives(t *testing.T) {
	dir := t.TempDir()
	work := gleaningsWork(t)
	doc := gleaningsDoc(t)
	if err := snapshot.Write(filepath.Join(dir, work.Slug+snapshot.Ext), doc); err != nil {
		t.Fatal(err)
	}
	archive, err := snapshot.NewArchive(filepath.Join(dir, "archive"))
	if err != nil {
		t.Fatal(err)
	}

	revised := strings.Replace(doc, "The second <i>paragraph</i>.", "A revised paragraph.", 1)
	report, err := Run(context.Background(), work, &staticFetcher{doc: revised}, dir,
		Options{Compress: true, Archive: archive, Now: fixedNow})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.Status != StatusUpdated {
		t.Errorf("Status = %s, want updated", report.Status)
	}
	if !reflect.DeepEqual(report.Diff, snapshot.Diff{Changed: []string{"g2"}}) {
		t.Errorf("Diff = %+v, want g2 changed", report.Diff)
	}

	if report.Path != filepath.Join(dir, work.Slug+snapshot.XZExt) {
		t.Errorf("Path = %q", report.Path)
	}
	if _, err := os.Stat(filepath.Join(dir, work.Slug+snapshot.Ext)); !os.IsNotExist(err) {
		t.Error("the uncompressed snapshot should be removed")
	}
	stored, err := snapshot.Read(snapshot.Path(dir, work.Slug))
	if err != nil {
		t.Fatal(err)
	}
	if snapshot.StripHeader(stored) != revised {
		t.Error("compressed snapshot does not hold the revised document")
	}

	old, err := archive.Get(report.Archived)
	if err != nil {
		t.Fatalf("archive.Get failed: %v", err)
	}
	if old != doc {
		t.Error("archive does not hold the replaced document")
	}
}

func TestRunRejectsCountMismatch(t *testing.T) {
	dir := t.TempDir()
	work := gleaningsWork(t)
	work.ExpectedCount = 716

	_, err := Run(context.Background(), work, &staticFetcher{doc: gleaningsDoc(t)}, dir, Options{})
	if !errors.Is(err, errors.ErrCountMismatch) {
		t.Fatalf("error = %v, want ErrCountMismatch", err)
	}
	if !strings.Contains(err.Error(), "CODE UPDATE REQUIRED") {
		t.Errorf("error %q should ask for a code update", err)
	}
	if entries, _ := os.ReadDir(dir); len(entries) != 0 {
		t.Errorf("nothing should be written, found %d entries", len(entries))
	}
}

func TestRunRejectsEmptyDocument(t *testing.T) {
	work := gleaningsWork(t)
	work.ExpectedCount = 0
	_, err := Run(context.Background(), work, &staticFetcher{doc: "<html><body></body></html>"}, t.TempDir(), Options{})
	if !errors.Is(err, errors.ErrCountMismatch) {
		t.Errorf("error = %v, want ErrCountMismatch", err)
	}
}

func TestRunParseError(t *testing.T) {
	doc := `<body><p class="c q">II</p><p><a class="sf" id="x"></a>Text.</p></body>`
	_, err := Run(context.Background(), gleaningsWork(t), &staticFetcher{doc: doc}, t.TempDir(), Options{})
	if !errors.Is(err, errors.ErrStructure) {
		t.Errorf("error = %v, want ErrStructure", err)
	}
}

func TestRunFetchError(t *testing.T) {
	_, err := Run(context.Background(), gleaningsWork(t), &staticFetcher{err: fmt.Errorf("connection refused")}, t.TempDir(), Options{})
	if err == nil || !strings.Contains(err.Error(), "fetch gleanings") {
		t.Errorf("error = %v", err)
	}
}

func TestRunDryRun(t *testing.T) {
	dir := t.TempDir()
	report, err := Run(context.Background(), gleaningsWork(t), &staticFetcher{doc: gleaningsDoc(t)}, dir, Options{DryRun: true})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.Status != StatusCreated || len(report.Diff.Added) != 3 {
		t.Errorf("report = %+v", report)
	}
	if entries, _ := os.ReadDir(dir); len(entries) != 0 {
		t.Errorf("dry run wrote %d entries", len(entries))
	}
}

func TestRunAllStopsAtFirstError(t *testing.T) {
	good := gleaningsWork(t)
	bad := good
	bad.Name = "broken"
	bad.Slug = "broken"
	bad.ExpectedCount = 1

	f := &staticFetcher{doc: gleaningsDoc(t)}
	reports, err := RunAll(context.Background(), []visitors.Work{good, bad, good}, f, t.TempDir(), Options{})
	if !errors.Is(err, errors.ErrCountMismatch) {
		t.Fatalf("error = %v", err)
	}
	if len(reports) != 1 || f.calls != 2 {
		t.Errorf("reports = %d, fetches = %d; want 1, 2", len(reports), f.calls)
	}
}

func TestHTTPFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "test-agent" {
			t.Errorf("User-Agent = %q", r.Header.Get("User-Agent"))
		}
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, "<html>ok</html>")
	}))
	defer srv.Close()

	f := NewHTTPFetcher(srv.Client(), "test-agent")
	work := gleaningsWork(t)

	work.URL = srv.URL + "/gleanings.xhtml"
	doc, err := f.Fetch(context.Background(), work)
	if err != nil || doc != "<html>ok</html>" {
		t.Errorf("Fetch() = %q, %v", doc, err)
	}

	work.URL = srv.URL + "/missing"
	_, err = f.Fetch(context.Background(), work)
	var he *HTTPError
	if !errors.As(err, &he) || he.StatusCode != http.StatusNotFound {
		t.Errorf("error = %v, want HTTPError 404", err)
	}

	work.URL = "ftp://example.org/gleanings"
	if _, err := f.Fetch(context.Background(), work); !errors.Is(err, errors.ErrUnsupported) {
		t.Errorf("ftp error = %v, want ErrUnsupported", err)
	}
}

func TestFileFetcher(t *testing.T) {
	dir := t.TempDir()
	work := gleaningsWork(t)
	if err := snapshot.Write(filepath.Join(dir, work.Slug+snapshot.XZExt), "<html>staged</html>"); err != nil {
		t.Fatal(err)
	}

	doc, err := FileFetcher{Dir: dir}.Fetch(context.Background(), work)
	if err != nil || doc != "<html>staged</html>" {
		t.Errorf("Fetch() = %q, %v", doc, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := (FileFetcher{Dir: dir}).Fetch(ctx, work); err == nil {
		t.Error("Fetch with a cancelled context should fail")
	}
}
