package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/FocuswithJustin/writings/core/errors"
	"github.com/FocuswithJustin/writings/core/export"
	"github.com/FocuswithJustin/writings/core/index"
	"github.com/FocuswithJustin/writings/core/ref"
	"github.com/FocuswithJustin/writings/core/roman"
	"github.com/FocuswithJustin/writings/core/search"
	"github.com/FocuswithJustin/writings/core/snapshot"
	"github.com/FocuswithJustin/writings/core/writings"
	"github.com/FocuswithJustin/writings/internal/logging"
	"github.com/FocuswithJustin/writings/internal/update"
)

// ParseCmd extracts the records of one snapshot.
type ParseCmd struct {
	Work string `arg:"" help:"Work name or slug (prayers, hidden-words, gleanings, meditations, cdb)"`
	File string `short:"f" help:"Snapshot file (default: the work's file in the snapshot directory)" type:"existingfile"`
}

func (c *ParseCmd) Run(g *Globals) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	work, err := lookupWork(c.Work)
	if err != nil {
		return err
	}

	path := c.File
	if path == "" {
		path = snapshot.Path(cfg.Corpus.SnapshotDir, work.Slug)
	}
	doc, err := snapshot.Read(path)
	if err != nil {
		return err
	}

	start := time.Now()
	records, err := work.Parse(doc)
	if err != nil {
		return errors.Wrapf(err, "parse %s", path)
	}
	logging.ExtractionEvent(work.Name, len(records), time.Since(start), "path", path)
	return export.JSON(stdout, records)
}

// VerifyCmd checks the record count of every work.
type VerifyCmd struct {
	JSON bool `help:"Output as JSON"`
}

func (c *VerifyCmd) Run(g *Globals) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	corp, err := g.corpus(ctx, cfg)
	if err != nil {
		return err
	}
	counts := corp.Counts()

	if c.JSON {
		if err := printJSON(counts); err != nil {
			return err
		}
		return corp.Verify()
	}

	fmt.Fprintf(stdout, "Snapshots: %s\n", cfg.Corpus.SnapshotDir)
	for _, n := range counts {
		status := "[OK]  "
		if !n.OK() {
			status = "[FAIL]"
		}
		digest := n.Digest
		if len(digest) > 16 {
			digest = digest[:16]
		}
		fmt.Fprintf(stdout, "  %s %-12s %5d/%-5d %s\n", status, n.Work, n.Actual, n.Expected, digest)
	}
	if err := corp.Verify(); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Verification passed: %d records\n", corp.Len())
	return nil
}

// UpdateCmd refreshes snapshots from the library or a local directory.
type UpdateCmd struct {
	Works    []string `arg:"" optional:"" help:"Works to update (default: all)"`
	From     string   `help:"Read new snapshots from this directory instead of fetching" type:"existingdir"`
	DryRun   bool     `name:"dry-run" short:"n" help:"Report changes without writing"`
	Compress bool     `help:"Write xz-compressed snapshots"`
	JSON     bool     `help:"Output as JSON"`
}

func (c *UpdateCmd) Run(g *Globals) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	works, err := selectWorks(c.Works)
	if err != nil {
		return err
	}

	var fetcher update.Fetcher = update.NewHTTPFetcher(nil, "")
	if c.From != "" {
		fetcher = update.FileFetcher{Dir: c.From}
	}
	opts := update.Options{
		Compress: c.Compress || cfg.Corpus.Compress,
		DryRun:   c.DryRun,
	}
	if dir := cfg.Corpus.ArchiveDir; dir != "" && !c.DryRun {
		if opts.Archive, err = snapshot.NewArchive(dir); err != nil {
			return err
		}
	}
	if err := os.MkdirAll(cfg.Corpus.SnapshotDir, 0o755); err != nil {
		return errors.NewIO("create", cfg.Corpus.SnapshotDir, err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	reports, err := update.RunAll(ctx, works, fetcher, cfg.Corpus.SnapshotDir, opts)
	if c.JSON {
		if perr := printJSON(reports); perr != nil {
			return perr
		}
		return err
	}
	for _, r := range reports {
		printReport(r, c.DryRun)
	}
	return err
}

func printReport(r *update.Report, dryRun bool) {
	status := string(r.Status)
	if dryRun && r.Status != update.StatusUnchanged {
		status = "would be " + status
	}
	fmt.Fprintf(stdout, "%s: %s\n", r.Work, status)
	if r.Status == update.StatusUnchanged {
		return
	}
	fmt.Fprintf(stdout, "  Records: %d\n", r.Records)
	fmt.Fprintf(stdout, "  Added: %d  Removed: %d  Changed: %d\n",
		len(r.Diff.Added), len(r.Diff.Removed), len(r.Diff.Changed))
	if r.Path != "" {
		fmt.Fprintf(stdout, "  Written: %s\n", r.Path)
	}
	if r.Archived != "" {
		fmt.Fprintf(stdout, "  Archived: %s\n", r.Archived)
	}
}

// SearchCmd runs a keyword search.
type SearchCmd struct {
	Query  []string `arg:"" help:"Keywords"`
	Limit  int      `short:"l" help:"Results per page"`
	Offset int      `help:"Results to skip"`
	JSON   bool     `help:"Output as JSON"`
}

func (c *SearchCmd) Run(g *Globals) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	corp, err := g.corpus(ctx, cfg)
	if err != nil {
		return err
	}
	eng, closeIndex, err := engine(ctx, cfg, corp)
	if err != nil {
		return err
	}
	defer closeIndex()

	res, err := eng.Search(ctx, search.Query{
		Q:      strings.Join(c.Query, " "),
		Limit:  c.Limit,
		Offset: c.Offset,
	})
	if err != nil {
		return err
	}
	if c.JSON {
		return printJSON(res)
	}

	fmt.Fprintf(stdout, "%d match(es), showing %d from %d\n", res.Total, len(res.Writings), res.Offset)
	for _, r := range res.Writings {
		fmt.Fprintf(stdout, "%6d  %-10s %s\n", r.Score, writings.RefID(r.Writing.Writing), r.Type)
		fmt.Fprintf(stdout, "        %s\n", r.Excerpt)
	}
	return nil
}

// RomanGroup converts numerals.
type RomanGroup struct {
	To   RomanToCmd   `cmd:"" help:"Convert an integer to a Roman numeral"`
	From RomanFromCmd `cmd:"" help:"Convert a Roman numeral to an integer"`
}

// RomanToCmd prints the numeral for an integer.
type RomanToCmd struct {
	N int `arg:"" help:"Integer between 1 and 3999"`
}

func (c *RomanToCmd) Run() error {
	s, ok := roman.To(c.N)
	if !ok {
		return errors.NewValidation("n", fmt.Sprintf("%d is outside 1..%d", c.N, roman.Max))
	}
	fmt.Fprintln(stdout, s)
	return nil
}

// RomanFromCmd prints the integer for a canonical numeral.
type RomanFromCmd struct {
	Numeral string `arg:"" help:"Roman numeral, e.g. XIV"`
}

func (c *RomanFromCmd) Run() error {
	n, err := roman.Parse(c.Numeral)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, n)
	return nil
}

// RefCmd resolves a reference against the corpus.
type RefCmd struct {
	Reference string `arg:"" help:"Reference, e.g. gleanings.XI.3 or hidden-words.persian.37"`
	Parse     bool   `help:"Only parse the reference and print its canonical form"`
}

func (c *RefCmd) Run(g *Globals) error {
	r, err := ref.Parse(c.Reference)
	if err != nil {
		return err
	}
	if c.Parse {
		fmt.Fprintln(stdout, r.String())
		return nil
	}

	cfg, err := g.load()
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	corp, err := g.corpus(ctx, cfg)
	if err != nil {
		return err
	}
	records, err := corp.Resolve(r)
	if err != nil {
		return err
	}
	return printJSON(writings.Wrap(records))
}

// ExportCmd writes the corpus, or some works of it, in one format.
type ExportCmd struct {
	Works  []string `arg:"" optional:"" help:"Works to export (default: all)"`
	Format string   `short:"F" help:"Output format" enum:"json,xlsx,xml" default:"json"`
	Out    string   `short:"o" help:"Output file (default: stdout; required for xlsx)" type:"path"`
}

func (c *ExportCmd) Run(g *Globals) error {
	format, err := export.ParseFormat(c.Format)
	if err != nil {
		return err
	}
	if format == export.FormatXLSX && c.Out == "" {
		return errors.NewValidation("out", "xlsx output needs a file")
	}
	works, err := selectWorks(c.Works)
	if err != nil {
		return err
	}

	cfg, err := g.load()
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	corp, err := g.corpus(ctx, cfg)
	if err != nil {
		return err
	}
	var records []writings.Writing
	for _, w := range works {
		records = append(records, corp.Records(w.Name)...)
	}

	if c.Out == "" {
		return export.Write(stdout, format, records)
	}
	if format == export.FormatXLSX {
		return export.XLSX(c.Out, records)
	}
	f, err := os.Create(c.Out)
	if err != nil {
		return errors.NewIO("create", c.Out, err)
	}
	if err := export.Write(f, format, records); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return errors.NewIO("close", c.Out, err)
	}
	fmt.Fprintf(stdout, "Exported %d records to %s\n", len(records), c.Out)
	return nil
}

// IndexCmd rebuilds the full-text index.
type IndexCmd struct {
	Path string `help:"Index database (default: corpus.index_path)" type:"path"`
}

func (c *IndexCmd) Run(g *Globals) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	path := c.Path
	if path == "" {
		path = cfg.Corpus.IndexPath
	}
	if path == "" {
		return errors.NewValidation("path", "no index path given or configured")
	}

	ctx, cancel := signalContext()
	defer cancel()

	corp, err := g.corpus(ctx, cfg)
	if err != nil {
		return err
	}
	return buildIndex(ctx, path, corp.All())
}

func buildIndex(ctx context.Context, path string, records []writings.Writing) error {
	store, err := index.Open(ctx, path)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Build(ctx, records); err != nil {
		return err
	}
	n, err := store.Count(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Indexed %d records in %s\n", n, path)
	return nil
}
