// Package update refreshes the stored snapshot of a work: it fetches the
// published document, checks that the extraction rules still produce the
// expected records and writes the new snapshot with a retrieval header.
package update

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/FocuswithJustin/writings/core/errors"
	"github.com/FocuswithJustin/writings/core/snapshot"
	"github.com/FocuswithJustin/writings/core/visitors"
	"github.com/FocuswithJustin/writings/core/writings"
	"github.com/FocuswithJustin/writings/internal/logging"
)

// Status is the outcome of an update.
type Status string

// Status constants.
const (
	StatusUnchanged Status = "unchanged"
	StatusCreated   Status = "created"
	StatusUpdated   Status = "updated"
)

// Report describes one update.
type Report struct {
	Work    string        `json:"work"`
	Status  Status        `json:"status"`
	Records int           `json:"records"`
	Digest  string        `json:"digest"`
	Path    string        `json:"path,omitempty"`
	Diff    snapshot.Diff `json:"diff"`

	// Archived is the archive digest of the replaced snapshot.
	Archived string `json:"archived,omitempty"`
}

// Options controls where and how snapshots are written.
type Options struct {
	// Compress writes <slug>.xhtml.xz instead of <slug>.xhtml.
	Compress bool

	// Archive, when set, keeps every replaced snapshot.
	Archive *snapshot.Archive

	// DryRun reports what would change without writing.
	DryRun bool

	// Now stamps the retrieval header; time.Now when nil.
	Now func() time.Time
}

// Run updates the snapshot of work in dir. A document that parses to no
// records or to a count other than work.ExpectedCount is rejected with a
// CountMismatchError and nothing is written.
func Run(ctx context.Context, work visitors.Work, f Fetcher, dir string, opts Options) (*Report, error) {
	start := time.Now()
	fetched, err := f.Fetch(ctx, work)
	if err != nil {
		return nil, errors.Wrapf(err, "fetch %s", work.Name)
	}
	body := snapshot.StripHeader(fetched)

	current := snapshot.Path(dir, work.Slug)
	existing, err := snapshot.Read(current)
	exists := err == nil
	if err != nil && !errors.Is(err, errors.ErrNotFound) {
		return nil, err
	}
	existing = snapshot.StripHeader(existing)

	report := &Report{Work: work.Name, Digest: snapshot.DocumentDigest(body)}
	if exists && existing == body {
		report.Status = StatusUnchanged
		report.Path = current
		logging.UpdateEvent(work.Name, string(report.Status), "digest", report.Digest)
		return report, nil
	}

	records, err := work.Parse(body)
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", work.Name)
	}
	report.Records = len(records)
	if len(records) == 0 || len(records) != work.ExpectedCount {
		err := errors.NewCountMismatch(work.Name, work.ExpectedCount, len(records))
		logging.ExtractionError(work.Name, err)
		return nil, err
	}

	var before []writings.Writing
	report.Status = StatusCreated
	if exists {
		report.Status = StatusUpdated
		if before, err = work.Parse(existing); err != nil {
			logging.Warn("previous snapshot no longer parses", "work", work.Name, "error", err.Error())
			before = nil
		}
	}
	report.Diff = snapshot.DiffRecords(before, records)

	if opts.DryRun {
		logging.UpdateEvent(work.Name, "dry_run", "would_be", string(report.Status))
		return report, nil
	}

	if exists && opts.Archive != nil {
		if report.Archived, err = opts.Archive.Put(existing); err != nil {
			return nil, err
		}
	}

	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	target, stale := filepath.Join(dir, work.Slug+snapshot.Ext), filepath.Join(dir, work.Slug+snapshot.XZExt)
	if opts.Compress {
		target, stale = stale, target
	}
	if err := snapshot.Write(target, snapshot.AddHeader(body, work.URL, now())); err != nil {
		return nil, err
	}
	if err := os.Remove(stale); err != nil && !os.IsNotExist(err) {
		return nil, errors.NewIO("remove", stale, err)
	}
	report.Path = target

	logging.UpdateEvent(work.Name, string(report.Status),
		"records", report.Records,
		"added", len(report.Diff.Added),
		"removed", len(report.Diff.Removed),
		"changed", len(report.Diff.Changed),
		"duration_ms", time.Since(start).Milliseconds())
	return report, nil
}

// RunAll updates every work in turn and stops at the first error.
func RunAll(ctx context.Context, works []visitors.Work, f Fetcher, dir string, opts Options) ([]*Report, error) {
	reports := make([]*Report, 0, len(works))
	for _, w := range works {
		r, err := Run(ctx, w, f, dir, opts)
		if err != nil {
			return reports, err
		}
		reports = append(reports, r)
	}
	return reports, nil
}
