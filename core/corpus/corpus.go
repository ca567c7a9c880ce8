// Package corpus loads the snapshots of every work, extracts their records
// and serves them as one immutable, ref_id addressable collection.
package corpus

import (
	"context"
	"fmt"
	"time"

	"github.com/FocuswithJustin/writings/core/cache"
	"github.com/FocuswithJustin/writings/core/errors"
	"github.com/FocuswithJustin/writings/core/snapshot"
	"github.com/FocuswithJustin/writings/core/visitors"
	"github.com/FocuswithJustin/writings/core/writings"
	"github.com/FocuswithJustin/writings/internal/logging"
	"golang.org/x/sync/errgroup"
)

// Source supplies the markup of a work's snapshot.
type Source interface {
	Load(ctx context.Context, work visitors.Work) (string, error)
}

// DirSource reads snapshots from a directory holding <slug>.xhtml or
// <slug>.xhtml.xz files.
type DirSource struct {
	Dir string
}

// Load implements Source.
func (s DirSource) Load(ctx context.Context, work visitors.Work) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return snapshot.Read(snapshot.Path(s.Dir, work.Slug))
}

// MapSource serves documents held in memory, keyed by work name.
type MapSource map[string]string

// Load implements Source.
func (s MapSource) Load(ctx context.Context, work visitors.Work) (string, error) {
	doc, ok := s[work.Name]
	if !ok {
		return "", errors.NewNotFound("snapshot", work.Name)
	}
	return doc, nil
}

// Corpus is the extracted content of a set of works. It is never modified
// after Load returns and is safe for concurrent readers.
type Corpus struct {
	works   []visitors.Work
	records map[string][]writings.Writing
	digests map[string]string
	all     []writings.Writing
	byRef   map[string]writings.Writing

	prayers     []writings.PrayerParagraph
	hiddenWords []writings.HiddenWord
	gleanings   []writings.GleaningParagraph
	meditations []writings.MeditationParagraph
	cdb         []writings.CDBParagraph
}

// Option configures Load.
type Option func(*options)

type options struct {
	records *cache.RecordCache
}

// WithRecordCache reuses records of snapshots parsed before. Entries are
// keyed by work name and document digest.
func WithRecordCache(c *cache.RecordCache) Option {
	return func(o *options) {
		o.records = c
	}
}

// Load extracts every work from src in parallel. Any load or parse failure
// fails the whole corpus.
func Load(ctx context.Context, src Source, works []visitors.Work, opts ...Option) (*Corpus, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	results := make([][]writings.Writing, len(works))
	digests := make([]string, len(works))

	g, gctx := errgroup.WithContext(ctx)
	for i, work := range works {
		g.Go(func() error {
			doc, err := src.Load(gctx, work)
			if err != nil {
				return errors.Wrapf(err, "load %s", work.Name)
			}
			digests[i] = snapshot.DocumentDigest(doc)

			if o.records != nil {
				if records, ok := o.records.Get(work.Name, digests[i]); ok {
					logging.Debug("records cached", "work", work.Name, "records", len(records))
					results[i] = records
					return nil
				}
			}

			start := time.Now()
			records, err := work.Parse(doc)
			if err != nil {
				logging.ExtractionError(work.Name, err)
				return errors.Wrapf(err, "parse %s", work.Name)
			}
			logging.ExtractionEvent(work.Name, len(records), time.Since(start))

			if o.records != nil {
				o.records.Put(work.Name, digests[i], records)
			}
			results[i] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	c, err := New(works, results)
	if err != nil {
		return nil, err
	}
	for i, work := range works {
		c.digests[work.Name] = digests[i]
	}
	return c, nil
}

// New assembles a corpus from records already extracted; records[i] belongs
// to works[i]. A ref_id used twice is an error.
func New(works []visitors.Work, records [][]writings.Writing) (*Corpus, error) {
	if len(works) != len(records) {
		return nil, fmt.Errorf("corpus: %d works but %d record sets", len(works), len(records))
	}

	c := &Corpus{
		works:   append([]visitors.Work(nil), works...),
		records: make(map[string][]writings.Writing, len(works)),
		digests: make(map[string]string, len(works)),
		byRef:   make(map[string]writings.Writing),
	}
	owner := make(map[string]string)

	for i, work := range works {
		c.records[work.Name] = records[i]
		for _, r := range records[i] {
			id := writings.RefID(r)
			if prev, dup := owner[id]; dup {
				return nil, &errors.ValidationError{
					Field:   "ref_id",
					Value:   id,
					Message: fmt.Sprintf("%s used by both %s and %s", id, prev, work.Name),
				}
			}
			owner[id] = work.Name
			c.byRef[id] = r
			c.all = append(c.all, r)
			c.index(r)
		}
	}
	return c, nil
}

func (c *Corpus) index(r writings.Writing) {
	switch v := r.(type) {
	case writings.PrayerParagraph:
		c.prayers = append(c.prayers, v)
	case writings.HiddenWord:
		c.hiddenWords = append(c.hiddenWords, v)
	case writings.GleaningParagraph:
		c.gleanings = append(c.gleanings, v)
	case writings.MeditationParagraph:
		c.meditations = append(c.meditations, v)
	case writings.CDBParagraph:
		c.cdb = append(c.cdb, v)
	}
}

// Works returns the works the corpus was built from.
func (c *Corpus) Works() []visitors.Work {
	return append([]visitors.Work(nil), c.works...)
}

// All returns every record in work order, then document order. The slice
// is shared and must not be modified.
func (c *Corpus) All() []writings.Writing {
	return c.all
}

// ByRef returns the ref_id index. The map is shared and must not be
// modified.
func (c *Corpus) ByRef() map[string]writings.Writing {
	return c.byRef
}

// Records returns the records of one work.
func (c *Corpus) Records(work string) []writings.Writing {
	return c.records[work]
}

// Digest returns the content digest of the snapshot a work was loaded from,
// or "" for a corpus assembled with New.
func (c *Corpus) Digest(work string) string {
	return c.digests[work]
}

// Len returns the number of records.
func (c *Corpus) Len() int {
	return len(c.all)
}
