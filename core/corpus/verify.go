package corpus

import (
	"context"
	"sync"

	"github.com/FocuswithJustin/writings/core/errors"
	"github.com/FocuswithJustin/writings/core/visitors"
)

// Count is the record count of one work next to the count it must have.
type Count struct {
	Work     string `json:"work"`
	Expected int    `json:"expected"`
	Actual   int    `json:"actual"`
	Digest   string `json:"digest,omitempty"`
}

// OK reports whether the counts agree.
func (c Count) OK() bool {
	return c.Expected == c.Actual
}

// Counts returns the count of every work, in work order.
func (c *Corpus) Counts() []Count {
	out := make([]Count, len(c.works))
	for i, w := range c.works {
		out[i] = Count{
			Work:     w.Name,
			Expected: w.ExpectedCount,
			Actual:   len(c.records[w.Name]),
			Digest:   c.digests[w.Name],
		}
	}
	return out
}

// Verify returns a CountMismatchError for each work whose record count
// differs from its expected count, joined, or nil.
func (c *Corpus) Verify() error {
	var errs []error
	for _, n := range c.Counts() {
		if !n.OK() {
			errs = append(errs, errors.NewCountMismatch(n.Work, n.Expected, n.Actual))
		}
	}
	return errors.Join(errs...)
}

// Cache loads a corpus at most once per process and hands the same
// immutable value to every caller. A failed load is remembered too.
type Cache struct {
	src   Source
	works []visitors.Work
	opts  []Option

	once   sync.Once
	corpus *Corpus
	err    error
}

// NewCache prepares a cache; nothing is loaded until the first Get.
func NewCache(src Source, works []visitors.Work, opts ...Option) *Cache {
	return &Cache{src: src, works: works, opts: opts}
}

// Get returns the corpus, loading it on first use with ctx.
func (c *Cache) Get(ctx context.Context) (*Corpus, error) {
	c.once.Do(func() {
		c.corpus, c.err = Load(ctx, c.src, c.works, c.opts...)
	})
	return c.corpus, c.err
}
