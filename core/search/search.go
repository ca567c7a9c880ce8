// Package search ranks corpus paragraphs against a keyword query and
// returns the best sentence of each as an excerpt.
package search

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/FocuswithJustin/writings/core/corpus"
	"github.com/FocuswithJustin/writings/core/errors"
	"github.com/FocuswithJustin/writings/core/textfold"
	"github.com/FocuswithJustin/writings/core/writings"
	"github.com/FocuswithJustin/writings/internal/cache"
	"github.com/FocuswithJustin/writings/internal/logging"
)

// Limits on page size.
const (
	DefaultLimit = 9
	MaxLimit     = 95
)

// Query is a search request.
type Query struct {
	Q      string `json:"q"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// Normalize applies the default limit and validates the query.
func (q Query) Normalize() (Query, error) {
	return q.normalize(DefaultLimit, MaxLimit)
}

func (q Query) normalize(defaultLimit, maxLimit int) (Query, error) {
	if q.Limit == 0 {
		q.Limit = defaultLimit
	}
	if q.Limit < 1 || q.Limit > maxLimit {
		return q, &errors.ValidationError{
			Field:   "limit",
			Value:   strconv.Itoa(q.Limit),
			Message: fmt.Sprintf("must be between 1 and %d", maxLimit),
		}
	}
	if q.Offset < 0 {
		return q, &errors.ValidationError{Field: "offset", Message: "must not be negative"}
	}
	return q, nil
}

// Result is one matching paragraph.
type Result struct {
	Score   int               `json:"score"`
	Type    writings.Type     `json:"type"`
	Author  writings.Author   `json:"author"`
	Excerpt string            `json:"excerpt"`
	Writing writings.Envelope `json:"writing"`
}

// Pagination describes the returned page. Total counts every match.
type Pagination struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total"`
}

// Results is one page of results, best first.
type Results struct {
	Pagination
	Writings []Result `json:"writings"`
}

// Candidates narrows the records worth scoring to those containing every
// term. *index.Store implements it.
type Candidates interface {
	Candidates(ctx context.Context, terms []string, limit int) ([]string, error)
}

// Engine searches one corpus.
type Engine struct {
	corpus *corpus.Corpus
	index  Candidates
	cache  *cache.TTLCache[string, []Result]

	defaultLimit int
	maxLimit     int
}

// Option configures an Engine.
type Option func(*Engine)

// WithIndex prefilters records through a full-text index when a query has
// more than one keyword. Required keywords then match word prefixes rather
// than arbitrary substrings.
func WithIndex(c Candidates) Option {
	return func(e *Engine) {
		e.index = c
	}
}

// WithCache keeps ranked results for ttl, up to maxQueries distinct queries.
func WithCache(ttl time.Duration, maxQueries int) Option {
	return func(e *Engine) {
		if ttl > 0 {
			e.cache = cache.New[string, []Result](ttl, maxQueries)
		}
	}
}

// WithLimits changes the default and maximum page size. Values outside
// 1..MaxLimit are ignored.
func WithLimits(defaultLimit, maxLimit int) Option {
	return func(e *Engine) {
		if maxLimit >= 1 && maxLimit <= MaxLimit {
			e.maxLimit = maxLimit
		}
		if defaultLimit >= 1 && defaultLimit <= e.maxLimit {
			e.defaultLimit = defaultLimit
		}
	}
}

// New creates an engine over c.
func New(c *corpus.Corpus, opts ...Option) *Engine {
	e := &Engine{corpus: c, defaultLimit: DefaultLimit, maxLimit: MaxLimit}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Search returns one page of the records matching q.
func (e *Engine) Search(ctx context.Context, q Query) (*Results, error) {
	q, err := q.normalize(e.defaultLimit, e.maxLimit)
	if err != nil {
		return nil, err
	}

	keywords := textfold.Words(q.Q)
	var ranked []Result
	if len(keywords) > 0 {
		if ranked, err = e.ranked(ctx, keywords); err != nil {
			return nil, err
		}
	}

	total := len(ranked)
	start := min(q.Offset, total)
	end := min(q.Offset+q.Limit, total)
	page := make([]Result, end-start)
	copy(page, ranked[start:end])

	return &Results{
		Pagination: Pagination{Limit: q.Limit, Offset: q.Offset, Total: total},
		Writings:   page,
	}, nil
}

func (e *Engine) ranked(ctx context.Context, keywords []string) ([]Result, error) {
	key := strings.Join(keywords, " ")
	if e.cache != nil {
		if r, ok := e.cache.Get(key); ok {
			return r, nil
		}
	}

	start := time.Now()
	records, err := e.candidates(ctx, keywords)
	if err != nil {
		return nil, err
	}

	var results []Result
	for _, w := range records {
		h := writings.HeaderOf(w)
		score, excerpt, ok := Score(h.Text, keywords)
		if !ok {
			continue
		}
		results = append(results, Result{
			Score:   score,
			Type:    h.Type,
			Author:  h.Author,
			Excerpt: excerpt,
			Writing: writings.Envelope{Writing: w},
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	logging.DebugContext(ctx, "search", "keywords", key, "scanned", len(records),
		"matches", len(results), "duration_ms", time.Since(start).Milliseconds())

	if e.cache != nil {
		e.cache.Set(key, results)
	}
	return results, nil
}

func (e *Engine) candidates(ctx context.Context, keywords []string) ([]writings.Writing, error) {
	if e.index == nil || len(keywords) < 2 {
		return e.corpus.All(), nil
	}
	ids, err := e.index.Candidates(ctx, keywords[:len(keywords)-1], 0)
	if err != nil {
		return nil, errors.Wrap(err, "search index")
	}
	byRef := e.corpus.ByRef()
	out := make([]writings.Writing, 0, len(ids))
	for _, id := range ids {
		if w, ok := byRef[id]; ok {
			out = append(out, w)
		}
	}
	return out, nil
}
