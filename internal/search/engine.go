// Package search answers paginated substring queries against the current
// corpus snapshot.
package search

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/SHUB2205/Aurora-technical-assessment/internal/corpus"
	"github.com/SHUB2205/Aurora-technical-assessment/internal/metrics"
	"github.com/SHUB2205/Aurora-technical-assessment/internal/model"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Options tunes pagination limits.
type Options struct {
	DefaultPageSize int
	MaxPageSize     int
	// Strict rejects page sizes above MaxPageSize instead of clamping them.
	Strict bool
}

func (o *Options) defaults() {
	if o.MaxPageSize <= 0 {
		o.MaxPageSize = MaxPageSize
	}
	if o.DefaultPageSize <= 0 {
		o.DefaultPageSize = DefaultPageSize
	}
	if o.DefaultPageSize > o.MaxPageSize {
		o.DefaultPageSize = o.MaxPageSize
	}
}

// Query is one search request. A nil or empty Text matches every record.
// PageSize 0 selects the default page size.
type Query struct {
	Text     *string
	Page     int
	PageSize int
}

// Result is one page of matches.
type Result struct {
	Total          int             `json:"total"`
	Items          []model.Message `json:"items"`
	Page           int             `json:"page"`
	PageSize       int             `json:"page_size"`
	TotalPages     int             `json:"total_pages"`
	Query          *string         `json:"query"`
	ResponseTimeMs float64         `json:"response_time_ms"`
	Version        uint64          `json:"version"`
}

// Engine searches the snapshots published by a corpus.Store. It never
// mutates a snapshot and never waits on a refresh.
type Engine struct {
	store *corpus.Store
	opts  Options
}

// NewEngine creates an Engine reading from store.
func NewEngine(store *corpus.Store, opts Options) *Engine {
	opts.defaults()
	return &Engine{store: store, opts: opts}
}

// Options returns the effective pagination limits.
func (e *Engine) Options() Options { return e.opts }

// Search returns the requested page of records matching q.
func (e *Engine) Search(q Query) (*Result, error) {
	start := time.Now()

	snap := e.store.Current()
	if snap == nil {
		metrics.ObserveSearch(metrics.OutcomeNotReady, time.Since(start))
		return nil, model.NewNotReadyError("no successful refresh yet")
	}

	pageSize, err := e.pageSize(q.PageSize)
	if err != nil {
		metrics.ObserveSearch(metrics.OutcomeInvalid, time.Since(start))
		return nil, err
	}
	if q.Page < 1 {
		metrics.ObserveSearch(metrics.OutcomeInvalid, time.Since(start))
		return nil, model.NewInvalidQueryError("page", "must be >= 1")
	}

	matches := match(snap, q.Text)
	total := len(matches)

	items := []model.Message{}
	// Compare in page units so (Page-1)*pageSize cannot overflow.
	if total > 0 && q.Page-1 <= (total-1)/pageSize {
		offset := (q.Page - 1) * pageSize
		end := min(offset+pageSize, total)
		items = make([]model.Message, 0, end-offset)
		items = append(items, matches[offset:end]...)
	}

	elapsed := time.Since(start)
	metrics.ObserveSearch(metrics.OutcomeOK, elapsed)

	return &Result{
		Total:          total,
		Items:          items,
		Page:           q.Page,
		PageSize:       pageSize,
		TotalPages:     TotalPages(total, pageSize),
		Query:          q.Text,
		ResponseTimeMs: roundMillis(elapsed),
		Version:        snap.Version(),
	}, nil
}

func (e *Engine) pageSize(requested int) (int, error) {
	switch {
	case requested == 0:
		return e.opts.DefaultPageSize, nil
	case requested < 0:
		return 0, model.NewInvalidQueryError("page_size", "must be >= 1")
	case requested > e.opts.MaxPageSize:
		if e.opts.Strict {
			return 0, model.NewInvalidQueryError("page_size", "must be <= "+strconv.Itoa(e.opts.MaxPageSize))
		}
		return e.opts.MaxPageSize, nil
	}
	return requested, nil
}

// match returns the records of snap matching text, in snapshot order.
func match(snap *corpus.Snapshot, text *string) []model.Message {
	records := snap.Records()
	if text == nil || *text == "" {
		return records
	}

	folded := strings.ToLower(*text)
	keys := snap.SearchKeys()
	var out []model.Message
	for i := range keys {
		if keys[i].Contains(folded) {
			out = append(out, records[i])
		}
	}
	return out
}

// TotalPages is ceil(total/pageSize) with a floor of 1.
func TotalPages(total, pageSize int) int {
	if pageSize < 1 || total <= 0 {
		return 1
	}
	return (total + pageSize - 1) / pageSize
}

func roundMillis(d time.Duration) float64 {
	ms := float64(d) / float64(time.Millisecond)
	return math.Round(ms*100) / 100
}
