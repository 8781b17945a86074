// Package controller drives one catalog search: it owns the search state, the fetch
// status and the held record set, and derives the visible page from them.
package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/abgdnv/catalogsearch/internal/catalog"
	"github.com/abgdnv/catalogsearch/internal/debounce"
	"github.com/abgdnv/catalogsearch/internal/search"
)

const (
	DefaultDebounce = 300 * time.Millisecond

	genericErrorMessage = "An error occurred"
)

// Options configures a Controller. Zero values select the defaults.
type Options struct {
	// PageSize is the number of records per page.
	PageSize int
	// Debounce is how long the query must stay unchanged before it is fetched.
	Debounce time.Duration
	// RefetchOnSort starts a fresh fetch on every sort change instead of re-sorting
	// the held records.
	RefetchOnSort bool
	// OnChange receives the current view after every observable change. It runs
	// outside the controller lock and must not call Close.
	OnChange func(View)
	// AfterFunc replaces time.AfterFunc for the query debouncer.
	AfterFunc debounce.AfterFunc
}

// View is the rendered output of a search.
type View struct {
	VisibleRecords []catalog.Record `json:"visibleRecords"`
	CurrentPage    int              `json:"currentPage"`
	TotalPages     int              `json:"totalPages"`
	IsLoading      bool             `json:"isLoading"`
	ErrorMessage   string           `json:"errorMessage"`
	Status         Status           `json:"status"`
	Query          string           `json:"query"`
	SortField      search.Field     `json:"sortField"`
	SortDirection  search.Direction `json:"sortDirection"`
	TotalItems     int              `json:"totalItems"`
	HasPrevious    bool             `json:"hasPrevious"`
	HasNext        bool             `json:"hasNext"`
}

// Controller is safe for concurrent use. Every event is applied under a single lock.
type Controller struct {
	source    catalog.Source
	pageSize  int
	refetch   bool
	onChange  func(View)
	logger    *slog.Logger
	debouncer *debounce.Debouncer[string]

	ctx    context.Context
	cancel context.CancelFunc

	// notifyMu serializes OnChange calls; Close takes it to wait for a running one.
	notifyMu sync.Mutex

	mu           sync.Mutex
	state        search.State
	status       Status
	records      []catalog.Record
	appliedQuery string
	settledQuery string
	errMessage   string
	generation   uint64
	cancelFetch  context.CancelFunc
	started      bool
	closed       bool

	// fetches tracks fetch goroutines. Close does not wait for them: a source that
	// ignores cancellation may return later, and complete then discards the result.
	fetches sync.WaitGroup
}

// New creates an idle controller. Call Start to issue the first fetch.
func New(source catalog.Source, opts Options, logger *slog.Logger) *Controller {
	if opts.PageSize <= 0 {
		opts.PageSize = search.DefaultPageSize
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		source:   source,
		pageSize: opts.PageSize,
		refetch:  opts.RefetchOnSort,
		onChange: opts.OnChange,
		logger:   logger.With("component", "controller"),
		ctx:      ctx,
		cancel:   cancel,
		state:    search.NewState(),
		status:   StatusIdle,
	}
	c.debouncer = debounce.New(opts.Debounce, c.onQuerySettled, debounce.WithAfterFunc(opts.AfterFunc))
	return c
}

// Start issues the initial fetch with the current query. Later calls are no-ops.
func (c *Controller) Start() {
	c.mu.Lock()
	if c.started || c.closed {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.settledQuery = c.state.Query
	c.startFetchLocked("start")
	c.mu.Unlock()

	c.notify()
}

// HandleQueryChange sets the query and returns to the first page. The fetch follows
// once the query has settled.
func (c *Controller) HandleQueryChange(q string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.state, _ = c.state.WithQuery(q)
	c.debouncer.Set(q)
	c.mu.Unlock()

	c.notify()
}

// HandlePageChange moves to page p. It never fetches.
func (c *Controller) HandlePageChange(p int) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.state, _ = c.state.WithPage(p)
	if c.status == StatusReady || len(c.records) > 0 {
		c.clampPageLocked()
	}
	c.mu.Unlock()

	c.notify()
}

// HandleSortChange flips the direction when field is the current sort field, otherwise
// sorts ascending by field. The held records are re-sorted in place unless RefetchOnSort
// is set or the last fetch failed, in which case a new fetch starts.
func (c *Controller) HandleSortChange(field search.Field) error {
	if _, err := search.ParseField(string(field)); err != nil {
		return err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	var effect search.Effect
	c.state, effect = c.state.WithSort(field)
	if effect == search.EffectResort && c.started && (c.refetch || c.status == StatusFailed) {
		c.startFetchLocked("sort")
	}
	c.mu.Unlock()

	c.notify()
	return nil
}

// View derives the rendered output from the current state.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

// State returns a copy of the search state.
func (c *Controller) State() search.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Status returns the current fetch status.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Close stops the debouncer and cancels any in-flight fetch. It does not wait for the
// fetch goroutine to return. Completions that arrive afterwards change nothing, and
// OnChange is not called once Close has returned.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.generation++
	c.cancelFetch = nil
	c.cancel()
	c.mu.Unlock()

	c.debouncer.Stop()

	// wait for a running OnChange
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	c.logger.Debug("controller closed")
}

func (c *Controller) onQuerySettled(q string) {
	c.mu.Lock()
	if c.closed || q == c.settledQuery {
		c.mu.Unlock()
		return
	}
	c.settledQuery = q
	if !c.started {
		c.mu.Unlock()
		return
	}
	c.startFetchLocked("query")
	c.mu.Unlock()

	c.notify()
}

// startFetchLocked supersedes the in-flight fetch, if any, and fetches for the
// settled query. Held records stay visible while loading.
func (c *Controller) startFetchLocked(reason string) {
	if c.cancelFetch != nil {
		c.cancelFetch()
	}
	c.generation++
	gen := c.generation
	query := c.settledQuery

	ctx, cancel := context.WithCancel(c.ctx)
	c.cancelFetch = cancel
	c.status = StatusLoading
	c.errMessage = ""

	c.logger.Debug("fetch started", "generation", gen, "query", query, "reason", reason)
	c.fetches.Add(1)
	go c.fetch(ctx, gen, query)
}

func (c *Controller) fetch(ctx context.Context, gen uint64, query string) {
	defer c.fetches.Done()

	records, err := c.safeFetch(ctx)
	if c.complete(gen, query, records, err) {
		c.notify()
	}
}

// safeFetch turns a panicking source into an ordinary failure.
func (c *Controller) safeFetch(ctx context.Context) (records []catalog.Record, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("catalog fetch panicked: %v", r)
		}
	}()
	return c.source.Fetch(ctx)
}

// complete applies the result of fetch gen. It reports whether state changed.
func (c *Controller) complete(gen uint64, query string, records []catalog.Record, err error) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || gen != c.generation {
		c.logger.Debug("stale fetch result discarded", "generation", gen, "current", c.generation, "error", err)
		return false
	}
	if c.cancelFetch != nil {
		c.cancelFetch()
		c.cancelFetch = nil
	}

	if err != nil {
		c.status = StatusFailed
		c.records = nil
		c.errMessage = errorMessage(err)
		c.logger.Warn("fetch failed", "generation", gen, "query", query, "error", err)
		return true
	}

	if records == nil {
		records = []catalog.Record{}
	}
	c.status = StatusReady
	c.records = records
	c.appliedQuery = query
	c.errMessage = ""
	c.clampPageLocked()
	c.logger.Debug("fetch completed", "generation", gen, "query", query, "records", len(records))
	return true
}

// clampPageLocked keeps the current page within the pages of the held records.
func (c *Controller) clampPageLocked() {
	total := search.TotalPages(len(c.filteredLocked()), c.pageSize)
	c.state.CurrentPage = min(c.state.CurrentPage, max(total, 1))
}

func (c *Controller) filteredLocked() []catalog.Record {
	return search.Apply(c.records, c.appliedQuery, c.state.SortField, c.state.SortDirection)
}

func (c *Controller) viewLocked() View {
	v := View{
		CurrentPage:   c.state.CurrentPage,
		IsLoading:     c.status == StatusLoading,
		ErrorMessage:  c.errMessage,
		Status:        c.status,
		Query:         c.state.Query,
		SortField:     c.state.SortField,
		SortDirection: c.state.SortDirection,
	}
	if c.status == StatusFailed {
		v.VisibleRecords = []catalog.Record{}
		v.HasPrevious = v.CurrentPage > 1
		return v
	}

	filtered := c.filteredLocked()
	info := search.NewPageInfo(c.state.CurrentPage, c.pageSize, len(filtered))
	v.VisibleRecords = search.Paginate(filtered, c.state.CurrentPage, c.pageSize)
	v.TotalPages = info.TotalPages
	v.TotalItems = info.TotalItems
	v.HasPrevious = info.HasPrevious
	v.HasNext = info.HasNext
	return v
}

func (c *Controller) notify() {
	if c.onChange == nil {
		return
	}
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	v := c.viewLocked()
	c.mu.Unlock()

	c.onChange(v)
}

// errorMessage extracts the user facing message of a failed fetch.
func errorMessage(err error) string {
	var fe *catalog.FetchError
	if errors.As(err, &fe) && fe.Message != "" {
		return fe.Message
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return genericErrorMessage
}
