package table

import (
	"context"
	"sync"
	"time"

	"github.com/Mujanati13/xcite/internal/models"
)

// FilterDebounce is how long a filter change waits before the listing reloads.
const FilterDebounce = 300 * time.Millisecond

// Timer is the part of *time.Timer the pager needs.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d. time.AfterFunc satisfies it through StdAfterFunc.
type AfterFunc func(d time.Duration, f func()) Timer

// StdAfterFunc wraps time.AfterFunc.
func StdAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// ReloadFunc loads the given page with the pager's current filter.
type ReloadFunc func(ctx context.Context, page int) error

// Pager tracks pagination state and turns navigation and filter edits into reloads.
type Pager struct {
	mu      sync.Mutex
	state   models.Pagination
	filter  string
	pending Timer
	gen     uint64

	pageSize  int
	delay     time.Duration
	afterFunc AfterFunc
	reload    ReloadFunc
	onError   func(error)
}

// NewPager returns a pager in the default state. A nil afterFunc uses time.AfterFunc.
func NewPager(pageSize int, reload ReloadFunc, afterFunc AfterFunc) *Pager {
	if pageSize < 1 {
		pageSize = models.DefaultPageSize
	}
	if afterFunc == nil {
		afterFunc = StdAfterFunc
	}
	state := models.DefaultPagination()
	state.RecordsPerPage = pageSize
	return &Pager{
		state:     state,
		pageSize:  pageSize,
		delay:     FilterDebounce,
		afterFunc: afterFunc,
		reload:    reload,
		onError:   func(error) {},
	}
}

// OnDebouncedError registers a callback for failures of debounced reloads,
// which have no caller to return to.
func (p *Pager) OnDebouncedError(fn func(error)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if fn == nil {
		fn = func(error) {}
	}
	p.onError = fn
}

func (p *Pager) State() models.Pagination {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Pager) Filter() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.filter
}

func (p *Pager) PageSize() int {
	return p.pageSize
}

// GoToPage reloads page n. Pages outside 1..TotalPages are rejected without a request.
func (p *Pager) GoToPage(ctx context.Context, n int) error {
	p.mu.Lock()
	total := p.state.TotalPages
	p.mu.Unlock()

	if n < 1 || n > total {
		return ErrPageOutOfRange
	}
	return p.reload(ctx, n)
}

func (p *Pager) Next(ctx context.Context) error {
	st := p.State()
	if !st.HasNextPage {
		return ErrPageOutOfRange
	}
	return p.GoToPage(ctx, st.CurrentPage+1)
}

func (p *Pager) Previous(ctx context.Context) error {
	st := p.State()
	if !st.HasPreviousPage {
		return ErrPageOutOfRange
	}
	return p.GoToPage(ctx, st.CurrentPage-1)
}

// SetFilter records the filter value and schedules a reload of page 1 after the
// debounce delay. A pending reload is cancelled and rescheduled.
func (p *Pager) SetFilter(ctx context.Context, value string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.filter = value
	if p.pending != nil {
		p.pending.Stop()
	}
	p.gen++
	gen := p.gen
	p.pending = p.afterFunc(p.delay, func() {
		p.mu.Lock()
		if gen != p.gen {
			// a later edit or an immediate apply took over
			p.mu.Unlock()
			return
		}
		p.pending = nil
		onError := p.onError
		p.mu.Unlock()

		if err := p.reload(ctx, 1); err != nil {
			onError(err)
		}
	})
}

// ApplyFilter sets the filter and reloads page 1 immediately, dropping any pending reload.
func (p *Pager) ApplyFilter(ctx context.Context, value string) error {
	p.mu.Lock()
	p.filter = value
	p.gen++
	if p.pending != nil {
		p.pending.Stop()
		p.pending = nil
	}
	p.mu.Unlock()

	return p.reload(ctx, 1)
}

// Apply replaces the state with the server-reported pagination.
func (p *Pager) Apply(state models.Pagination) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = state
}

// Reset restores the safe default after a failed load.
func (p *Pager) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = models.DefaultPagination()
	p.state.RecordsPerPage = p.pageSize
}

// Stop cancels a pending debounced reload.
func (p *Pager) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gen++
	if p.pending != nil {
		p.pending.Stop()
		p.pending = nil
	}
}
