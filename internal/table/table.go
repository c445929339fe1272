package table

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/Mujanati13/xcite/internal/models"
)

// Options configures a Table. Zero values pick the defaults.
type Options struct {
	PageSize      int
	PrefetchLimit int
	ExportedBy    string
	AfterFunc     AfterFunc
	// OnUnauthorized is called when a request was rejected for authorization.
	OnUnauthorized func()
	// NewIndex builds the sync index for a load. Defaults to a ScanIndex over the store.
	NewIndex func() SyncIndex
}

// SortOrder of a column.
type SortOrder int

const (
	Ascending SortOrder = iota
	Descending
)

type sortState struct {
	column string
	order  SortOrder
}

// Table holds one loaded page of properties together with their contracts,
// the selection, the sync index and the edit session.
type Table struct {
	svc        PropertyService
	store      RecordStore
	logger     *slog.Logger
	prefetcher *Prefetcher
	reconciler *Reconciler
	edit       *EditSession
	pager      *Pager
	selection  *Selection
	newIndex   func() SyncIndex
	onUnauth   func()

	mu        sync.Mutex
	seq       uint64
	rows      []models.Property
	contracts map[int64][]models.Contract
	index     SyncIndex
	sort      sortState
	csort     map[int64]sortState
	// exports made since the last applied load, replayed onto the index of a
	// load whose scan may have missed them
	exports []exportMark
}

type exportMark struct {
	ids    []int64
	handle string
}

func New(svc PropertyService, store RecordStore, logger *slog.Logger, opts Options) *Table {
	t := &Table{
		svc:       svc,
		store:     store,
		logger:    logger,
		selection: NewSelection(),
		contracts: make(map[int64][]models.Contract),
		csort:     make(map[int64]sortState),
		onUnauth:  opts.OnUnauthorized,
		newIndex:  opts.NewIndex,
	}
	if t.onUnauth == nil {
		t.onUnauth = func() {}
	}
	if t.newIndex == nil {
		t.newIndex = func() SyncIndex { return NewScanIndex(store) }
	}
	t.index = t.newIndex()
	t.prefetcher = NewPrefetcher(svc, logger, opts.PrefetchLimit)
	t.reconciler = NewReconciler(store, t.prefetcher, logger, opts.ExportedBy)
	t.edit = NewEditSession(svc, store, logger)
	t.pager = NewPager(opts.PageSize, t.Load, opts.AfterFunc)
	return t
}

func (t *Table) Pager() *Pager {
	return t.pager
}

func (t *Table) Selection() *Selection {
	return t.selection
}

func (t *Table) Edit() *EditSession {
	return t.edit
}

func (t *Table) Reconciler() *Reconciler {
	return t.reconciler
}

// Rows returns a copy of the loaded rows in display order.
func (t *Table) Rows() []models.Property {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.rows)
}

// Contracts returns the cached contracts of a property in display order.
func (t *Table) Contracts(propertyID int64) []models.Contract {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.contracts[propertyID])
}

// Index returns the sync index of the current page.
func (t *Table) Index() SyncIndex {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.index
}

// Load fetches page with the pager's filter, prefetches contracts and rebuilds
// the sync index. Only the most recently started load may change the table;
// an older one returns ErrSuperseded and leaves the state alone.
func (t *Table) Load(ctx context.Context, page int) error {
	t.mu.Lock()
	t.seq++
	seq := t.seq
	pending := len(t.exports)
	t.mu.Unlock()

	filter := t.pager.Filter()
	res, err := t.svc.ListProperties(ctx, filter, page, t.pager.PageSize())
	if err != nil {
		return t.fail(ctx, seq, fmt.Errorf("list properties: %w", err))
	}

	contracts, err := t.prefetcher.Prefetch(ctx, res.Properties)
	if err != nil {
		return t.fail(ctx, seq, err)
	}

	ids := make([]int64, 0, len(res.Properties))
	for _, p := range res.Properties {
		ids = append(ids, p.ID)
	}
	index := t.newIndex()
	indexErr := index.Refresh(ctx, ids)
	if indexErr != nil {
		t.logger.WarnContext(ctx, "sync index refresh failed", slog.String("error", indexErr.Error()))
	}

	t.mu.Lock()
	if seq != t.seq {
		t.mu.Unlock()
		return ErrSuperseded
	}
	for _, m := range t.exports[pending:] {
		index.Mark(m.ids, m.handle)
	}
	t.exports = nil
	t.rows = slices.Clone(res.Properties)
	t.contracts = contracts
	t.index = index
	t.csort = make(map[int64]sortState)
	if t.sort.column != "" {
		sortRows(t.rows, t.sort)
	}
	t.pager.Apply(res.Pagination)
	t.selection.Clear()
	t.mu.Unlock()

	t.logger.DebugContext(ctx, "page loaded",
		slog.Int("page", res.Pagination.CurrentPage),
		slog.Int("rows", len(res.Properties)),
		slog.String("filter", filter),
	)

	if indexErr != nil {
		return fmt.Errorf("%w: %w", ErrIndexStale, indexErr)
	}
	return nil
}

// fail resets the table after a failed load unless a newer load has started.
func (t *Table) fail(ctx context.Context, seq uint64, err error) error {
	t.mu.Lock()
	if seq != t.seq {
		t.mu.Unlock()
		return ErrSuperseded
	}
	t.rows = nil
	t.contracts = make(map[int64][]models.Contract)
	t.csort = make(map[int64]sortState)
	t.pager.Reset()
	t.selection.Clear()
	t.mu.Unlock()

	t.logger.WarnContext(ctx, "load failed", slog.String("error", err.Error()))
	if errors.Is(err, ErrUnauthorized) {
		t.onUnauth()
	}
	return err
}

// Toggle flips the selection of a loaded row.
func (t *Table) Toggle(id int64) {
	t.selection.Toggle(id, t.Rows())
}

// SelectAll selects every eligible row, or clears when all are selected already.
func (t *Table) SelectAll() {
	t.selection.SelectAllEligible(t.Rows())
}

// Export persists the selected rows that are not exported yet.
// A load that finished or is still running while the record was written gets
// the exported ids marked on its index too.
func (t *Table) Export(ctx context.Context) (ExportResult, error) {
	res, err := t.reconciler.Export(ctx, t.selection, t.Rows(), t.Index())
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			t.onUnauth()
		}
		return res, err
	}

	t.mu.Lock()
	t.index.Mark(res.ExportedIDs, res.Handle)
	t.exports = append(t.exports, exportMark{ids: res.ExportedIDs, handle: res.Handle})
	t.mu.Unlock()
	return res, nil
}

// BeginEdit starts an edit of the single selected row.
func (t *Table) BeginEdit() error {
	return t.edit.Begin(t.selection, t.Rows())
}

// SaveEdit writes the edit through and merges the changed fields into the row
// currently loaded, which may come from a newer page load than the one the
// edit began on.
func (t *Table) SaveEdit(ctx context.Context) (SaveResult, error) {
	res, err := t.edit.Save(ctx, t.Index())
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			t.onUnauth()
		}
		return res, err
	}

	t.mu.Lock()
	if i := slices.IndexFunc(t.rows, func(p models.Property) bool { return p.ID == res.Property.ID }); i >= 0 {
		res.Update.ApplyTo(&t.rows[i])
		if res.Property.UpdatedAt.After(t.rows[i].UpdatedAt) {
			t.rows[i].UpdatedAt = res.Property.UpdatedAt
		}
	}
	t.mu.Unlock()
	return res, nil
}

// AllEligibleExported reports whether the page has eligible rows and all of them are exported.
func (t *Table) AllEligibleExported() bool {
	rows := t.Rows()
	index := t.Index()
	eligible := 0
	for _, p := range rows {
		if !p.Eligible() {
			continue
		}
		eligible++
		if !index.Exported(p.ID) {
			return false
		}
	}
	return eligible > 0
}

// SortBy orders the loaded rows by column. Sorting the same column again flips the order.
func (t *Table) SortBy(column string) (SortOrder, error) {
	if _, ok := propertyColumns[column]; !ok {
		return Ascending, fmt.Errorf("%w: %s", ErrUnknownColumn, column)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sort = nextSort(t.sort, column)
	sortRows(t.rows, t.sort)
	return t.sort.order, nil
}

// SortContracts orders the cached contracts of one property by column.
func (t *Table) SortContracts(propertyID int64, column string) (SortOrder, error) {
	cmpFn, ok := contractColumns[column]
	if !ok {
		return Ascending, fmt.Errorf("%w: %s", ErrUnknownColumn, column)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	st := nextSort(t.csort[propertyID], column)
	t.csort[propertyID] = st
	slices.SortStableFunc(t.contracts[propertyID], func(a, b models.Contract) int {
		if st.order == Descending {
			return cmpFn(b, a)
		}
		return cmpFn(a, b)
	})
	return st.order, nil
}

func nextSort(cur sortState, column string) sortState {
	if cur.column == column && cur.order == Ascending {
		return sortState{column: column, order: Descending}
	}
	return sortState{column: column, order: Ascending}
}

func sortRows(rows []models.Property, st sortState) {
	cmpFn := propertyColumns[st.column]
	slices.SortStableFunc(rows, func(a, b models.Property) int {
		if st.order == Descending {
			return cmpFn(b, a)
		}
		return cmpFn(a, b)
	})
}

var propertyColumns = map[string]func(a, b models.Property) int{
	"id":                        func(a, b models.Property) int { return cmp.Compare(a.ID, b.ID) },
	"makler_id":                 func(a, b models.Property) int { return cmp.Compare(a.AgentID, b.AgentID) },
	"status":                    func(a, b models.Property) int { return cmp.Compare(a.Status, b.Status) },
	"meter_count":               func(a, b models.Property) int { return cmp.Compare(a.MeterCount, b.MeterCount) },
	models.FieldStreet:          func(a, b models.Property) int { return compareText(a.Street, b.Street) },
	models.FieldHouseNumber:     func(a, b models.Property) int { return compareText(a.HouseNumber, b.HouseNumber) },
	models.FieldPostalCode:      func(a, b models.Property) int { return compareText(a.PostalCode, b.PostalCode) },
	models.FieldCity:            func(a, b models.Property) int { return compareText(a.City, b.City) },
	models.FieldRecipientName:   func(a, b models.Property) int { return compareText(a.RecipientName, b.RecipientName) },
	models.FieldRecipientCity:   func(a, b models.Property) int { return compareText(a.RecipientCity, b.RecipientCity) },
	"erstellt_am":               func(a, b models.Property) int { return a.CreatedAt.Compare(b.CreatedAt) },
	"aktualisiert_am":           func(a, b models.Property) int { return a.UpdatedAt.Compare(b.UpdatedAt) },
	"bemerkung_objekt":          func(a, b models.Property) int { return compareText(a.Remark, b.Remark) },
	models.FieldRecipientStreet: func(a, b models.Property) int { return compareText(a.RecipientStreet, b.RecipientStreet) },
}

var contractColumns = map[string]func(a, b models.Contract) int{
	"id":                    func(a, b models.Contract) int { return cmp.Compare(a.ID, b.ID) },
	"energieart":            func(a, b models.Contract) int { return compareText(a.DisplayEnergyType(), b.DisplayEnergyType()) },
	"zaehlernummer":         func(a, b models.Contract) int { return compareText(a.MeterNumber, b.MeterNumber) },
	"zaehlerstatus":         func(a, b models.Contract) int { return compareText(a.MeterStatus, b.MeterStatus) },
	"zaehlpunktbezeichnung": func(a, b models.Contract) int { return compareText(a.MeteringPoint, b.MeteringPoint) },
}

// SortContractList orders contracts by column, using the same columns as SortContracts.
func SortContractList(contracts []models.Contract, column string, order SortOrder) error {
	cmpFn, ok := contractColumns[column]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownColumn, column)
	}
	slices.SortStableFunc(contracts, func(a, b models.Contract) int {
		if order == Descending {
			return cmpFn(b, a)
		}
		return cmpFn(a, b)
	})
	return nil
}

func compareText(a, b string) int {
	return cmp.Compare(strings.ToLower(a), strings.ToLower(b))
}
