package table_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Mujanati13/xcite/internal/models"
	"github.com/Mujanati13/xcite/internal/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTable(svc table.PropertyService, store table.RecordStore, opts table.Options) *table.Table {
	if opts.ExportedBy == "" {
		opts.ExportedBy = "tester"
	}
	return table.New(svc, store, testLogger, opts)
}

// =================================================================
// Load
// =================================================================

func TestLoad_PopulatesState(t *testing.T) {
	store := newMemStore()
	seedRecord(t, store, 12)
	rows := []models.Property{property(10, 1), property(11, 0), property(12, 1)}
	tbl := newTable(pageService(rows, 2), store, table.Options{PageSize: 10})

	require.NoError(t, tbl.Load(context.Background(), 1))

	assert.Len(t, tbl.Rows(), 3)
	assert.Len(t, tbl.Contracts(10), 2)
	assert.True(t, tbl.Index().Exported(12))
	assert.False(t, tbl.Index().Exported(10))
	st := tbl.Pager().State()
	assert.Equal(t, 1, st.CurrentPage)
	assert.Equal(t, 3, st.TotalRecords)
}

func TestLoad_ClearsSelection(t *testing.T) {
	rows := []models.Property{property(1, 1), property(2, 1)}
	tbl := newTable(pageService(rows, 0), newMemStore(), table.Options{})
	require.NoError(t, tbl.Load(context.Background(), 1))
	tbl.SelectAll()
	require.Equal(t, 2, tbl.Selection().Len())

	require.NoError(t, tbl.Load(context.Background(), 1))

	assert.Equal(t, 0, tbl.Selection().Len())
}

func TestLoad_PassesFilterAndPageSize(t *testing.T) {
	var gotFilter string
	var gotSize int
	svc := pageService(nil, 0)
	svc.listProperties = func(_ context.Context, filter string, page, size int) (models.PropertyPage, error) {
		gotFilter, gotSize = filter, size
		return models.PropertyPage{Pagination: models.NewPagination(page, size, 0)}, nil
	}
	tbl := newTable(svc, newMemStore(), table.Options{PageSize: 20})

	require.NoError(t, tbl.Pager().ApplyFilter(context.Background(), "42"))

	assert.Equal(t, "42", gotFilter)
	assert.Equal(t, 20, gotSize)
}

func TestLoad_FailureResetsState(t *testing.T) {
	rows := []models.Property{property(1, 1)}
	svc := pageService(rows, 1)
	svc.listProperties = func(_ context.Context, _ string, page, size int) (models.PropertyPage, error) {
		return models.PropertyPage{Properties: rows, Pagination: models.NewPagination(page, 1, 5)}, nil
	}
	tbl := newTable(svc, newMemStore(), table.Options{PageSize: 1})
	require.NoError(t, tbl.Pager().GoToPage(context.Background(), 1))
	require.NoError(t, tbl.Load(context.Background(), 3))
	tbl.Toggle(1)

	svc.listProperties = func(context.Context, string, int, int) (models.PropertyPage, error) {
		return models.PropertyPage{}, errBackend
	}
	err := tbl.Load(context.Background(), 4)

	assert.ErrorIs(t, err, errBackend)
	assert.Empty(t, tbl.Rows())
	assert.Equal(t, 0, tbl.Selection().Len())
	st := tbl.Pager().State()
	assert.Equal(t, 1, st.CurrentPage)
	assert.Equal(t, 1, st.TotalPages)
	assert.Equal(t, 0, st.TotalRecords)
}

func TestLoad_UnauthorizedLogsOut(t *testing.T) {
	svc := pageService(nil, 0)
	svc.listProperties = func(context.Context, string, int, int) (models.PropertyPage, error) {
		return models.PropertyPage{}, table.ErrUnauthorized
	}
	loggedOut := false
	tbl := newTable(svc, newMemStore(), table.Options{OnUnauthorized: func() { loggedOut = true }})

	err := tbl.Load(context.Background(), 1)

	assert.ErrorIs(t, err, table.ErrUnauthorized)
	assert.True(t, loggedOut)
}

func TestLoad_StaleResponseDiscarded(t *testing.T) {
	slowRows := []models.Property{property(1, 1)}
	fastRows := []models.Property{property(2, 1)}
	started := make(chan struct{})
	release := make(chan struct{})

	svc := pageService(nil, 0)
	svc.listProperties = func(_ context.Context, _ string, page, size int) (models.PropertyPage, error) {
		if page == 1 {
			close(started)
			<-release
			return models.PropertyPage{Properties: slowRows, Pagination: models.NewPagination(1, size, 2)}, nil
		}
		return models.PropertyPage{Properties: fastRows, Pagination: models.NewPagination(page, size, 2)}, nil
	}
	tbl := newTable(svc, newMemStore(), table.Options{PageSize: 1})

	slow := make(chan error)
	go func() { slow <- tbl.Load(context.Background(), 1) }()
	<-started
	require.NoError(t, tbl.Load(context.Background(), 2))
	close(release)

	assert.ErrorIs(t, <-slow, table.ErrSuperseded)
	rows := tbl.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, int64(2), rows[0].ID)
	assert.Equal(t, 2, tbl.Pager().State().CurrentPage)
}

func TestLoad_IndexFailureBlocksExport(t *testing.T) {
	store := newMemStore()
	store.scanErr = errBackend
	rows := []models.Property{property(1, 1)}
	tbl := newTable(pageService(rows, 1), store, table.Options{})

	err := tbl.Load(context.Background(), 1)
	assert.ErrorIs(t, err, table.ErrIndexStale)
	assert.Len(t, tbl.Rows(), 1)

	tbl.Toggle(1)
	_, err = tbl.Export(context.Background())
	assert.ErrorIs(t, err, table.ErrIndexStale)
	assert.Equal(t, 0, store.creates)
}

func TestLoad_DebouncedFilter(t *testing.T) {
	var filters []string
	svc := pageService(nil, 0)
	svc.listProperties = func(_ context.Context, filter string, page, size int) (models.PropertyPage, error) {
		filters = append(filters, filter)
		return models.PropertyPage{Pagination: models.NewPagination(page, size, 0)}, nil
	}
	clock := &fakeClock{}
	tbl := newTable(svc, newMemStore(), table.Options{AfterFunc: clock.AfterFunc})

	tbl.Pager().SetFilter(context.Background(), "7")
	tbl.Pager().SetFilter(context.Background(), "77")
	clock.fireAll()

	assert.Equal(t, []string{"77"}, filters)
}

// =================================================================
// Export and edit through the table
// =================================================================

func TestTable_ExportScenario(t *testing.T) {
	store := newMemStore()
	rows := []models.Property{property(10, 1), property(11, 0), property(12, 1)}
	tbl := newTable(pageService(rows, 1), store, table.Options{})
	require.NoError(t, tbl.Load(context.Background(), 1))

	tbl.SelectAll()
	res, err := tbl.Export(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int64{10, 12}, res.ExportedIDs)
	assert.True(t, tbl.AllEligibleExported())
	assert.Equal(t, 0, tbl.Selection().Len())

	// reload rebuilds the index from the store
	require.NoError(t, tbl.Load(context.Background(), 1))
	assert.True(t, tbl.Index().Exported(10))
	assert.True(t, tbl.Index().Exported(12))

	tbl.Toggle(10)
	_, err = tbl.Export(context.Background())
	var already *table.AlreadyExportedError
	assert.ErrorAs(t, err, &already)
	assert.Equal(t, 1, store.count())
}

func TestTable_SaveEditMergesRow(t *testing.T) {
	rows := []models.Property{property(1, 1), property(2, 1)}
	tbl := newTable(pageService(rows, 0), newMemStore(), table.Options{})
	require.NoError(t, tbl.Load(context.Background(), 1))
	tbl.Toggle(2)
	require.NoError(t, tbl.BeginEdit())
	require.NoError(t, tbl.Edit().Change(models.FieldPostalCode, "80331"))

	_, err := tbl.SaveEdit(context.Background())
	require.NoError(t, err)

	got := tbl.Rows()
	assert.Equal(t, "80331", got[1].PostalCode)
	assert.Equal(t, "10115", got[0].PostalCode)
}

func TestTable_ExportDuringReloadStaysMarked(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc := pageService([]models.Property{property(10, 1), property(12, 1)}, 1)
	tbl := newTable(svc, store, table.Options{})
	require.NoError(t, tbl.Load(ctx, 1))

	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	svc.listContracts = func(_ context.Context, id int64) ([]models.Contract, error) {
		first := false
		once.Do(func() { first = true })
		if first {
			close(started)
			<-release
		}
		return contractsFor(id, 1), nil
	}

	tbl.Toggle(10)
	done := make(chan error)
	go func() {
		_, err := tbl.Export(ctx)
		done <- err
	}()
	<-started
	require.NoError(t, tbl.Load(ctx, 1))
	assert.False(t, tbl.Index().Exported(10))
	close(release)
	require.NoError(t, <-done)

	assert.True(t, tbl.Index().Exported(10))
	tbl.Toggle(10)
	_, err := tbl.Export(ctx)
	var already *table.AlreadyExportedError
	assert.ErrorAs(t, err, &already)
	assert.Equal(t, 1, store.count())
}

func TestTable_SaveEditAfterReloadKeepsFreshRow(t *testing.T) {
	ctx := context.Background()
	rows := []models.Property{property(10, 1)}
	svc := pageService(rows, 0)
	tbl := newTable(svc, newMemStore(), table.Options{})
	require.NoError(t, tbl.Load(ctx, 1))
	tbl.Toggle(10)
	require.NoError(t, tbl.BeginEdit())
	require.NoError(t, tbl.Edit().Change(models.FieldCity, "Hamburg"))

	// deactivated on the server while the edit is open
	stamp := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	rows[0] = property(10, 0)
	svc.updateProperty = func(_ context.Context, id int64, upd models.PropertyUpdate) (models.Property, error) {
		p := property(id, 0)
		upd.ApplyTo(&p)
		p.UpdatedAt = stamp
		return p, nil
	}
	require.NoError(t, tbl.Load(ctx, 1))
	require.Equal(t, 0, tbl.Rows()[0].Status)

	_, err := tbl.SaveEdit(ctx)
	require.NoError(t, err)

	got := tbl.Rows()[0]
	assert.Equal(t, 0, got.Status)
	assert.Equal(t, "Hamburg", got.City)
	assert.Equal(t, stamp, got.UpdatedAt)
	assert.False(t, got.Eligible())

	tbl.Toggle(10)
	assert.Equal(t, 0, tbl.Selection().Len())
}

// =================================================================
// Sorting
// =================================================================

func TestSortBy_TogglesOrder(t *testing.T) {
	rows := []models.Property{property(2, 1), property(3, 1), property(1, 1)}
	tbl := newTable(pageService(rows, 0), newMemStore(), table.Options{})
	require.NoError(t, tbl.Load(context.Background(), 1))

	order, err := tbl.SortBy("id")
	require.NoError(t, err)
	assert.Equal(t, table.Ascending, order)
	assert.Equal(t, []int64{1, 2, 3}, ids(tbl.Rows()))

	order, err = tbl.SortBy("id")
	require.NoError(t, err)
	assert.Equal(t, table.Descending, order)
	assert.Equal(t, []int64{3, 2, 1}, ids(tbl.Rows()))

	_, err = tbl.SortBy("nope")
	assert.ErrorIs(t, err, table.ErrUnknownColumn)
}

func TestSortBy_DoesNotTouchSelection(t *testing.T) {
	rows := []models.Property{property(2, 1), property(1, 1)}
	tbl := newTable(pageService(rows, 0), newMemStore(), table.Options{})
	require.NoError(t, tbl.Load(context.Background(), 1))
	tbl.Toggle(2)

	_, err := tbl.SortBy(models.FieldHouseNumber)
	require.NoError(t, err)

	assert.Equal(t, []int64{2}, tbl.Selection().IDs())
}

func TestSortContracts(t *testing.T) {
	rows := []models.Property{property(1, 1)}
	tbl := newTable(pageService(rows, 3), newMemStore(), table.Options{})
	require.NoError(t, tbl.Load(context.Background(), 1))

	_, err := tbl.SortContracts(1, "zaehlernummer")
	require.NoError(t, err)
	order, err := tbl.SortContracts(1, "zaehlernummer")
	require.NoError(t, err)

	assert.Equal(t, table.Descending, order)
	got := tbl.Contracts(1)
	require.Len(t, got, 3)
	assert.Equal(t, "Z-1-2", got[0].MeterNumber)
	assert.Equal(t, "Z-1-0", got[2].MeterNumber)
}

func TestAllEligibleExported_NoEligibleRows(t *testing.T) {
	rows := []models.Property{property(1, 0)}
	tbl := newTable(pageService(rows, 0), newMemStore(), table.Options{})
	require.NoError(t, tbl.Load(context.Background(), 1))

	assert.False(t, tbl.AllEligibleExported())
}

// =================================================================
// Notifications
// =================================================================

func TestNotificationFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind table.NotificationKind
	}{
		{"success", nil, table.KindSuccess},
		{"nothing selected", table.ErrNothingSelected, table.KindWarning},
		{"already exported", &table.AlreadyExportedError{Count: 2}, table.KindInfo},
		{"unauthorized", table.ErrUnauthorized, table.KindError},
		{"backend", errBackend, table.KindError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, table.NotificationFor(tt.err).Kind)
		})
	}
	assert.Equal(t, "all selected properties (2) are already exported",
		table.NotificationFor(&table.AlreadyExportedError{Count: 2}).Message)
}

func ids(rows []models.Property) []int64 {
	out := make([]int64, len(rows))
	for i, p := range rows {
		out[i] = p.ID
	}
	return out
}
