package table

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Mujanati13/xcite/internal/models"
)

// ExportResult describes a persisted export.
type ExportResult struct {
	Handle          string
	ExportedIDs     []int64
	AlreadyExported int
	ContractsCount  int
}

// Reconciler turns a selection into a new export record, skipping rows the
// index already knows as exported.
type Reconciler struct {
	store      RecordStore
	prefetcher *Prefetcher
	logger     *slog.Logger
	now        func() time.Time
	exportedBy string
}

func NewReconciler(store RecordStore, prefetcher *Prefetcher, logger *slog.Logger, exportedBy string) *Reconciler {
	return &Reconciler{
		store:      store,
		prefetcher: prefetcher,
		logger:     logger,
		now:        time.Now,
		exportedBy: exportedBy,
	}
}

// WithClock replaces the clock used to stamp export dates.
func (r *Reconciler) WithClock(now func() time.Time) *Reconciler {
	r.now = now
	return r
}

// Export persists the selected, eligible and not yet exported rows as one record.
// Index and selection are changed only after the record was written.
func (r *Reconciler) Export(ctx context.Context, sel *Selection, rows []models.Property, index SyncIndex) (ExportResult, error) {
	var selected []models.Property
	for _, p := range rows {
		if p.Eligible() && sel.Has(p.ID) {
			selected = append(selected, p)
		}
	}
	if len(selected) == 0 {
		return ExportResult{}, ErrNothingSelected
	}
	if !index.Fresh() {
		return ExportResult{}, ErrIndexStale
	}

	var toExport []models.Property
	already := 0
	for _, p := range selected {
		if index.Exported(p.ID) {
			already++
			continue
		}
		toExport = append(toExport, p)
	}
	if len(toExport) == 0 {
		return ExportResult{AlreadyExported: already}, &AlreadyExportedError{Count: already}
	}

	contracts, err := r.prefetcher.Prefetch(ctx, toExport)
	if err != nil {
		return ExportResult{}, err
	}

	snapshots := make([]models.PropertySnapshot, 0, len(toExport))
	ids := make([]int64, 0, len(toExport))
	for _, p := range toExport {
		snapshots = append(snapshots, models.NewSnapshot(p, contracts[p.ID]))
		ids = append(ids, p.ID)
	}
	rec := models.NewExportRecord(snapshots, r.exportedBy, r.now())

	handle, err := r.store.CreateExportRecord(ctx, rec)
	if err != nil {
		return ExportResult{}, fmt.Errorf("create export record: %w", err)
	}

	index.Mark(ids, handle)
	sel.Clear()

	r.logger.InfoContext(ctx, "export record created",
		slog.String("handle", handle),
		slog.Int("properties", rec.PropertiesCount),
		slog.Int("contracts", rec.TotalContractsCount),
		slog.Int("skipped", already),
	)

	return ExportResult{
		Handle:          handle,
		ExportedIDs:     ids,
		AlreadyExported: already,
		ContractsCount:  rec.TotalContractsCount,
	}, nil
}
