package table

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Mujanati13/xcite/internal/models"
)

// SaveResult is the outcome of a successful primary write.
type SaveResult struct {
	// Property is the row as returned by the property service, or the row seen
	// at Begin with the changes applied when the service returned none.
	Property models.Property
	Changed  []string
	// Update carries only the changed fields.
	Update models.PropertyUpdate
	// Handle is the export record that was patched, empty if the row was never exported.
	Handle string
	// SyncErr is set when the export record could not be patched after the primary write.
	SyncErr error
}

// EditSession buffers changes to the address and recipient block of one row.
type EditSession struct {
	svc    PropertyService
	store  RecordStore
	logger *slog.Logger
	now    func() time.Time

	mu       sync.Mutex
	active   bool
	original models.Property
	buffer   models.PropertyUpdate
}

func NewEditSession(svc PropertyService, store RecordStore, logger *slog.Logger) *EditSession {
	return &EditSession{svc: svc, store: store, logger: logger, now: time.Now}
}

// Begin starts editing the single selected row, seeding the buffer from its fields.
func (e *EditSession) Begin(sel *Selection, rows []models.Property) error {
	ids := sel.IDs()
	if len(ids) != 1 {
		return ErrNotSingleSelection
	}
	row, ok := findRow(rows, ids[0])
	if !ok {
		return ErrRowNotLoaded
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.active = true
	e.original = row
	e.buffer = models.AddressOf(row)
	return nil
}

// Change sets one buffered field.
func (e *EditSession) Change(field, value string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.active {
		return ErrNoEdit
	}
	if !e.buffer.Set(field, value) {
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	return nil
}

// Active reports whether an edit is in progress and for which property.
func (e *EditSession) Active() (int64, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.original.ID, e.active
}

// Buffer returns the current buffered values keyed by field.
func (e *EditSession) Buffer() map[string]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.buffer.Values()
}

// Save writes the changed fields to the property service and then patches the
// export record holding the row, if the index knows one. The buffer is kept when
// the primary write fails.
func (e *EditSession) Save(ctx context.Context, index SyncIndex) (SaveResult, error) {
	e.mu.Lock()
	if !e.active {
		e.mu.Unlock()
		return SaveResult{}, ErrNoEdit
	}
	original := e.original
	buffer := e.buffer
	e.mu.Unlock()

	diff, changed := changedFields(original, buffer)
	if len(changed) == 0 {
		return SaveResult{}, ErrNoChanges
	}

	updated, err := e.svc.UpdateProperty(ctx, original.ID, diff)
	if err != nil {
		return SaveResult{}, fmt.Errorf("update property %d: %w", original.ID, err)
	}

	merged := updated
	if merged.ID != original.ID {
		merged = original
		diff.ApplyTo(&merged)
	}
	res := SaveResult{Property: merged, Changed: changed, Update: diff}

	if handle, ok := index.Handle(original.ID); ok {
		res.Handle = handle
		if err := e.patchRecord(ctx, handle, merged); err != nil {
			e.logger.ErrorContext(ctx, "export record not updated",
				slog.Int64("property_id", original.ID),
				slog.String("handle", handle),
				slog.String("error", err.Error()),
			)
			res.SyncErr = err
		}
	}

	e.mu.Lock()
	if e.active && e.original.ID == original.ID {
		e.reset()
	}
	e.mu.Unlock()

	return res, nil
}

// Cancel discards the buffer.
func (e *EditSession) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reset()
}

func (e *EditSession) reset() {
	e.active = false
	e.original = models.Property{}
	e.buffer = models.PropertyUpdate{}
}

func (e *EditSession) patchRecord(ctx context.Context, handle string, p models.Property) error {
	rec, err := e.store.GetExportRecord(ctx, handle)
	if err != nil {
		return fmt.Errorf("get export record %s: %w", handle, err)
	}
	i := rec.Find(p.ID)
	if i < 0 {
		return fmt.Errorf("export record %s has no snapshot of property %d", handle, p.ID)
	}
	rec.Properties[i].ApplyAddress(models.AddressOf(p))
	now := e.now()
	rec.LastUpdated = &now

	if err := e.store.UpdateExportRecord(ctx, handle, rec); err != nil {
		return fmt.Errorf("update export record %s: %w", handle, err)
	}
	return nil
}

// changedFields returns the buffered values that differ from the original row.
func changedFields(original models.Property, buffer models.PropertyUpdate) (models.PropertyUpdate, []string) {
	before := models.AddressOf(original).Values()
	after := buffer.Values()
	var diff models.PropertyUpdate
	var changed []string
	for _, key := range models.EditableFields {
		v, ok := after[key]
		if !ok || v == before[key] {
			continue
		}
		diff.Set(key, v)
		changed = append(changed, key)
	}
	return diff, changed
}

func findRow(rows []models.Property, id int64) (models.Property, bool) {
	for _, p := range rows {
		if p.ID == id {
			return p, true
		}
	}
	return models.Property{}, false
}
