package table_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/Mujanati13/xcite/internal/models"
	"github.com/Mujanati13/xcite/internal/table"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

var errBackend = errors.New("backend unavailable")

// --- mock property service ---

type mockService struct {
	listProperties func(ctx context.Context, agentFilter string, page, pageSize int) (models.PropertyPage, error)
	listContracts  func(ctx context.Context, propertyID int64) ([]models.Contract, error)
	updateProperty func(ctx context.Context, propertyID int64, upd models.PropertyUpdate) (models.Property, error)
}

func (m *mockService) ListProperties(ctx context.Context, agentFilter string, page, pageSize int) (models.PropertyPage, error) {
	return m.listProperties(ctx, agentFilter, page, pageSize)
}
func (m *mockService) ListContracts(ctx context.Context, propertyID int64) ([]models.Contract, error) {
	return m.listContracts(ctx, propertyID)
}
func (m *mockService) UpdateProperty(ctx context.Context, propertyID int64, upd models.PropertyUpdate) (models.Property, error) {
	return m.updateProperty(ctx, propertyID, upd)
}

// --- in-memory record store ---

type memStore struct {
	mu        sync.Mutex
	records   map[string]models.ExportRecord
	order     []string
	next      int
	creates   int
	updates   int
	createErr error
	scanErr   error
	updateErr error
}

func newMemStore() *memStore {
	return &memStore{records: make(map[string]models.ExportRecord)}
}

func (s *memStore) CreateExportRecord(_ context.Context, rec models.ExportRecord) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creates++
	if s.createErr != nil {
		return "", s.createErr
	}
	s.next++
	handle := fmt.Sprintf("rec-%d", s.next)
	rec = rec.Clone()
	rec.Handle = handle
	s.records[handle] = rec
	s.order = append(s.order, handle)
	return handle, nil
}

func (s *memStore) ScanExportRecords(_ context.Context) ([]models.ExportRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.scanErr != nil {
		return nil, s.scanErr
	}
	out := make([]models.ExportRecord, 0, len(s.order))
	for _, h := range s.order {
		out = append(out, s.records[h].Clone())
	}
	return out, nil
}

func (s *memStore) GetExportRecord(_ context.Context, handle string) (models.ExportRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[handle]
	if !ok {
		return models.ExportRecord{}, fmt.Errorf("record %s not found", handle)
	}
	return rec.Clone(), nil
}

func (s *memStore) UpdateExportRecord(_ context.Context, handle string, rec models.ExportRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates++
	if s.updateErr != nil {
		return s.updateErr
	}
	if _, ok := s.records[handle]; !ok {
		return fmt.Errorf("record %s not found", handle)
	}
	rec = rec.Clone()
	rec.Handle = handle
	s.records[handle] = rec
	return nil
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

func (s *memStore) get(handle string) models.ExportRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records[handle].Clone()
}

// --- manual timers ---

type fakeTimer struct {
	f       func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

type fakeClock struct {
	mu     sync.Mutex
	timers []*fakeTimer
	delays []time.Duration
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) table.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{f: f}
	c.timers = append(c.timers, t)
	c.delays = append(c.delays, d)
	return t
}

// fireAll runs every timer that was not stopped.
func (c *fakeClock) fireAll() {
	c.mu.Lock()
	timers := append([]*fakeTimer(nil), c.timers...)
	c.mu.Unlock()
	for _, t := range timers {
		if !t.stopped {
			t.stopped = true
			t.f()
		}
	}
}

// --- fixtures ---

func property(id int64, status int) models.Property {
	return models.Property{
		ID:            id,
		AgentID:       7,
		Status:        status,
		Street:        "Hauptstraße",
		HouseNumber:   fmt.Sprint(id),
		PostalCode:    "10115",
		City:          "Berlin",
		RecipientName: "Hausverwaltung Nord",
	}
}

func contractsFor(id int64, n int) []models.Contract {
	out := make([]models.Contract, n)
	for i := range out {
		out[i] = models.Contract{
			ID:          id*100 + int64(i),
			PropertyID:  id,
			EnergyType:  "STROM",
			MeterNumber: fmt.Sprintf("Z-%d-%d", id, i),
			MeterStatus: models.MeterStatusActive,
		}
	}
	return out
}

// pageService serves rows as a single page and n contracts per property.
func pageService(rows []models.Property, contractsPerRow int) *mockService {
	return &mockService{
		listProperties: func(_ context.Context, _ string, page, pageSize int) (models.PropertyPage, error) {
			return models.PropertyPage{
				Properties: rows,
				Pagination: models.NewPagination(page, pageSize, len(rows)),
			}, nil
		},
		listContracts: func(_ context.Context, id int64) ([]models.Contract, error) {
			return contractsFor(id, contractsPerRow), nil
		},
		updateProperty: func(_ context.Context, id int64, upd models.PropertyUpdate) (models.Property, error) {
			p := property(id, 1)
			upd.ApplyTo(&p)
			return p, nil
		},
	}
}
