package table

import (
	"context"
	"fmt"
	"sync"
)

// SyncIndex answers which loaded properties already exist in the secondary store
// and under which record handle.
type SyncIndex interface {
	// Refresh rebuilds the index for the given ids, replacing previous content.
	Refresh(ctx context.Context, ids []int64) error
	Exported(id int64) bool
	Handle(id int64) (string, bool)
	// Mark records ids as exported in the record with the given handle.
	Mark(ids []int64, handle string)
	// Fresh reports whether the last refresh succeeded.
	Fresh() bool
	// Snapshot returns a copy of the id → handle mapping.
	Snapshot() map[int64]string
}

// ScanIndex builds the index by scanning every export record in the store.
// Each refresh costs O(records × snapshots per record), which is acceptable for
// bounded page sizes. An indexed lookup can replace it behind SyncIndex.
type ScanIndex struct {
	store RecordStore

	mu      sync.RWMutex
	handles map[int64]string
	fresh   bool
}

func NewScanIndex(store RecordStore) *ScanIndex {
	return &ScanIndex{store: store, handles: make(map[int64]string), fresh: true}
}

func (ix *ScanIndex) Refresh(ctx context.Context, ids []int64) error {
	wanted := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}

	records, err := ix.store.ScanExportRecords(ctx)
	if err != nil {
		ix.mu.Lock()
		ix.fresh = false
		ix.mu.Unlock()
		return fmt.Errorf("scan export records: %w", err)
	}

	handles := make(map[int64]string)
	for _, rec := range records {
		for _, snap := range rec.Properties {
			if _, ok := wanted[snap.ID]; ok {
				handles[snap.ID] = rec.Handle
			}
		}
	}

	ix.mu.Lock()
	ix.handles = handles
	ix.fresh = true
	ix.mu.Unlock()
	return nil
}

func (ix *ScanIndex) Exported(id int64) bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	_, ok := ix.handles[id]
	return ok
}

func (ix *ScanIndex) Handle(id int64) (string, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	h, ok := ix.handles[id]
	return h, ok
}

func (ix *ScanIndex) Mark(ids []int64, handle string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	for _, id := range ids {
		ix.handles[id] = handle
	}
}

func (ix *ScanIndex) Fresh() bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.fresh
}

func (ix *ScanIndex) Snapshot() map[int64]string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	out := make(map[int64]string, len(ix.handles))
	for id, h := range ix.handles {
		out[id] = h
	}
	return out
}
