package table_test

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Mujanati13/xcite/internal/models"
	"github.com/Mujanati13/xcite/internal/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrefetch_FailureIsolated(t *testing.T) {
	svc := &mockService{
		listContracts: func(_ context.Context, id int64) ([]models.Contract, error) {
			if id == 2 {
				return nil, errBackend
			}
			return contractsFor(id, 2), nil
		},
	}
	rows := []models.Property{property(1, 1), property(2, 1), property(3, 1)}

	got, err := table.NewPrefetcher(svc, testLogger, 0).Prefetch(context.Background(), rows)

	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Len(t, got[1], 2)
	assert.NotNil(t, got[2])
	assert.Empty(t, got[2])
	assert.Len(t, got[3], 2)
}

func TestPrefetch_Concurrent(t *testing.T) {
	var inFlight, peak atomic.Int32
	release := make(chan struct{})
	svc := &mockService{
		listContracts: func(_ context.Context, id int64) ([]models.Contract, error) {
			n := inFlight.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			<-release
			inFlight.Add(-1)
			return contractsFor(id, 1), nil
		},
	}
	rows := []models.Property{property(1, 1), property(2, 1), property(3, 1)}

	done := make(chan map[int64][]models.Contract)
	go func() {
		got, _ := table.NewPrefetcher(svc, testLogger, 3).Prefetch(context.Background(), rows)
		done <- got
	}()

	require.Eventually(t, func() bool { return inFlight.Load() == 3 }, time.Second, time.Millisecond)
	close(release)
	got := <-done

	assert.Equal(t, int32(3), peak.Load())
	assert.Len(t, got, 3)
}

func TestPrefetch_UnauthorizedReported(t *testing.T) {
	svc := &mockService{
		listContracts: func(_ context.Context, id int64) ([]models.Contract, error) {
			if id == 3 {
				return nil, fmt.Errorf("contracts of %d: %w", id, table.ErrUnauthorized)
			}
			return contractsFor(id, 1), nil
		},
	}
	rows := []models.Property{property(1, 1), property(3, 1)}

	got, err := table.NewPrefetcher(svc, testLogger, 0).Prefetch(context.Background(), rows)

	assert.ErrorIs(t, err, table.ErrUnauthorized)
	assert.Len(t, got[1], 1)
	assert.Empty(t, got[3])
}

func TestPrefetch_NoRows(t *testing.T) {
	got, err := table.NewPrefetcher(&mockService{}, testLogger, 0).Prefetch(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, got)
}
