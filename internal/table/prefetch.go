package table

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/Mujanati13/xcite/internal/models"
	"golang.org/x/sync/errgroup"
)

// DefaultPrefetchConcurrency bounds the number of contract requests in flight.
const DefaultPrefetchConcurrency = 16

// Prefetcher loads the contracts of many properties at once.
type Prefetcher struct {
	svc    PropertyService
	logger *slog.Logger
	limit  int
}

func NewPrefetcher(svc PropertyService, logger *slog.Logger, limit int) *Prefetcher {
	if limit < 1 {
		limit = DefaultPrefetchConcurrency
	}
	return &Prefetcher{svc: svc, logger: logger, limit: limit}
}

// Prefetch requests the contracts of every row concurrently and waits for all of
// them. A failed request leaves an empty list for its property and does not
// affect the others. The returned map always has an entry per row; the error is
// ErrUnauthorized when any request was rejected for authorization.
func (p *Prefetcher) Prefetch(ctx context.Context, rows []models.Property) (map[int64][]models.Contract, error) {
	out := make(map[int64][]models.Contract, len(rows))
	var (
		mu           sync.Mutex
		unauthorized bool
	)

	// branches never return an error, so one failure cannot cancel its siblings
	var g errgroup.Group
	g.SetLimit(p.limit)
	for _, row := range rows {
		g.Go(func() error {
			contracts, err := p.svc.ListContracts(ctx, row.ID)
			if err != nil {
				p.logger.WarnContext(ctx, "contract fetch failed",
					slog.Int64("property_id", row.ID),
					slog.String("error", err.Error()),
				)
				contracts = []models.Contract{}
			}
			if contracts == nil {
				contracts = []models.Contract{}
			}

			mu.Lock()
			out[row.ID] = contracts
			if errors.Is(err, ErrUnauthorized) {
				unauthorized = true
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if unauthorized {
		return out, ErrUnauthorized
	}
	return out, nil
}
