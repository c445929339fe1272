package report

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/Mujanati13/xcite/internal/models"
)

// DefaultWorkers bounds the number of records rendered at once.
const DefaultWorkers = 4

// Result of rendering one record.
type Result struct {
	Handle string `json:"handle"`
	File   string `json:"file,omitempty"`
	Err    error  `json:"-"`
}

// Batch renders export records into Dir, one file per record.
type Batch struct {
	Dir     string
	Workers int
	Format  Format

	cfg    *Config
	logger *slog.Logger
}

func NewBatch(cfg *Config, dir string, workers int, logger *slog.Logger) *Batch {
	if workers < 1 {
		workers = DefaultWorkers
	}
	return &Batch{Dir: dir, Workers: workers, Format: FormatPDF, cfg: cfg, logger: logger}
}

// Run renders every record and returns one result per record in input order.
// A failed record does not stop the others; a cancelled ctx skips the ones not started.
func (b *Batch) Run(ctx context.Context, records []models.ExportRecord) ([]Result, error) {
	if err := os.MkdirAll(b.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create report dir: %w", err)
	}

	results := make([]Result, len(records))
	semaphore := make(chan struct{}, b.Workers)
	wg := &sync.WaitGroup{}

	for i, rec := range records {
		results[i].Handle = rec.Handle
		if err := ctx.Err(); err != nil {
			results[i].Err = err
			continue
		}
		select {
		case <-ctx.Done():
			results[i].Err = ctx.Err()
			continue
		case semaphore <- struct{}{}:
		}

		wg.Add(1)
		go func() {
			defer func() {
				if r := recover(); r != nil {
					results[i].Err = fmt.Errorf("render panicked: %v", r)
					b.logger.ErrorContext(ctx, "panic recovered in report rendering", slog.Any("panic", r))
				}
				<-semaphore
				wg.Done()
			}()

			file := filepath.Join(b.Dir, FileName(rec.Handle, b.Format))
			if err := Write(b.cfg, rec, b.Format, file); err != nil {
				results[i].Err = err
				b.logger.ErrorContext(ctx, "report failed",
					slog.String("handle", rec.Handle),
					slog.String("error", err.Error()),
				)
				return
			}
			results[i].File = file
			b.logger.DebugContext(ctx, "report written", slog.String("handle", rec.Handle), slog.String("file", file))
		}()
	}
	wg.Wait()

	return results, nil
}
