package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"reviewlist/internal/domain"
)

type ImportService struct {
	repo    domain.ReviewRepository
	cache   domain.Cache
	batch   int
	workers int64
}

func NewImportService(r domain.ReviewRepository, cache domain.Cache, batch, workers int) *ImportService {
	if batch <= 0 {
		batch = 100
	}
	if workers <= 0 {
		workers = 1
	}
	return &ImportService{repo: r, cache: cache, batch: batch, workers: int64(workers)}
}

// Import maps loosely shaped review records and upserts them in batches.
// On success the page cache generation is bumped so readers see the import.
func (s *ImportService) Import(ctx context.Context, records []map[string]any) (int, error) {
	reviews := mapReviews(records)
	if len(reviews) == 0 {
		return 0, nil
	}

	sem := semaphore.NewWeighted(s.workers)
	g, gctx := errgroup.WithContext(ctx)
	for start := 0; start < len(reviews); start += s.batch {
		chunk := reviews[start:min(start+s.batch, len(reviews))]
		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer sem.Release(1)
			if err := s.repo.UpsertReviews(gctx, chunk); err != nil {
				// do not swallow this; surface so we know inserts failed
				return fmt.Errorf("upsert %d reviews: %w", len(chunk), err)
			}
			log.Debug().Int("batch", len(chunk)).Msg("reviews batch upserted")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, genKey, time.Now().UnixNano(), 0); err != nil {
			log.Warn().Err(err).Msg("bump reviews cache generation failed")
		}
	}
	return len(reviews), nil
}
