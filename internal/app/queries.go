package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"reviewlist/internal/domain"
)

// genKey holds the cache generation. Importing bumps it, which orphans every
// cached page at once instead of deleting each offset/limit variant.
const genKey = "reviews:gen"

type QueryService struct {
	repo     domain.ReviewRepository
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewQueryService(r domain.ReviewRepository, c domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{repo: r, cache: c, cacheTTL: ttl}
}

func (s *QueryService) ListReviews(ctx context.Context, offset, limit int) (domain.ReviewsPage, error) {
	key := s.pageKey(ctx, offset, limit)
	var out domain.ReviewsPage
	if s.cache != nil {
		if ok, _ := s.cache.Get(ctx, key, &out); ok {
			return out, nil
		}
	}

	var (
		items []domain.Review
		count int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		items, err = s.repo.ListReviews(gctx, offset, limit)
		return err
	})
	g.Go(func() (err error) {
		count, err = s.repo.CountReviews(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.ReviewsPage{}, err
	}

	// copy slice to avoid aliasing the repo's backing array
	out = domain.ReviewsPage{Items: make([]domain.Review, len(items)), Count: count}
	copy(out.Items, items)

	// optional size guard
	if s.cache != nil {
		if b, _ := json.Marshal(out); len(b) < 1_000_000 {
			_ = s.cache.Set(ctx, key, out, int(s.cacheTTL.Seconds()))
		}
	}
	return out, nil
}

func (s *QueryService) pageKey(ctx context.Context, offset, limit int) string {
	var gen int64
	if s.cache != nil {
		_, _ = s.cache.Get(ctx, genKey, &gen)
	}
	return fmt.Sprintf("reviews:%d:%d:%d", gen, offset, limit)
}
