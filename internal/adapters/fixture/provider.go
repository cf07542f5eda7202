// Package fixture serves review pages from an in-memory set, for demos and tests.
package fixture

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"reviewlist/internal/domain"
)

type Provider struct {
	reviews []domain.Review
	latency time.Duration
}

func New(reviews []domain.Review, latency time.Duration) *Provider {
	return &Provider{reviews: reviews, latency: latency}
}

// Load reads a JSON array of reviews, or a page object with an "items" array.
func Load(path string, latency time.Duration) (*Provider, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	var reviews []domain.Review
	if err := json.Unmarshal(b, &reviews); err != nil {
		page, perr := domain.DecodePage(b)
		if perr != nil {
			return nil, fmt.Errorf("parse fixture %s: %w", path, err)
		}
		reviews = page.Items
	}
	log.Info().Str("path", path).Int("reviews", len(reviews)).Dur("latency", latency).Msg("fixture loaded")
	return New(reviews, latency), nil
}

func (p *Provider) Len() int { return len(p.reviews) }

func (p *Provider) GetReviews(ctx context.Context, offset, limit int) ([]byte, error) {
	if p.latency > 0 {
		t := time.NewTimer(p.latency)
		defer t.Stop()
		select {
		case <-ctx.Done():
			log.Debug().Int("offset", offset).Err(ctx.Err()).Msg("fixture page abandoned")
			return nil, domain.Transport(ctx.Err())
		case <-t.C:
		}
	}
	if offset < 0 || limit < 0 {
		err := fmt.Errorf("invalid page offset=%d limit=%d", offset, limit)
		log.Warn().Err(err).Msg("fixture page rejected")
		return nil, domain.Transport(err)
	}
	lo := min(offset, len(p.reviews))
	hi := min(lo+limit, len(p.reviews))
	log.Debug().Int("offset", offset).Int("limit", limit).Int("items", hi-lo).Msg("fixture page served")
	return domain.EncodePage(domain.ReviewsPage{Items: p.reviews[lo:hi], Count: len(p.reviews)})
}
