package imagecache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"reviewlist/internal/adapters/observability"
	"reviewlist/internal/domain"
)

const (
	DefaultMaxCount       = 100
	DefaultMaxBytes int64 = 50 << 20
	maxImageBytes         = 10 << 20
	loadTimeout           = 30 * time.Second
)

type Options struct {
	MaxCount int
	MaxBytes int64
	// Blob is an optional second tier shared between processes.
	Blob    domain.BlobCache
	BlobTTL time.Duration
	// Workers bounds concurrent HTTP downloads.
	Workers    int
	HTTPClient *http.Client
	Logger     *zerolog.Logger
}

// Resolver implements domain.ImageResolver. Failures of any kind resolve to
// nil, which callers render as a placeholder.
type Resolver struct {
	mem     *Memory
	blob    domain.BlobCache
	blobTTL time.Duration
	hc      *http.Client
	sem     *semaphore.Weighted
	group   singleflight.Group
	log     zerolog.Logger
}

func NewResolver(opts Options) *Resolver {
	if opts.MaxCount <= 0 {
		opts.MaxCount = DefaultMaxCount
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxBytes
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	logger := log.Logger
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Resolver{
		mem:     NewMemory(opts.MaxCount, opts.MaxBytes),
		blob:    opts.Blob,
		blobTTL: opts.BlobTTL,
		hc:      opts.HTTPClient,
		sem:     semaphore.NewWeighted(int64(opts.Workers)),
		log:     logger.With().Str("component", "image_resolver").Logger(),
	}
}

// Memory exposes the first cache tier.
func (r *Resolver) Memory() *Memory { return r.mem }

func (r *Resolver) Resolve(ctx context.Context, ref string) []byte {
	if ref == "" {
		return nil
	}
	if b, ok := r.mem.Get(ref); ok {
		observability.ObserveCache("image_memory", "hit")
		return b
	}
	observability.ObserveCache("image_memory", "miss")

	// The load is shared by every caller of ref, so it must outlive the
	// caller that happened to start it.
	ch := r.group.DoChan(ref, func() (any, error) {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()
		return r.load(lctx, ref)
	})
	select {
	case <-ctx.Done():
		return nil
	case res := <-ch:
		if res.Err != nil {
			r.log.Debug().Err(res.Err).Str("ref", ref).Msg("image unavailable")
			return nil
		}
		return res.Val.([]byte)
	}
}

func (r *Resolver) load(ctx context.Context, ref string) ([]byte, error) {
	key := blobKey(ref)
	if r.blob != nil {
		b, ok, err := r.blob.GetBytes(ctx, key)
		if err != nil {
			r.log.Warn().Err(err).Msg("image blob cache read failed")
		}
		if ok {
			if _, ferr := Format(b); ferr == nil {
				r.mem.Put(ref, b)
				return b, nil
			}
		}
	}

	b, err := r.download(ctx, ref)
	if err != nil {
		return nil, err
	}
	r.mem.Put(ref, b)
	if r.blob != nil {
		if err := r.blob.SetBytes(ctx, key, b, r.blobTTL); err != nil {
			r.log.Warn().Err(err).Msg("image blob cache write failed")
		}
	}
	return b, nil
}

func (r *Resolver) download(ctx context.Context, ref string) ([]byte, error) {
	u, err := url.Parse(ref)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("unsupported image ref %q", ref)
	}
	if err := r.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer r.sem.Release(1)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	resp, err := r.hc.Do(req)
	if err != nil {
		observability.ObserveExternal("images", u.Host, 0, time.Since(start))
		return nil, err
	}
	defer resp.Body.Close()
	observability.ObserveExternal("images", u.Host, resp.StatusCode, time.Since(start))
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image status %d", resp.StatusCode)
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, err
	}
	if len(b) > maxImageBytes {
		return nil, errors.New("image too large")
	}
	if _, err := Format(b); err != nil {
		return nil, err
	}
	return b, nil
}

// Format sniffs the encoded image format ("png", "jpeg", "gif", "webp").
func Format(b []byte) (string, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(b))
	if err != nil {
		return "", fmt.Errorf("not an image: %w", err)
	}
	return format, nil
}

func blobKey(ref string) string { return "img:" + ref }
