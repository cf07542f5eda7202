package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"reviewlist/internal/adapters/fixture"
	server "reviewlist/internal/adapters/http_server"
	"reviewlist/internal/adapters/imagecache"
	"reviewlist/internal/adapters/observability"
	redisad "reviewlist/internal/adapters/redis"
	"reviewlist/internal/adapters/reviewsapi"
	"reviewlist/internal/app"
	"reviewlist/internal/domain"
	"reviewlist/internal/layout"
	"reviewlist/internal/shared"
	"reviewlist/internal/typeset"
)

func main() {
	cfg, err := shared.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)
	observability.Serve(cfg.MetricsAddr)

	theme, err := layout.LoadTheme(cfg.ThemeFile)
	if err != nil {
		log.Fatal().Err(err).Str("file", cfg.ThemeFile).Msg("load theme failed")
	}
	fonts, err := typeset.NewFonts(theme.FontSizes)
	if err != nil {
		log.Fatal().Err(err).Msg("load fonts failed")
	}

	provider, err := newProvider(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("reviews provider")
	}

	// redis is an optional second image tier
	var blob domain.BlobCache
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cache.Close()
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 2*time.Second)
	if err := cache.Ping(pingCtx); err != nil {
		log.Warn().Err(err).Msg("redis unavailable; image cache is memory only")
	} else {
		blob = cache
	}
	cancelPing()

	images := imagecache.NewResolver(imagecache.Options{
		MaxCount: cfg.ImageCacheCount,
		MaxBytes: cfg.ImageCacheBytes,
		Blob:     blob,
		BlobTTL:  cfg.ImageRedisTTL,
		Workers:  cfg.ImageWorkers,
	})

	sh := &server.ScreenHandlers{Images: images}
	list, err := app.NewList(app.Options{
		Provider:        provider,
		Images:          images,
		Engine:          layout.NewEngine(theme, fonts),
		Fonts:           fonts,
		PageSize:        cfg.PageSize,
		MaxLines:        theme.DefaultMaxLines,
		PrefetchScreens: cfg.PrefetchScreens,
		OnStateChange: func(s app.State) {
			log.Debug().Str("phase", s.Phase().String()).Int("rows", len(s.Rows)).Msg("list state")
		},
		OnError: sh.ReportError,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("create list")
	}
	defer list.Close()
	sh.List = list
	list.Load()

	srv := server.New()
	srv.Mount("/metrics", observability.Handler())
	srv.MountScreen(sh)

	httpSrv := &http.Server{Addr: cfg.ScreenAddr, Handler: srv.Mux(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Info().Str("addr", cfg.ScreenAddr).Msg("screen listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
	log.Info().Msg("screen stopped")
}

func newProvider(cfg shared.Config) (domain.FetchProvider, error) {
	if cfg.ReviewsBaseURL != "" {
		return reviewsapi.New(cfg.ReviewsBaseURL, cfg.ReviewsAPIKey, cfg.ReviewsRPS)
	}
	return fixture.Load(cfg.FixturePath, cfg.FixtureLatency)
}
