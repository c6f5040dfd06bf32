package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/pribylovaa/market-insights/internal/cache"
	"github.com/pribylovaa/market-insights/internal/config"
	mihttp "github.com/pribylovaa/market-insights/internal/http"
	"github.com/pribylovaa/market-insights/internal/http/handlers"
	"github.com/pribylovaa/market-insights/internal/observability"
	"github.com/pribylovaa/market-insights/internal/pkg/log"
	"github.com/pribylovaa/market-insights/internal/rss"
	"github.com/pribylovaa/market-insights/internal/service"
	"github.com/pribylovaa/market-insights/internal/telemetry"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

const (
	serviceName    = "market-insights"
	serviceVersion = "v1.0.0"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.Parse()

	cfg := config.MustLoad(configPath)

	lg := setupLogger(cfg.Env)
	slog.SetDefault(lg)
	lg.Info("starting market-insights", "env", cfg.Env)

	rootCtx, rootCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer rootCancel()
	rootCtx = log.Into(rootCtx, lg)

	shutdownTracing, err := observability.InitTracing(rootCtx, cfg.Tracing, serviceName, serviceVersion, lg)
	if err != nil {
		lg.Error("tracing_init_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}

	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := shutdownTracing(ctx); err != nil {
			lg.Warn("tracing_shutdown_failed", slog.String("err", err.Error()))
		}
	}()

	// Лента: HTTP-загрузчик -> парсер -> primary/fallback.
	client := &http.Client{Timeout: cfg.Feed.Timeout}
	fetcher := rss.NewHTTPFetcher(client, cfg.Feed.UserAgent, cfg.Feed.Revalidate)
	parser := rss.New(fetcher, rss.WithExcerptLength(cfg.Feed.ExcerptLength))
	svc := service.New(parser, cfg.Feed)

	// Телеметрия: общий буфер и две панели.
	buffer := telemetry.NewBuffer(cfg.Telemetry.Capacity)
	dashboard := telemetry.NewMonitor(buffer, telemetry.Variant{
		Name:     telemetry.VariantDashboard,
		Window:   cfg.Telemetry.Dashboard.Window,
		Interval: cfg.Telemetry.Dashboard.Interval,
	})
	compact := telemetry.NewMonitor(buffer, telemetry.Variant{
		Name:     telemetry.VariantCompact,
		Window:   cfg.Telemetry.Compact.Window,
		Interval: cfg.Telemetry.Compact.Interval,
	})

	feedCache := setupCache(rootCtx, cfg.Cache, lg)
	if feedCache != nil {
		defer func() {
			if cerr := feedCache.Close(); cerr != nil {
				lg.Warn("cache_close_failed", slog.String("err", cerr.Error()))
			}
		}()
	}

	deps := handlers.Deps{
		Feed:       svc,
		Cache:      feedCache,
		Events:     buffer,
		Panels:     []handlers.Panel{dashboard, compact},
		Revalidate: cfg.Feed.Revalidate,
	}

	apiHandler := mihttp.NewRouter(deps, mihttp.Options{
		Logger:   lg,
		Timeout:  cfg.Timeouts.Service,
		BasePath: "/api",
	})

	var ready int32 // 0 — not ready; 1 — ready

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if atomic.LoadInt32(&ready) == 1 {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
			return
		}

		http.Error(w, "not ready", http.StatusServiceUnavailable)
	})

	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", apiHandler)

	httpAddr := cfg.HTTP.Addr()
	httpSrv := &http.Server{
		Addr:              httpAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ln, err := net.Listen("tcp", httpAddr)
	if err != nil {
		lg.Error("http_listen_failed", slog.String("addr", httpAddr), slog.String("err", err.Error()))
		os.Exit(1)
	}

	lg.Info("http_listen_start", slog.String("addr", httpAddr))

	// Мониторы живут, пока жив процесс; до первого запроса панели они спят.
	monitors, monitorsCtx := errgroup.WithContext(rootCtx)
	monitors.Go(func() error { return dashboard.Run(monitorsCtx) })
	monitors.Go(func() error { return compact.Run(monitorsCtx) })

	serveErrCh := make(chan error, 1)
	go func() {
		if err := httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErrCh <- err
		}
		close(serveErrCh)
	}()

	atomic.StoreInt32(&ready, 1)
	lg.Info("market_insights_ready")

	select {
	case <-rootCtx.Done():
		lg.Info("shutdown_requested")
	case err := <-serveErrCh:
		if err != nil {
			lg.Error("http_serve_failed", slog.String("err", err.Error()))
		}
	}

	atomic.StoreInt32(&ready, 0)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		lg.Warn("http_shutdown_incomplete", slog.String("err", err.Error()))
	} else {
		lg.Info("http_stopped")
	}

	rootCancel()
	if err := monitors.Wait(); err != nil {
		lg.Warn("monitors_stopped_with_error", slog.String("err", err.Error()))
	}

	lg.Info("service_stopped")
}

// setupCache выбирает кэш ленты: выключен, Redis или память процесса.
// Недоступный Redis не мешает старту: сервис работает с кэшем в памяти.
func setupCache(ctx context.Context, cfg config.CacheConfig, lg *slog.Logger) cache.FeedCache {
	switch {
	case cfg.Disabled:
		lg.Info("cache_disabled")
		return nil
	case cfg.RedisURL != "":
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		c, err := cache.NewRedisCache(pingCtx, cfg.RedisURL, cfg.Prefix)
		if err == nil {
			lg.Info("cache_redis_ready")
			return c
		}

		lg.Warn("cache_redis_unavailable", slog.String("err", err.Error()))
	}

	lg.Info("cache_memory")
	return cache.NewMemoryCache(nil)
}

func setupLogger(env string) *slog.Logger {
	switch env {
	case envLocal:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envDev:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}
