package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/pribylovaa/go-login-boilerplate/internal/cache"
	"github.com/pribylovaa/go-login-boilerplate/internal/config"
	apphttp "github.com/pribylovaa/go-login-boilerplate/internal/http"
	"github.com/pribylovaa/go-login-boilerplate/internal/http/handlers"
	"github.com/pribylovaa/go-login-boilerplate/internal/mail"
	"github.com/pribylovaa/go-login-boilerplate/internal/metrics"
	"github.com/pribylovaa/go-login-boilerplate/internal/oauth"
	"github.com/pribylovaa/go-login-boilerplate/internal/service"
	"github.com/pribylovaa/go-login-boilerplate/internal/session"
	"github.com/pribylovaa/go-login-boilerplate/internal/storage/postgres"
)

// janitorPeriod — период очистки просроченных записей in-memory кэша.
const janitorPeriod = time.Minute

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run HTTP server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return serve(cmd.Context())
	},
}

func serve(ctx context.Context) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log := setupLogger(cfg.Env)
	slog.SetDefault(log)
	log.Info("starting application", "env", cfg.Env)

	// Корневой контекст по сигналам.
	rootCtx, rootCancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer rootCancel()

	// Подключение к БД c таймаутом.
	dbCtx, dbCancel := context.WithTimeout(rootCtx, 10*time.Second)
	str, err := postgres.New(dbCtx, cfg.DB.DatabaseURL)
	dbCancel()
	if err != nil {
		log.Error("postgres_connect_failed", slog.String("err", err.Error()))
		return err
	}
	defer str.Close()
	log.Info("postgres_connected")

	kv, closeKV, err := newKV(rootCtx, cfg, log)
	if err != nil {
		log.Error("cache_init_failed", slog.String("driver", cfg.Cache.Driver), slog.String("err", err.Error()))
		return err
	}
	defer closeKV()
	log.Info("cache_initialized", slog.String("driver", cfg.Cache.Driver))

	m := metrics.New(prometheus.DefaultRegisterer)

	// Тело письма с токеном пишется в лог только вне prod.
	mailer := mail.NewLogMailer(cfg.Env != envProd)

	srvc := service.New(str, kv, cfg.Auth,
		service.WithMailer(mailer),
		service.WithMetrics(m),
		service.WithPublicURL(cfg.HTTP.PublicURL),
	)
	sessions := session.New(cfg.Session, srvc, m)
	providers := oauth.New(cfg.OAuth)
	log.Info("service_initialized")

	h := handlers.New(srvc, sessions, providers, nil)
	appHandler := apphttp.NewRouter(h, sessions, apphttp.Options{
		Logger:  log,
		Metrics: m,
		Timeout: cfg.Timeouts.Service,
	})

	var ready int32 // 0 — not ready; 1 — ready

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if atomic.LoadInt32(&ready) != 1 {
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}

		pingCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := str.Ping(pingCtx); err != nil {
			log.Warn("healthz_postgres_unavailable", slog.String("err", err.Error()))
			http.Error(w, "postgres unavailable", http.StatusServiceUnavailable)
			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.Handle("/metrics", promhttp.Handler())

	mux.Handle("/", appHandler)

	httpAddr := cfg.HTTP.Addr()
	httpSrv := &http.Server{
		Addr:              httpAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ln, err := net.Listen("tcp", httpAddr)
	if err != nil {
		log.Error("http_listen_failed", slog.String("addr", httpAddr), slog.String("err", err.Error()))
		return err
	}

	log.Info("http_listen_start", slog.String("addr", httpAddr))

	serveErrCh := make(chan error, 1)
	go func() {
		if err := httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErrCh <- err
		}
		close(serveErrCh)
	}()

	atomic.StoreInt32(&ready, 1)
	log.Info("dashboard_ready")

	var serveErr error
	select {
	case <-rootCtx.Done():
		log.Info("shutdown_requested")
	case serveErr = <-serveErrCh:
		if serveErr != nil {
			log.Error("http_serve_failed", slog.String("err", serveErr.Error()))
		}
	}

	atomic.StoreInt32(&ready, 0)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http_shutdown_incomplete", slog.String("err", err.Error()))
	} else {
		log.Info("http_stopped")
	}

	log.Info("service_stopped")

	return serveErr
}

// newKV выбирает хранилище кэша отзыва по cfg.Cache.Driver.
// memory годится только для одного процесса: отзыв не виден другим репликам.
func newKV(ctx context.Context, cfg *config.Config, log *slog.Logger) (cache.KV, func(), error) {
	switch cfg.Cache.Driver {
	case config.CacheDriverMemory:
		mem := cache.NewMemory()
		mem.StartJanitor(ctx, log, janitorPeriod)
		log.Warn("cache_memory_driver", slog.String("note", "token revocation is process-local"))
		return mem, func() {}, nil
	case config.CacheDriverRedis:
		redisCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		rkv, err := cache.NewRedis(redisCtx, cfg.Redis.RedisURL, cfg.Redis.Prefix)
		if err != nil {
			return nil, nil, err
		}

		return rkv, func() {
			if err := rkv.Close(); err != nil {
				log.Warn("redis_close_failed", slog.String("err", err.Error()))
			}
		}, nil
	default:
		return nil, nil, fmt.Errorf("unknown cache driver %q", cfg.Cache.Driver)
	}
}
