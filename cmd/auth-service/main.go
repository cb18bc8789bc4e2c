package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pribylovaa/go-bodytrack/internal/config"
	httpapi "github.com/pribylovaa/go-bodytrack/internal/http"
	"github.com/pribylovaa/go-bodytrack/internal/janitor"
	"github.com/pribylovaa/go-bodytrack/internal/limiter"
	"github.com/pribylovaa/go-bodytrack/internal/metrics"
	"github.com/pribylovaa/go-bodytrack/internal/service"
	"github.com/pribylovaa/go-bodytrack/internal/storage"
	"github.com/pribylovaa/go-bodytrack/internal/storage/memory"
	"github.com/pribylovaa/go-bodytrack/internal/storage/postgres"
)

// Константы для определения окружения.
const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.Parse()

	cfg := config.MustLoad(configPath)

	log := setupLogger(cfg.Env)
	slog.SetDefault(log)
	log.Info("starting application", "env", cfg.Env, "db_driver", cfg.DB.Driver)

	// Корневой контекст по сигналам.
	rootCtx, rootCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer rootCancel()

	str, err := setupStorage(rootCtx, cfg.DB, log)
	if err != nil {
		log.Error("storage_init_failed", slog.String("err", err.Error()))
		rootCancel()
		os.Exit(1)
	}

	// Метрики.
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	mtr := metrics.New(reg)

	// Сервис.
	srvc := service.New(str, cfg.Auth)
	srvc.SetEventRecorder(mtr)

	var lim *limiter.Redis
	if cfg.Redis.RedisURL != "" {
		lim, err = limiter.NewRedis(cfg.Redis.RedisURL, "", cfg.Redis.LoginMaxAttempts, cfg.Redis.LoginWindow)
		if err != nil {
			log.Error("redis_connect_failed", slog.String("err", err.Error()))
			str.Close()
			rootCancel()
			os.Exit(1)
		}
		srvc.SetLoginLimiter(lim)
		log.Info("login_limiter_enabled",
			slog.Int("max_attempts", cfg.Redis.LoginMaxAttempts),
			slog.Duration("window", cfg.Redis.LoginWindow),
		)
	}
	log.Info("service_initialized")

	if cfg.Auth.AdminEmail != "" && cfg.Auth.AdminPassword != "" {
		if err := srvc.EnsureAdmin(rootCtx, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword); err != nil {
			log.Error("admin_bootstrap_failed", slog.String("err", err.Error()))
			str.Close()
			rootCancel()
			os.Exit(1)
		}
	}

	// Фоновая очистка просроченных refresh-токенов.
	var jn *janitor.Janitor
	if cfg.Janitor.Schedule != "" {
		jn = janitor.New(srvc, log, janitor.WithObserver(mtr.Purged))
		if err := jn.Start(cfg.Janitor.Schedule); err != nil {
			log.Error("janitor_start_failed", slog.String("err", err.Error()))
			str.Close()
			rootCancel()
			os.Exit(1)
		}
	}

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
		if p, ok := str.(interface{ Ping(context.Context) error }); ok {
			if err := p.Ping(r.Context()); err != nil {
				http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		if lim != nil {
			if err := lim.Ping(r.Context()); err != nil {
				http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	mux.Handle("/", httpapi.NewRouter(srvc, httpapi.Options{
		Logger:   log,
		Timeout:  cfg.Timeouts.Service,
		BasePath: cfg.HTTP.BasePath,
		Cookie:   cfg.Cookie,
		Metrics:  mtr,
	}))

	httpAddr := cfg.HTTP.Addr()
	httpSrv := &http.Server{
		Addr:              httpAddr,
		Handler:           mux,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
	}

	serveErrCh := make(chan error, 1)
	go func() {
		log.Info("http_listen_start", slog.String("addr", httpAddr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErrCh <- err
		}
		close(serveErrCh)
	}()

	atomic.StoreInt32(&ready, 1)

	// Ожидание сигнала завершения или фатальной ошибки сервера.
	select {
	case <-rootCtx.Done():
		log.Info("shutdown_requested")
	case err := <-serveErrCh:
		if err != nil {
			log.Error("http_serve_failed", slog.String("err", err.Error()))
		}
	}

	atomic.StoreInt32(&ready, 0)

	// Graceful stop с таймаутом.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http_force_stop", slog.String("err", err.Error()))
		_ = httpSrv.Close()
	}

	if jn != nil {
		jn.Stop(shutdownCtx)
	}
	if lim != nil {
		_ = lim.Close()
	}
	str.Close()

	log.Info("service_stopped")
}

// setupStorage выбирает хранилище по драйверу и накатывает миграции для postgres.
func setupStorage(ctx context.Context, cfg config.DBConfig, log *slog.Logger) (storage.Storage, error) {
	if cfg.Driver == config.DriverMemory {
		log.Warn("using in-memory storage: data is lost on restart")
		return memory.New(), nil
	}

	if !cfg.SkipMigrations {
		migCtx, migCancel := context.WithTimeout(ctx, 30*time.Second)
		err := postgres.Migrate(migCtx, cfg.DatabaseURL)
		migCancel()
		if err != nil {
			return nil, err
		}
		log.Info("postgres_migrated")
	}

	// Подключение к БД c таймаутом.
	dbCtx, dbCancel := context.WithTimeout(ctx, 10*time.Second)
	defer dbCancel()

	str, err := postgres.New(dbCtx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	log.Info("postgres_connected")

	return str, nil
}

// setupLogger настраивает slog по окружению.
func setupLogger(env string) *slog.Logger {
	switch env {
	case envDev:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	case envLocal:
		fallthrough
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}
