// Package app wires the sharebase server runtime: config, logging, HTTP
// routes, persistence and the chat gateway.
//
// It is intentionally small and deterministic to keep CI gates strict and behavior predictable.
package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"sharebase/cmd/internal/activity"
	"sharebase/cmd/internal/blob"
	"sharebase/cmd/internal/chat"
	"sharebase/cmd/internal/file"
	"sharebase/cmd/internal/group"
	"sharebase/cmd/internal/user"
	"sharebase/cmd/security/password"
)

// Store is a small app-level lifecycle abstraction.
// It exists to allow DB-backed resources to be closed gracefully.
type Store interface {
	Close(ctx context.Context) error
}

// App is the sharebase server runtime: it owns HTTP wiring and the
// dependencies behind every route.
type App struct {
	cfg Config
	log Logger

	store Store

	dbPool    *pgxpool.Pool
	dbEnabled bool

	registry *chat.Registry
	gateway  *chat.Gateway
	history  *chat.HistoryHandler
	presence *chat.PresenceHandler

	groups *group.Handler
	users  *user.Handler
	files  *file.Handler

	promReg *prometheus.Registry
}

// New constructs a fully wired App instance from config and logger.
func New(cfg Config, log Logger) (*App, error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel, cfg.LogFormat)
	}

	if err := ValidateSecurityConfig(cfg); err != nil {
		return nil, err
	}

	ctx := context.Background()

	st, err := newStores(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector())
	promReg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := chat.NewMetrics(promReg)

	cache, err := newRecentCache(cfg, log)
	if err != nil {
		st.close()
		return nil, err
	}
	st.cache = cache

	blobs, err := newBlobStore(ctx, cfg, log)
	if err != nil {
		st.close()
		return nil, err
	}

	registry := chat.NewRegistry(log)
	bcast := chat.NewBroadcaster(log, registry, metrics, cfg.WriteTimeout)

	gwCfg := chat.DefaultGatewayConfig()
	gwCfg.OriginRequired = cfg.WSOriginRequired
	gwCfg.AllowedOrigins = cfg.WSOrigins
	gwCfg.DevInsecure = cfg.WSDevInsecure
	if cfg.ChatRateEvents > 0 {
		gwCfg.RateEvents = cfg.ChatRateEvents
	}
	if cfg.ChatRateWindow > 0 {
		gwCfg.RateWindow = cfg.ChatRateWindow
	}
	if cfg.ChatReadIdle > 0 {
		gwCfg.ReadIdle = cfg.ChatReadIdle
	}
	gateway := chat.NewGateway(log, registry, bcast, st.messages, cache, metrics, gwCfg)

	recorder := activity.NewRecorder(log, st.activities)
	fileSvc := file.NewService(log, st.files, blobs, recorder, st.groups)

	pwdCfg, err := password.FromEnv()
	if err != nil {
		st.close()
		return nil, err
	}

	return &App{
		cfg:       cfg,
		log:       log,
		store:     st,
		dbPool:    st.pool,
		dbEnabled: st.pool != nil,
		registry:  registry,
		gateway:   gateway,
		history:   chat.NewHistoryHandler(log, st.messages, cache),
		presence:  chat.NewPresenceHandler(log, registry),
		groups:    group.NewHandler(log, st.groups, recorder, st.activities, fileSvc),
		users:     user.NewHandler(log, st.users, pwdCfg),
		files:     file.NewHandler(log, fileSvc),
		promReg:   promReg,
	}, nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal server error.
func (a *App) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	registerHTTP(mux, a)

	handler := WithSecurityHeaders(WithCORS(WithRequestLogging(mux, a.log), a.cfg, a.log))

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: nonZeroDuration(a.cfg.ReadHeaderTimeout, 5*time.Second),
		ReadTimeout:       nonZeroDuration(a.cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:      nonZeroDuration(a.cfg.WriteTimeout, 15*time.Second),
		IdleTimeout:       nonZeroDuration(a.cfg.IdleTimeout, 60*time.Second),
		MaxHeaderBytes:    nonZeroInt(a.cfg.MaxHeaderBytes, 1<<20),
	}

	base := runtimeBaseURL(a.cfg.HTTPAddr)
	a.log.Info("server.start",
		"addr", a.cfg.HTTPAddr,
		"base_url", base,
		"ws_url", wsBaseURL(base)+"/chat/ws/{group}",
		"db_enabled", a.dbEnabled,
	)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info("server.stop", "reason", "context_done")
	case err := <-errCh:
		a.log.Error("server.fail", "err", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("server.shutdown.fail", "err", err)
		return err
	}

	// Close store resources (pool, cache, etc).
	if err := a.store.Close(shutdownCtx); err != nil {
		a.log.Error("store.close.fail", "err", err)
	}

	a.log.Info("server.stopped")
	return nil
}

func nonZeroDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func nonZeroInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// runtimeBaseURL turns a bind address into a browsable URL, substituting
// loopback for wildcard binds.
func runtimeBaseURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://" + addr
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "127.0.0.1"
	}
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	return "http://" + host + ":" + port
}

// wsBaseURL derives the websocket scheme from an HTTP base URL.
func wsBaseURL(base string) string {
	switch {
	case strings.HasPrefix(base, "https://"):
		return "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		return "ws://" + strings.TrimPrefix(base, "http://")
	default:
		return "ws://" + base
	}
}

// stores bundles every persistence dependency behind one lifecycle.
type stores struct {
	pool  *pgxpool.Pool
	cache chat.RecentCache

	messages   chat.MessageStore
	groups     group.Store
	files      file.Store
	users      user.Store
	activities activity.Store
}

func (s *stores) close() {
	if s.cache != nil {
		_ = s.cache.Close()
	}
	if s.messages != nil {
		_ = s.messages.Close()
	}
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *stores) Close(_ context.Context) error {
	s.close()
	return nil
}

// newStores decides between Postgres-backed persistence and the in-memory
// dev stores.
func newStores(ctx context.Context, cfg Config, log Logger) (*stores, error) {
	if cfg.DatabaseURL == "" {
		log.Info("db.disabled.inmemory_store")
		return &stores{
			messages:   chat.NewInMemoryStore(),
			groups:     group.NewInMemoryStore(),
			files:      file.NewInMemoryStore(),
			users:      user.NewInMemoryStore(),
			activities: activity.NewInMemoryStore(),
		}, nil
	}

	pool, err := newDBPool(ctx, cfg)
	if err != nil {
		return nil, err
	}

	log.Info("db.enabled.postgres_store", "schema", cfg.DBSchema)

	// Ownership model:
	// - app owns pool lifecycle
	// - the per-domain stores never close the pool themselves
	msgStore, err := chat.NewPostgresStore(pool, chat.WithSchema(cfg.DBSchema))
	if err != nil {
		pool.Close()
		return nil, err
	}
	groupStore, err := group.NewPostgresStore(pool, cfg.DBSchema)
	if err != nil {
		pool.Close()
		return nil, err
	}
	fileStore, err := file.NewPostgresStore(pool, cfg.DBSchema)
	if err != nil {
		pool.Close()
		return nil, err
	}
	userStore, err := user.NewPostgresStore(pool, cfg.DBSchema)
	if err != nil {
		pool.Close()
		return nil, err
	}
	activityStore, err := activity.NewPostgresStore(pool, cfg.DBSchema)
	if err != nil {
		pool.Close()
		return nil, err
	}

	return &stores{
		pool:       pool,
		messages:   msgStore,
		groups:     groupStore,
		files:      fileStore,
		users:      userStore,
		activities: activityStore,
	}, nil
}

// newRecentCache builds the redis history cache when configured.
// A configured-but-unreachable redis fails startup on purpose.
func newRecentCache(cfg Config, log Logger) (chat.RecentCache, error) {
	if cfg.RedisAddr == "" {
		return nil, nil
	}
	cache, err := chat.NewRedisRecentCache(chat.RedisCacheConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		TTL:      cfg.RedisTTL,
	})
	if err != nil {
		return nil, err
	}
	log.Info("cache.enabled.redis", "addr", cfg.RedisAddr)
	return cache, nil
}

// newBlobStore builds the S3 blob store when a bucket is configured,
// falling back to the in-memory store for development.
func newBlobStore(ctx context.Context, cfg Config, log Logger) (blob.Store, error) {
	if cfg.S3Bucket == "" {
		log.Info("blob.disabled.inmemory_store")
		return blob.NewInMemoryStore(), nil
	}
	s3Store, err := blob.NewS3Store(ctx, blob.S3Config{
		Endpoint:        cfg.S3Endpoint,
		Region:          cfg.S3Region,
		Bucket:          cfg.S3Bucket,
		AccessKeyID:     cfg.S3AccessKeyID,
		SecretAccessKey: cfg.S3SecretAccessKey,
		UsePathStyle:    cfg.S3UsePathStyle,
	})
	if err != nil {
		return nil, err
	}
	log.Info("blob.enabled.s3", "bucket", cfg.S3Bucket)
	return s3Store, nil
}
