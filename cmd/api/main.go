// Package main implements the relgraph API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"golang.org/x/time/rate"

	"github.com/WessleyAI/relgraph/engine/conn"
	"github.com/WessleyAI/relgraph/engine/events"
	"github.com/WessleyAI/relgraph/engine/graphsync"
	"github.com/WessleyAI/relgraph/engine/session"
	"github.com/WessleyAI/relgraph/engine/taxonomy"
	"github.com/WessleyAI/relgraph/pkg/config"
	"github.com/WessleyAI/relgraph/pkg/credentials"
	"github.com/WessleyAI/relgraph/pkg/fn"
	"github.com/WessleyAI/relgraph/pkg/metrics"
	"github.com/WessleyAI/relgraph/pkg/mid"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := metrics.New()
	opts := []graphsync.Option{graphsync.WithLogger(logger), graphsync.WithMetrics(reg)}

	// --- Commit notifications (NATS) ---
	if cfg.NATSURL != "" {
		nc, err := nats.Connect(cfg.NATSURL, nats.Name("relgraph-api"))
		if err != nil {
			return fmt.Errorf("nats connect: %w", err)
		}
		defer nc.Drain()
		opts = append(opts, graphsync.WithNotifier(events.NewNATSNotifier(nc, cfg.NATSSubject, logger)))
		logger.Info("publishing commit events", "subject", cfg.NATSSubject)
	}
	if cfg.WriteRate > 0 {
		opts = append(opts, graphsync.WithWriteLimiter(rate.NewLimiter(rate.Limit(cfg.WriteRate), max(1, int(cfg.WriteRate)))))
	}

	engine := graphsync.New(taxonomy.NewCache(), opts...)
	if seed, err := taxonomy.LoadSeedFile(cfg.SeedFile); err != nil {
		logger.Warn("seed not loaded", "path", cfg.SeedFile, "err", err)
	} else {
		engine.Seed(seed)
	}

	lc := conn.New(conn.Neo4jDialer{Database: cfg.Neo4jDatabase}, logger)
	defer lc.Disconnect(context.Background())

	srv := newServer(session.New(lc, engine, logger), credentials.NewFileStore(cfg.CredentialsPath), reg, logger)
	srv.retry.MaxAttempts = cfg.ConnectRetries
	srv.autoConnect(ctx, cfg)

	handler := mid.Chain(srv.routes(),
		mid.Recover(logger),
		mid.RequestID(),
		mid.OTel("relgraph-api"),
		mid.Metrics(reg),
		mid.Logger(logger),
		mid.CORS(cfg.CORSOrigin),
	)

	httpSrv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	// --- Graceful shutdown ---
	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server starting", "port", cfg.Port)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutCtx)
}

// autoConnect dials saved credentials, or NEO4J_URL when nothing is saved.
// Failure is logged; the server still starts.
func (s *server) autoConnect(ctx context.Context, cfg config.Config) {
	creds, ok, err := s.creds.Load()
	if err != nil {
		s.logger.Warn("read saved credentials", "err", err)
	}
	if !ok {
		if cfg.Neo4jURL == "" {
			return
		}
		creds = credentials.Credentials{URI: cfg.Neo4jURL, User: cfg.Neo4jUser, Password: cfg.Neo4jPass}
	}
	if _, err := s.connect(ctx, creds); err != nil {
		s.logger.Warn("auto-connect failed", "uri", creds.URI, "err", err)
	}
}

// connect dials with retries and remembers the credentials once connected.
func (s *server) connect(ctx context.Context, creds credentials.Credentials) (graphsync.PullReport, error) {
	res := fn.Retry(ctx, s.retry, func(ctx context.Context) fn.Result[graphsync.PullReport] {
		rep, err := s.sess.Connect(ctx, conn.Credentials{URI: creds.URI, User: creds.User, Password: creds.Password})
		return fn.FromPair(rep, err)
	})
	rep, err := res.Unwrap()
	if s.sess.Connected() {
		if serr := s.creds.Save(creds); serr != nil {
			s.logger.Warn("save credentials", "path", s.creds.Path(), "err", serr)
		}
	}
	return rep, err
}
