// Command sessiond is a small host that keeps a Session record across restarts.
//
// Each start loads the session (creating it on first run), bumps the launch
// count and records the start time. The session is written back when the
// process receives SIGINT or SIGTERM, or immediately with -once.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/goforj/persist"
	"github.com/goforj/persist/internal/bootstrap"
	"github.com/goforj/persist/internal/config"
	"github.com/goforj/persist/internal/logging"
	"github.com/goforj/persist/internal/metrics"
)

// Session is the persisted host state.
type Session struct {
	ID          string    `xml:"ID" yaml:"id" toml:"id"`
	LaunchCount int       `xml:"LaunchCount" yaml:"launch_count" toml:"launch_count"`
	FirstStart  time.Time `xml:"FirstStart" yaml:"first_start" toml:"first_start"`
	LastStart   time.Time `xml:"LastStart" yaml:"last_start" toml:"last_start"`
}

func main() {
	once := flag.Bool("once", false, "flush and exit right after startup")
	flag.Parse()

	if err := run(*once); err != nil {
		_, _ = os.Stderr.WriteString("sessiond: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func run(once bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.NewOrNop(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	defer func() { _ = logger.Sync() }()

	reg := prometheus.NewRegistry()
	obs, err := metrics.New(reg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	rt, err := bootstrap.Open(ctx, cfg, logger, obs)
	cancel()
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	session, err := startSession(rt.Cache, time.Now())
	if err != nil {
		return err
	}
	logger.Info("session started",
		zap.String("id", session.ID),
		zap.Int("launch_count", session.LaunchCount),
	)

	if cfg.Metrics.Addr != "" {
		srv := &http.Server{
			Addr:              cfg.Metrics.Addr,
			Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", zap.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	if once {
		rt.Hook.Fire()
	} else {
		<-rt.Hook.FireOn(context.Background(), os.Interrupt, syscall.SIGTERM)
		signal.Reset(os.Interrupt, syscall.SIGTERM)
	}
	logger.Info("session flushed", zap.Stringer("state", rt.Cache.State()))
	return nil
}

// startSession loads the session and records a new launch.
func startSession(c *persist.Cache, now time.Time) (*Session, error) {
	s, err := persist.GetDefault[Session](c)
	if err != nil {
		return nil, err
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
		s.FirstStart = now
	}
	s.LaunchCount++
	s.LastStart = now
	return s, nil
}
