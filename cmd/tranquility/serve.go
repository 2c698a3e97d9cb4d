package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/fwojciec/tranquility/config"
	tranqhttp "github.com/fwojciec/tranquility/http"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP backend",
		Long: `Serves POST /api/chat, POST /api/audio and the /api/sessions routes
until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			analyzer, err := buildAnalyzer(cmd.Context(), a.cfg, a.logger)
			if err != nil {
				return err
			}
			if !a.logger.Core().Enabled(zapcore.DebugLevel) {
				gin.SetMode(gin.ReleaseMode)
			}
			srv := tranqhttp.NewServer(analyzer,
				tranqhttp.WithLogger(a.logger.Named("http")),
				tranqhttp.WithAllowedOrigins(a.cfg.CORS.AllowedOrigins, a.cfg.CORS.MaxAge),
				tranqhttp.WithMaxBodyBytes(a.cfg.Server.MaxBodyBytes),
			)
			var tasks []func(context.Context) error
			w, err := watchPersona(a.cfg, analyzer, a.logger)
			if err != nil {
				return err
			}
			if w != nil {
				tasks = append(tasks, w.Run)
			}
			ln, err := net.Listen("tcp", a.cfg.Server.Addr())
			if err != nil {
				return fmt.Errorf("listen: %w", err)
			}
			return serve(cmd.Context(), ln, srv, a.cfg.Server, a.logger, tasks...)
		},
	}
}

// serve runs srv on ln together with the idle-session sweeper and tasks
// until ctx is cancelled or the listener fails, then shuts down gracefully.
func serve(ctx context.Context, ln net.Listener, srv *tranqhttp.Server, sc config.ServerConfig, logger *zap.Logger, tasks ...func(context.Context) error) error {
	hs := &http.Server{
		Handler:           srv.Handler(),
		ReadTimeout:       sc.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      sc.WriteTimeout,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", ln.Addr().String()))
		if err := hs.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		sweepSessions(ctx, srv.Registry(), sc.SessionTTL, logger)
		return nil
	})
	for _, task := range tasks {
		g.Go(func() error { return task(ctx) })
	}
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), sc.ShutdownTimeout)
		defer cancel()
		err := hs.Shutdown(shutdownCtx)
		srv.Registry().CloseAll()
		if err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})
	return g.Wait()
}

// sweepSessions closes sessions idle for longer than ttl. A non-positive
// ttl keeps sessions until shutdown.
func sweepSessions(ctx context.Context, reg *tranqhttp.Registry, ttl time.Duration, logger *zap.Logger) {
	if ttl <= 0 {
		return
	}
	interval := ttl / 2
	if interval > time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := reg.Sweep(ttl); n > 0 {
				logger.Debug("swept idle sessions", zap.Int("count", n), zap.Int("live", reg.Len()))
			}
		}
	}
}
