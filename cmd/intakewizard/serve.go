package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/tbxark/formwizard/draft"
	"github.com/tbxark/formwizard/server"
	"github.com/tbxark/formwizard/wizard"
	"golang.org/x/sync/errgroup"
)

var (
	serveAddr       string
	serveSessionTTL time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the wizard HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		if serveAddr != "" {
			cfg.Server.Addr = serveAddr
		}
		return runServe(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.addr)")
	serveCmd.Flags().DurationVar(&serveSessionTTL, "session-ttl", 30*time.Minute, "drop idle sessions from memory after this long")
}

func runServe(ctx context.Context) error {
	d, err := buildDeps(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := d.Close(); err != nil {
			slog.Warn("Failed to close runtime", "error", err)
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := wizard.NewMetrics(reg)

	assistant, err := newAssistant(ctx, cfg.Assistant)
	if err != nil {
		return err
	}

	factory := func(ctx context.Context, clientID string) *wizard.Controller {
		return wizard.New(ctx, draft.NewSlot(d.cache, "", clientID), d.gateway,
			wizard.WithMetrics(metrics),
			wizard.WithLogger(slog.Default().With("client", clientID)))
	}
	srv, err := server.New(factory,
		server.WithAssistant(assistant),
		server.WithGatherer(reg),
		server.WithLogger(slog.Default()))
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx, cfg.Server.Addr)
	})
	g.Go(func() error {
		evictIdle(gctx, srv.Sessions(), serveSessionTTL)
		return nil
	})
	return g.Wait()
}

func evictIdle(ctx context.Context, sessions *server.Sessions, ttl time.Duration) {
	if ttl <= 0 {
		<-ctx.Done()
		return
	}
	ticker := time.NewTicker(ttl / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := sessions.Evict(ttl); n > 0 {
				slog.Debug("Evicted idle sessions", "count", n, "remaining", sessions.Len())
			}
		}
	}
}
