package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/tbxark/formwizard/assist"
	"github.com/tbxark/formwizard/broker"
	"github.com/tbxark/formwizard/config"
	"github.com/tbxark/formwizard/draft"
	"github.com/tbxark/formwizard/gateway"
)

// deps holds the process wide collaborators shared by every controller.
type deps struct {
	cache   draft.Cache
	gateway gateway.Gateway

	ns      *server.Server
	nc      *nats.Conn
	closers []func() error
}

func buildDeps(ctx context.Context, cfg *config.Config) (_ *deps, err error) {
	d := &deps{}
	defer func() {
		if err != nil {
			_ = d.Close()
		}
	}()

	if cfg.NeedsNATS() {
		if err := d.connectNATS(cfg.NATS); err != nil {
			return nil, err
		}
	}

	switch cfg.Draft.Backend {
	case config.DraftMemory:
		d.cache = draft.NewMemoryCache()
	case config.DraftFile:
		fc, err := draft.NewFileCache(cfg.Draft.Dir)
		if err != nil {
			return nil, err
		}
		d.cache = fc
	case config.DraftSQLite:
		sc, err := draft.OpenSQLiteCache(cfg.Draft.SQLitePath)
		if err != nil {
			return nil, err
		}
		d.closers = append(d.closers, sc.Close)
		d.cache = sc
	case config.DraftNATS:
		js, err := broker.JetStream(d.nc)
		if err != nil {
			return nil, fmt.Errorf("creating JetStream context: %w", err)
		}
		kc, err := draft.NewKVCache(ctx, js, cfg.Draft.Bucket)
		if err != nil {
			return nil, err
		}
		d.cache = kc
	default:
		return nil, fmt.Errorf("unknown draft backend %q", cfg.Draft.Backend)
	}

	switch cfg.Gateway.Kind {
	case config.GatewayHTTP:
		d.gateway = gateway.NewHTTPGateway(cfg.Gateway.URL, cfg.Gateway.Timeout)
	case config.GatewayNATS:
		d.gateway = gateway.NewNATSGateway(d.nc, cfg.Gateway.Subject, cfg.Gateway.Timeout)
	default:
		return nil, fmt.Errorf("unknown gateway kind %q", cfg.Gateway.Kind)
	}

	slog.Info("Runtime ready",
		"draft_backend", cfg.Draft.Backend,
		"gateway", cfg.Gateway.Kind,
		"nats_embedded", d.ns != nil)
	return d, nil
}

func (d *deps) connectNATS(c config.NATSConfig) error {
	if c.URL != "" {
		conn, err := broker.Connect(c.URL)
		if err != nil {
			return fmt.Errorf("connecting to NATS at %s: %w", c.URL, err)
		}
		d.nc = conn
		return nil
	}
	ns, err := broker.StartEmbedded(c.DataDir)
	if err != nil {
		return fmt.Errorf("starting embedded NATS: %w", err)
	}
	d.ns = ns
	conn, err := broker.ConnectInProcess(ns)
	if err != nil {
		return fmt.Errorf("connecting to embedded NATS: %w", err)
	}
	d.nc = conn
	return nil
}

func (d *deps) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		errs = append(errs, d.closers[i]())
	}
	if d.nc != nil || d.ns != nil {
		errs = append(errs, broker.Shutdown(d.nc, d.ns))
	}
	return errors.Join(errs...)
}

// newAssistant returns the model backed assistant when it is enabled and the
// keyword assistant otherwise.
func newAssistant(ctx context.Context, ac config.AssistantConfig) (*assist.Assistant, error) {
	if !ac.Enabled {
		return assist.New(), nil
	}
	cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:  ac.APIKey,
		Model:   ac.Model,
		BaseURL: ac.BaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("creating chat model: %w", err)
	}
	return assist.NewWithModel(cm, ac.Lang)
}
