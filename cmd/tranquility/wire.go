package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/fwojciec/tranquility"
	"github.com/fwojciec/tranquility/analysis"
	"github.com/fwojciec/tranquility/config"
	"github.com/fwojciec/tranquility/gemini"
	"github.com/fwojciec/tranquility/transport"
	"github.com/fwojciec/tranquility/yaml"
	"go.uber.org/zap"
)

// buildAnalyzer wires the configured Gemini backend, retry policy and
// persona into an orchestrator.
func buildAnalyzer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*analysis.Orchestrator, error) {
	if err := cfg.RequireAPIKey(); err != nil {
		return nil, err
	}

	persona := tranquility.DefaultPersona()
	if cfg.PersonaFile != "" {
		p, err := yaml.LoadPersona(cfg.PersonaFile)
		if err != nil {
			return nil, err
		}
		persona = p
	}

	tc := transport.New(
		transport.WithPolicy(cfg.Retry.Policy()),
		transport.WithHTTPClient(&http.Client{Timeout: cfg.Gemini.Timeout}),
		transport.WithLogger(logger.Named("transport")),
	)
	chat, audio, err := buildModels(ctx, cfg.Gemini, tc)
	if err != nil {
		return nil, err
	}
	logger.Debug("analyzer ready",
		zap.String("backend", cfg.Gemini.Backend),
		zap.String("model", cfg.Gemini.Model),
		zap.String("audio_model", cfg.Gemini.AudioModel))

	return analysis.New(chat,
		analysis.WithAudioModel(audio),
		analysis.WithPersona(persona),
		analysis.WithLogger(logger.Named("analysis")),
	), nil
}

// buildModels returns the chat and audio models for g. The REST backend
// posts through tc directly; the SDK backend gets tc as its round tripper so
// both share the retry policy.
func buildModels(ctx context.Context, g config.GeminiConfig, tc *transport.Client) (chat, audio tranquility.Model, err error) {
	switch g.Backend {
	case config.BackendSDK:
		hc := &http.Client{
			Transport: tc.RoundTripper(http.DefaultTransport),
			Timeout:   g.Timeout,
		}
		newClient := func(model string) (*gemini.Client, error) {
			opts := []gemini.Option{gemini.WithModel(model), gemini.WithHTTPClient(hc)}
			if g.BaseURL != "" && g.BaseURL != gemini.DefaultBaseURL {
				opts = append(opts, gemini.WithBaseURL(g.BaseURL))
			}
			return gemini.New(ctx, g.APIKey, opts...)
		}
		c, err := newClient(g.Model)
		if err != nil {
			return nil, nil, err
		}
		a, err := newClient(g.AudioModel)
		if err != nil {
			return nil, nil, err
		}
		return c, a, nil

	case config.BackendREST:
		newClient := func(model string) *gemini.RESTClient {
			return gemini.NewREST(g.APIKey, tc, gemini.WithRESTBaseURL(g.BaseURL), gemini.WithRESTModel(model))
		}
		return newClient(g.Model), newClient(g.AudioModel), nil

	default:
		return nil, nil, fmt.Errorf("unknown backend %q: %w", g.Backend, tranquility.ErrValidation)
	}
}

// watchPersona returns a watcher that applies edits of the persona file to
// analyzer, or nil when there is no file to watch.
func watchPersona(cfg *config.Config, analyzer *analysis.Orchestrator, logger *zap.Logger) (*yaml.PersonaWatcher, error) {
	if cfg.PersonaFile == "" || !cfg.WatchPersona {
		return nil, nil
	}
	return yaml.WatchPersona(cfg.PersonaFile, analyzer.SetPersona, yaml.WithLogger(logger.Named("persona")))
}
