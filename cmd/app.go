package main

import (
	"context"
	"fmt"
	"net/http"

	"scanorch/internal/config"
	"scanorch/internal/orchestrator"
	"scanorch/pkg/archive"
	"scanorch/pkg/authz"
	"scanorch/pkg/authz/local"
	"scanorch/pkg/authz/remote"
	"scanorch/pkg/domain"
	"scanorch/pkg/logger"
	"scanorch/pkg/scantool"
	"scanorch/pkg/scantool/burp"
	"scanorch/pkg/scantool/ftpprobe"
	"scanorch/pkg/scantool/zapscan"
	"scanorch/pkg/storage"

	"go.uber.org/zap"
)

const (
	authModeLocal  = "local"
	authModeRemote = "remote"
)

// newAuthorizer builds the credential authorizer selected by cfg.Auth.Mode.
func newAuthorizer(cfg *config.Config) (authz.Authorizer, error) {
	switch cfg.Auth.Mode {
	case authModeLocal:
		var verifier *local.JWTVerifier
		if cfg.Auth.JWT.PublicKey != "" {
			v, err := local.NewJWTVerifier(cfg.Auth.JWT.PublicKey, cfg.Auth.JWT.Issuer)
			if err != nil {
				return nil, err //nolint: wrapcheck
			}
			verifier = v
		}

		a, err := local.New(local.Options{JWT: verifier, BasicUsers: cfg.Auth.BasicUsers})
		if err != nil {
			return nil, err //nolint: wrapcheck
		}

		return a, nil
	case authModeRemote:
		if cfg.Auth.Remote.URL == "" {
			return nil, fmt.Errorf("remote auth mode requires auth.remote.url")
		}

		return remote.New(&http.Client{Timeout: cfg.Auth.Remote.Timeout}, cfg.Auth.Remote.URL), nil
	default:
		return nil, fmt.Errorf("unknown auth mode %q", cfg.Auth.Mode)
	}
}

// newRegistry registers the enabled scanning tools. HTTP and HTTPS targets
// run through ZAP, then Burp.
func newRegistry(ctx context.Context, cfg *config.Config) *scantool.Registry {
	httpClient := &http.Client{Timeout: cfg.Scanners.HTTPTimeout}
	sc := cfg.Scanners

	var web []scantool.Adapter
	if sc.ZAP.Enabled {
		web = append(web, zapscan.New(httpClient, zapscan.Config{
			BaseURL:      sc.ZAP.BaseURL,
			APIKey:       sc.ZAP.APIKey,
			PollInterval: sc.ZAP.PollInterval,
			RPS:          sc.ZAP.RPS,
		}))
	}
	if sc.Burp.Enabled {
		web = append(web, burp.New(httpClient, burp.Config{
			BaseURL:      sc.Burp.BaseURL,
			APIKey:       sc.Burp.APIKey,
			PollInterval: sc.Burp.PollInterval,
			RPS:          sc.Burp.RPS,
		}))
	}

	registry := scantool.NewRegistry()
	if chain := scantool.NewChain(web...); chain.Len() > 0 {
		registry.Register(domain.ProtocolHTTP, chain)
		registry.Register(domain.ProtocolHTTPS, chain)
	}
	if sc.FTP.Enabled {
		registry.Register(domain.ProtocolFTP, ftpprobe.New(ftpprobe.Config{DialTimeout: sc.FTP.DialTimeout}))
	}

	logger.Info(ctx, "scanning tools registered", zap.Any("protocols", registry.Protocols()))

	return registry
}

// newArchive returns nil when no archive endpoint is configured.
func newArchive(ctx context.Context, cfg *config.Config) (orchestrator.Archiver, error) {
	if cfg.Archive.Endpoint == "" {
		return nil, nil //nolint: nilnil
	}

	a, err := archive.New(archive.Options{
		Endpoint:  cfg.Archive.Endpoint,
		AccessKey: cfg.Archive.AccessKey,
		SecretKey: cfg.Archive.SecretKey,
		Bucket:    cfg.Archive.Bucket,
		UseSSL:    cfg.Archive.UseSSL,
	})
	if err != nil {
		return nil, err //nolint: wrapcheck
	}
	if err := a.EnsureBucket(ctx); err != nil {
		return nil, err //nolint: wrapcheck
	}

	return a, nil
}

// newOrchestrator wires validation, authorization, the scanning tools and
// storage into an Orchestrator.
func newOrchestrator(ctx context.Context, cfg *config.Config, st storage.Storage) (orchestrator.Orchestrator, error) {
	authorizer, err := newAuthorizer(cfg)
	if err != nil {
		return nil, fmt.Errorf("could not create authorizer: %w", err)
	}

	archiver, err := newArchive(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("could not create result archive: %w", err)
	}

	validator := orchestrator.NewValidator(orchestrator.WithStartTimeTolerance(cfg.Orchestrator.StartTimeTolerance))
	dispatcher, err := orchestrator.NewDispatcher(
		orchestrator.Options{
			PoolSize: cfg.Orchestrator.PoolSize,
			Deadline: cfg.Orchestrator.Deadline,
		},
		validator,
		orchestrator.NewGate(authorizer),
		newRegistry(ctx, cfg),
		orchestrator.NewAggregator(),
	)
	if err != nil {
		return nil, fmt.Errorf("could not create dispatcher: %w", err)
	}

	return orchestrator.New(dispatcher, validator, st, orchestrator.ServiceOptions{
		MaxAttempts: cfg.Worker.MaxAttempts,
		Archiver:    archiver,
	}), nil
}
