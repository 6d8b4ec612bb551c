// Package api configures and exposes the HTTP server, routes,
// metrics, docs and related middleware for the scan orchestration service.
package api

import (
	_ "embed"
	"fmt"
	"net/http"
	"time"

	"scanorch/internal/api/handler/v1handler"
	"scanorch/internal/config"
	"scanorch/pkg/controller"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/swaggest/swgui/v5emb"
)

// v1Spec is served at /specs/v1.yaml and rendered by the docs UI.
//
//go:embed specs/v1.yaml
var v1Spec []byte

// Options configures the API server. Zero durations fall back to net/http
// defaults, except RequestTimeout which must be set.
type Options struct {
	SecHandlerOptions *v1handler.SecHandlerOptions

	Addr              string
	ReadTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	// WriteTimeout also bounds synchronous task runs, so it should exceed
	// the orchestrator deadline when /v1/tasks/run is used.
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	// RequestTimeout caps every route except POST /v1/tasks/run.
	RequestTimeout time.Duration
	MaxHeaderBytes int
	MetricsPath    string

	CORS  controller.CORSOptions
	Pprof bool
}

// NewOptions maps the http and auth sections of cfg.
func NewOptions(cfg *config.Config) Options {
	return Options{
		SecHandlerOptions: v1handler.NewSecHandlerOptions(cfg),

		Addr:              cfg.HTTP.Addr,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
		RequestTimeout:    cfg.HTTP.RequestTimeout,
		MaxHeaderBytes:    cfg.HTTP.MaxHeaderBytes,
		MetricsPath:       cfg.HTTP.MetricsPath,
		CORS:              controller.CORSOptions{AllowedOrigins: cfg.HTTP.AllowedOrigins},
		Pprof:             cfg.HTTP.Pprof,
	}
}

// Deps are the services behind the API.
type Deps struct {
	v1handler.Deps
}

const timeoutBody = `{"code":"TIMEOUT","message":"request timed out"}`

// NewServer builds the API server: Prometheus metrics at MetricsPath, the
// OpenAPI document with its Swagger UI, the v1 routes behind bearer auth and,
// when enabled, pprof. Every request passes through the access log and CORS
// middlewares.
func NewServer(deps Deps, opts Options) (*http.Server, error) {
	mux := http.NewServeMux()

	// prometheus metrics server, otel metrics are bridged into the default registry
	mux.Handle(opts.MetricsPath, promhttp.Handler())

	// v1 specs file
	mux.HandleFunc("GET /specs/v1.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(v1Spec)
	})
	// v1 api swagger playground
	mux.Handle("/v1/docs/", v5emb.New(
		"Scan Orchestration Service",
		"/specs/v1.yaml",
		"/v1/docs/",
	))

	// v1 api
	secHandler, err := v1handler.NewSecHandler(opts.SecHandlerOptions)
	if err != nil {
		return nil, fmt.Errorf("could not create sec handler: %w", err)
	}
	v1handler.New(deps.Deps).Register(mux, secHandler)

	if opts.Pprof {
		mux.Handle(controller.PprofPrefix, controller.Pprof())
	}

	// synchronous runs outlive the request timeout
	timed := http.TimeoutHandler(mux, opts.RequestTimeout, timeoutBody)
	root := http.NewServeMux()
	root.Handle("/", timed)
	root.Handle("POST /v1/tasks/run", mux)

	accessLog, err := controller.NewAccessLog()
	if err != nil {
		return nil, fmt.Errorf("could not create access log: %w", err)
	}
	handler := controller.WithCORS(opts.CORS)(root)
	handler = accessLog.Middleware(handler)

	return &http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadTimeout:       opts.ReadTimeout,
		ReadHeaderTimeout: opts.ReadHeaderTimeout,
		WriteTimeout:      opts.WriteTimeout,
		IdleTimeout:       opts.IdleTimeout,
		MaxHeaderBytes:    opts.MaxHeaderBytes,
	}, nil
}
