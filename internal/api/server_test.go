package api_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"scanorch/internal/api"
	"scanorch/internal/api/handler/v1handler"

	"github.com/stretchr/testify/require"
)

func TestNewServer_Routes(t *testing.T) {
	srv, err := api.NewServer(api.Deps{}, api.Options{
		SecHandlerOptions: &v1handler.SecHandlerOptions{},
		RequestTimeout:    time.Second,
		MetricsPath:       "/metrics",
	})
	require.NoError(t, err)

	tests := []struct {
		path        string
		status      int
		contentType string
	}{
		{path: "/specs/v1.yaml", status: http.StatusOK, contentType: "application/yaml"},
		{path: "/v1/health", status: http.StatusOK, contentType: "application/json"},
		{path: "/metrics", status: http.StatusOK},
		{path: "/nope", status: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			require.Equal(t, tt.status, rec.Code)
			if tt.contentType != "" {
				require.Equal(t, tt.contentType, rec.Header().Get("Content-Type"))
			}
		})
	}
}

func TestNewServer_Pprof(t *testing.T) {
	for _, enabled := range []bool{false, true} {
		srv, err := api.NewServer(api.Deps{}, api.Options{
			SecHandlerOptions: &v1handler.SecHandlerOptions{},
			RequestTimeout:    time.Second,
			MetricsPath:       "/metrics",
			Pprof:             enabled,
		})
		require.NoError(t, err)

		rec := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/pprof/cmdline", nil))

		if enabled {
			require.Equal(t, http.StatusOK, rec.Code)
		} else {
			require.Equal(t, http.StatusNotFound, rec.Code)
		}
		require.NotEmpty(t, rec.Header().Get("X-Request-Id"))
	}
}
