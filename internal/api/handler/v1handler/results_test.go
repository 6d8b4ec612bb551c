package v1handler_test

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"scanorch/internal/orchestrator"
	"scanorch/pkg/domain"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestSubmitResult(t *testing.T) {
	srv, orch := newTestServer(t)

	var result *domain.ScanResult
	orch.EXPECT().StoreResult(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ any, got *domain.ScanResult) (domain.ResultResponse, error) {
			result = got

			return domain.ResultResponse{
				Status:     domain.ResultStatusStored,
				ResultID:   got.ID,
				ScanTaskID: got.ScanTaskID,
				Summary:    "stored",
			}, nil
		})

	status, body := doJSON(t, http.MethodPost, srv.URL+"/v1/results", `{
		"resultId": "r-1",
		"scanTaskId": "task-1",
		"timestamp": "2025-09-01T14:00:00+02:00",
		"vulnerabilities": [
			{"type": "SQL Injection", "severity": "critical", "description": "id param", "location": "https://a.test/?id=1"},
			{"type": "Weird", "severity": "SPICY", "cvss": 9.1}
		],
		"executionLogs": ["external scan"]
	}`)
	require.Equal(t, http.StatusCreated, status)
	require.Equal(t, map[string]any{
		"status":     "STORED",
		"resultId":   "r-1",
		"scanTaskId": "task-1",
		"summary":    "stored",
	}, body)

	require.Equal(t, domain.ResultID("r-1"), result.ID)
	require.Equal(t, domain.TaskID("task-1"), result.ScanTaskID)
	require.True(t, result.Timestamp.Equal(time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)))
	require.Equal(t, []domain.Vulnerability{
		{Type: "SQL Injection", Severity: domain.SeverityCritical, Description: "id param", Location: "https://a.test/?id=1"},
		{Type: "Weird", Severity: "SPICY"},
	}, result.Vulnerabilities)
	require.Equal(t, []string{"external scan"}, result.ExecutionLogs)
}

func TestSubmitResult_Invalid(t *testing.T) {
	srv, orch := newTestServer(t)

	orch.EXPECT().StoreResult(gomock.Any(), gomock.Any()).Return(domain.ResultResponse{
		Status:  domain.ResultStatusInvalid,
		Summary: "scan task id is required",
	}, nil)

	status, body := doJSON(t, http.MethodPost, srv.URL+"/v1/results", `{}`)
	require.Equal(t, http.StatusUnprocessableEntity, status)
	require.Equal(t, "INVALID", body["status"])
}

func TestSubmitResult_StoreError(t *testing.T) {
	srv, orch := newTestServer(t)

	orch.EXPECT().StoreResult(gomock.Any(), gomock.Any()).Return(
		domain.ResultResponse{Status: domain.ResultStatusError},
		&orchestrator.PersistenceError{Op: "save result", Err: errors.New("disk full")})

	status, _ := doJSON(t, http.MethodPost, srv.URL+"/v1/results", `{"resultId":"r-1"}`)
	require.Equal(t, http.StatusInternalServerError, status)
}

func TestSubmitResult_Malformed(t *testing.T) {
	srv, _ := newTestServer(t)

	status, _ := doJSON(t, http.MethodPost, srv.URL+"/v1/results", `{"vulnerabilities":[{"type":1}]}`)
	require.Equal(t, http.StatusBadRequest, status)
}
