// Package burp provides a scantool.Adapter backed by a Burp Suite REST API.
package burp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"scanorch/pkg/domain"
	"scanorch/pkg/scantool"

	"golang.org/x/time/rate"
)

const toolName = "burp"

// Config configures the Burp client.
type Config struct {
	// BaseURL is the API root including the version, for example
	// http://localhost:1337/v1.
	BaseURL      string
	APIKey       string
	PollInterval time.Duration
	// RPS limits API calls per second. Zero disables limiting.
	RPS float64
}

// Client talks to the Burp REST API. It is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	cfg        Config
	limiter    *rate.Limiter
}

var _ scantool.Adapter = (*Client)(nil)

// New constructs a Client.
func New(httpClient *http.Client, cfg Config) *Client {
	limit := rate.Inf
	if cfg.RPS > 0 {
		limit = rate.Limit(cfg.RPS)
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}

	return &Client{httpClient: httpClient, cfg: cfg, limiter: rate.NewLimiter(limit, 1)}
}

func (c *Client) Name() string { return toolName }

type login struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type scanRequest struct {
	URL               string            `json:"url"`
	Scope             string            `json:"scope"`
	MaxDepth          int               `json:"max_depth,omitempty"`
	ApplicationLogins []login           `json:"application_logins,omitempty"`
	Headers           map[string]string `json:"headers,omitempty"`
	Labels            map[string]string `json:"labels,omitempty"`
}

type issue struct {
	Type        string `json:"type"`
	Name        string `json:"name"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
	Location    string `json:"location"`
	Path        string `json:"path"`
}

// Scan starts a Burp scan of target, waits for it to finish and returns its
// issues as vulnerabilities.
func (c *Client) Scan(ctx context.Context, target string, cfg domain.ScanConfig) (scantool.Output, error) {
	out := scantool.Output{Logs: []string{"Starting Burp Suite scan for URL: " + target}}

	body := scanRequest{
		URL:      target,
		Scope:    "strict",
		MaxDepth: cfg.Depth(),
		Labels:   cfg.Labels(),
	}
	switch cred := cfg.Credential().(type) {
	case domain.BasicCredential:
		body.ApplicationLogins = []login{{Username: cred.Username, Password: cred.Password}}
	case domain.JWTCredential:
		body.Headers = map[string]string{"Authorization": "Bearer " + cred.Token}
	}

	var started struct {
		ScanID string `json:"scan_id"`
	}
	if err := c.do(ctx, http.MethodPost, "scan", body, &started); err != nil {
		return out, scantool.Fail(toolName, scantool.PhaseSubmit, err)
	}
	if started.ScanID == "" {
		return out, scantool.Fail(toolName, scantool.PhaseSubmit, fmt.Errorf("no scan id returned"))
	}
	out.Logs = append(out.Logs, "Scan started with ID: "+started.ScanID)

	if err := c.await(ctx, started.ScanID, &out); err != nil {
		return out, scantool.Fail(toolName, scantool.PhasePoll, err)
	}

	var issues []issue
	if err := c.do(ctx, http.MethodGet, "scan/"+started.ScanID+"/results", nil, &issues); err != nil {
		return out, scantool.Fail(toolName, scantool.PhaseResults, err)
	}
	for _, is := range issues {
		out.Vulnerabilities = append(out.Vulnerabilities, is.toDomain())
	}
	out.Logs = append(out.Logs,
		fmt.Sprintf("Found %d issues", len(issues)),
		"Completed Burp Suite scan for URL: "+target)

	return out, nil
}

func (c *Client) await(ctx context.Context, scanID string, out *scantool.Output) error {
	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	last := -1
	for {
		var status struct {
			Progress int `json:"progress"`
		}
		if err := c.do(ctx, http.MethodGet, "scan/"+scanID+"/status", nil, &status); err != nil {
			return err
		}
		if status.Progress != last {
			out.Logs = append(out.Logs, fmt.Sprintf("Scan progress: %d%%", status.Progress))
			last = status.Progress
		}
		if status.Progress >= 100 {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (i issue) toDomain() domain.Vulnerability {
	name := i.Type
	if name == "" {
		name = i.Name
	}
	location := i.Location
	if location == "" {
		location = i.Path
	}

	severity, err := domain.ParseSeverity(i.Severity)
	if err != nil {
		// Burp reports "information" for informational issues
		severity = domain.SeverityInfo
	}

	return domain.Vulnerability{
		Type:        name,
		Severity:    severity,
		Description: i.Description,
		Location:    location,
	}
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var reader io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("could not marshal request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(c.cfg.BaseURL, "/")+"/"+path, reader)
	if err != nil {
		return fmt.Errorf("could not create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("could not send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("could not read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s failed with status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(b)))
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("could not decode response: %w", err)
	}

	return nil
}
