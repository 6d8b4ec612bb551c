// Package zapscan provides a scantool.Adapter backed by the OWASP ZAP JSON
// API. A scan runs the spider, then an active scan, then collects alerts.
package zapscan

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"scanorch/pkg/domain"
	"scanorch/pkg/logger"
	"scanorch/pkg/scantool"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

const (
	toolName = "zap"

	maxAlerts = 1000
)

// Config configures the ZAP client.
type Config struct {
	// BaseURL is the ZAP API root, for example http://localhost:8090.
	BaseURL string
	// APIKey is sent as X-ZAP-API-Key when set.
	APIKey string
	// PollInterval is the delay between progress checks.
	PollInterval time.Duration
	// RPS limits API calls per second. Zero disables limiting.
	RPS float64
}

// Client talks to a ZAP daemon. It is safe for concurrent use.
//
// The spider depth and replacer rules are global daemon state, so scans
// through one Client run one at a time.
type Client struct {
	httpClient *http.Client
	cfg        Config
	limiter    *rate.Limiter
	daemon     *semaphore.Weighted
}

var _ scantool.Adapter = (*Client)(nil)

// New constructs a Client.
func New(httpClient *http.Client, cfg Config) *Client {
	limit := rate.Inf
	if cfg.RPS > 0 {
		limit = rate.Limit(cfg.RPS)
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}

	return &Client{
		httpClient: httpClient,
		cfg:        cfg,
		limiter:    rate.NewLimiter(limit, 1),
		daemon:     semaphore.NewWeighted(1),
	}
}

func (c *Client) Name() string { return toolName }

// Scan spiders target, actively scans it and converts the resulting alerts
// into vulnerabilities. It waits for any scan already running on the daemon.
func (c *Client) Scan(ctx context.Context, target string, cfg domain.ScanConfig) (scantool.Output, error) {
	out := scantool.Output{Logs: []string{"Starting ZAP scan for URL: " + target}}

	if err := c.daemon.Acquire(ctx, 1); err != nil {
		return out, scantool.Fail(toolName, scantool.PhaseConnect, err)
	}
	defer c.daemon.Release(1)

	if cfg.Depth() > 0 {
		err := c.call(ctx, "spider/action/setOptionMaxDepth", url.Values{"Integer": {strconv.Itoa(cfg.Depth())}}, nil)
		if err != nil {
			return out, scantool.Fail(toolName, scantool.PhaseConnect, err)
		}
	}

	if header, ok := authHeader(cfg.Credential()); ok {
		scope, err := originPattern(target)
		if err != nil {
			return out, scantool.Fail(toolName, scantool.PhaseConnect, err)
		}
		rule := fmt.Sprintf("scanorch %s %s", cfg.TaskID(), uuid.NewString())
		err = c.call(ctx, "replacer/action/addRule", url.Values{
			"description": {rule},
			"enabled":     {"true"},
			"matchType":   {"REQ_HEADER"},
			"matchRegex":  {"false"},
			"matchString": {"Authorization"},
			"replacement": {header},
			"url":         {scope},
		}, nil)
		if err != nil {
			return out, scantool.Fail(toolName, scantool.PhaseConnect, err)
		}
		defer func() {
			// the rule must go even if ctx expired
			rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			if err := c.call(rctx, "replacer/action/removeRule", url.Values{"description": {rule}}, nil); err != nil {
				logger.Warn(ctx, "could not remove zap replacer rule", zap.String("target", target), zap.Error(err))
			}
		}()
		out.Logs = append(out.Logs, fmt.Sprintf("Authenticated scanning enabled (%s credential)", cfg.Credential().Kind()))
	}

	spiderID, err := c.start(ctx, "spider/action/scan", url.Values{"url": {target}, "recurse": {"true"}})
	if err != nil {
		return out, scantool.Fail(toolName, scantool.PhaseSubmit, err)
	}
	out.Logs = append(out.Logs, "Spider scan started with ID: "+spiderID)
	if err := c.await(ctx, "spider/view/status", spiderID, "Spider", &out); err != nil {
		return out, scantool.Fail(toolName, scantool.PhasePoll, err)
	}

	ascanID, err := c.start(ctx, "ascan/action/scan", url.Values{
		"url":         {target},
		"recurse":     {"true"},
		"inScopeOnly": {"false"},
	})
	if err != nil {
		return out, scantool.Fail(toolName, scantool.PhaseSubmit, err)
	}
	out.Logs = append(out.Logs, "Active scan started with ID: "+ascanID)
	if err := c.await(ctx, "ascan/view/status", ascanID, "Active scan", &out); err != nil {
		return out, scantool.Fail(toolName, scantool.PhasePoll, err)
	}

	vulns, err := c.alerts(ctx, target)
	if err != nil {
		return out, scantool.Fail(toolName, scantool.PhaseResults, err)
	}
	out.Vulnerabilities = vulns
	out.Logs = append(out.Logs,
		fmt.Sprintf("Found %d alerts", len(vulns)),
		"Completed ZAP scan for URL: "+target)

	return out, nil
}

func (c *Client) start(ctx context.Context, endpoint string, params url.Values) (string, error) {
	var resp struct {
		Scan string `json:"scan"`
	}
	if err := c.call(ctx, endpoint, params, &resp); err != nil {
		return "", err
	}
	if resp.Scan == "" {
		return "", fmt.Errorf("%s returned no scan id", endpoint)
	}

	return resp.Scan, nil
}

// await polls endpoint until the scan reports 100% progress. A log line is
// recorded whenever progress changes.
func (c *Client) await(ctx context.Context, endpoint, scanID, label string, out *scantool.Output) error {
	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	last := -1
	for {
		var resp struct {
			Status string `json:"status"`
		}
		if err := c.call(ctx, endpoint, url.Values{"scanId": {scanID}}, &resp); err != nil {
			return err
		}
		progress, err := strconv.Atoi(resp.Status)
		if err != nil {
			return fmt.Errorf("could not parse progress %q: %w", resp.Status, err)
		}
		if progress != last {
			out.Logs = append(out.Logs, fmt.Sprintf("%s progress: %d%%", label, progress))
			last = progress
		}
		if progress >= 100 {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

type alert struct {
	Alert       string `json:"alert"`
	Name        string `json:"name"`
	Risk        string `json:"risk"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Param       string `json:"param"`
}

func (c *Client) alerts(ctx context.Context, target string) ([]domain.Vulnerability, error) {
	var resp struct {
		Alerts []alert `json:"alerts"`
	}
	err := c.call(ctx, "core/view/alerts", url.Values{
		"baseurl": {target},
		"start":   {"0"},
		"count":   {strconv.Itoa(maxAlerts)},
	}, &resp)
	if err != nil {
		return nil, err
	}

	vulns := make([]domain.Vulnerability, 0, len(resp.Alerts))
	for _, a := range resp.Alerts {
		name := a.Alert
		if name == "" {
			name = a.Name
		}
		location := a.URL
		if a.Param != "" {
			location += " (" + a.Param + ")"
		}
		vulns = append(vulns, domain.Vulnerability{
			Type:        name,
			Severity:    riskToSeverity(a.Risk),
			Description: a.Description,
			Location:    location,
		})
	}

	return vulns, nil
}

func riskToSeverity(risk string) domain.Severity {
	switch strings.ToLower(risk) {
	case "high":
		return domain.SeverityHigh
	case "medium":
		return domain.SeverityMedium
	case "low":
		return domain.SeverityLow
	default:
		return domain.SeverityInfo
	}
}

// call performs GET {base}/JSON/{endpoint}/ and decodes the response into v
// when v is not nil.
func (c *Client) call(ctx context.Context, endpoint string, params url.Values, v any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	u := strings.TrimRight(c.cfg.BaseURL, "/") + "/JSON/" + endpoint + "/?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("X-ZAP-API-Key", c.cfg.APIKey)
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
		return fmt.Errorf("%s failed with status %d: %s", endpoint, resp.StatusCode, strings.TrimSpace(string(b)))
	}
	if v == nil {
		return nil
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("could not decode response: %w", err)
	}

	return nil
}

// originPattern returns a regex matching every URL on target's origin and
// nothing else.
func originPattern(target string) (string, error) {
	u, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("could not parse target: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("target %q has no origin", target)
	}

	return "^" + regexp.QuoteMeta(u.Scheme+"://"+u.Host) + "([/?#].*)?$", nil
}

func authHeader(cred domain.Credential) (string, bool) {
	switch c := cred.(type) {
	case domain.JWTCredential:
		return "Bearer " + c.Token, true
	case domain.BasicCredential:
		return "Basic " + base64.StdEncoding.EncodeToString([]byte(c.Username+":"+c.Password)), true
	default:
		return "", false
	}
}
