package zapscan_test

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync"
	"testing"
	"time"

	"scanorch/pkg/domain"
	"scanorch/pkg/scantool"
	"scanorch/pkg/scantool/zapscan"

	"github.com/stretchr/testify/require"
)

type fakeZAP struct {
	mu          sync.Mutex
	spiderPolls int
	ascanPolls  int
	depth       int
	rules       map[string]string
	scopes      map[string]string
	maxRules    int
	added       []string
	addedScopes []string
	spiders     []spiderRun
	calls       []string
}

// spiderRun is the daemon state observed when a spider started.
type spiderRun struct {
	url     string
	depth   int
	headers []string
}

func (f *fakeZAP) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, r.URL.Path)
	if r.Header.Get("X-ZAP-API-Key") != "secret" {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"code":"bad_api_key"}`))

		return
	}

	q := r.URL.Query()
	switch r.URL.Path {
	case "/JSON/spider/action/setOptionMaxDepth/":
		_, _ = fmt.Sscan(q.Get("Integer"), &f.depth)
		_, _ = w.Write([]byte(`{"Result":"OK"}`))
	case "/JSON/replacer/action/addRule/":
		if _, dup := f.rules[q.Get("description")]; dup {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"code":"already_exists"}`))

			return
		}
		f.rules[q.Get("description")] = q.Get("replacement")
		f.scopes[q.Get("description")] = q.Get("url")
		f.added = append(f.added, q.Get("description"))
		f.addedScopes = append(f.addedScopes, q.Get("url"))
		f.maxRules = max(f.maxRules, len(f.rules))
		_, _ = w.Write([]byte(`{"Result":"OK"}`))
	case "/JSON/replacer/action/removeRule/":
		delete(f.rules, q.Get("description"))
		delete(f.scopes, q.Get("description"))
		_, _ = w.Write([]byte(`{"Result":"OK"}`))
	case "/JSON/spider/action/scan/":
		run := spiderRun{url: q.Get("url"), depth: f.depth}
		for desc, replacement := range f.rules {
			// a rule without a url scope applies to every request
			if scope := f.scopes[desc]; scope == "" || regexp.MustCompile(scope).MatchString(run.url) {
				run.headers = append(run.headers, replacement)
			}
		}
		f.spiders = append(f.spiders, run)
		_, _ = w.Write([]byte(`{"scan":"1"}`))
	case "/JSON/spider/view/status/":
		f.spiderPolls++
		_, _ = fmt.Fprintf(w, `{"status":"%d"}`, min(f.spiderPolls*50, 100))
	case "/JSON/ascan/action/scan/":
		_, _ = w.Write([]byte(`{"scan":"7"}`))
	case "/JSON/ascan/view/status/":
		f.ascanPolls++
		_, _ = w.Write([]byte(`{"status":"100"}`))
	case "/JSON/core/view/alerts/":
		_, _ = w.Write([]byte(`{"alerts":[
			{"alert":"Cross Site Scripting (Reflected)","risk":"High","description":"xss","url":"https://a.test/q","param":"q"},
			{"alert":"X-Content-Type-Options Header Missing","risk":"Low","url":"https://a.test/"},
			{"name":"Timestamp Disclosure","risk":"Informational","url":"https://a.test/"}
		]}`))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newFake() *fakeZAP { return &fakeZAP{rules: map[string]string{}, scopes: map[string]string{}} }

func TestClient_Scan(t *testing.T) {
	fake := newFake()
	srv := httptest.NewServer(fake)
	defer srv.Close()

	c := zapscan.New(srv.Client(), zapscan.Config{BaseURL: srv.URL, APIKey: "secret", PollInterval: time.Millisecond})
	require.Equal(t, "zap", c.Name())

	cfg := domain.NewScanConfigBuilder().
		Depth(3).
		Credential(domain.JWTCredential{Token: "tok"}).
		Build()
	out, err := c.Scan(context.Background(), "https://a.test", cfg)
	require.NoError(t, err)

	require.Len(t, out.Vulnerabilities, 3)
	require.Equal(t, domain.Vulnerability{
		Type:        "Cross Site Scripting (Reflected)",
		Severity:    domain.SeverityHigh,
		Description: "xss",
		Location:    "https://a.test/q (q)",
	}, out.Vulnerabilities[0])
	require.Equal(t, domain.SeverityLow, out.Vulnerabilities[1].Severity)
	require.Equal(t, "Timestamp Disclosure", out.Vulnerabilities[2].Type)
	require.Equal(t, domain.SeverityInfo, out.Vulnerabilities[2].Severity)

	require.Equal(t, "Starting ZAP scan for URL: https://a.test", out.Logs[0])
	require.Contains(t, out.Logs, "Spider progress: 50%")
	require.Contains(t, out.Logs, "Spider progress: 100%")
	require.Contains(t, out.Logs, "Active scan started with ID: 7")
	require.Equal(t, "Completed ZAP scan for URL: https://a.test", out.Logs[len(out.Logs)-1])

	fake.mu.Lock()
	defer fake.mu.Unlock()
	require.Empty(t, fake.rules, "auth rule must be removed after the scan")
	require.Contains(t, fake.calls, "/JSON/replacer/action/addRule/")
}

func TestClient_Scan_concurrentTasks(t *testing.T) {
	fake := newFake()
	srv := httptest.NewServer(fake)
	defer srv.Close()

	c := zapscan.New(srv.Client(), zapscan.Config{BaseURL: srv.URL, APIKey: "secret", PollInterval: time.Millisecond})

	basic := "Basic " + base64.StdEncoding.EncodeToString([]byte("alice:pw"))
	scans := map[string]struct {
		cfg    domain.ScanConfig
		header string
	}{
		"https://a.test": {
			cfg: domain.NewScanConfigBuilder().TaskID("task-a").Depth(2).
				Credential(domain.JWTCredential{Token: "tok-a"}).Build(),
			header: "Bearer tok-a",
		},
		"https://b.test:8443": {
			cfg: domain.NewScanConfigBuilder().TaskID("task-b").Depth(7).
				Credential(domain.BasicCredential{Username: "alice", Password: "pw"}).Build(),
			header: basic,
		},
	}

	var wg sync.WaitGroup
	errs := make(chan error, len(scans))
	for target, sc := range scans {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Scan(context.Background(), target, sc.cfg)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	fake.mu.Lock()
	defer fake.mu.Unlock()

	require.Empty(t, fake.rules)
	require.Equal(t, 1, fake.maxRules, "rules of different scans must never be active together")
	require.Len(t, fake.added, 2)
	require.NotEqual(t, fake.added[0], fake.added[1])

	require.Len(t, fake.spiders, 2)
	for _, run := range fake.spiders {
		want, ok := scans[run.url]
		require.True(t, ok, run.url)
		require.Equal(t, want.cfg.Depth(), run.depth, run.url)
		require.Equal(t, []string{want.header}, run.headers, run.url)
	}
}

func TestClient_Scan_ruleScopedToTargetOrigin(t *testing.T) {
	fake := newFake()
	srv := httptest.NewServer(fake)
	defer srv.Close()

	c := zapscan.New(srv.Client(), zapscan.Config{BaseURL: srv.URL, APIKey: "secret", PollInterval: time.Millisecond})

	cfg := domain.NewScanConfigBuilder().TaskID("task-1").Credential(domain.JWTCredential{Token: "tok"}).Build()
	_, err := c.Scan(context.Background(), "https://a.test/app?x=1", cfg)
	require.NoError(t, err)

	fake.mu.Lock()
	defer fake.mu.Unlock()

	require.Len(t, fake.added, 1)
	require.Contains(t, fake.added[0], "task-1")
	require.Len(t, fake.spiders, 1)
	require.Equal(t, []string{"Bearer tok"}, fake.spiders[0].headers)

	require.NotEmpty(t, fake.addedScopes[0])
	re := regexp.MustCompile(fake.addedScopes[0])
	for _, u := range []string{"https://a.test", "https://a.test/", "https://a.test/login?next=/", "https://a.test#top"} {
		require.True(t, re.MatchString(u), u)
	}
	for _, u := range []string{"https://a.test.evil.com/", "http://a.test/", "https://a.test:8443/", "https://evil.com/?u=https://a.test"} {
		require.False(t, re.MatchString(u), u)
	}
}

func TestClient_Scan_failures(t *testing.T) {
	t.Run("bad api key fails in connect phase", func(t *testing.T) {
		srv := httptest.NewServer(newFake())
		defer srv.Close()

		c := zapscan.New(srv.Client(), zapscan.Config{BaseURL: srv.URL, APIKey: "wrong"})
		out, err := c.Scan(context.Background(), "https://a.test", domain.NewScanConfigBuilder().Depth(1).Build())
		require.Error(t, err)

		var execErr *scantool.ExecutionError
		require.True(t, errors.As(err, &execErr))
		require.Equal(t, "zap", execErr.Tool)
		require.Equal(t, scantool.PhaseConnect, execErr.Phase)
		require.Len(t, out.Logs, 1)
	})

	t.Run("cancelled while polling", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/JSON/spider/action/scan/":
				_, _ = w.Write([]byte(`{"scan":"1"}`))
			default:
				_, _ = w.Write([]byte(`{"status":"10"}`))
			}
		}))
		defer srv.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		c := zapscan.New(srv.Client(), zapscan.Config{BaseURL: srv.URL, PollInterval: 5 * time.Millisecond})
		_, err := c.Scan(ctx, "https://a.test", domain.NewScanConfigBuilder().Build())

		var execErr *scantool.ExecutionError
		require.ErrorAs(t, err, &execErr)
		require.Equal(t, scantool.PhasePoll, execErr.Phase)
		require.ErrorIs(t, err, context.DeadlineExceeded)
	})
}
