// Package ftpprobe provides a scantool.Adapter that inspects FTP servers
// directly: transport security, anonymous access and exposed listings.
package ftpprobe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/textproto"
	"net/url"
	"path"
	"time"

	"scanorch/pkg/domain"
	"scanorch/pkg/scantool"

	"github.com/jlaffaye/ftp"
)

const (
	toolName = "ftp-probe"

	defaultPort = "21"
	maxEntries  = 500
)

// Session is the subset of *ftp.ServerConn used by the probe.
type Session interface {
	Login(user, password string) error
	List(path string) ([]*ftp.Entry, error)
	Quit() error
}

// Dialer opens a Session to addr (host:port).
type Dialer func(ctx context.Context, addr string) (Session, error)

// Config configures the Probe.
type Config struct {
	DialTimeout time.Duration
}

// Probe implements scantool.Adapter for ftp:// targets.
type Probe struct {
	dial Dialer
}

var _ scantool.Adapter = (*Probe)(nil)

// New returns a Probe dialing real servers with jlaffaye/ftp.
func New(cfg Config) *Probe {
	return NewWithDialer(func(ctx context.Context, addr string) (Session, error) {
		opts := []ftp.DialOption{ftp.DialWithContext(ctx)}
		if cfg.DialTimeout > 0 {
			opts = append(opts, ftp.DialWithTimeout(cfg.DialTimeout))
		}

		return ftp.Dial(addr, opts...)
	})
}

// NewWithDialer returns a Probe using dial to open sessions.
func NewWithDialer(dial Dialer) *Probe {
	return &Probe{dial: dial}
}

func (p *Probe) Name() string { return toolName }

// Scan connects to target, reports cleartext transport, tries to log in
// (with the task credential when it is a BasicCredential, anonymously
// otherwise) and lists directories up to the configured depth.
func (p *Probe) Scan(ctx context.Context, target string, cfg domain.ScanConfig) (scantool.Output, error) {
	out := scantool.Output{Logs: []string{"Starting FTP probe for URL: " + target}}

	u, err := url.Parse(target)
	if err != nil {
		return out, scantool.Fail(toolName, scantool.PhaseConnect, fmt.Errorf("could not parse url: %w", err))
	}
	addr := u.Host
	if u.Port() == "" {
		addr = net.JoinHostPort(u.Hostname(), defaultPort)
	}

	sess, err := p.dial(ctx, addr)
	if err != nil {
		return out, scantool.Fail(toolName, scantool.PhaseConnect, err)
	}
	defer func() {
		_ = sess.Quit()
	}()
	out.Logs = append(out.Logs, "Connected to "+addr)
	out.Vulnerabilities = append(out.Vulnerabilities, domain.Vulnerability{
		Type:        "Cleartext FTP",
		Severity:    domain.SeverityMedium,
		Description: "Server accepts FTP connections without TLS; credentials and data travel in cleartext.",
		Location:    target,
	})

	user, password, anonymous := "anonymous", "anonymous", true
	if basic, ok := cfg.Credential().(domain.BasicCredential); ok {
		user, password, anonymous = basic.Username, basic.Password, false
	}

	if err := sess.Login(user, password); err != nil {
		var tpErr *textproto.Error
		if errors.As(err, &tpErr) && tpErr.Code == ftp.StatusNotLoggedIn {
			out.Logs = append(out.Logs, fmt.Sprintf("Login as %q denied", user), "Completed FTP probe for URL: "+target)

			return out, nil
		}

		return out, scantool.Fail(toolName, scantool.PhaseSubmit, fmt.Errorf("could not login: %w", err))
	}
	out.Logs = append(out.Logs, fmt.Sprintf("Logged in as %q", user))
	if anonymous {
		out.Vulnerabilities = append(out.Vulnerabilities, domain.Vulnerability{
			Type:        "Anonymous FTP Access",
			Severity:    domain.SeverityHigh,
			Description: "Server allows anonymous login.",
			Location:    target,
		})
	}

	root := u.Path
	if root == "" {
		root = "/"
	}
	files, err := p.walk(ctx, sess, root, max(cfg.Depth(), 1), &out)
	if err != nil {
		return out, scantool.Fail(toolName, scantool.PhaseResults, err)
	}
	if anonymous && files > 0 {
		out.Vulnerabilities = append(out.Vulnerabilities, domain.Vulnerability{
			Type:        "Exposed FTP Listing",
			Severity:    domain.SeverityLow,
			Description: fmt.Sprintf("%d files are readable without authentication.", files),
			Location:    target,
		})
	}
	out.Logs = append(out.Logs, "Completed FTP probe for URL: "+target)

	return out, nil
}

// walk lists directories breadth first down to depth levels and returns the
// number of files seen.
func (p *Probe) walk(ctx context.Context, sess Session, root string, depth int, out *scantool.Output) (int, error) {
	files, seen := 0, 0
	level := []string{root}
	for d := 0; d < depth && len(level) > 0; d++ {
		var next []string
		for _, dir := range level {
			if err := ctx.Err(); err != nil {
				return files, err
			}

			entries, err := sess.List(dir)
			if err != nil {
				return files, fmt.Errorf("could not list %s: %w", dir, err)
			}
			out.Logs = append(out.Logs, fmt.Sprintf("Listed %s: %d entries", dir, len(entries)))

			for _, e := range entries {
				if seen++; seen > maxEntries {
					out.Logs = append(out.Logs, fmt.Sprintf("Listing truncated after %d entries", maxEntries))

					return files, nil
				}
				switch e.Type {
				case ftp.EntryTypeFolder:
					if e.Name != "." && e.Name != ".." {
						next = append(next, path.Join(dir, e.Name))
					}
				case ftp.EntryTypeFile:
					files++
				case ftp.EntryTypeLink:
				}
			}
		}
		level = next
	}

	return files, nil
}
