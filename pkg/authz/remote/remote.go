// Package remote delegates credential checks to an external authorization
// service over HTTP.
//
// The service receives
//
//	POST <url>
//	{"taskId":"...","targets":["..."],"credential":{"type":"JWT","token":"..."}}
//
// and answers {"authorized":true|false}.
package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"scanorch/pkg/authz"
	"scanorch/pkg/domain"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
)

// Client implements authz.Authorizer against a remote service.
type Client struct {
	httpClient *http.Client
	url        string
}

var _ authz.Authorizer = (*Client)(nil)

// New returns a Client posting to url. Request timeouts come from httpClient.
func New(httpClient *http.Client, url string) *Client {
	return &Client{httpClient: httpClient, url: url}
}

func (c *Client) Authorize(ctx context.Context, task *domain.ScanTask) (bool, error) {
	body := encodeRequest(task)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return false, errors.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, errors.Wrap(err, "send request")
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, errors.Wrap(err, "read response body")
	}
	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return false, nil
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return false, errors.Errorf("authorization service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	ok, err := decodeResponse(b)
	if err != nil {
		return false, fmt.Errorf("could not decode authorization response: %w", err)
	}

	return ok, nil
}

func encodeRequest(task *domain.ScanTask) []byte {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	env := domain.EnvelopeOf(task.Credential)
	e.Obj(func(e *jx.Encoder) {
		e.Field("taskId", func(e *jx.Encoder) { e.Str(string(task.ID)) })
		e.Field("targets", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, u := range task.TargetURLs {
					e.Str(u)
				}
			})
		})
		e.Field("credential", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				e.Field("type", func(e *jx.Encoder) { e.Str(env.Type) })
				if env.Token != "" {
					e.Field("token", func(e *jx.Encoder) { e.Str(env.Token) })
				}
				if env.Username != "" {
					e.Field("username", func(e *jx.Encoder) { e.Str(env.Username) })
					e.Field("password", func(e *jx.Encoder) { e.Str(env.Password) })
				}
			})
		})
	})

	return bytes.Clone(e.Bytes())
}

func decodeResponse(b []byte) (bool, error) {
	var (
		authorized bool
		found      bool
	)
	d := jx.DecodeBytes(b)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		if key != "authorized" {
			return d.Skip()
		}
		v, err := d.Bool()
		if err != nil {
			return errors.Wrap(err, "authorized")
		}
		authorized, found = v, true

		return nil
	})
	if err != nil {
		return false, err
	}
	if !found {
		return false, errors.New("missing authorized field")
	}

	return authorized, nil
}
