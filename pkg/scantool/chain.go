package scantool

import (
	"context"
	"strings"

	"scanorch/pkg/domain"
)

// Chain runs several adapters one after another against the same target and
// merges their output. It stops at the first failing adapter and returns the
// output collected up to and including that adapter.
type Chain struct {
	adapters []Adapter
}

// NewChain returns a Chain over adapters. Nil adapters are skipped.
func NewChain(adapters ...Adapter) *Chain {
	c := &Chain{}
	for _, a := range adapters {
		if a != nil {
			c.adapters = append(c.adapters, a)
		}
	}

	return c
}

// Name joins the names of the chained adapters with "+".
func (c *Chain) Name() string {
	names := make([]string, 0, len(c.adapters))
	for _, a := range c.adapters {
		names = append(names, a.Name())
	}

	return strings.Join(names, "+")
}

// Len returns the number of chained adapters.
func (c *Chain) Len() int { return len(c.adapters) }

func (c *Chain) Scan(ctx context.Context, target string, cfg domain.ScanConfig) (Output, error) {
	var out Output
	for _, a := range c.adapters {
		if err := ctx.Err(); err != nil {
			return out, Fail(a.Name(), PhaseRun, err)
		}

		o, err := a.Scan(ctx, target, cfg)
		out.Merge(o)
		if err != nil {
			return out, err
		}
	}

	return out, nil
}

var _ Adapter = (*Chain)(nil)
