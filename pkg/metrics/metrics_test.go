package metrics_test

import (
	"slices"
	"testing"

	"scanorch/pkg/metrics"

	"github.com/stretchr/testify/require"
)

func TestWithUpperBounds(t *testing.T) {
	base := []float64{1, 2, 5}

	got := metrics.WithUpperBounds(base, 3, 10, 10, 60)
	require.Equal(t, []float64{1, 2, 5, 10, 60}, got)
	require.Equal(t, []float64{1, 2, 5}, base, "input must not be modified")
}

func TestScanBuckets(t *testing.T) {
	require.True(t, slices.IsSorted(metrics.ScanBuckets))
	require.Equal(t, metrics.DefaultBuckets, metrics.ScanBuckets[:len(metrics.DefaultBuckets)])
	require.InDelta(t, 1800, metrics.ScanBuckets[len(metrics.ScanBuckets)-1], 0)
}
