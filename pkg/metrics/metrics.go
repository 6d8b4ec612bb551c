// Package metrics holds histogram bucket layouts shared by the HTTP layer and
// the scan dispatcher.
package metrics

import "slices"

// DefaultBuckets provides a common set of histogram buckets in seconds that can
// be reused across the application for latency metrics.
var DefaultBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10} //nolint: gochecknoglobals

// ScanBuckets extends DefaultBuckets up to half an hour, the default dispatch
// deadline, for scan units and whole dispatches.
var ScanBuckets = WithUpperBounds(DefaultBuckets, 30, 60, 120, 300, 600, 900, 1800) //nolint: gochecknoglobals

// WithUpperBounds returns a copy of buckets with extra bounds appended.
// Bounds that are not strictly larger than the current last bucket are skipped
// so the result stays sorted.
func WithUpperBounds(buckets []float64, bounds ...float64) []float64 {
	out := slices.Clone(buckets)
	for _, b := range bounds {
		if len(out) > 0 && b <= out[len(out)-1] {
			continue
		}
		out = append(out, b)
	}

	return out
}
