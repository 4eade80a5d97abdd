package fixtures

import (
	"context"
	"sync"

	"github.com/atlassian/gmetricd"
)

// CapturingBackend records every batch of datapoints it is given, and can be told to fail.
type CapturingBackend struct {
	mu      sync.Mutex
	batches [][]*gmetricd.Datapoint
	Err     error
}

var _ gmetricd.Backend = &CapturingBackend{}

func (cb *CapturingBackend) Name() string {
	return "capturing"
}

func (cb *CapturingBackend) SendMetricsAsync(ctx context.Context, points []*gmetricd.Datapoint, callback gmetricd.SendCallback) {
	cb.mu.Lock()
	cb.batches = append(cb.batches, append([]*gmetricd.Datapoint(nil), points...))
	err := cb.Err
	cb.mu.Unlock()
	callback([]error{err})
}

// Batches returns every batch received so far.
func (cb *CapturingBackend) Batches() [][]*gmetricd.Datapoint {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return append([][]*gmetricd.Datapoint(nil), cb.batches...)
}

// ByName indexes datapoints by name.
func ByName(points []*gmetricd.Datapoint) map[string]*gmetricd.Datapoint {
	m := make(map[string]*gmetricd.Datapoint, len(points))
	for _, p := range points {
		m[p.Name] = p
	}
	return m
}
