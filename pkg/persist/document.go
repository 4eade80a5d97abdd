package persist

import (
	"fmt"
	"math"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/atlassian/gmetricd/pkg/store"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// document is the persisted form of a store.Snapshot.
type document struct {
	Stats    map[string]int64     `json:"stats"`
	Timers   map[string][]float64 `json:"timers"`
	Counters map[string]float64   `json:"counters"`
	Gauges   map[string]float64   `json:"gauges,omitempty"`
}

// Encode renders snap as JSON. Stats are keyed "group.name", or "name" when the group is empty. Infinities and
// NaNs have no JSON form and are left out.
func Encode(snap *store.Snapshot) ([]byte, error) {
	doc := document{
		Stats:    make(map[string]int64, len(snap.Stats)),
		Timers:   make(map[string][]float64, len(snap.Timers)),
		Counters: make(map[string]float64, len(snap.Counters)),
		Gauges:   make(map[string]float64, len(snap.Gauges)),
	}
	for k, v := range snap.Stats {
		doc.Stats[k.String()] = v
	}
	for k, v := range snap.Timers {
		samples := make([]float64, 0, len(v))
		for _, sample := range v {
			if isFinite(sample) {
				samples = append(samples, sample)
			}
		}
		doc.Timers[k] = samples
	}
	for k, v := range snap.Counters {
		if isFinite(v) {
			doc.Counters[k] = v
		}
	}
	for k, v := range snap.Gauges {
		if isFinite(v) {
			doc.Gauges[k] = v
		}
	}
	return json.Marshal(&doc)
}

func isFinite(v float64) bool {
	return !math.IsInf(v, 0) && !math.IsNaN(v)
}

// Decode parses a document produced by Encode. Stat keys are split at the first dot, a key without one has an
// empty group. Missing sections are treated as empty.
func Decode(data []byte) (*store.Snapshot, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid snapshot: %v", err)
	}
	snap := store.NewSnapshot()
	for k, v := range doc.Stats {
		var key store.StatKey
		if i := strings.IndexByte(k, '.'); i >= 0 {
			key = store.StatKey{Group: k[:i], Name: k[i+1:]}
		} else {
			key = store.StatKey{Name: k}
		}
		snap.Stats[key] = v
	}
	for k, v := range doc.Timers {
		snap.Timers[k] = v
	}
	for k, v := range doc.Counters {
		snap.Counters[k] = v
	}
	for k, v := range doc.Gauges {
		snap.Gauges[k] = v
	}
	return snap, nil
}
