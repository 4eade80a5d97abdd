// Package store holds the aggregated state of the daemon between flushes.
//
// Counters, timers, gauges and stats each live in their own map guarded by their own mutex. Every operation
// locks exactly one of them, for the whole find-or-create-and-mutate sequence, and never two at once.
package store

import (
	"sync"
)

// StatKey identifies a Stat.
type StatKey struct {
	Group string
	Name  string
}

// String renders the key as group.name, or name alone when there is no group.
func (k StatKey) String() string {
	if k.Group == "" {
		return k.Name
	}
	return k.Group + "." + k.Name
}

// Store is the in-memory metric state. The zero value is not usable, use New.
type Store struct {
	countersMu sync.Mutex
	counters   map[string]float64

	timersMu sync.Mutex
	timers   map[string][]float64

	gaugesMu sync.Mutex
	gauges   map[string]float64

	statsMu sync.Mutex
	stats   map[StatKey]int64
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		counters: make(map[string]float64),
		timers:   make(map[string][]float64),
		gauges:   make(map[string]float64),
		stats:    make(map[StatKey]int64),
	}
}

// IncrementCounter adds delta to the counter, extrapolated by the sample rate. A sample rate that is not
// positive means the delta is applied as is.
func (s *Store) IncrementCounter(key string, delta, sampleRate float64) {
	if sampleRate > 0 {
		delta = delta / sampleRate
	}
	s.countersMu.Lock()
	s.counters[key] += delta
	s.countersMu.Unlock()
}

// RecordTimer appends a sample to the timer.
func (s *Store) RecordTimer(key string, sample float64) {
	s.timersMu.Lock()
	s.timers[key] = append(s.timers[key], sample)
	s.timersMu.Unlock()
}

// SetGauge overwrites the gauge.
func (s *Store) SetGauge(key string, value float64) {
	s.gaugesMu.Lock()
	s.gauges[key] = value
	s.gaugesMu.Unlock()
}

// SetStat overwrites the stat.
func (s *Store) SetStat(group, name string, value int64) {
	s.statsMu.Lock()
	s.stats[StatKey{Group: group, Name: name}] = value
	s.statsMu.Unlock()
}

// IncrementStat adds delta to the stat.
func (s *Store) IncrementStat(group, name string, delta int64) {
	s.statsMu.Lock()
	s.stats[StatKey{Group: group, Name: name}] += delta
	s.statsMu.Unlock()
}

// Stat returns the value of a stat, and if it exists.
func (s *Store) Stat(group, name string) (int64, bool) {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	v, ok := s.stats[StatKey{Group: group, Name: name}]
	return v, ok
}

// ForEachCounter calls f for every counter while holding the counters lock. f must not call back into the Store.
func (s *Store) ForEachCounter(f func(key string, value float64)) {
	s.countersMu.Lock()
	defer s.countersMu.Unlock()
	for k, v := range s.counters {
		f(k, v)
	}
}

// ForEachTimer calls f for every timer while holding the timers lock. f must not call back into the Store and
// must not retain samples.
func (s *Store) ForEachTimer(f func(key string, samples []float64)) {
	s.timersMu.Lock()
	defer s.timersMu.Unlock()
	for k, v := range s.timers {
		f(k, v)
	}
}

// ForEachGauge calls f for every gauge while holding the gauges lock. f must not call back into the Store.
func (s *Store) ForEachGauge(f func(key string, value float64)) {
	s.gaugesMu.Lock()
	defer s.gaugesMu.Unlock()
	for k, v := range s.gauges {
		f(k, v)
	}
}

// ForEachStat calls f for every stat while holding the stats lock. f must not call back into the Store.
func (s *Store) ForEachStat(f func(key StatKey, value int64)) {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	for k, v := range s.stats {
		f(k, v)
	}
}

// FlushCounters calls f for every counter and resets it to zero, in a single traversal under the counters lock.
func (s *Store) FlushCounters(f func(key string, value float64)) {
	s.countersMu.Lock()
	defer s.countersMu.Unlock()
	for k, v := range s.counters {
		f(k, v)
		s.counters[k] = 0
	}
}

// FlushTimers calls f for every timer holding samples and then clears it, in a single traversal under the timers
// lock. Ownership of samples passes to f. Timers without samples are left alone.
func (s *Store) FlushTimers(f func(key string, samples []float64)) {
	s.timersMu.Lock()
	defer s.timersMu.Unlock()
	for k, v := range s.timers {
		if len(v) == 0 {
			continue
		}
		f(k, v)
		s.timers[k] = nil
	}
}
