package store

// Snapshot is a deep copy of the content of a Store.
type Snapshot struct {
	Counters map[string]float64
	Timers   map[string][]float64
	Gauges   map[string]float64
	Stats    map[StatKey]int64
}

// NewSnapshot creates an empty Snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Counters: make(map[string]float64),
		Timers:   make(map[string][]float64),
		Gauges:   make(map[string]float64),
		Stats:    make(map[StatKey]int64),
	}
}

// Snapshot copies the content of the Store. Each map is copied under its own lock, so the result is consistent
// per map but not across maps.
func (s *Store) Snapshot() *Snapshot {
	snap := NewSnapshot()
	s.ForEachCounter(func(key string, value float64) {
		snap.Counters[key] = value
	})
	s.ForEachTimer(func(key string, samples []float64) {
		snap.Timers[key] = append([]float64(nil), samples...)
	})
	s.ForEachGauge(func(key string, value float64) {
		snap.Gauges[key] = value
	})
	s.ForEachStat(func(key StatKey, value int64) {
		snap.Stats[key] = value
	})
	return snap
}

// Restore loads the content of snap into the Store, overwriting entries that exist in both.
func (s *Store) Restore(snap *Snapshot) {
	s.countersMu.Lock()
	for k, v := range snap.Counters {
		s.counters[k] = v
	}
	s.countersMu.Unlock()

	s.timersMu.Lock()
	for k, v := range snap.Timers {
		s.timers[k] = append([]float64(nil), v...)
	}
	s.timersMu.Unlock()

	s.gaugesMu.Lock()
	for k, v := range snap.Gauges {
		s.gauges[k] = v
	}
	s.gaugesMu.Unlock()

	s.statsMu.Lock()
	for k, v := range snap.Stats {
		s.stats[k] = v
	}
	s.statsMu.Unlock()
}
