package metric

import "sync"

// Slot is one rule's most recent result set, as returned by Snapshot.
type Slot struct {
	Target  string
	Rule    string
	Metrics []Metric
}

// slot is the internal mutable counterpart of Slot.
type slot struct {
	target  string
	rule    string
	metrics []Metric
}

// Store holds the most recent extraction results per (target, rule) slot.
// It is the only state shared between scrape goroutines and the render path.
//
// Store is safe for concurrent use. The lock is held only for the in-memory
// commit or read — never across fetch or extraction.
type Store struct {
	mu    sync.RWMutex
	slots map[string]*slot
	order []string // slot keys in registration order, drives render order
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{slots: make(map[string]*slot)}
}

func slotKey(target, rule string) string {
	return target + "\x00" + rule
}

// Register creates an empty slot for the given target and rule. Call order
// determines render order. Registering the same slot twice is a no-op.
func (s *Store) Register(target, rule string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := slotKey(target, rule)
	if _, ok := s.slots[key]; ok {
		return
	}
	s.slots[key] = &slot{target: target, rule: rule}
	s.order = append(s.order, key)
}

// Replace commits a rule's extraction results. A non-empty ms replaces the
// slot's previous contents wholesale — series that no longer appear are
// dropped. An empty ms leaves the previous contents untouched, so a rule that
// produced nothing this cycle keeps exposing its last good values.
//
// Within ms, metrics sharing an identity collapse to the last one; emission
// order of the surviving metrics is preserved.
func (s *Store) Replace(target, rule string, ms []Metric) {
	if len(ms) == 0 {
		return
	}

	// Deduplicate by identity outside the lock. Later entries win but keep
	// the position of the first occurrence.
	deduped := ms[:0:0]
	index := make(map[string]int, len(ms))
	for _, m := range ms {
		k := m.Key()
		if i, ok := index[k]; ok {
			deduped[i] = m
			continue
		}
		index[k] = len(deduped)
		deduped = append(deduped, m)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	key := slotKey(target, rule)
	sl, ok := s.slots[key]
	if !ok {
		sl = &slot{target: target, rule: rule}
		s.slots[key] = sl
		s.order = append(s.order, key)
	}
	sl.metrics = deduped
}

// Results returns a copy of the slot's current metrics, or nil if the slot
// does not exist or is empty.
func (s *Store) Results(target, rule string) []Metric {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sl, ok := s.slots[slotKey(target, rule)]
	if !ok || len(sl.metrics) == 0 {
		return nil
	}
	out := make([]Metric, len(sl.metrics))
	copy(out, sl.metrics)
	return out
}

// Snapshot returns a copy of every slot in registration order, including
// empty ones. Each slot's metric list is consistent; the snapshot as a whole
// is not atomic across slots — a render may observe one rule's post-scrape
// state alongside another's pre-scrape state.
func (s *Store) Snapshot() []Slot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Slot, 0, len(s.order))
	for _, key := range s.order {
		sl := s.slots[key]
		ms := make([]Metric, len(sl.metrics))
		copy(ms, sl.metrics)
		out = append(out, Slot{Target: sl.target, Rule: sl.rule, Metrics: ms})
	}
	return out
}

// Len returns the total number of stored series across all slots.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, sl := range s.slots {
		n += len(sl.metrics)
	}
	return n
}
