package store

import (
	"fmt"
	"sync"

	"github.com/i474232898/room-climate/internal/climate"
)

// MemoryStore is a concurrency-safe in-memory implementation of the raw
// buffer and the hourly ring buffer.
type MemoryStore struct {
	mu sync.RWMutex

	raw    []climate.Reading
	hourly []climate.HourlyMeasurement

	// capacity of the hourly ring buffer
	capacity int
}

// NewMemoryStore creates a MemoryStore whose hourly ring buffer holds at
// most capacity entries. A capacity <= 0 falls back to one week.
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = climate.DefaultHourlyCapacity
	}
	return &MemoryStore{
		capacity: capacity,
	}
}

// Capacity returns the hourly ring buffer capacity.
func (s *MemoryStore) Capacity() int {
	return s.capacity
}

// Append adds a reading to the raw buffer.
func (s *MemoryStore) Append(r climate.Reading) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.raw = append(s.raw, r)
}

// Roll appends an hourly measurement, evicts the oldest entries beyond
// capacity and clears the raw buffer.
func (s *MemoryStore) Roll(m climate.HourlyMeasurement) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.hourly = append(s.hourly, m)

	if len(s.hourly) > s.capacity {
		over := len(s.hourly) - s.capacity
		kept := make([]climate.HourlyMeasurement, s.capacity, s.capacity+1)
		copy(kept, s.hourly[over:])
		s.hourly = kept
		if len(s.hourly) != s.capacity {
			panic(fmt.Sprintf("store: hourly buffer holds %d entries after eviction, want %d", len(s.hourly), s.capacity))
		}
	}

	s.raw = nil
}

// Reset discards all buffered data.
func (s *MemoryStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.raw = nil
	s.hourly = nil
}

// Latest returns the most recent raw reading.
func (s *MemoryStore) Latest() (climate.Reading, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.raw) == 0 {
		return climate.Reading{}, false
	}
	return s.raw[len(s.raw)-1], true
}

// Raw returns a copy of the raw buffer in arrival order.
func (s *MemoryStore) Raw() []climate.Reading {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]climate.Reading, len(s.raw))
	copy(out, s.raw)
	return out
}

// Hourly returns a copy of the hourly ring buffer, oldest first.
func (s *MemoryStore) Hourly() []climate.HourlyMeasurement {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]climate.HourlyMeasurement, len(s.hourly))
	copy(out, s.hourly)
	return out
}
