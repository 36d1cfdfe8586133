// Package stream fans the latest reading out to independent push consumers.
// Every consumer gets its own poll loop and private channel; nothing is
// shared between consumers except the read-only latest-reading query.
package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/i474232898/room-climate/internal/climate"
)

const (
	// DefaultInterval is the cadence consumers are polled at.
	DefaultInterval = time.Second
	// HeartbeatInterval spaces SSE comment lines on otherwise idle streams.
	HeartbeatInterval = 15 * time.Second
)

// LatestFunc returns the most recent reading, if there is one. It must not
// block.
type LatestFunc func() (climate.Reading, bool)

// Subscription is one consumer's event feed. C is closed once the
// subscription's context is done.
type Subscription struct {
	ID string
	C  <-chan climate.Reading
}

// Hub hands out subscriptions and tracks how many are live.
type Hub struct {
	latest   LatestFunc
	interval time.Duration

	mu     sync.Mutex
	active map[string]time.Time
}

// NewHub creates a Hub polling latest every interval.
func NewHub(latest LatestFunc, interval time.Duration) *Hub {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Hub{
		latest:   latest,
		interval: interval,
		active:   make(map[string]time.Time),
	}
}

// Subscribe starts a poll loop bound to ctx. The first poll happens
// immediately; an event is emitted for every poll that finds a reading,
// including repeats of the same reading.
func (h *Hub) Subscribe(ctx context.Context) *Subscription {
	id := uuid.NewString()
	ch := make(chan climate.Reading, 1)

	h.mu.Lock()
	h.active[id] = time.Now()
	n := len(h.active)
	h.mu.Unlock()

	log.Printf("DEBUG: stream: consumer %s subscribed (%d active)", id, n)

	go func() {
		defer h.release(id)
		defer close(ch)
		poll(ctx, h.interval, h.latest, ch)
	}()

	return &Subscription{ID: id, C: ch}
}

// Active returns the number of live subscriptions.
func (h *Hub) Active() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.active)
}

func (h *Hub) release(id string) {
	h.mu.Lock()
	delete(h.active, id)
	n := len(h.active)
	h.mu.Unlock()

	log.Printf("DEBUG: stream: consumer %s released (%d active)", id, n)
}

func poll(ctx context.Context, interval time.Duration, latest LatestFunc, out chan<- climate.Reading) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if r, ok := latest(); ok {
			select {
			case out <- r:
			case <-ctx.Done():
				return
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// WriteEvent writes r as one server-sent event.
func WriteEvent(w io.Writer, r climate.Reading) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", payload)
	return err
}

// WriteHeartbeat writes an SSE comment line. Clients ignore it.
func WriteHeartbeat(w io.Writer) error {
	_, err := io.WriteString(w, ": keep-alive\n\n")
	return err
}
