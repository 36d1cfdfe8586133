package climate_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/i474232898/room-climate/internal/climate"
	"github.com/i474232898/room-climate/internal/store"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type recorder struct {
	mu       sync.Mutex
	readings []climate.Reading
	hourly   []climate.HourlyMeasurement
}

func (r *recorder) OnReading(rd climate.Reading) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.readings = append(r.readings, rd)
}

func (r *recorder) OnHourly(m climate.HourlyMeasurement) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hourly = append(r.hourly, m)
}

func TestPipelineHourRollover(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 14, 10, 15, 0, 0, time.Local)}
	s := store.NewMemoryStore(climate.DefaultHourlyCapacity)
	rec := &recorder{}
	p := climate.NewPipeline(s, climate.WithClock(clock.Now), climate.WithObservers(rec))

	p.HandleChunk("temp=10 humidity=50\ntemp=30 humidity=52\n")
	clock.Set(clock.Now().Add(20 * time.Minute))
	p.HandleChunk("temp=20 humidity=51\n")

	if n := len(s.Hourly()); n != 0 {
		t.Fatalf("hourly before rollover: got %d, want 0", n)
	}

	clock.Set(time.Date(2026, 3, 14, 11, 0, 2, 0, time.Local))
	p.HandleChunk("temp=25 humidity=60\n")

	hourly := s.Hourly()
	if len(hourly) != 1 {
		t.Fatalf("hourly after rollover: got %d, want 1", len(hourly))
	}
	want := climate.HourlyMeasurement{Temperature: 20, Humidity: 51, Date: 14, Hour: 11}
	if hourly[0] != want {
		t.Errorf("hourly[0]: got %+v, want %+v", hourly[0], want)
	}

	raw := s.Raw()
	if len(raw) != 1 || raw[0].Temperature != 25 {
		t.Errorf("raw after rollover: got %+v, want only the crossing reading", raw)
	}

	if len(rec.readings) != 4 || len(rec.hourly) != 1 {
		t.Errorf("observer: got %d readings and %d hourly, want 4 and 1", len(rec.readings), len(rec.hourly))
	}
}

func TestPipelineSkipsDiagnosticLines(t *testing.T) {
	s := store.NewMemoryStore(4)
	p := climate.NewPipeline(s)

	p.HandleChunk("Traceback (most recent call last):\n\n  temp=bad humidity=1\r\ntemp=21 humidity=40\r\n")

	raw := s.Raw()
	if len(raw) != 1 {
		t.Fatalf("raw: got %d readings, want 1", len(raw))
	}
	if raw[0].Temperature != 21 || raw[0].Humidity != 40 {
		t.Errorf("reading: got %+v", raw[0])
	}
}

func TestPipelineRunDrainsFeed(t *testing.T) {
	at := time.Date(2026, 3, 14, 10, 0, 0, 0, time.Local)
	s := store.NewMemoryStore(4)
	p := climate.NewPipeline(s, climate.WithClock(func() time.Time { return at }))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	if err := p.Begin(ctx); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	for _, chunk := range []string{"tem", "p=22.5 hum", "idity=45\ntemp=23", " humidity=46\n", "temp=99"} {
		if err := p.Feed(ctx, []byte(chunk)); err != nil {
			t.Fatalf("Feed: %v", err)
		}
	}
	if err := p.End(ctx); err != nil {
		t.Fatalf("End: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for len(s.Raw()) < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	<-done

	raw := s.Raw()
	if len(raw) != 2 {
		t.Fatalf("raw: got %d readings, want 2", len(raw))
	}
	if raw[0].Temperature != 22.5 || raw[1].Temperature != 23 {
		t.Errorf("readings: got %+v", raw)
	}
}

func TestPipelineClearOnBegin(t *testing.T) {
	tests := []struct {
		clear   bool
		wantRaw int
	}{
		{false, 2},
		{true, 1},
	}

	at := time.Date(2026, 3, 14, 10, 0, 0, 0, time.Local)
	for _, tt := range tests {
		s := store.NewMemoryStore(4)
		s.Append(climate.Reading{Temperature: 20, ObservedAt: at})
		p := climate.NewPipeline(s,
			climate.WithClearOnBegin(tt.clear),
			climate.WithClock(func() time.Time { return at }),
		)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			p.Run(ctx)
			close(done)
		}()

		if err := p.Begin(ctx); err != nil {
			t.Fatalf("Begin: %v", err)
		}
		if err := p.Feed(ctx, []byte("temp=30 humidity=50\n")); err != nil {
			t.Fatalf("Feed: %v", err)
		}

		deadline := time.Now().Add(2 * time.Second)
		for time.Now().Before(deadline) {
			if r, ok := s.Latest(); ok && r.Temperature == 30 {
				break
			}
			time.Sleep(5 * time.Millisecond)
		}
		cancel()
		<-done

		if got := len(s.Raw()); got != tt.wantRaw {
			t.Errorf("clear=%v: raw has %d readings, want %d", tt.clear, got, tt.wantRaw)
		}
	}
}
