package climate

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"
)

type eventKind int

const (
	eventData eventKind = iota
	eventBegin
	eventEnd
)

type event struct {
	kind eventKind
	data []byte
}

// Pipeline is the single ingestion task. It owns the line framer and is the
// only writer of the store: output chunks from the sensor process are queued
// on a channel and drained by Run.
type Pipeline struct {
	store        Store
	observers    []Observer
	events       chan event
	framer       LineFramer
	clearOnBegin bool

	// now stamps accepted readings.
	now func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithObservers registers observers notified of accepted readings and hourly
// roll-ups.
func WithObservers(obs ...Observer) Option {
	return func(p *Pipeline) {
		p.observers = append(p.observers, obs...)
	}
}

// WithClock overrides the wall clock used to stamp readings.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		p.now = now
	}
}

// WithClearOnBegin discards buffered readings and hourly points every time a
// new sensor stream begins. By default buffers survive a restart.
func WithClearOnBegin(clear bool) Option {
	return func(p *Pipeline) {
		p.clearOnBegin = clear
	}
}

// NewPipeline creates a Pipeline writing into store.
func NewPipeline(store Store, opts ...Option) *Pipeline {
	p := &Pipeline{
		store:  store,
		events: make(chan event, 64),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Begin marks the start of a new sensor output stream.
func (p *Pipeline) Begin(ctx context.Context) error {
	return p.send(ctx, event{kind: eventBegin})
}

// Feed queues a raw output chunk for ingestion. The chunk is copied.
func (p *Pipeline) Feed(ctx context.Context, chunk []byte) error {
	if len(chunk) == 0 {
		return nil
	}
	data := make([]byte, len(chunk))
	copy(data, chunk)
	return p.send(ctx, event{kind: eventData, data: data})
}

// End marks the end of the current sensor output stream. An unterminated
// trailing fragment is dropped.
func (p *Pipeline) End(ctx context.Context) error {
	return p.send(ctx, event{kind: eventEnd})
}

func (p *Pipeline) send(ctx context.Context, ev event) error {
	select {
	case p.events <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run drains queued events until ctx is cancelled.
func (p *Pipeline) Run(ctx context.Context) {
	log.Println("INFO: pipeline: ingestion started")
	defer log.Println("INFO: pipeline: ingestion stopped")

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-p.events:
			p.handle(ev)
		}
	}
}

func (p *Pipeline) handle(ev event) {
	switch ev.kind {
	case eventBegin:
		p.framer = LineFramer{}
		if p.clearOnBegin {
			log.Println("INFO: pipeline: clearing buffers for new sensor stream")
			p.store.Reset()
		}
	case eventEnd:
		if rest := p.framer.Pending(); rest != "" {
			log.Printf("DEBUG: pipeline: dropping unterminated line at end of stream: %q", rest)
		}
		p.framer = LineFramer{}
	case eventData:
		p.HandleChunk(string(ev.data))
	}
}

// HandleChunk frames chunk into lines and ingests every reading found. It
// must only be called from the goroutine running the pipeline, or in tests.
func (p *Pipeline) HandleChunk(chunk string) {
	for _, line := range p.framer.Push(chunk) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		p.HandleLine(line)
	}
}

// HandleLine parses one trimmed line. Lines without a reading are tolerated
// as diagnostic output.
func (p *Pipeline) HandleLine(line string) {
	r, err := ParseReading(line, p.now())
	if err != nil {
		if errors.Is(err, ErrNoReading) {
			log.Printf("DEBUG: pipeline: skipping diagnostic line %q", line)
			return
		}
		log.Printf("ERROR: pipeline: could not parse line %q: %v", line, err)
		return
	}
	p.Ingest(r)
}

// Ingest appends r to the raw buffer, first rolling the buffer up into an
// HourlyMeasurement when r falls into a different local hour than the
// previous reading.
func (p *Pipeline) Ingest(r Reading) {
	if last, ok := p.store.Latest(); ok && last.Hour() != r.Hour() {
		m := AggregateHour(p.store.Raw(), r.ObservedAt)
		p.store.Roll(m)
		log.Printf("INFO: pipeline: hour rolled over: date=%d hour=%d temp=%.2f humidity=%.2f",
			m.Date, m.Hour, m.Temperature, m.Humidity)
		for _, o := range p.observers {
			o.OnHourly(m)
		}
	}

	p.store.Append(r)
	for _, o := range p.observers {
		o.OnReading(r)
	}
}
