package scheduler

import (
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/room-climate/internal/climate"
)

// LatestPublisher republishes the latest reading to an external consumer.
type LatestPublisher interface {
	PublishLatest(r climate.Reading)
}

// StatusFunc reports whether the sensor process is running and how many
// stream consumers are attached.
type StatusFunc func() (running bool, consumers int)

// Scheduler runs the periodic background jobs.
type Scheduler struct {
	scheduler *gocron.Scheduler
	store     climate.Store
}

// New creates a new Scheduler reading from store.
func New(store climate.Store) *Scheduler {
	s := gocron.NewScheduler(time.Local)
	return &Scheduler{
		scheduler: s,
		store:     store,
	}
}

// RepublishLatest schedules a job pushing the latest reading to pub every
// interval. Nothing is published while the raw buffer is empty.
func (s *Scheduler) RepublishLatest(interval time.Duration, pub LatestPublisher) error {
	_, err := s.scheduler.Every(interval).Do(func() {
		r, ok := s.store.Latest()
		if !ok {
			return
		}
		pub.PublishLatest(r)
	})
	return err
}

// LogStatus schedules a periodic summary of the pipeline state.
func (s *Scheduler) LogStatus(interval time.Duration, status StatusFunc) error {
	_, err := s.scheduler.Every(interval).Do(func() {
		running, consumers := status()
		latest, ok := s.store.Latest()
		if !ok {
			log.Printf("INFO: scheduler: sensor running=%v consumers=%d raw=0 hourly=%d",
				running, consumers, len(s.store.Hourly()))
			return
		}
		log.Printf("INFO: scheduler: sensor running=%v consumers=%d raw=%d hourly=%d latest=%.1fC/%.1f%% at %s",
			running, consumers, len(s.store.Raw()), len(s.store.Hourly()),
			latest.Temperature, latest.Humidity, latest.ObservedAt.Format(time.RFC3339))
	})
	return err
}

// Start starts the underlying scheduler.
func (s *Scheduler) Start() {
	s.scheduler.StartAsync()
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
