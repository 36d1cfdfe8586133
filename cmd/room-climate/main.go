package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/i474232898/room-climate/internal/api/http"
	"github.com/i474232898/room-climate/internal/climate"
	"github.com/i474232898/room-climate/internal/config"
	"github.com/i474232898/room-climate/internal/influxdb"
	"github.com/i474232898/room-climate/internal/mqtt"
	"github.com/i474232898/room-climate/internal/remote"
	"github.com/i474232898/room-climate/internal/scheduler"
	"github.com/i474232898/room-climate/internal/store"
	"github.com/i474232898/room-climate/internal/stream"
	"github.com/i474232898/room-climate/internal/supervisor"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Raw buffer + hourly ring buffer.
	memStore := store.NewMemoryStore(cfg.HourlyCapacity)

	// Optional external sinks.
	var observers []climate.Observer

	var publisher *mqtt.Publisher
	if cfg.MQTTBroker != "" {
		publisher, err = mqtt.Connect(mqtt.Config{
			Broker:   cfg.MQTTBroker,
			ClientID: "room-climate",
			Topic:    cfg.MQTTTopic,
		})
		if err != nil {
			log.Fatalf("failed to connect to mqtt broker: %v", err)
		}
		defer publisher.Close()
		observers = append(observers, publisher)
	}

	if cfg.InfluxURL != "" {
		healthCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		influx, err := influxdb.NewClient(healthCtx, influxdb.Config{
			URL:    cfg.InfluxURL,
			Token:  cfg.InfluxToken,
			Org:    cfg.InfluxOrg,
			Bucket: cfg.InfluxBucket,
		})
		cancel()
		if err != nil {
			log.Fatalf("failed to create influxdb client: %v", err)
		}
		defer influx.Close()
		observers = append(observers, influx)
	}

	// Single ingestion task owning the framer, parser and buffers.
	pipeline := climate.NewPipeline(memStore,
		climate.WithObservers(observers...),
		climate.WithClearOnBegin(cfg.ClearOnStart),
	)
	pipelineDone := make(chan struct{})
	go func() {
		pipeline.Run(ctx)
		close(pipelineDone)
	}()

	// Sensor process, started explicitly at boot.
	sensor := supervisor.New(supervisor.Config{
		Command: cfg.SensorCommand,
		Args:    cfg.SensorArgs,
	}, pipeline)
	if err := sensor.Start(); err != nil {
		log.Printf("ERROR: sensor not started: %v", err)
	}

	hub := stream.NewHub(memStore.Latest, cfg.StreamInterval)

	// Periodic background jobs.
	sched := scheduler.New(memStore)
	if publisher != nil {
		if err := sched.RepublishLatest(cfg.MQTTPublishInterval, publisher); err != nil {
			log.Fatalf("failed to schedule mqtt republish: %v", err)
		}
	}
	if err := sched.LogStatus(cfg.StatusLogInterval, func() (bool, int) {
		return sensor.IsRunning(), hub.Active()
	}); err != nil {
		log.Fatalf("failed to schedule status log: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "room-climate",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "room-climate",
			"sensor":  sensor.Status(),
			"streams": hub.Active(),
		})
	})

	// Streams end when the process is asked to stop.
	streamCtx, cancelStreams := context.WithCancel(ctx)
	defer cancelStreams()

	// API routes.
	httpapi.RegisterRoutes(app, httpapi.Handlers{
		Store:      memStore,
		Sensor:     sensor,
		Hub:        hub,
		Controller: remote.NewController(),
		Emitter: remote.NewEmitter(remote.EmitterConfig{
			Command: cfg.IRCommand,
			Args:    cfg.IRArgs,
			Timeout: cfg.IRTimeout,
		}),
		Lifetime: streamCtx,
	})

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("INFO: fiber server stopped: %v", err)
		}
	}()
	log.Printf("INFO: listening on :%s", cfg.Port)

	// Wait for termination signal
	<-ctx.Done()
	cancelStreams()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("ERROR: shutdown failed: %v", err)
	}

	sensor.Stop()
	<-pipelineDone
}
