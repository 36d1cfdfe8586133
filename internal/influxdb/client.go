// Package influxdb exports readings and hourly measurements to InfluxDB v2.
// It is write-only; nothing is read back on startup.
package influxdb

import (
	"context"
	"fmt"
	"log"
	"strconv"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/i474232898/room-climate/internal/climate"
)

const (
	readingMeasurement = "room_climate"
	hourlyMeasurement  = "room_climate_hourly"
)

// Config holds InfluxDB connection settings.
type Config struct {
	URL    string
	Token  string
	Org    string
	Bucket string
}

// Client implements climate.Observer on top of the non-blocking write API.
type Client struct {
	client   influxdb2.Client
	writeAPI api.WriteAPI
}

// NewClient connects to InfluxDB and verifies it is healthy.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)

	if _, err := client.Health(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to InfluxDB: %w", err)
	}

	writeAPI := client.WriteAPI(cfg.Org, cfg.Bucket)
	go func() {
		for err := range writeAPI.Errors() {
			log.Printf("ERROR: influxdb: write failed: %v", err)
		}
	}()

	log.Printf("INFO: influxdb: exporting to %s (bucket %s)", cfg.URL, cfg.Bucket)
	return &Client{
		client:   client,
		writeAPI: writeAPI,
	}, nil
}

// OnReading queues a reading point.
func (c *Client) OnReading(r climate.Reading) {
	c.writeAPI.WritePoint(readingPoint(r))
}

// OnHourly queues an hourly point.
func (c *Client) OnHourly(m climate.HourlyMeasurement) {
	c.writeAPI.WritePoint(hourlyPoint(m))
}

// Close flushes pending points and closes the client.
func (c *Client) Close() {
	c.writeAPI.Flush()
	c.client.Close()
}

func readingPoint(r climate.Reading) *write.Point {
	return write.NewPoint(
		readingMeasurement,
		map[string]string{},
		map[string]interface{}{
			"temperature": r.Temperature,
			"humidity":    r.Humidity,
		},
		r.ObservedAt,
	)
}

func hourlyPoint(m climate.HourlyMeasurement) *write.Point {
	return influxdb2.NewPointWithMeasurement(hourlyMeasurement).
		AddTag("date", strconv.Itoa(m.Date)).
		AddTag("hour", strconv.Itoa(m.Hour)).
		AddField("temperature", m.Temperature).
		AddField("humidity", m.Humidity)
}
