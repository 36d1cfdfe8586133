package config

import (
	"fmt"
	"github.com/joho/godotenv"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/i474232898/room-climate/internal/climate"
)

type AppConfig struct {
	Port string

	// Sensor process. Args are passed as-is; "-u" keeps python unbuffered.
	SensorCommand string
	SensorArgs    []string

	// HourlyCapacity bounds the hourly ring buffer (24*7 = one week).
	HourlyCapacity int
	// ClearOnStart discards buffered data whenever the sensor is (re)started.
	ClearOnStart bool

	StreamInterval time.Duration

	// IR emission process. Preset and temperature are appended to IRArgs.
	IRCommand string
	IRArgs    []string
	IRTimeout time.Duration

	// MQTT republishing; disabled when MQTTBroker is empty.
	MQTTBroker          string
	MQTTTopic           string
	MQTTPublishInterval time.Duration

	// InfluxDB export; disabled when InfluxURL is empty.
	InfluxURL    string
	InfluxToken  string
	InfluxOrg    string
	InfluxBucket string

	StatusLogInterval time.Duration
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}
	var err error

	cfg.Port = getenvDefault("PORT", "8080")

	cfg.SensorCommand = getenvDefault("SENSOR_COMMAND", "python3")
	cfg.SensorArgs = getenvList("SENSOR_ARGS", "-u,../scripts/dht_emu.py")

	cfg.HourlyCapacity, err = getenvInt("HOURLY_CAPACITY", climate.DefaultHourlyCapacity)
	if err != nil {
		return nil, err
	}
	if cfg.HourlyCapacity <= 0 {
		return nil, fmt.Errorf("invalid HOURLY_CAPACITY: must be positive, got %d", cfg.HourlyCapacity)
	}

	cfg.ClearOnStart, err = getenvBool("CLEAR_ON_START", false)
	if err != nil {
		return nil, err
	}

	if cfg.StreamInterval, err = getenvDuration("STREAM_INTERVAL", "1s"); err != nil {
		return nil, err
	}

	cfg.IRCommand = getenvDefault("IR_COMMAND", "python3")
	cfg.IRArgs = getenvList("IR_ARGS", "../scripts/irrp.py,-p,-g18,-f")
	if cfg.IRTimeout, err = getenvDuration("IR_TIMEOUT", "30s"); err != nil {
		return nil, err
	}

	cfg.MQTTBroker = os.Getenv("MQTT_BROKER")
	cfg.MQTTTopic = getenvDefault("MQTT_TOPIC", "room-climate")
	if cfg.MQTTPublishInterval, err = getenvDuration("MQTT_PUBLISH_INTERVAL", "1m"); err != nil {
		return nil, err
	}

	cfg.InfluxURL = os.Getenv("INFLUXDB_URL")
	cfg.InfluxToken = os.Getenv("INFLUXDB_TOKEN")
	cfg.InfluxOrg = os.Getenv("INFLUXDB_ORG")
	cfg.InfluxBucket = getenvDefault("INFLUXDB_BUCKET", "room-climate")

	if cfg.StatusLogInterval, err = getenvDuration("STATUS_LOG_INTERVAL", "15m"); err != nil {
		return nil, err
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getenvBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

// getenvList splits a comma-separated value. Empty items are dropped.
func getenvList(key, def string) []string {
	var out []string
	for _, item := range strings.Split(getenvDefault(key, def), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
