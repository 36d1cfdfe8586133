package climate

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"time"

	"github.com/i474232898/room-climate/internal/common"
)

var (
	// ErrNoReading is returned for lines that do not carry both tokens.
	ErrNoReading = errors.New("line does not contain temp= and humidity=")
	// ErrInvalidValue is returned when a token value is not a finite number.
	ErrInvalidValue = errors.New("invalid temperature or humidity value")
)

var (
	// Only the leading numeric part of a value is taken, so trailing
	// punctuation such as "40.1." or "21.5C," is ignored.
	tempRe     = regexp.MustCompile(`temp=([-+]?(?:[0-9]+\.?[0-9]*|\.[0-9]+)(?:[eE][-+]?[0-9]+)?)`)
	humidityRe = regexp.MustCompile(`humidity=([-+]?(?:[0-9]+\.?[0-9]*|\.[0-9]+)(?:[eE][-+]?[0-9]+)?)`)
)

// ParseReading extracts a Reading from one line of sensor output. The
// temp=<number> and humidity=<number> tokens may appear anywhere in the
// line, surrounded by any other text.
func ParseReading(line string, observedAt time.Time) (Reading, error) {
	if !common.HasAll(line, "temp=", "humidity=") {
		return Reading{}, ErrNoReading
	}

	temp, err := matchFloat(tempRe, line)
	if err != nil {
		return Reading{}, fmt.Errorf("temp: %w", err)
	}
	humidity, err := matchFloat(humidityRe, line)
	if err != nil {
		return Reading{}, fmt.Errorf("humidity: %w", err)
	}

	return Reading{
		Temperature: temp,
		Humidity:    humidity,
		ObservedAt:  observedAt,
	}, nil
}

func matchFloat(re *regexp.Regexp, line string) (float64, error) {
	m := re.FindStringSubmatch(line)
	if m == nil {
		return 0, ErrInvalidValue
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidValue, m[1])
	}
	return v, nil
}
