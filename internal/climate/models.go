package climate

import (
	"time"
)

// Reading is one timestamped temperature/humidity sample taken from the
// sensor process output.
type Reading struct {
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
	ObservedAt  time.Time `json:"observedAt"` // local clock
}

// Hour returns the local hour-of-day the reading was observed in.
func (r Reading) Hour() int {
	return r.ObservedAt.Local().Hour()
}

// HourlyMeasurement summarizes the readings of one hour bucket.
//
// Date and Hour are the local day-of-month and hour-of-day of the reading
// that crossed into the new hour, not of the data being summarized.
type HourlyMeasurement struct {
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	Date        int     `json:"date"`
	Hour        int     `json:"hour"`
}

// DefaultHourlyCapacity keeps one week of hourly points.
const DefaultHourlyCapacity = 24 * 7
