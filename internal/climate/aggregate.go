package climate

import (
	"sort"
	"time"
)

// AggregateHour summarizes a raw buffer into one HourlyMeasurement stamped
// with the boundary-crossing time at. Temperature and humidity are the
// upper medians of their own sorted sequences; an empty buffer yields zeros.
func AggregateHour(readings []Reading, at time.Time) HourlyMeasurement {
	local := at.Local()
	m := HourlyMeasurement{
		Date: local.Day(),
		Hour: local.Hour(),
	}
	if len(readings) == 0 {
		return m
	}

	temps := make([]float64, 0, len(readings))
	hums := make([]float64, 0, len(readings))
	for _, r := range readings {
		temps = append(temps, r.Temperature)
		hums = append(hums, r.Humidity)
	}

	m.Temperature = UpperMedian(temps)
	m.Humidity = UpperMedian(hums)
	return m
}

// UpperMedian sorts values in place and returns the element at index n/2.
// For an even count that is the higher of the two central values.
func UpperMedian(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sort.Float64s(values)
	return values[len(values)/2]
}
