package climate

import (
	"errors"
	"testing"
	"time"
)

func TestParseReading(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.Local)

	tests := []struct {
		line     string
		wantTemp float64
		wantHum  float64
		wantErr  error
	}{
		{"temp=21.5 humidity=40.2", 21.5, 40.2, nil},
		{"[dht22] humidity=55 temp=19", 19, 55, nil},
		{"reading ok: temp=23.0C, humidity=61.5%", 23.0, 61.5, nil},
		{"temp=-4.5 humidity=80", -4.5, 80, nil},
		{"temp=1e1 humidity=2.5E1", 10, 25, nil},
		{"humidity=40", 0, 0, ErrNoReading},
		{"temp=21", 0, 0, ErrNoReading},
		{"Failed to retrieve data from humidity sensor", 0, 0, ErrNoReading},
		{"temp=abc humidity=40", 0, 0, ErrInvalidValue},
		{"Read ok: temp=21.5, humidity=40.1.", 21.5, 40.1, nil},
		{"temp=21.5. humidity=40", 21.5, 40, nil},
		{"temp=1.2.3 humidity=.5", 1.2, 0.5, nil},
		{"temp=. humidity=40", 0, 0, ErrInvalidValue},
		{"temp=-humidity=40", 0, 0, ErrInvalidValue},
		{"temp=21 humidity=1e999", 0, 0, ErrInvalidValue},
	}

	for _, tt := range tests {
		r, err := ParseReading(tt.line, now)
		if tt.wantErr != nil {
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ParseReading(%q): got err %v, want %v", tt.line, err, tt.wantErr)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseReading(%q): unexpected error %v", tt.line, err)
			continue
		}
		if r.Temperature != tt.wantTemp || r.Humidity != tt.wantHum {
			t.Errorf("ParseReading(%q) = {%v %v}, want {%v %v}", tt.line, r.Temperature, r.Humidity, tt.wantTemp, tt.wantHum)
		}
		if !r.ObservedAt.Equal(now) {
			t.Errorf("ParseReading(%q): observedAt %v, want %v", tt.line, r.ObservedAt, now)
		}
	}
}
