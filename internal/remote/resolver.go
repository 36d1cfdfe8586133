package remote

import (
	"errors"
	"fmt"
)

// ErrUnresolved is returned when no preset exists for a mode/fan pair.
var ErrUnresolved = errors.New("invalid mode or fan speed")

// Preset identifiers understood by the emission process.
const (
	PresetCoolStrong = "cool_jidou_strong.json"
	PresetCoolAuto   = "cool_jidou.json"
	PresetCoolQuiet  = "cool_sizuka.json"
	PresetDry        = "dry.json"
)

// Resolve maps a mode and fan speed to a preset identifier. HEAT has no
// recorded presets yet and always fails.
func Resolve(mode Mode, fan FanSpeed) (string, error) {
	switch mode {
	case ModeCool:
		switch fan {
		case FanAutoStrong:
			return PresetCoolStrong, nil
		case FanAuto:
			return PresetCoolAuto, nil
		case FanQuiet:
			return PresetCoolQuiet, nil
		}
	case ModeDry:
		return PresetDry, nil
	}
	return "", fmt.Errorf("%w: mode=%q fanSpeed=%q", ErrUnresolved, mode, fan)
}
