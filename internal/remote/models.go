// Package remote turns an air-conditioner control intent into an infrared
// preset and drives the external command-emission process.
package remote

// Mode is the air-conditioner operating mode.
type Mode string

const (
	ModeCool Mode = "COOL"
	ModeHeat Mode = "HEAT"
	ModeDry  Mode = "DRY"
)

// FanSpeed is the air-conditioner fan setting.
type FanSpeed string

const (
	FanAutoStrong FanSpeed = "AUTO+"
	FanAuto       FanSpeed = "AUTO"
	FanQuiet      FanSpeed = "SIZUKA"
)

// State is the desired air-conditioner state. It is always replaced as a
// whole.
type State struct {
	IsOn        bool     `json:"isOn"`
	Temperature int      `json:"temperature" validate:"min=16,max=30"`
	Mode        Mode     `json:"mode" validate:"required,oneof=COOL HEAT DRY"`
	FanSpeed    FanSpeed `json:"fanSpeed" validate:"required,oneof=AUTO+ AUTO SIZUKA"`
}
