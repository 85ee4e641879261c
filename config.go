package main

import "time"

// Config gathers the presentation-layer tunables in one immutable table so
// the ingestion core and reader stay free of UI defaults.
type Config struct {
	DefaultWPM int
	MinWPM     int
	MaxWPM     int
	WPMStep    int

	// Number keys 1..n select a preset.
	SpeedPresets []int

	DefaultFontSize float32
	MinFontSize     float32
	MaxFontSize     float32
	FontSizeStep    float32

	// Grace window for consecutive arrow presses before auto-pausing.
	ArrowPause time.Duration
}

// DefaultConfig returns the stock tuning.
func DefaultConfig() Config {
	return Config{
		DefaultWPM:      300,
		MinWPM:          100,
		MaxWPM:          1500,
		WPMStep:         50,
		SpeedPresets:    []int{250, 350, 450, 600, 800},
		DefaultFontSize: 72,
		MinFontSize:     20,
		MaxFontSize:     200,
		FontSizeStep:    5,
		ArrowPause:      500 * time.Millisecond,
	}
}

// clampWPM bounds a WPM value to the configured range.
func (c Config) clampWPM(wpm int) int {
	if wpm < c.MinWPM {
		return c.MinWPM
	}
	if wpm > c.MaxWPM {
		return c.MaxWPM
	}
	return wpm
}
