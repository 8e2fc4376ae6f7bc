// Package signal detects breakout-then-reentry entry signals from a CCI
// series.
package signal

import "github.com/yourusername/cci-trader/internal/models"

// Crossing is the raw two-sample hysteresis test. A LONG fires when the
// previous value breached the outer band below -entryThreshold and the
// current value recovered to at least -exitThreshold; SHORT is the mirror.
// At most one direction can fire because exitThreshold < entryThreshold.
// Callers that feed consecutive samples must debounce externally, since this
// test can refire while the indicator lingers beyond the entry band; the
// stateful Detector below does that.
func Crossing(previous, current float64, settings models.StrategySettings) (models.Direction, bool) {
	if previous < -settings.EntryThreshold && current >= -settings.ExitThreshold {
		return models.DirectionLong, true
	}
	if previous > settings.EntryThreshold && current <= settings.ExitThreshold {
		return models.DirectionShort, true
	}
	return "", false
}

// Detector consumes a CCI series one value at a time and fires at most once
// per excursion beyond the entry band. The excursion is armed when the value
// breaches the outer band and fires on the first sample back inside the inner
// band, then stays quiet until the next breach.
type Detector struct {
	settings   models.StrategySettings
	armedLong  bool
	armedShort bool
	seeded     bool
}

// NewDetector creates a detector for the given settings
func NewDetector(settings models.StrategySettings) *Detector {
	return &Detector{settings: settings}
}

// Next feeds the next CCI value and reports a detected entry direction, if
// any. The first value only seeds history and never fires.
func (d *Detector) Next(value float64) (models.Direction, bool) {
	if !d.seeded {
		d.seeded = true
		d.armedLong = value < -d.settings.EntryThreshold
		d.armedShort = value > d.settings.EntryThreshold
		return "", false
	}

	if value < -d.settings.EntryThreshold {
		d.armedLong = true
	}
	if value > d.settings.EntryThreshold {
		d.armedShort = true
	}

	if d.armedLong && value >= -d.settings.ExitThreshold {
		d.armedLong = false
		return models.DirectionLong, true
	}
	if d.armedShort && value <= d.settings.ExitThreshold {
		d.armedShort = false
		return models.DirectionShort, true
	}
	return "", false
}

// Reset clears the excursion state, e.g. when switching symbols
func (d *Detector) Reset() {
	d.armedLong = false
	d.armedShort = false
	d.seeded = false
}
