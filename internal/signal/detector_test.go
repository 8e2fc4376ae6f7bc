package signal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/yourusername/cci-trader/internal/models"
)

func testSettings() models.StrategySettings {
	s := models.DefaultStrategySettings("BTCUSDT", models.Timeframe1h)
	s.EntryThreshold = 110
	s.ExitThreshold = 100
	return s
}

func TestCrossingLong(t *testing.T) {
	dir, ok := Crossing(-150, -95, testSettings())
	assert.True(t, ok)
	assert.Equal(t, models.DirectionLong, dir)
}

func TestCrossingShort(t *testing.T) {
	dir, ok := Crossing(150, 95, testSettings())
	assert.True(t, ok)
	assert.Equal(t, models.DirectionShort, dir)
}

func TestCrossingNoSignal(t *testing.T) {
	cases := []struct {
		name     string
		previous float64
		current  float64
	}{
		{"inside band", -50, -40},
		{"breach without recovery", -150, -120},
		{"recovery without breach", -105, -95},
		{"short breach still outside", 150, 120},
		{"crossing zero from inside", -80, 80},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, ok := Crossing(tc.previous, tc.current, testSettings())
			assert.False(t, ok)
		})
	}
}

func TestCrossingMutualExclusivity(t *testing.T) {
	settings := testSettings()
	values := []float64{-200, -150, -110.5, -100, -95, 0, 95, 100, 110.5, 150, 200}
	for _, prev := range values {
		for _, curr := range values {
			dir, ok := Crossing(prev, curr, settings)
			if !ok {
				continue
			}
			// A fired signal must be exactly one direction.
			assert.Contains(t, []models.Direction{models.DirectionLong, models.DirectionShort}, dir)
			if dir == models.DirectionLong {
				assert.True(t, prev < -settings.EntryThreshold)
			} else {
				assert.True(t, prev > settings.EntryThreshold)
			}
		}
	}
}

func TestDetectorFiresOncePerExcursion(t *testing.T) {
	d := NewDetector(testSettings())

	series := []float64{-50, -150, -140, -95, -96, -97, -50, 0}
	fires := 0
	for _, v := range series {
		if _, ok := d.Next(v); ok {
			fires++
		}
	}
	assert.Equal(t, 1, fires)
}

func TestDetectorRefiresAfterNewExcursion(t *testing.T) {
	d := NewDetector(testSettings())

	series := []float64{-50, -150, -95, -120, -90}
	var directions []models.Direction
	for _, v := range series {
		if dir, ok := d.Next(v); ok {
			directions = append(directions, dir)
		}
	}
	assert.Equal(t, []models.Direction{models.DirectionLong, models.DirectionLong}, directions)
}

func TestDetectorShortExcursion(t *testing.T) {
	d := NewDetector(testSettings())

	series := []float64{40, 130, 125, 98}
	var fired models.Direction
	for _, v := range series {
		if dir, ok := d.Next(v); ok {
			fired = dir
		}
	}
	assert.Equal(t, models.DirectionShort, fired)
}

func TestDetectorFirstSampleNeverFires(t *testing.T) {
	d := NewDetector(testSettings())
	_, ok := d.Next(-95)
	assert.False(t, ok)
}

func TestDetectorSeedsArmedFromFirstSample(t *testing.T) {
	d := NewDetector(testSettings())
	d.Next(-150)
	dir, ok := d.Next(-95)
	assert.True(t, ok)
	assert.Equal(t, models.DirectionLong, dir)
}

func TestDetectorReset(t *testing.T) {
	d := NewDetector(testSettings())
	d.Next(-150)
	d.Reset()
	_, ok := d.Next(-95)
	assert.False(t, ok)
}

func TestDetectorLingeringOutsideBandStaysQuiet(t *testing.T) {
	d := NewDetector(testSettings())
	series := []float64{-120, -130, -140, -125, -115}
	for _, v := range series {
		_, ok := d.Next(v)
		assert.False(t, ok, "value %f", v)
	}
}
