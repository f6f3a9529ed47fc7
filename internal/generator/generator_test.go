package generator

import (
	"math"
	"math/rand/v2"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 5, 1, 12, 30, 45, 123456000, time.FixedZone("CEST", 2*60*60))

func newTestGenerator(seed uint64) *Generator {
	return NewWithClock(rand.New(rand.NewPCG(seed, seed+1)), func() time.Time { return fixedNow })
}

func hasAtMostTwoDecimals(v float64) bool {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	for i := range s {
		if s[i] == '.' {
			return len(s)-i-1 <= 2
		}
	}
	return true
}

func TestGenerateNormalRanges(t *testing.T) {
	g := newTestGenerator(1)
	for i := 0; i < 5000; i++ {
		r := g.Generate("sensor-001", false)
		require.True(t, NormalTemperature.Contains(r.Temperature), "temperature %v", r.Temperature)
		require.True(t, NormalHumidity.Contains(r.Humidity), "humidity %v", r.Humidity)
		require.True(t, Battery.Contains(r.BatteryLevel), "battery %v", r.BatteryLevel)
	}
}

func TestGenerateAnomalousRanges(t *testing.T) {
	g := newTestGenerator(2)
	var cold, hot, dry, humid int
	for i := 0; i < 5000; i++ {
		r := g.Generate("sensor-003", true)

		switch {
		case ColdTemperature.Contains(r.Temperature):
			cold++
		case HotTemperature.Contains(r.Temperature):
			hot++
		default:
			t.Fatalf("temperature %v outside anomalous ranges", r.Temperature)
		}
		switch {
		case DryHumidity.Contains(r.Humidity):
			dry++
		case HumidHumidity.Contains(r.Humidity):
			humid++
		default:
			t.Fatalf("humidity %v outside anomalous ranges", r.Humidity)
		}
		require.False(t, NormalTemperature.Contains(r.Temperature))
		require.False(t, NormalHumidity.Contains(r.Humidity))
		require.True(t, Battery.Contains(r.BatteryLevel), "battery %v", r.BatteryLevel)
	}

	// both clusters are populated
	assert.Greater(t, cold, 1000)
	assert.Greater(t, hot, 1000)
	assert.Greater(t, dry, 1000)
	assert.Greater(t, humid, 1000)
}

func TestGenerateRounding(t *testing.T) {
	g := newTestGenerator(3)
	unroundedBattery := 0
	for i := 0; i < 1000; i++ {
		r := g.Generate("sensor-002", i%2 == 0)
		assert.True(t, hasAtMostTwoDecimals(r.Temperature), "temperature %v", r.Temperature)
		assert.True(t, hasAtMostTwoDecimals(r.Humidity), "humidity %v", r.Humidity)
		if !hasAtMostTwoDecimals(r.BatteryLevel) {
			unroundedBattery++
		}
	}
	assert.Greater(t, unroundedBattery, 900, "battery level should keep full precision")
}

func TestGenerateLocationAndTimestamp(t *testing.T) {
	g := newTestGenerator(4)

	tests := []struct {
		id   string
		want string
	}{
		{id: "sensor-001", want: "Room 1"},
		{id: "sensor-002", want: "Room 2"},
		{id: "lab-x", want: "Room x"},
		{id: "capteur-é", want: "Room é"},
		{id: "", want: "Room "},
	}
	for _, tc := range tests {
		r := g.Generate(tc.id, false)
		assert.Equal(t, tc.id, r.SensorID)
		assert.Equal(t, tc.want, r.Location)
		assert.Equal(t, "2024-05-01T10:30:45.123456Z", r.Timestamp)
	}
}

func TestGenerateIsDeterministicForSeed(t *testing.T) {
	a := newTestGenerator(99)
	b := newTestGenerator(99)
	for i := 0; i < 50; i++ {
		assert.Equal(t, a.Generate("sensor-001", i%3 == 0), b.Generate("sensor-001", i%3 == 0))
	}
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 21.35, round2(21.345))
	assert.Equal(t, -4.99, round2(-4.98765))
	assert.Equal(t, 28.0, round2(27.999))
	assert.False(t, math.IsNaN(round2(0)))
}

func TestNewSource(t *testing.T) {
	assert.Equal(t, NewSource(7).Float64(), NewSource(7).Float64())
	assert.NotNil(t, NewSource(0))
}
