package generator

import (
	"math/rand/v2"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/kanna-karuppasamy/iot-sensor-simulator/internal/models"
)

// Range is a closed interval sampled uniformly
type Range struct {
	Min float64
	Max float64
}

// Contains reports whether v lies within the range
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

func (r Range) sample(rng *rand.Rand) float64 {
	return r.Min + rng.Float64()*(r.Max-r.Min)
}

// Value ranges for normal and anomalous readings
var (
	NormalTemperature = Range{Min: 18, Max: 28}
	ColdTemperature   = Range{Min: -5, Max: 5}
	HotTemperature    = Range{Min: 35, Max: 45}

	NormalHumidity = Range{Min: 30, Max: 70}
	DryHumidity    = Range{Min: 5, Max: 15}
	HumidHumidity  = Range{Min: 85, Max: 95}

	Battery = Range{Min: 20, Max: 100}
)

// Generator produces synthetic sensor readings from an explicit random source
type Generator struct {
	rng *rand.Rand
	now func() time.Time
}

// New creates a generator that draws from rng and stamps readings with the
// current time
func New(rng *rand.Rand) *Generator {
	return NewWithClock(rng, time.Now)
}

// NewWithClock creates a generator with an injected clock
func NewWithClock(rng *rand.Rand, now func() time.Time) *Generator {
	return &Generator{rng: rng, now: now}
}

// NewSource returns a seeded random source. A zero seed derives one from the
// current time.
func NewSource(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Generate builds one reading for sensorID. Anomalous temperature and
// humidity first pick one of two disjoint sub-ranges, then sample inside it.
func (g *Generator) Generate(sensorID string, anomaly bool) models.SensorReading {
	var temperature, humidity float64
	if anomaly {
		temperature = g.pick(ColdTemperature, HotTemperature)
		humidity = g.pick(DryHumidity, HumidHumidity)
	} else {
		temperature = NormalTemperature.sample(g.rng)
		humidity = NormalHumidity.sample(g.rng)
	}

	return models.SensorReading{
		SensorID:    sensorID,
		Location:    "Room " + lastChar(sensorID),
		Temperature: round2(temperature),
		Humidity:    round2(humidity),
		Timestamp:   g.now().UTC().Format(models.TimestampLayout),
		// battery level is published unrounded
		BatteryLevel: Battery.sample(g.rng),
	}
}

func (g *Generator) pick(a, b Range) float64 {
	if g.rng.IntN(2) == 0 {
		return a.sample(g.rng)
	}
	return b.sample(g.rng)
}

func lastChar(s string) string {
	if s == "" {
		return ""
	}
	_, size := utf8.DecodeLastRuneInString(s)
	return s[len(s)-size:]
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
