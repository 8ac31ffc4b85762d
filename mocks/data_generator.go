package mocks

import (
	"math"
	"math/rand"
	"time"

	"github.com/rxtech-lab/argo-macd/internal/types"
)

// DataGenerator produces synthetic OHLCV bars for tests.
type DataGenerator struct {
	rng *rand.Rand
}

// NewDataGenerator creates a new DataGenerator with the given seed.
// Use a fixed seed for reproducible results in tests.
func NewDataGenerator(seed int64) *DataGenerator {
	return &DataGenerator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// GeneratorConfig configures how bars are generated.
type GeneratorConfig struct {
	Symbol    string
	StartTime time.Time
	// Interval is the duration between bars, normally a timeframe duration.
	Interval     time.Duration
	Count        int
	InitialPrice float64
	// Volatility is the per-bar standard deviation of returns (0.01 = 1%).
	Volatility float64
	// Trend is the total drift spread across the series (-0.1 to 0.1).
	Trend      float64
	VolumeBase float64
	// VolumeVariance is the relative volume spread in [0, 1].
	VolumeVariance float64
}

// DefaultConfig returns hourly BTCUSDT-like bars.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Symbol:         "BTCUSDT",
		StartTime:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Interval:       time.Hour,
		Count:          500,
		InitialPrice:   40000.0,
		Volatility:     0.004,
		Trend:          0.0,
		VolumeBase:     250,
		VolumeVariance: 0.3,
	}
}

// Generate creates bars following a geometric Brownian motion.
func (g *DataGenerator) Generate(config GeneratorConfig) []types.Bar {
	bars := make([]types.Bar, config.Count)
	price := config.InitialPrice
	current := config.StartTime

	for i := 0; i < config.Count; i++ {
		open := price

		// Box-Muller
		u1 := g.rng.Float64()
		u2 := g.rng.Float64()
		z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)

		drift := config.Trend / float64(config.Count)

		closePrice := open * (1 + config.Volatility*z + drift)
		if closePrice <= 0 {
			closePrice = open * 0.99
		}

		bars[i] = g.bar(config, current, open, closePrice)

		price = closePrice
		current = current.Add(config.Interval)
	}

	return bars
}

// GenerateWave creates bars whose closes follow a sine wave around the
// initial price, with amplitude as a fraction of it. Noise comes from
// Volatility. Waves give the MACD histogram regular zero crossings.
func (g *DataGenerator) GenerateWave(config GeneratorConfig, period int, amplitude float64) []types.Bar {
	bars := make([]types.Bar, config.Count)
	current := config.StartTime
	prev := config.InitialPrice

	for i := 0; i < config.Count; i++ {
		phase := 2 * math.Pi * float64(i) / float64(period)
		noise := config.Volatility * (g.rng.Float64()*2 - 1)
		closePrice := config.InitialPrice * (1 + amplitude*math.Sin(phase) + noise)

		bars[i] = g.bar(config, current, prev, closePrice)

		prev = closePrice
		current = current.Add(config.Interval)
	}

	return bars
}

func (g *DataGenerator) bar(config GeneratorConfig, t time.Time, open, closePrice float64) types.Bar {
	highExtension := math.Abs(g.rng.Float64() * config.Volatility * open * 0.5)
	lowExtension := math.Abs(g.rng.Float64() * config.Volatility * open * 0.5)

	high := math.Max(open, closePrice) + highExtension
	low := math.Min(open, closePrice) - lowExtension

	if low <= 0 {
		low = math.Min(open, closePrice) * 0.99
	}

	volume := config.VolumeBase * (1.0 + (g.rng.Float64()*2-1)*config.VolumeVariance)
	if volume < 0 {
		volume = config.VolumeBase * 0.1
	}

	return types.Bar{
		Symbol: config.Symbol,
		Time:   t,
		Open:   roundToDecimals(open, 4),
		High:   roundToDecimals(high, 4),
		Low:    roundToDecimals(low, 4),
		Close:  roundToDecimals(closePrice, 4),
		Volume: roundToDecimals(volume, 2),
	}
}

// FlatBars returns count identical bars at price, spaced by interval.
func FlatBars(symbol string, start time.Time, interval time.Duration, count int, price float64) []types.Bar {
	bars := make([]types.Bar, count)
	for i := range bars {
		bars[i] = types.Bar{
			Symbol: symbol,
			Time:   start.Add(time.Duration(i) * interval),
			Open:   price,
			High:   price,
			Low:    price,
			Close:  price,
			Volume: 1,
		}
	}

	return bars
}

// roundToDecimals rounds a float64 to the specified number of decimal places.
func roundToDecimals(val float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))

	return math.Round(val*pow) / pow
}
