package mocks

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-research/internal/types"
)

// DataGenerator generates synthetic prices and model predictions for tests.
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

// GeneratorConfig configures how prices are generated.
type GeneratorConfig struct {
	// Symbol is the instrument symbol (e.g., "AAPL")
	Symbol string
	// StartTime is the first bar
	StartTime time.Time
	// Interval is the duration between bars
	Interval time.Duration
	// Count is the number of bars to generate
	Count int
	// InitialPrice is the starting price
	InitialPrice float64
	// Volatility controls price movement (0.01 = 1% per bar)
	Volatility float64
	// Trend is the drift over the whole series
	Trend float64
	// VolumeBase is the average volume per bar
	VolumeBase float64
}

// DefaultConfig returns daily bars for one year.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Symbol:       "TEST",
		StartTime:    time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		Interval:     24 * time.Hour,
		Count:        252,
		InitialPrice: 100.0,
		Volatility:   0.015,
		Trend:        0.0,
		VolumeBase:   1_000_000,
	}
}

// Generate creates bars following a geometric Brownian motion.
func (g *DataGenerator) Generate(config GeneratorConfig) []types.MarketData {
	data := make([]types.MarketData, config.Count)
	price := config.InitialPrice
	current := config.StartTime

	for i := 0; i < config.Count; i++ {
		open := price
		drift := config.Trend / float64(config.Count)

		close := open * (1 + config.Volatility*g.normal() + drift)
		if close <= 0 {
			close = open * 0.99
		}

		high := math.Max(open, close) + math.Abs(g.rng.Float64()*config.Volatility*open*0.5)
		low := math.Min(open, close) - math.Abs(g.rng.Float64()*config.Volatility*open*0.5)

		if low <= 0 {
			low = math.Min(open, close) * 0.99
		}

		data[i] = types.MarketData{
			Symbol: config.Symbol,
			Time:   current,
			Open:   roundToDecimals(open, 4),
			High:   roundToDecimals(high, 4),
			Low:    roundToDecimals(low, 4),
			Close:  roundToDecimals(close, 4),
			Volume: roundToDecimals(config.VolumeBase*(0.7+g.rng.Float64()*0.6), 0),
		}

		price = close
		current = current.Add(config.Interval)
	}

	return data
}

// GenerateMultiSymbol generates bars for several symbols over the same dates.
func (g *DataGenerator) GenerateMultiSymbol(symbols []string, base GeneratorConfig) []types.MarketData {
	var all []types.MarketData

	for _, symbol := range symbols {
		config := base
		config.Symbol = symbol
		config.InitialPrice = base.InitialPrice * (0.8 + g.rng.Float64()*0.4)
		config.Volatility = base.Volatility * (0.8 + g.rng.Float64()*0.4)

		all = append(all, g.Generate(config)...)
	}

	return all
}

// PredictionConfig configures GeneratePredictions.
type PredictionConfig struct {
	// Noise maps a hyperparameter label to the noise added to the true
	// forward return. Less noise means a higher rank correlation.
	Noise map[string]float64
	// Holdout is the number of trailing bars per symbol without a realized return.
	Holdout int
}

// GeneratePredictions derives predictions from bars: actual is the next bar's
// close-to-close return and predicted is actual plus noise. The last bar of a
// symbol and the holdout bars before it have no actual.
func (g *DataGenerator) GeneratePredictions(bars []types.MarketData, config PredictionConfig) []types.Prediction {
	bySymbol := make(map[string][]types.MarketData)
	order := make([]string, 0)

	for _, bar := range bars {
		if _, ok := bySymbol[bar.Symbol]; !ok {
			order = append(order, bar.Symbol)
		}

		bySymbol[bar.Symbol] = append(bySymbol[bar.Symbol], bar)
	}

	var predictions []types.Prediction

	for _, param := range sortedParams(config.Noise) {
		noise := config.Noise[param]

		for _, symbol := range order {
			series := bySymbol[symbol]

			for i, bar := range series {
				forward := 0.0
				if i+1 < len(series) {
					forward = series[i+1].Close/bar.Close - 1
				}

				prediction := types.Prediction{
					Symbol:    symbol,
					Time:      bar.Time,
					Param:     param,
					Predicted: roundToDecimals(forward+noise*g.normal(), 6),
					Actual:    optional.Some(roundToDecimals(forward, 6)),
				}

				if i+1 >= len(series)-config.Holdout {
					prediction.Actual = optional.None[float64]()
				}

				predictions = append(predictions, prediction)
			}
		}
	}

	return predictions
}

// GenerateUniverse is a convenience function returning bars and predictions
// for symbols with two hyperparameters, "1" (low noise) and "5" (high noise).
func GenerateUniverse(symbols []string, count int) ([]types.MarketData, []types.Prediction) {
	gen := NewDataGenerator(42)
	config := DefaultConfig()
	config.Count = count

	bars := gen.GenerateMultiSymbol(symbols, config)
	predictions := gen.GeneratePredictions(bars, PredictionConfig{
		Noise:   map[string]float64{"1": 0.001, "5": 0.05},
		Holdout: 0,
	})

	return bars, predictions
}

// Symbols returns n synthetic symbols S000, S001, ...
func Symbols(n int) []string {
	symbols := make([]string, n)
	for i := range symbols {
		symbols[i] = fmt.Sprintf("S%03d", i)
	}

	return symbols
}

// normal draws from N(0,1) using the Box-Muller transform.
func (g *DataGenerator) normal() float64 {
	u1 := g.rng.Float64()
	u2 := g.rng.Float64()

	return math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
}

func sortedParams(noise map[string]float64) []string {
	params := make([]string, 0, len(noise))
	for param := range noise {
		params = append(params, param)
	}

	sort.Strings(params)

	return params
}

// roundToDecimals rounds a float64 to the specified number of decimal places.
func roundToDecimals(val float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))

	return math.Round(val*pow) / pow
}
