package game

import (
	"fmt"
	"math"
	"time"

	"candleQuest/config"
)

// GenerateSeries builds length daily bars, the first dated length days before
// today and the last dated yesterday. All randomness comes from rng.
func GenerateSeries(rng Rand, length int, today time.Time) (Series, error) {
	if length < 1 {
		return nil, fmt.Errorf("%w: length must be positive, got %d", ErrGeneration, length)
	}
	if rng == nil {
		return nil, fmt.Errorf("%w: no random source", ErrGeneration)
	}

	y, m, d := today.Date()
	startDate := time.Date(y, m, d, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -length)

	basePrice := config.BasePriceMin + rng.Float64()*config.BasePriceSpread
	series := make(Series, 0, length)

	for i := 0; i < length; i++ {
		change := (rng.Float64() - 0.5) * config.Volatility
		open := basePrice
		close := open * (1 + change)
		high := math.Max(open, close) * (1 + rng.Float64()*config.WickMax)
		low := math.Min(open, close) * (1 - rng.Float64()*config.WickMax)

		bar := PriceBar{
			Time:  startDate.AddDate(0, 0, i),
			Open:  open,
			High:  high,
			Low:   low,
			Close: close,
		}
		if err := validateBar(bar); err != nil {
			return nil, fmt.Errorf("%w: bar %d: %v", ErrGeneration, i, err)
		}
		series = append(series, bar)

		basePrice = close
	}

	return series, nil
}

func validateBar(b PriceBar) error {
	for _, v := range []float64{b.Open, b.High, b.Low, b.Close} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("non-finite price %v", v)
		}
	}
	if b.Open <= 0 || b.Close <= 0 || b.Low <= 0 {
		return fmt.Errorf("non-positive price (o=%.4f c=%.4f l=%.4f)", b.Open, b.Close, b.Low)
	}
	if b.Low > math.Min(b.Open, b.Close) || b.High < math.Max(b.Open, b.Close) {
		return fmt.Errorf("wick outside body (o=%.4f h=%.4f l=%.4f c=%.4f)", b.Open, b.High, b.Low, b.Close)
	}
	return nil
}

// Window returns the first n bars. n is clamped to the series length.
func (s Series) Window(n int) []PriceBar {
	if n > len(s) {
		n = len(s)
	}
	if n < 0 {
		n = 0
	}
	out := make([]PriceBar, n)
	copy(out, s[:n])
	return out
}
