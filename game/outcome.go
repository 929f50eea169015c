package game

import (
	"fmt"

	"candleQuest/config"

	"github.com/shopspring/decimal"
)

// Evaluation is the classifier's view of a completed series.
type Evaluation struct {
	StartClose    float64
	EndClose      float64
	ChangePercent float64
	Direction     Direction
	Score         float64
}

// ChangePercent returns the percent move from the first close to the last close.
func ChangePercent(series Series) (float64, error) {
	if len(series) < 2 {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidInput, len(series))
	}
	start := series[0].Close
	end := series[len(series)-1].Close
	if start <= 0 {
		return 0, fmt.Errorf("%w: non-positive start close %.4f", ErrInvalidInput, start)
	}
	return (end - start) * 100 / start, nil
}

// Evaluate classifies and scores a series from a single pct computation.
//
// Thresholds are strict: a move of exactly +5% is sideways and scores 100,
// exactly -5% is sideways and scores 0.
func Evaluate(series Series) (Evaluation, error) {
	pct, err := ChangePercent(series)
	if err != nil {
		return Evaluation{}, err
	}
	return Evaluation{
		StartClose:    series[0].Close,
		EndClose:      series[len(series)-1].Close,
		ChangePercent: pct,
		Direction:     directionFor(pct),
		Score:         scoreFor(pct),
	}, nil
}

func Classify(series Series) (Direction, error) {
	ev, err := Evaluate(series)
	if err != nil {
		return "", err
	}
	return ev.Direction, nil
}

func Score(series Series) (float64, error) {
	ev, err := Evaluate(series)
	if err != nil {
		return 0, err
	}
	return ev.Score, nil
}

func directionFor(pct float64) Direction {
	if pct > config.ChangeThreshold {
		return DirectionUp
	}
	if pct < -config.ChangeThreshold {
		return DirectionDown
	}
	return DirectionSideways
}

func scoreFor(pct float64) float64 {
	if pct > config.ChangeThreshold {
		return 100
	}
	if pct < -config.ChangeThreshold {
		return 0
	}

	// Linear ramp: 0 at -5%, 50 at 0%, 100 at +5%
	score := 50 + pct*(50/config.ChangeThreshold)
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return RoundToDecimal(score, config.ScoreDecimals)
}

// RoundToDecimal rounds a float to specified decimal places
func RoundToDecimal(val float64, precision int) float64 {
	f, _ := decimal.NewFromFloat(val).Round(int32(precision)).Float64()
	return f
}
