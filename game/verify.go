package game

import (
	"fmt"
	"time"
)

// VerifyRound regenerates a round's series from its revealed server seed and
// evaluates it. Given the same seed, round id, length and generation day, it
// always returns the series the player saw.
func VerifyRound(serverSeed, roundID string, length int, generatedOn time.Time) (Series, Evaluation, error) {
	series, err := GenerateSeries(RoundRNG(serverSeed, roundID), length, generatedOn)
	if err != nil {
		return nil, Evaluation{}, err
	}
	ev, err := Evaluate(series)
	if err != nil {
		return nil, Evaluation{}, fmt.Errorf("evaluate regenerated series: %w", err)
	}
	return series, ev, nil
}
