package main

import (
	"fmt"

	"candleQuest/crypto"
	"candleQuest/game"
)

// strategy picks a direction from the bars the player can see.
type strategy func(visible []game.PriceBar, rng game.Rand) game.Direction

var strategies = map[string]strategy{
	"sideways": func(_ []game.PriceBar, _ game.Rand) game.Direction { return game.DirectionSideways },
	"up":       func(_ []game.PriceBar, _ game.Rand) game.Direction { return game.DirectionUp },
	"random": func(_ []game.PriceBar, rng game.Rand) game.Direction {
		dirs := []game.Direction{game.DirectionUp, game.DirectionDown, game.DirectionSideways}
		return dirs[int(rng.Float64()*3)%3]
	},
	// trend classifies the visible window and bets it continues
	"trend": func(visible []game.PriceBar, _ game.Rand) game.Direction {
		dir, err := game.Classify(visible)
		if err != nil {
			return game.DirectionSideways
		}
		return dir
	},
}

type simOptions struct {
	Sessions   int
	Strategy   string
	SeedPrefix string // empty means fresh random seeds
	Round      game.RoundConfig
	Sink       game.ResultSink
}

type summary struct {
	Rounds        int
	Actual        map[game.Direction]int
	AvgScore      float64
	AvgAccuracy   float64
	SessionScores []float64
}

// simulate plays every session to the end with the chosen strategy.
// With a seed prefix, both the server seeds and the round ids are derived
// from it, so the same options always produce the same summary.
func simulate(opts simOptions) (*summary, error) {
	if opts.Sessions < 1 {
		return nil, fmt.Errorf("sessions must be positive, got %d", opts.Sessions)
	}
	pick, ok := strategies[opts.Strategy]
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q", opts.Strategy)
	}

	seeder := game.Seeder(game.SeederFunc(crypto.GenerateServerSeed))
	if opts.SeedPrefix != "" {
		n := 0
		seeder = game.SeederFunc(func() (string, string) {
			n++
			seed := fmt.Sprintf("%s-%d", opts.SeedPrefix, n)
			return seed, crypto.HashSeed(seed)
		})
	}
	picker := game.NewSeededRNG(opts.SeedPrefix + "-strategy")

	sum := &summary{Actual: map[game.Direction]int{}}
	var totalScore, totalAccuracy float64

	for i := 0; i < opts.Sessions; i++ {
		machineOpts := game.MachineOptions{Config: opts.Round, Seeder: seeder, Sink: opts.Sink}
		if opts.SeedPrefix != "" {
			session, r := i+1, 0
			machineOpts.NewRoundID = func() string {
				r++
				return fmt.Sprintf("%s-%d-%d", opts.SeedPrefix, session, r)
			}
		}

		m, err := game.NewMachine(machineOpts)
		if err != nil {
			return nil, fmt.Errorf("invalid round config: %w", err)
		}
		userID := fmt.Sprintf("sim-%s-%d", opts.Strategy, i+1)

		if _, err := m.Begin(userID); err != nil {
			return nil, fmt.Errorf("session %d failed to start: %w", i+1, err)
		}
		for m.Phase() != game.PhaseFinished {
			m.Submit(pick(m.Visible(), picker))
			sum.Actual[m.Outcome().Actual]++
			sum.Rounds++
			if _, err := m.Next(); err != nil {
				return nil, fmt.Errorf("session %d failed to advance: %w", i+1, err)
			}
		}
		m.Wait()

		stats := m.Stats()
		totalScore += stats.TotalScore
		totalAccuracy += stats.Accuracy
		sum.SessionScores = append(sum.SessionScores, stats.TotalScore)
	}

	sum.AvgScore = totalScore / float64(opts.Sessions)
	sum.AvgAccuracy = totalAccuracy / float64(opts.Sessions)
	return sum, nil
}
