package main

import (
	"flag"
	"fmt"
	"log"

	"candleQuest/config"
	"candleQuest/db"
	"candleQuest/game"
)

func main() {
	sessions := flag.Int("sessions", 100, "number of sessions to simulate")
	name := flag.String("strategy", "sideways", "sideways, up, random or trend")
	seedPrefix := flag.String("seed", "", "fixed seed prefix for reproducible runs (empty = random seeds)")
	sqlitePath := flag.String("sqlite", "", "optional SQLite file to store simulated rounds in")
	flag.Parse()

	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}
	opts := simOptions{
		Sessions:   *sessions,
		Strategy:   *name,
		SeedPrefix: *seedPrefix,
		Round: game.RoundConfig{
			SeriesLength:  cfg.SeriesLength,
			HiddenBars:    cfg.HiddenBars,
			BudgetSeconds: cfg.RoundSeconds,
			TotalRounds:   cfg.TotalRounds,
		},
	}

	if *sqlitePath != "" {
		store, err := db.NewSQLiteStore(*sqlitePath)
		if err != nil {
			log.Fatalf("❌ Failed to open SQLite store: %v", err)
		}
		defer store.Close()
		opts.Sink = store
	}

	fmt.Printf("🎲 Simulating %d sessions of %d rounds with strategy %q...\n", *sessions, opts.Round.TotalRounds, *name)

	sum, err := simulate(opts)
	if err != nil {
		log.Printf("❌ Simulation failed: %v", err)
		return
	}

	fmt.Println("")
	fmt.Println("📊 Actual directions:")
	for _, d := range []game.Direction{game.DirectionUp, game.DirectionDown, game.DirectionSideways} {
		fmt.Printf("   %-9s %6d (%.1f%%)\n", d, sum.Actual[d], float64(sum.Actual[d])*100/float64(sum.Rounds))
	}
	fmt.Printf("\n✅ Avg session score: %.2f | Avg accuracy: %.2f%%\n", sum.AvgScore, sum.AvgAccuracy)

	if *sqlitePath != "" {
		fmt.Printf("💾 Stored %d rounds in %s\n", sum.Rounds, *sqlitePath)
	}
}
