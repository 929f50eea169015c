package game

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"candleQuest/config"
	"candleQuest/crypto"

	"github.com/google/uuid"
)

type Phase string

const (
	PhaseWaiting  Phase = "waiting"
	PhasePlaying  Phase = "playing"
	PhaseResult   Phase = "result"
	PhaseFinished Phase = "finished"
)

// ChartRenderer displays bars. UpdateData replaces everything shown.
type ChartRenderer interface {
	UpdateData(bars []PriceBar)
	FitContent()
}

// ResultSink stores resolved rounds. Calls happen off the event loop.
type ResultSink interface {
	StoreRoundResult(ctx context.Context, record *RoundRecord) error
}

// Seeder hands out a fresh server seed and its public commitment per round.
type Seeder interface {
	NextSeed() (seed string, hash string)
}

type SeederFunc func() (string, string)

func (f SeederFunc) NextSeed() (string, string) { return f() }

// RoundConfig fixes the shape of every round in a session.
type RoundConfig struct {
	SeriesLength  int
	HiddenBars    int
	BudgetSeconds int
	TotalRounds   int
}

func DefaultRoundConfig() RoundConfig {
	return RoundConfig{
		SeriesLength:  config.SeriesLength,
		HiddenBars:    config.HiddenBars,
		BudgetSeconds: config.RoundBudgetSeconds,
		TotalRounds:   config.TotalRounds,
	}
}

func (c RoundConfig) validate() error {
	if c.SeriesLength < 2 {
		return fmt.Errorf("series length must be at least 2, got %d", c.SeriesLength)
	}
	if c.HiddenBars < 0 || c.HiddenBars >= c.SeriesLength {
		return fmt.Errorf("hidden bars must be in [0, %d), got %d", c.SeriesLength, c.HiddenBars)
	}
	if c.BudgetSeconds < 1 {
		return fmt.Errorf("round budget must be positive, got %d", c.BudgetSeconds)
	}
	if c.TotalRounds < 1 {
		return fmt.Errorf("total rounds must be positive, got %d", c.TotalRounds)
	}
	return nil
}

// MachineOptions wires the machine to its collaborators. Only Config is
// required; everything else has a working default.
type MachineOptions struct {
	Config     RoundConfig
	Seeder     Seeder
	NewRand    func(seed, roundID string) Rand
	Renderer   ChartRenderer
	Sink       ResultSink
	Now        func() time.Time
	NewRoundID func() string

	// OnAdvisory receives persistence failures. It is called from the
	// persistence goroutine, not from the caller of Submit/Tick.
	OnAdvisory func(err error)
}

type activeRound struct {
	id        string
	seed      string
	seedHash  string
	series    Series
	startedAt time.Time
	revealed  int
	resolved  bool
	outcome   *RoundOutcome
}

// Machine runs the rounds of one session. It is not safe for concurrent use;
// the owner must serialize every call on a single goroutine.
type Machine struct {
	opts   MachineOptions
	cfg    RoundConfig
	phase  Phase
	userID string
	clock  *RoundClock
	stats  *SessionAggregator
	round  *activeRound

	pending sync.WaitGroup
}

func NewMachine(opts MachineOptions) (*Machine, error) {
	if err := opts.Config.validate(); err != nil {
		return nil, err
	}
	if opts.Seeder == nil {
		opts.Seeder = SeederFunc(crypto.GenerateServerSeed)
	}
	if opts.NewRand == nil {
		opts.NewRand = func(seed, roundID string) Rand { return RoundRNG(seed, roundID) }
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewRoundID == nil {
		opts.NewRoundID = uuid.NewString
	}
	return &Machine{
		opts:  opts,
		cfg:   opts.Config,
		phase: PhaseWaiting,
		clock: NewRoundClock(),
		stats: NewSessionAggregator(opts.Config.TotalRounds),
	}, nil
}

// Begin starts the current round once the player's identity is known.
// It is also the retry path after a generation failure.
func (m *Machine) Begin(userID string) (bool, error) {
	if m.phase != PhaseWaiting {
		return false, nil
	}
	if userID == "" {
		return false, ErrNoIdentity
	}
	m.userID = userID
	if err := m.startRound(); err != nil {
		return false, err
	}
	return true, nil
}

func (m *Machine) startRound() error {
	seed, seedHash := m.opts.Seeder.NextSeed()
	roundID := m.opts.NewRoundID()

	startedAt := m.opts.Now()
	series, err := GenerateSeries(m.opts.NewRand(seed, roundID), m.cfg.SeriesLength, startedAt)
	if err != nil {
		m.phase = PhaseWaiting
		m.round = nil
		m.clock.Reset()
		return err
	}

	m.round = &activeRound{
		id:        roundID,
		seed:      seed,
		seedHash:  seedHash,
		series:    series,
		startedAt: startedAt,
		revealed:  len(series) - m.cfg.HiddenBars,
	}
	m.clock.Reset()
	if err := m.clock.Start(m.cfg.BudgetSeconds); err != nil {
		return err
	}
	m.phase = PhasePlaying
	m.render()
	return nil
}

// Submit resolves the round with the player's guess. It reports false when the
// round is not accepting answers, including after a timeout.
func (m *Machine) Submit(choice Direction) bool {
	if m.phase != PhasePlaying || m.round == nil || m.round.resolved {
		return false
	}
	if _, ok := ParseDirection(string(choice)); !ok {
		return false
	}
	m.resolve(choice, false)
	return true
}

// Tick advances the countdown by one second. Expiry resolves the round as sideways.
func (m *Machine) Tick() TickResult {
	if m.phase != PhasePlaying || m.round == nil || m.round.resolved {
		return TickIgnored
	}
	res := m.clock.Tick()
	if res == TickExpired {
		m.resolve(DirectionSideways, true)
	}
	return res
}

func (m *Machine) resolve(chosen Direction, timedOut bool) {
	r := m.round
	r.resolved = true
	m.clock.Cancel()

	// Config validation guarantees at least two bars.
	ev, err := Evaluate(r.series)
	if err != nil {
		panic(fmt.Sprintf("evaluate validated series: %v", err))
	}

	outcome := RoundOutcome{
		Chosen:        chosen,
		Actual:        ev.Direction,
		Score:         ev.Score,
		Correct:       chosen == ev.Direction,
		TimedOut:      timedOut,
		ChangePercent: RoundToDecimal(ev.ChangePercent, config.ScoreDecimals),
		StartClose:    RoundToDecimal(ev.StartClose, config.ScoreDecimals),
		EndClose:      RoundToDecimal(ev.EndClose, config.ScoreDecimals),
	}
	r.outcome = &outcome
	m.stats.Record(outcome)

	r.revealed = len(r.series)
	m.phase = PhaseResult
	m.render()

	now := m.opts.Now()
	m.persist(&RoundRecord{
		RoundID:   r.id,
		UserID:    m.userID,
		Mode:      config.RecordMode,
		Symbol:    config.RecordSymbol,
		Timeframe: config.RecordTimeframe,
		StartTime: now,
		EndTime:   now.Add(config.RecordSpan),
		Chosen:    outcome.Chosen,
		Actual:    outcome.Actual,
		Score:     outcome.Score,
		WasWrong:  !outcome.Correct,
		SeedHash:  r.seedHash,
	})
}

func (m *Machine) persist(record *RoundRecord) {
	if m.opts.Sink == nil {
		return
	}
	sink := m.opts.Sink
	onAdvisory := m.opts.OnAdvisory

	m.pending.Add(1)
	go func() {
		defer m.pending.Done()

		ctx, cancel := context.WithTimeout(context.Background(), config.PersistTimeout)
		defer cancel()

		if err := sink.StoreRoundResult(ctx, record); err != nil {
			wrapped := fmt.Errorf("%w: round %s: %v", ErrPersistence, record.RoundID, err)
			log.Printf("⚠️  %v", wrapped)
			if onAdvisory != nil {
				onAdvisory(wrapped)
			}
		}
	}()
}

// Next moves from a result to the next round, or to finished after the last one.
func (m *Machine) Next() (bool, error) {
	if m.phase != PhaseResult {
		return false, nil
	}
	if !m.stats.HasNext() {
		m.phase = PhaseFinished
		m.stats.Finish()
		return true, nil
	}
	m.stats.Advance()
	if err := m.startRound(); err != nil {
		return true, err
	}
	return true, nil
}

// Restart begins a fresh session after the last round.
func (m *Machine) Restart() (bool, error) {
	if m.phase != PhaseFinished {
		return false, nil
	}
	m.stats.Reset()
	if err := m.startRound(); err != nil {
		return true, err
	}
	return true, nil
}

func (m *Machine) render() {
	if m.opts.Renderer == nil || m.round == nil {
		return
	}
	m.opts.Renderer.UpdateData(m.round.series.Window(m.round.revealed))
	m.opts.Renderer.FitContent()
}

// Wait blocks until every detached result write has finished.
func (m *Machine) Wait() {
	m.pending.Wait()
}

func (m *Machine) Phase() Phase { return m.phase }
func (m *Machine) UserID() string { return m.userID }
func (m *Machine) ClockRunning() bool { return m.clock.Running() }
func (m *Machine) Remaining() int { return m.clock.Remaining() }
func (m *Machine) Stats() SessionStats { return m.stats.Stats() }
func (m *Machine) IsComplete() bool { return m.stats.IsComplete() }
func (m *Machine) Config() RoundConfig { return m.cfg }

// Outcome returns the current round's outcome, nil until it resolves.
func (m *Machine) Outcome() *RoundOutcome {
	if m.round == nil || m.round.outcome == nil {
		return nil
	}
	out := *m.round.outcome
	return &out
}

// Visible returns the bars the player may currently see.
func (m *Machine) Visible() []PriceBar {
	if m.round == nil {
		return nil
	}
	return m.round.series.Window(m.round.revealed)
}

// Snapshot is the state of the machine as shown to the player.
type Snapshot struct {
	Phase     Phase         `json:"phase"`
	RoundID   string        `json:"roundId,omitempty"`
	SeedHash  string        `json:"seedHash,omitempty"`
	Seed      string        `json:"seed,omitempty"`
	StartedAt time.Time     `json:"startedAt"`
	Remaining int           `json:"remaining"`
	Urgency   string        `json:"urgency,omitempty"`
	Revealed  int           `json:"revealed"`
	TotalBars int           `json:"totalBars"`
	Outcome   *RoundOutcome `json:"outcome,omitempty"`
	Stats     SessionStats  `json:"stats"`
}

func (m *Machine) Snapshot() Snapshot {
	snap := Snapshot{
		Phase:     m.phase,
		Remaining: m.clock.Remaining(),
		Stats:     m.stats.Stats(),
	}
	if m.round != nil {
		snap.RoundID = m.round.id
		snap.SeedHash = m.round.seedHash
		snap.StartedAt = m.round.startedAt
		snap.Revealed = m.round.revealed
		snap.TotalBars = len(m.round.series)
		snap.Outcome = m.Outcome()
		if m.round.resolved {
			snap.Seed = m.round.seed
		}
	}
	if m.phase == PhasePlaying {
		snap.Urgency = Urgency(m.clock.Remaining())
	}
	return snap
}
