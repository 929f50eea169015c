package game

import "candleQuest/config"

// SessionAggregator keeps the running totals of one session.
type SessionAggregator struct {
	roundIndex      int
	totalRounds     int
	totalScore      float64
	correctCount    int
	roundsCompleted int
	finished        bool
}

func NewSessionAggregator(totalRounds int) *SessionAggregator {
	if totalRounds < 1 {
		totalRounds = 1
	}
	return &SessionAggregator{roundIndex: 1, totalRounds: totalRounds}
}

// Record adds one resolved round to the totals.
func (a *SessionAggregator) Record(outcome RoundOutcome) {
	a.totalScore = RoundToDecimal(a.totalScore+outcome.Score, config.ScoreDecimals)
	if outcome.Correct {
		a.correctCount++
	}
	a.roundsCompleted++
}

// Accuracy is the percentage of resolved rounds answered correctly, 0 before any round resolves.
func (a *SessionAggregator) Accuracy() float64 {
	if a.roundsCompleted == 0 {
		return 0
	}
	return RoundToDecimal(float64(a.correctCount)/float64(a.roundsCompleted)*100, config.ScoreDecimals)
}

// Advance moves to the next round. It does nothing on the last round.
func (a *SessionAggregator) Advance() bool {
	if a.roundIndex >= a.totalRounds {
		return false
	}
	a.roundIndex++
	return true
}

func (a *SessionAggregator) HasNext() bool { return a.roundIndex < a.totalRounds }

func (a *SessionAggregator) Finish() { a.finished = true }

func (a *SessionAggregator) IsComplete() bool {
	return a.roundIndex == a.totalRounds && a.finished
}

func (a *SessionAggregator) Reset() {
	*a = SessionAggregator{roundIndex: 1, totalRounds: a.totalRounds}
}

func (a *SessionAggregator) Stats() SessionStats {
	return SessionStats{
		RoundIndex:      a.roundIndex,
		TotalRounds:     a.totalRounds,
		TotalScore:      a.totalScore,
		CorrectCount:    a.correctCount,
		RoundsCompleted: a.roundsCompleted,
		Accuracy:        a.Accuracy(),
		Complete:        a.IsComplete(),
	}
}
