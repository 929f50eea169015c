package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSessionAggregator_RunningTotals(t *testing.T) {
	a := NewSessionAggregator(3)
	assert.Equal(t, 0.0, a.Accuracy(), "no resolved rounds yet")

	a.Record(RoundOutcome{Score: 80, Correct: true})
	a.Advance()
	a.Record(RoundOutcome{Score: 40, Correct: false})
	a.Advance()
	a.Record(RoundOutcome{Score: 100, Correct: true})

	stats := a.Stats()
	assert.Equal(t, 220.0, stats.TotalScore)
	assert.Equal(t, 2, stats.CorrectCount)
	assert.Equal(t, 3, stats.RoundsCompleted)
	assert.Equal(t, 66.67, a.Accuracy())
	assert.Equal(t, 66.67, stats.Accuracy)
	assert.Equal(t, 3, stats.RoundIndex)
}

func TestSessionAggregator_Completion(t *testing.T) {
	a := NewSessionAggregator(2)
	assert.True(t, a.HasNext())
	assert.False(t, a.IsComplete())

	assert.True(t, a.Advance())
	assert.False(t, a.HasNext())
	assert.False(t, a.Advance(), "cannot advance past the last round")
	assert.Equal(t, 2, a.Stats().RoundIndex)

	assert.False(t, a.IsComplete(), "last round but not finished")
	a.Finish()
	assert.True(t, a.IsComplete())
	assert.True(t, a.Stats().Complete)
}

func TestSessionAggregator_Reset(t *testing.T) {
	a := NewSessionAggregator(2)
	a.Record(RoundOutcome{Score: 55.5, Correct: true})
	a.Advance()
	a.Record(RoundOutcome{Score: 10, Correct: false})
	a.Finish()

	a.Reset()
	assert.Equal(t, SessionStats{RoundIndex: 1, TotalRounds: 2}, a.Stats())
	assert.False(t, a.IsComplete())
}

func TestSessionAggregator_FractionalScores(t *testing.T) {
	a := NewSessionAggregator(10)
	a.Record(RoundOutcome{Score: 70.1})
	a.Record(RoundOutcome{Score: 20.2})
	assert.Equal(t, 90.3, a.Stats().TotalScore)
}
