package game

import (
	"encoding/json"
	"time"
)

// DateLayout is the calendar-day format used for bar timestamps on the wire.
const DateLayout = "2006-01-02"

// PriceBar is one daily OHLC candle.
type PriceBar struct {
	Time  time.Time
	Open  float64
	High  float64
	Low   float64
	Close float64
}

type priceBarJSON struct {
	Time  string  `json:"time"`
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
}

// MarshalJSON writes the bar with a YYYY-MM-DD time, the shape chart widgets expect.
func (b PriceBar) MarshalJSON() ([]byte, error) {
	return json.Marshal(priceBarJSON{
		Time:  b.Time.Format(DateLayout),
		Open:  b.Open,
		High:  b.High,
		Low:   b.Low,
		Close: b.Close,
	})
}

func (b *PriceBar) UnmarshalJSON(data []byte) error {
	var raw priceBarJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	t, err := time.Parse(DateLayout, raw.Time)
	if err != nil {
		return err
	}
	*b = PriceBar{Time: t, Open: raw.Open, High: raw.High, Low: raw.Low, Close: raw.Close}
	return nil
}

// Series is the full bar sequence of a round. It is never modified after generation.
type Series []PriceBar

// Direction is both the player's guess and the classified ground truth.
type Direction string

const (
	DirectionUp       Direction = "up"
	DirectionDown     Direction = "down"
	DirectionSideways Direction = "sideways"
)

// ParseDirection validates a direction received from a client.
func ParseDirection(s string) (Direction, bool) {
	switch Direction(s) {
	case DirectionUp, DirectionDown, DirectionSideways:
		return Direction(s), true
	}
	return "", false
}

// RoundOutcome is created once, when a round resolves.
type RoundOutcome struct {
	Chosen        Direction `json:"chosen"`
	Actual        Direction `json:"actual"`
	Score         float64   `json:"score"`
	Correct       bool      `json:"correct"`
	TimedOut      bool      `json:"timedOut"`
	ChangePercent float64   `json:"changePercent"`
	StartClose    float64   `json:"startClose"`
	EndClose      float64   `json:"endClose"`
}

// SessionStats is a read-only view of the running session totals.
type SessionStats struct {
	RoundIndex      int     `json:"roundIndex"`
	TotalRounds     int     `json:"totalRounds"`
	TotalScore      float64 `json:"totalScore"`
	CorrectCount    int     `json:"correctCount"`
	RoundsCompleted int     `json:"roundsCompleted"`
	Accuracy        float64 `json:"accuracy"`
	Complete        bool    `json:"complete"`
}

// RoundRecord is the persisted shape of one resolved round.
type RoundRecord struct {
	RoundID   string    `json:"roundId"`
	UserID    string    `json:"userId"`
	Mode      int       `json:"mode"`
	Symbol    string    `json:"symbol"`
	Timeframe string    `json:"timeframe"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	Chosen    Direction `json:"chosen"`
	Actual    Direction `json:"actual"`
	Score     float64   `json:"score"`
	WasWrong  bool      `json:"wasWrong"`
	SeedHash  string    `json:"seedHash"`
}
