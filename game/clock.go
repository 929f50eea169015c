package game

import "fmt"

type ClockState string

const (
	ClockIdle      ClockState = "idle"
	ClockRunning   ClockState = "running"
	ClockExpired   ClockState = "expired"
	ClockCancelled ClockState = "cancelled"
)

// TickResult tells the caller what a tick did.
type TickResult int

const (
	TickIgnored TickResult = iota // clock not running
	TickCounted                   // remaining decremented, still running
	TickExpired                   // remaining hit zero on this tick
)

// RoundClock is a per-round countdown in whole seconds.
//
// It does not own a timer. The event loop that owns the clock calls Tick once
// per second, so Cancel takes effect before any later tick is processed.
type RoundClock struct {
	state     ClockState
	remaining int
}

func NewRoundClock() *RoundClock {
	return &RoundClock{state: ClockIdle}
}

func (c *RoundClock) Start(budget int) error {
	if c.state != ClockIdle {
		return fmt.Errorf("%w: clock start from %s", ErrInvalidTransition, c.state)
	}
	if budget <= 0 {
		return fmt.Errorf("clock budget must be positive, got %d", budget)
	}
	c.state = ClockRunning
	c.remaining = budget
	return nil
}

func (c *RoundClock) Tick() TickResult {
	if c.state != ClockRunning {
		return TickIgnored
	}
	c.remaining--
	if c.remaining <= 0 {
		c.remaining = 0
		c.state = ClockExpired
		return TickExpired
	}
	return TickCounted
}

// Cancel stops a running clock. It reports whether the clock was running.
func (c *RoundClock) Cancel() bool {
	if c.state != ClockRunning {
		return false
	}
	c.state = ClockCancelled
	return true
}

// Reset returns the clock to idle so the next round can start it.
func (c *RoundClock) Reset() {
	c.state = ClockIdle
	c.remaining = 0
}

func (c *RoundClock) State() ClockState { return c.state }
func (c *RoundClock) Remaining() int { return c.remaining }
func (c *RoundClock) Running() bool { return c.state == ClockRunning }

// Urgency buckets the remaining seconds for display.
func Urgency(remaining int) string {
	switch {
	case remaining <= 3:
		return "critical"
	case remaining <= 7:
		return "warning"
	default:
		return "normal"
	}
}
