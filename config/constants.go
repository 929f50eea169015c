package config

import "time"

/* =========================
   GAME MECHANICS - ROUNDS
========================= */

const (
	// Series shape
	SeriesLength = 30 // bars generated per round
	HiddenBars   = 5  // trailing bars withheld until resolution

	// Price simulation
	BasePriceMin    = 100.0
	BasePriceSpread = 20.0 // base price drawn from [100, 120)
	Volatility      = 0.02 // 2% band, change drawn from [-1%, +1%]
	WickMax         = 0.01 // wicks extend up to 1% past the body

	// Classification
	ChangeThreshold = 5.0 // percent; strictly beyond it is up/down
	ScoreDecimals   = 2

	// Timing
	RoundBudgetSeconds = 10
	TickInterval       = 1 * time.Second

	// Session
	TotalRounds = 10
)

/* =========================
   RESULT RECORD
========================= */

const (
	RecordMode      = 2
	RecordSymbol    = "FAKE"
	RecordTimeframe = "1d"
	RecordSpan      = 24 * time.Hour

	// Detached persistence timeout
	PersistTimeout = 5 * time.Second
)

/* =========================
   CHART
========================= */

const (
	ChartViewportHeight = 400
)

/* =========================
   REDIS TTL CONFIGURATION
========================= */

const (
	// Round seed kept for verification (2 hours)
	// Key: round:{roundId}
	RoundSeedTTL = 2 * time.Hour

	// Live session snapshot (1 hour)
	// Key: session:{userId}
	SessionSnapshotTTL = 1 * time.Hour
)

/* =========================
   REDIS KEY PATTERNS
========================= */

const (
	RedisRoundSeedKey       = "round:%s"   // round:{roundId}
	RedisSessionSnapshotKey = "session:%s" // session:{userId}
)

/* =========================
   POSTGRESQL CONFIGURATION
========================= */

const (
	// Connection pool settings
	MaxOpenConns    = 25
	MaxIdleConns    = 5
	ConnMaxLifetime = 5 * time.Minute
)

/* =========================
   API CONFIGURATION
========================= */

const (
	ServerPort = "8080"
	ServerHost = "0.0.0.0"

	AllowOrigin = "*"

	HistoryLimit     = 50
	LeaderboardLimit = 20
)

/* =========================
   WEBSOCKET CONFIGURATION
========================= */

const (
	WSReadDeadline  = 60 * time.Second
	WSWriteDeadline = 10 * time.Second
	WSPingInterval  = 30 * time.Second

	WSReadBufferSize  = 1024
	WSWriteBufferSize = 1024

	MaxMessageSize = 512 * 1024 // 512KB

	// Sessions idle longer than this are closed by the janitor
	SessionIdleTimeout = 30 * time.Minute
	JanitorSchedule    = "@every 1m"
)
