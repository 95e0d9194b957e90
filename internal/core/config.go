package core

// RuntimeConfig contains per-session settings handed to presentation adapters.
type RuntimeConfig struct {
	ScreenW int    // Screen width in characters
	ScreenH int    // Screen height in characters
	Seed    int64  // RNG seed, 0 means use current time
	Player  string // Key for persisted session and scores
}

// DefaultPlayer is the player id used when none is given.
const DefaultPlayer = "local"

// DefaultConfig returns a RuntimeConfig with sensible defaults.
func DefaultConfig() RuntimeConfig {
	return RuntimeConfig{
		ScreenW: 80,
		ScreenH: 24,
		Seed:    0,
		Player:  DefaultPlayer,
	}
}
