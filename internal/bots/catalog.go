package bots

import (
	"errors"
	"math/rand"
	"time"
)

// ErrUnknownBot is returned when a bot id is not in the catalog.
var ErrUnknownBot = errors.New("unknown bot")

// Difficulty selects the delay distribution for a bot's scheduled moves.
type Difficulty string

const (
	DifficultyBeginner Difficulty = "beginner"
	DifficultyEasy     Difficulty = "easy"
	DifficultyMedium   Difficulty = "medium"
)

// Bot is a catalog entry for an automated opponent.
type Bot struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Difficulty  Difficulty `json:"difficulty"`
	Avatar      string     `json:"avatar"`
	Description string     `json:"description"`
	WinRate     float64    `json:"win_rate"`
}

// Catalog is the built-in bot roster.
var Catalog = []Bot{
	{
		ID:          "bot-beginner",
		Name:        "Robo Rookie",
		Difficulty:  DifficultyBeginner,
		Avatar:      "🤖",
		Description: "Takes it slow and steady.",
		WinRate:     0.35,
	},
	{
		ID:          "bot-easy",
		Name:        "Clevertron",
		Difficulty:  DifficultyEasy,
		Avatar:      "🛠️",
		Description: "Makes simple but solid moves.",
		WinRate:     0.45,
	},
	{
		ID:          "bot-medium",
		Name:        "LexiBot",
		Difficulty:  DifficultyMedium,
		Avatar:      "📚",
		Description: "Thinks a bit deeper and blocks occasionally.",
		WinRate:     0.55,
	},
}

// Lookup finds a catalog bot by id.
func Lookup(id string) (Bot, error) {
	for _, b := range Catalog {
		if b.ID == id {
			return b, nil
		}
	}
	return Bot{}, ErrUnknownBot
}

// delayRanges maps a difficulty to its uniform move-delay bounds. Unknown
// tiers fall back to medium.
var delayRanges = map[Difficulty][2]time.Duration{
	DifficultyBeginner: {2000 * time.Millisecond, 3000 * time.Millisecond},
	DifficultyEasy:     {2500 * time.Millisecond, 4000 * time.Millisecond},
	DifficultyMedium:   {3000 * time.Millisecond, 5000 * time.Millisecond},
}

// MoveDelay draws a move delay uniformly from the tier's range.
func MoveDelay(tier Difficulty, rng *rand.Rand) time.Duration {
	bounds, ok := delayRanges[tier]
	if !ok {
		bounds = delayRanges[DifficultyMedium]
	}
	spread := bounds[1] - bounds[0]
	return bounds[0] + time.Duration(rng.Int63n(int64(spread)))
}
