package bots

import (
	"errors"
	"math/rand"
	"testing"
	"time"
)

func TestLookup(t *testing.T) {
	b, err := Lookup("bot-medium")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if b.Name != "LexiBot" || b.Difficulty != DifficultyMedium {
		t.Fatalf("unexpected bot: %+v", b)
	}

	if _, err := Lookup("bot-grandmaster"); !errors.Is(err, ErrUnknownBot) {
		t.Fatalf("err = %v, want ErrUnknownBot", err)
	}
}

func TestMoveDelayStaysWithinTierBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	cases := []struct {
		tier     Difficulty
		min, max time.Duration
	}{
		{DifficultyBeginner, 2000 * time.Millisecond, 3000 * time.Millisecond},
		{DifficultyEasy, 2500 * time.Millisecond, 4000 * time.Millisecond},
		{DifficultyMedium, 3000 * time.Millisecond, 5000 * time.Millisecond},
	}
	for _, tc := range cases {
		for i := 0; i < 1000; i++ {
			d := MoveDelay(tc.tier, rng)
			if d < tc.min || d >= tc.max {
				t.Fatalf("%s delay %v outside [%v, %v)", tc.tier, d, tc.min, tc.max)
			}
		}
	}
}

func TestMoveDelayUnknownTierFallsBackToMedium(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 1000; i++ {
		d := MoveDelay(Difficulty("impossible"), rng)
		if d < 3000*time.Millisecond || d >= 5000*time.Millisecond {
			t.Fatalf("fallback delay %v outside medium range", d)
		}
	}
}
