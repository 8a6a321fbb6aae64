package exam

import (
	"fmt"
	"strings"
)

// Level is a package (subscription) tier. Higher tiers unlock harder content.
type Level string

// Levels
const (
	LevelStarter      Level = "STARTER"
	LevelIntermediate Level = "INTERMEDIATE"
	LevelAdvance      Level = "ADVANCE"
)

// Levels lists every Level in ascending order.
var Levels = []Level{LevelStarter, LevelIntermediate, LevelAdvance}

// rank returns the position of l in Levels, or -1.
func (l Level) rank() int {
	for i, lvl := range Levels {
		if l == lvl {
			return i
		}
	}
	return -1
}

// Valid reports whether l is one of Levels.
func (l Level) Valid() bool { return l.rank() >= 0 }

func (l Level) String() string { return string(l) }

// ParseLevel parses a stored package value, e.g. "intermediate".
func ParseLevel(s string) (Level, error) {
	lvl := Level(strings.ToUpper(strings.TrimSpace(s)))
	if !lvl.Valid() {
		return "", fmt.Errorf("unknown package %q", s)
	}
	return lvl, nil
}

// AvailableTiers returns every level up to and including tier, in ascending order.
func AvailableTiers(tier Level) []Level {
	r := tier.rank()
	if r < 0 {
		return []Level{}
	}
	tiers := make([]Level, r+1)
	copy(tiers, Levels[:r+1])
	return tiers
}

// IsSuitable reports whether content of questionTier is visible at studentTier.
func IsSuitable(questionTier, studentTier Level) bool {
	q, s := questionTier.rank(), studentTier.rank()
	return q >= 0 && s >= 0 && q <= s
}
