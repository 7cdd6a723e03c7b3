// internal/gamekit/gamekit.go

// Package gamekit holds the vocabulary shared by every rule engine:
// sides, outcomes, difficulty tiers, and the generic engine contract the
// single-player controller and multiplayer adapters are built against.
package gamekit

import "math/rand"

// Side identifies one of the two players of a rule engine.
// Which concrete color/mark a side maps to is up to each engine.
type Side int

const (
	NoSide Side = iota
	SideA
	SideB
)

// Opponent returns the other side. NoSide maps to itself.
func (s Side) Opponent() Side {
	switch s {
	case SideA:
		return SideB
	case SideB:
		return SideA
	}
	return NoSide
}

func (s Side) String() string {
	switch s {
	case SideA:
		return "a"
	case SideB:
		return "b"
	}
	return "none"
}

// Outcome is the terminal classification of a board.
type Outcome int

const (
	InProgress Outcome = iota
	SideAWins
	SideBWins
	Draw
)

// WinnerOf reports which side an outcome declares as winner, or NoSide.
func WinnerOf(o Outcome) Side {
	switch o {
	case SideAWins:
		return SideA
	case SideBWins:
		return SideB
	}
	return NoSide
}

// Wins returns the winning outcome for the given side.
func Wins(s Side) Outcome {
	if s == SideA {
		return SideAWins
	}
	return SideBWins
}

// Difficulty selects the AI opponent's move policy.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
	Master Difficulty = "master"
)

// Valid reports whether d is one of the four known tiers.
func (d Difficulty) Valid() bool {
	switch d {
	case Easy, Medium, Hard, Master:
		return true
	}
	return false
}

// Engine is implemented by each rule engine package. Boards are values:
// Apply never mutates its input and returns the successor board.
//
// BeginTurn is a hook for engines with per-turn chance state (backgammon
// rolls its dice there); engines without it return the board unchanged.
type Engine[B, M any] interface {
	Initial(r *rand.Rand) B
	LegalMoves(b B, s Side) []M
	Apply(b B, m M, s Side) B
	NextSide(b B, m M, s Side) Side
	BeginTurn(b B, s Side, r *rand.Rand) B
	Outcome(b B) Outcome
}

// TurnPasser is implemented by engines where a side with no legal move
// forfeits only the turn, not the game (backgammon dice that cannot be
// played). Engines without it treat a blocked side as losing, matching
// the no-move scoring of the alpha-beta search.
type TurnPasser interface {
	PassWhenBlocked() bool
}

// Picker selects one move for side s on board b, or reports false when no
// legal move exists. Pickers backing hard/master tiers must be repeatable
// given identical board and move-generation order; r is only consulted by
// the tiers documented to randomize (easy, and backgammon's master band).
type Picker[B, M any] func(b B, s Side, r *rand.Rand) (M, bool)

// StrategyTable maps each difficulty tier to its move picker. Engines
// export one table; the controller dispatches through it instead of
// switching on the enum.
type StrategyTable[B, M any] map[Difficulty]Picker[B, M]

// RandomPicker builds the easy tier: uniform choice among legal moves.
func RandomPicker[B, M any](moves func(B, Side) []M) Picker[B, M] {
	return func(b B, s Side, r *rand.Rand) (M, bool) {
		var zero M
		ms := moves(b, s)
		if len(ms) == 0 {
			return zero, false
		}
		return ms[r.Intn(len(ms))], true
	}
}
