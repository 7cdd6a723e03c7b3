// internal/backgammon/board.go

// Package backgammon implements the backgammon rule engine: point/bar
// movement, hitting, bearing off, dice handling, and the AI opponents.
//
// SideA travels from point 24 down to its home board (points 1-6) and
// bears off past point 1; SideB travels 1 up to 24 and bears off past 24.
// The bar is point 25 for SideA and 0 for SideB, matching travel
// direction; the bear-off targets are 0 and 25 respectively.
package backgammon

import (
	"math/rand"

	"github.com/haloarcade/tabletop/internal/gamekit"
)

const (
	NumPoints       = 24
	CheckersPerSide = 15

	BarA = 25
	BarB = 0
	OffA = 0
	OffB = 25
)

// Point is one of the 24 track positions. Count checkers all belong to
// Side; a point never mixes colors.
type Point struct {
	Side  gamekit.Side `json:"side"`
	Count int          `json:"count"`
}

// Board is a value type; Apply returns a fresh copy. Dice holds the pips
// still unplayed this turn (four entries after doubles).
type Board struct {
	Points [NumPoints + 1]Point `json:"points"` // index 1..24
	Bar    [2]int               `json:"bar"`    // index 0 = SideA, 1 = SideB
	Off    [2]int               `json:"off"`
	Dice   []int                `json:"dice"`
}

// Move is one checker moved by one die.
type Move struct {
	From int  `json:"from"`
	To   int  `json:"to"`
	Die  int  `json:"die"`
	Hit  bool `json:"hit"`
}

func sideIdx(s gamekit.Side) int {
	if s == gamekit.SideA {
		return 0
	}
	return 1
}

// NewBoard returns the standard starting layout with no dice rolled.
func NewBoard() Board {
	var b Board
	place := func(s gamekit.Side, pt, n int) {
		b.Points[pt] = Point{Side: s, Count: n}
	}
	place(gamekit.SideA, 24, 2)
	place(gamekit.SideA, 13, 5)
	place(gamekit.SideA, 8, 3)
	place(gamekit.SideA, 6, 5)
	place(gamekit.SideB, 1, 2)
	place(gamekit.SideB, 12, 5)
	place(gamekit.SideB, 17, 3)
	place(gamekit.SideB, 19, 5)
	return b
}

// Roll returns the board with a fresh roll for the turn; doubles expand
// to four pips.
func Roll(b Board, r *rand.Rand) Board {
	d1, d2 := 1+r.Intn(6), 1+r.Intn(6)
	if d1 == d2 {
		b.Dice = []int{d1, d1, d1, d1}
	} else {
		b.Dice = []int{d1, d2}
	}
	return b
}

// open reports whether side s may land on the point: empty, own, or a
// lone opposing blot.
func (b Board) open(pt int, s gamekit.Side) bool {
	p := b.Points[pt]
	return p.Count == 0 || p.Side == s || p.Count == 1
}

// entryPoint is where a die brings a checker in from the bar.
func entryPoint(s gamekit.Side, die int) int {
	if s == gamekit.SideA {
		return BarA - die
	}
	return die
}

// homePoints reports whether pt lies in s's home board.
func homePoints(s gamekit.Side, pt int) bool {
	if s == gamekit.SideA {
		return pt >= 1 && pt <= 6
	}
	return pt >= 19 && pt <= 24
}

// allHome reports whether every checker of s still on the board sits in
// its home board (bar counts as not home).
func (b Board) allHome(s gamekit.Side) bool {
	if b.Bar[sideIdx(s)] > 0 {
		return false
	}
	for pt := 1; pt <= NumPoints; pt++ {
		if b.Points[pt].Side == s && b.Points[pt].Count > 0 && !homePoints(s, pt) {
			return false
		}
	}
	return true
}

// distanceOff is the exact pip count needed to bear the checker off.
func distanceOff(s gamekit.Side, pt int) int {
	if s == gamekit.SideA {
		return pt
	}
	return OffB - pt
}

// LegalMoves generates every single-die move for the side given the
// remaining dice. A side with checkers on the bar may only enter; bearing
// off with an oversized die is offered only when no checker sits on a
// higher home point.
func LegalMoves(b Board, s gamekit.Side) []Move {
	if Outcome(b) != gamekit.InProgress {
		return nil
	}
	var ms []Move
	for _, die := range distinctDice(b.Dice) {
		if b.Bar[sideIdx(s)] > 0 {
			ep := entryPoint(s, die)
			if b.open(ep, s) {
				ms = append(ms, Move{From: barOf(s), To: ep, Die: die, Hit: b.hits(ep, s)})
			}
			continue
		}
		for pt := 1; pt <= NumPoints; pt++ {
			if b.Points[pt].Side != s || b.Points[pt].Count == 0 {
				continue
			}
			to := advance(s, pt, die)
			switch {
			case to >= 1 && to <= NumPoints:
				if b.open(to, s) {
					ms = append(ms, Move{From: pt, To: to, Die: die, Hit: b.hits(to, s)})
				}
			case b.allHome(s):
				d := distanceOff(s, pt)
				if die == d || (die > d && !b.hasHigherHomeChecker(s, pt)) {
					ms = append(ms, Move{From: pt, To: offOf(s), Die: die})
				}
			}
		}
	}
	return ms
}

func barOf(s gamekit.Side) int {
	if s == gamekit.SideA {
		return BarA
	}
	return BarB
}

func offOf(s gamekit.Side) int {
	if s == gamekit.SideA {
		return OffA
	}
	return OffB
}

func advance(s gamekit.Side, pt, die int) int {
	if s == gamekit.SideA {
		return pt - die
	}
	return pt + die
}

func (b Board) hits(pt int, s gamekit.Side) bool {
	p := b.Points[pt]
	return p.Count == 1 && p.Side == s.Opponent()
}

// hasHigherHomeChecker reports whether s has a checker on a home point
// farther from bearing off than pt.
func (b Board) hasHigherHomeChecker(s gamekit.Side, pt int) bool {
	for q := 1; q <= NumPoints; q++ {
		if !homePoints(s, q) || b.Points[q].Side != s || b.Points[q].Count == 0 {
			continue
		}
		if distanceOff(s, q) > distanceOff(s, pt) {
			return true
		}
	}
	return false
}

func distinctDice(dice []int) []int {
	var out []int
	seen := [7]bool{}
	for _, d := range dice {
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	return out
}

// Apply executes a legal move: consumes the die, moves the checker,
// sends a hit blot to the opponent's bar, or bears the checker off.
func Apply(b Board, m Move, s gamekit.Side) Board {
	b.Dice = consumeDie(b.Dice, m.Die)

	if m.From == barOf(s) {
		b.Bar[sideIdx(s)]--
	} else {
		b.Points[m.From].Count--
		if b.Points[m.From].Count == 0 {
			b.Points[m.From].Side = gamekit.NoSide
		}
	}

	if m.To == offOf(s) {
		b.Off[sideIdx(s)]++
		return b
	}

	if m.Hit {
		b.Points[m.To] = Point{}
		b.Bar[sideIdx(s.Opponent())]++
	}
	b.Points[m.To].Side = s
	b.Points[m.To].Count++
	return b
}

func consumeDie(dice []int, die int) []int {
	out := make([]int, 0, len(dice))
	removed := false
	for _, d := range dice {
		if !removed && d == die {
			removed = true
			continue
		}
		out = append(out, d)
	}
	return out
}

// BornOff returns the number of checkers the side has borne off.
func (b Board) BornOff(s gamekit.Side) int { return b.Off[sideIdx(s)] }

// Outcome classifies the board: first to bear off all fifteen wins.
// Backgammon has no draw state.
func Outcome(b Board) gamekit.Outcome {
	if b.Off[0] >= CheckersPerSide {
		return gamekit.SideAWins
	}
	if b.Off[1] >= CheckersPerSide {
		return gamekit.SideBWins
	}
	return gamekit.InProgress
}

// PipCount is the total distance s's checkers still have to travel.
func PipCount(b Board, s gamekit.Side) int {
	pips := b.Bar[sideIdx(s)] * 25
	for pt := 1; pt <= NumPoints; pt++ {
		if b.Points[pt].Side == s {
			pips += b.Points[pt].Count * distanceOff(s, pt)
		}
	}
	return pips
}

// Engine adapts the package functions to the shared engine contract.
type Engine struct{}

func (Engine) Initial(r *rand.Rand) Board                  { return Roll(NewBoard(), r) }
func (Engine) LegalMoves(b Board, s gamekit.Side) []Move   { return LegalMoves(b, s) }
func (Engine) Apply(b Board, m Move, s gamekit.Side) Board { return Apply(b, m, s) }
func (Engine) Outcome(b Board) gamekit.Outcome             { return Outcome(b) }

// BeginTurn rolls fresh dice for the side taking over the turn.
func (Engine) BeginTurn(b Board, _ gamekit.Side, r *rand.Rand) Board {
	return Roll(b, r)
}

// NextSide keeps the turn with the mover while unplayed dice remain.
func (Engine) NextSide(b Board, _ Move, s gamekit.Side) gamekit.Side {
	if len(b.Dice) > 0 {
		return s
	}
	return s.Opponent()
}

// PassWhenBlocked reports that an unplayable roll forfeits the turn, not
// the game.
func (Engine) PassWhenBlocked() bool { return true }
