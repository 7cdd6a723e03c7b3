// internal/connectfour/ai.go
package connectfour

import (
	"math/rand"

	"github.com/haloarcade/tabletop/internal/gamekit"
)

const (
	hardDepth   = 4
	masterDepth = 6
)

// colWeight biases evaluation toward the center columns, where more
// four-in-a-row lines intersect.
var colWeight = [Cols]int{1, 2, 3, 5, 3, 2, 1}

var searchSpec = gamekit.SearchSpec[Board, Move]{
	Moves:    LegalMoves,
	Apply:    Apply,
	NextSide: Engine{}.NextSide,
	Outcome:  Outcome,
	Eval:     Evaluate,
}

// Strategies is the difficulty table for the connect-four opponent.
func Strategies() gamekit.StrategyTable[Board, Move] {
	return gamekit.StrategyTable[Board, Move]{
		gamekit.Easy:   gamekit.RandomPicker[Board, Move](LegalMoves),
		gamekit.Medium: pickMedium,
		gamekit.Hard:   searchPicker(hardDepth),
		gamekit.Master: searchPicker(masterDepth),
	}
}

func searchPicker(depth int) gamekit.Picker[Board, Move] {
	return func(b Board, s gamekit.Side, _ *rand.Rand) (Move, bool) {
		return gamekit.AlphaBeta(searchSpec, b, s, depth)
	}
}

// pickMedium takes an immediate win, else blocks an immediate opponent
// win, else drops in the most central open column.
func pickMedium(b Board, s gamekit.Side, _ *rand.Rand) (Move, bool) {
	moves := LegalMoves(b, s)
	if len(moves) == 0 {
		return 0, false
	}
	if m, ok := winningMove(b, s); ok {
		return m, true
	}
	if m, ok := winningMove(b, s.Opponent()); ok {
		return m, true
	}
	best := moves[0]
	for _, m := range moves[1:] {
		if colWeight[m] > colWeight[best] {
			best = m
		}
	}
	return best, true
}

func winningMove(b Board, s gamekit.Side) (Move, bool) {
	for _, m := range LegalMoves(b, s) {
		if Outcome(Apply(b, m, s)) == gamekit.Wins(s) {
			return m, true
		}
	}
	return 0, false
}

// Evaluate scores the board for root using positional column weights and
// open-ended runs of two and three.
func Evaluate(b Board, root gamekit.Side) int {
	mine, theirs := CellOf(root), CellOf(root.Opponent())
	score := 0
	for r := 0; r < Rows; r++ {
		for c := 0; c < Cols; c++ {
			switch b.Grid[r][c] {
			case mine:
				score += colWeight[c]
			case theirs:
				score -= colWeight[c]
			}
		}
	}
	score += 10 * (runs(b, mine, 3) - runs(b, theirs, 3))
	score += 3 * (runs(b, mine, 2) - runs(b, theirs, 2))
	return score
}

// runs counts length-4 windows holding exactly n discs of the color and
// no opposing disc, i.e. lines still completable.
func runs(b Board, color Cell, n int) int {
	count := 0
	for r := 0; r < Rows; r++ {
		for c := 0; c < Cols; c++ {
			for _, d := range dirs {
				er, ec := r+3*d[0], c+3*d[1]
				if er < 0 || er >= Rows || ec < 0 || ec >= Cols {
					continue
				}
				own, other := 0, 0
				for i := 0; i < 4; i++ {
					switch b.Grid[r+i*d[0]][c+i*d[1]] {
					case color:
						own++
					case Empty:
					default:
						other++
					}
				}
				if own == n && other == 0 {
					count++
				}
			}
		}
	}
	return count
}
