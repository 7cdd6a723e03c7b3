// internal/tictactoe/ai.go
package tictactoe

import (
	"math/rand"

	"github.com/haloarcade/tabletop/internal/gamekit"
)

// Search depths per tier. Master searches the full game tree (a 3x3 game
// is at most 9 plies deep), guaranteeing at least a draw.
const (
	hardDepth   = 4
	masterDepth = 9
)

var searchSpec = gamekit.SearchSpec[Board, Move]{
	Moves:    LegalMoves,
	Apply:    Apply,
	NextSide: Engine{}.NextSide,
	Outcome:  Outcome,
	// Only terminal positions carry signal at this size.
	Eval: func(Board, gamekit.Side) int { return 0 },
}

// Strategies is the difficulty table for the tic-tac-toe opponent.
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

// mediumOrder prefers the center, then corners, then edges.
var mediumOrder = [9]Move{4, 0, 2, 6, 8, 1, 3, 5, 7}

// pickMedium takes an immediate win, else blocks an immediate opponent
// win, else falls back to positional preference.
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
	open := make(map[Move]bool, len(moves))
	for _, m := range moves {
		open[m] = true
	}
	for _, m := range mediumOrder {
		if open[m] {
			return m, true
		}
	}
	return moves[0], true
}

func winningMove(b Board, s gamekit.Side) (Move, bool) {
	for _, m := range LegalMoves(b, s) {
		if Outcome(Apply(b, m, s)) == gamekit.Wins(s) {
			return m, true
		}
	}
	return 0, false
}
