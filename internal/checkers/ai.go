// internal/checkers/ai.go
package checkers

import (
	"math/rand"

	"github.com/haloarcade/tabletop/internal/gamekit"
)

const (
	hardDepth   = 4
	masterDepth = 6
)

// Evaluation weights: material dominates, kings are worth more, and
// position nudges pieces toward the center and off the edges.
const (
	manValue    = 100
	kingValue   = 165
	centerBonus = 8
	edgePenalty = 4
	homeBonus   = 6
)

var searchSpec = gamekit.SearchSpec[Board, Move]{
	Moves:    LegalMoves,
	Apply:    Apply,
	NextSide: Engine{}.NextSide,
	Outcome:  Outcome,
	Eval:     Evaluate,
}

// Strategies is the difficulty table for the checkers opponent.
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

// pickMedium takes an immediate win if one move delivers it, else the
// biggest capture chain, else the best one-ply evaluation.
func pickMedium(b Board, s gamekit.Side, _ *rand.Rand) (Move, bool) {
	moves := LegalMoves(b, s)
	if len(moves) == 0 {
		var zero Move
		return zero, false
	}
	best := moves[0]
	bestScore := mediumScore(b, best, s)
	for _, m := range moves[1:] {
		if score := mediumScore(b, m, s); score > bestScore {
			best, bestScore = m, score
		}
	}
	return best, true
}

func mediumScore(b Board, m Move, s gamekit.Side) int {
	after := Apply(b, m, s)
	if Outcome(after) == gamekit.Wins(s) {
		return 1 << 20
	}
	return len(m.Captures)*manValue + Evaluate(after, s)
}

// Evaluate scores the board for root: material with king bonus, center
// preference, edge penalty, and a small bonus for guarding the back rank.
func Evaluate(b Board, root gamekit.Side) int {
	score := 0
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			piece := b.Squares[r][c]
			side := SideOf(piece)
			if side == gamekit.NoSide {
				continue
			}
			v := manValue
			if IsKing(piece) {
				v = kingValue
			}
			if r >= 2 && r <= 5 && c >= 2 && c <= 5 {
				v += centerBonus
			}
			if c == 0 || c == Size-1 {
				v -= edgePenalty
			}
			if !IsKing(piece) && r == backRank(side.Opponent()) {
				v += homeBonus
			}
			if side == root {
				score += v
			} else {
				score -= v
			}
		}
	}
	return score
}
