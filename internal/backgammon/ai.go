// internal/backgammon/ai.go
package backgammon

import (
	"math/rand"

	"github.com/haloarcade/tabletop/internal/gamekit"
)

// Evaluation weights. Every tier shares the evaluator; tiers differ only
// in the selection policy around it.
const (
	offWeight       = 60
	blotPenalty     = 12
	madePointBonus  = 5
	barPenalty      = 20
	masterScoreBand = 30
)

// Strategies is the difficulty table for the backgammon opponent. Dice
// already bound determinism, so master trades exhaustive search for
// randomized selection among near-optimal moves.
func Strategies() gamekit.StrategyTable[Board, Move] {
	return gamekit.StrategyTable[Board, Move]{
		gamekit.Easy:   gamekit.RandomPicker[Board, Move](LegalMoves),
		gamekit.Medium: pickMedium,
		gamekit.Hard:   pickBest,
		gamekit.Master: pickNearBest,
	}
}

// pickMedium prefers hitting, then bearing off, then the best evaluated
// successor.
func pickMedium(b Board, s gamekit.Side, _ *rand.Rand) (Move, bool) {
	moves := LegalMoves(b, s)
	if len(moves) == 0 {
		return Move{}, false
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
	score := 0
	if m.Hit {
		score += 500
	}
	if m.To == offOf(s) {
		score += 300
	}
	return score + Evaluate(Apply(b, m, s), s)
}

// pickBest is the deterministic greedy policy over the full evaluator.
// Ties break first-seen, keeping selection repeatable.
func pickBest(b Board, s gamekit.Side, _ *rand.Rand) (Move, bool) {
	moves, scores := scoredMoves(b, s)
	if len(moves) == 0 {
		return Move{}, false
	}
	bestIdx := 0
	for i, sc := range scores {
		if sc > scores[bestIdx] {
			bestIdx = i
		}
	}
	return moves[bestIdx], true
}

// pickNearBest samples uniformly among moves scoring within
// masterScoreBand of the best.
func pickNearBest(b Board, s gamekit.Side, r *rand.Rand) (Move, bool) {
	moves, scores := scoredMoves(b, s)
	if len(moves) == 0 {
		return Move{}, false
	}
	best := scores[0]
	for _, sc := range scores[1:] {
		if sc > best {
			best = sc
		}
	}
	var near []Move
	for i, sc := range scores {
		if best-sc <= masterScoreBand {
			near = append(near, moves[i])
		}
	}
	return near[r.Intn(len(near))], true
}

func scoredMoves(b Board, s gamekit.Side) ([]Move, []int) {
	moves := LegalMoves(b, s)
	scores := make([]int, len(moves))
	for i, m := range moves {
		scores[i] = Evaluate(Apply(b, m, s), s)
	}
	return moves, scores
}

// Evaluate scores the board for root: pip differential, borne-off count
// (heavily weighted), blot exposure, made points, and checkers stuck on
// the bar.
func Evaluate(b Board, root gamekit.Side) int {
	opp := root.Opponent()
	score := PipCount(b, opp) - PipCount(b, root)
	score += offWeight * (b.Off[sideIdx(root)] - b.Off[sideIdx(opp)])
	score -= barPenalty * (b.Bar[sideIdx(root)] - b.Bar[sideIdx(opp)])
	for pt := 1; pt <= NumPoints; pt++ {
		p := b.Points[pt]
		if p.Count == 0 {
			continue
		}
		sign := 1
		if p.Side != root {
			sign = -1
		}
		if p.Count == 1 {
			score -= sign * blotPenalty
		} else {
			score += sign * madePointBonus
		}
	}
	return score
}
