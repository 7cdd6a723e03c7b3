// internal/gamekit/minimax.go
package gamekit

// Search scores are centered on zero from the root side's perspective.
// Terminal wins dominate any static evaluation; remaining depth is added
// so the search prefers faster wins and slower losses.
const winScore = 1 << 20

// SearchSpec wires a rule engine into the shared alpha-beta search.
// Eval returns a static score for the given board from root's perspective
// and is only consulted at depth zero on non-terminal boards.
type SearchSpec[B, M any] struct {
	Moves    func(b B, s Side) []M
	Apply    func(b B, m M, s Side) B
	NextSide func(b B, m M, s Side) Side
	Outcome  func(b B) Outcome
	Eval     func(b B, root Side) int
}

// AlphaBeta runs a fixed-depth minimax search with alpha-beta pruning and
// returns the best move for side s on board b. Ties are broken first-seen,
// so results are repeatable for a fixed move-generation order. ok is false
// when s has no legal move.
func AlphaBeta[B, M any](sp SearchSpec[B, M], b B, s Side, depth int) (best M, ok bool) {
	moves := sp.Moves(b, s)
	if len(moves) == 0 {
		return best, false
	}
	alpha, beta := -winScore*2, winScore*2
	bestScore := -winScore * 2
	for _, m := range moves {
		child := sp.Apply(b, m, s)
		score := sp.search(child, s, sp.NextSide(child, m, s), depth-1, alpha, beta)
		if score > bestScore {
			bestScore = score
			best = m
		}
		if bestScore > alpha {
			alpha = bestScore
		}
	}
	return best, true
}

// ScoredMoves evaluates every legal move for s to the given depth and
// returns the moves alongside their scores, generation order preserved.
// Backgammon's master tier samples within a band of the best score.
func ScoredMoves[B, M any](sp SearchSpec[B, M], b B, s Side, depth int) ([]M, []int) {
	moves := sp.Moves(b, s)
	scores := make([]int, len(moves))
	for i, m := range moves {
		child := sp.Apply(b, m, s)
		scores[i] = sp.search(child, s, sp.NextSide(child, m, s), depth-1, -winScore*2, winScore*2)
	}
	return moves, scores
}

func (sp SearchSpec[B, M]) search(b B, root, toMove Side, depth, alpha, beta int) int {
	if out := sp.Outcome(b); out != InProgress {
		switch {
		case out == Draw:
			return 0
		case WinnerOf(out) == root:
			return winScore + depth
		default:
			return -(winScore + depth)
		}
	}
	if depth <= 0 {
		return sp.Eval(b, root)
	}
	moves := sp.Moves(b, toMove)
	if len(moves) == 0 {
		// A player with no legal move has lost in every engine that
		// reaches this search (checkers blocked positions).
		if toMove == root {
			return -(winScore + depth)
		}
		return winScore + depth
	}
	maximizing := toMove == root
	var bestScore int
	if maximizing {
		bestScore = -winScore * 2
	} else {
		bestScore = winScore * 2
	}
	for _, m := range moves {
		child := sp.Apply(b, m, toMove)
		score := sp.search(child, root, sp.NextSide(child, m, toMove), depth-1, alpha, beta)
		if maximizing {
			if score > bestScore {
				bestScore = score
			}
			if bestScore > alpha {
				alpha = bestScore
			}
		} else {
			if score < bestScore {
				bestScore = score
			}
			if bestScore < beta {
				beta = bestScore
			}
		}
		if beta <= alpha {
			break
		}
	}
	return bestScore
}
