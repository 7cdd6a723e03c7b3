// internal/checkers/board.go

// Package checkers implements the 8x8 draughts rule engine with mandatory
// captures, multi-jump chains, king promotion, and its AI opponents.
package checkers

import (
	"math/rand"

	"github.com/haloarcade/tabletop/internal/gamekit"
)

const Size = 8

// drawPlyLimit is the number of consecutive plies without a capture after
// which the game is declared drawn.
const drawPlyLimit = 100

// stopChainOnPromotion ends a capture chain the moment a man is crowned,
// even if the new king could keep jumping. Kept as a named policy so the
// rule can be revisited without touching the chain search.
const stopChainOnPromotion = true

// Piece is the content of one square.
type Piece uint8

const (
	Empty Piece = iota
	RedMan
	RedKing
	BlackMan
	BlackKing
)

// Red plays SideA and moves toward row 0; black plays SideB and moves
// toward row 7.
func SideOf(p Piece) gamekit.Side {
	switch p {
	case RedMan, RedKing:
		return gamekit.SideA
	case BlackMan, BlackKing:
		return gamekit.SideB
	}
	return gamekit.NoSide
}

// IsKing reports whether the piece is crowned.
func IsKing(p Piece) bool { return p == RedKing || p == BlackKing }

// Pos is a square on the board.
type Pos struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (p Pos) in() bool {
	return p.Row >= 0 && p.Row < Size && p.Col >= 0 && p.Col < Size
}

// Board is a value type; Apply returns a fresh copy.
type Board struct {
	Squares [Size][Size]Piece `json:"squares"`

	// PliesSinceCapture drives the 100-ply draw rule. It resets on any
	// capture and increments otherwise.
	PliesSinceCapture int `json:"pliesSinceCapture"`
}

// Move is one ply. Capture chains carry every captured square and the
// intermediate landing squares (Path ends at To).
type Move struct {
	From     Pos   `json:"from"`
	To       Pos   `json:"to"`
	Path     []Pos `json:"path,omitempty"`
	Captures []Pos `json:"captures,omitempty"`
	Promotes bool  `json:"promotes"`
}

// IsCapture reports whether the move jumps at least one piece.
func (m Move) IsCapture() bool { return len(m.Captures) > 0 }

// NewBoard returns the standard starting layout: black on rows 0-2, red
// on rows 5-7, dark squares only.
func NewBoard() Board {
	var b Board
	for r := 0; r < 3; r++ {
		for c := 0; c < Size; c++ {
			if (r+c)%2 == 1 {
				b.Squares[r][c] = BlackMan
			}
		}
	}
	for r := 5; r < Size; r++ {
		for c := 0; c < Size; c++ {
			if (r+c)%2 == 1 {
				b.Squares[r][c] = RedMan
			}
		}
	}
	return b
}

// At returns the piece on the square.
func (b Board) At(p Pos) Piece { return b.Squares[p.Row][p.Col] }

// Count returns the number of pieces the side still has on the board.
func (b Board) Count(s gamekit.Side) int {
	n := 0
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			if SideOf(b.Squares[r][c]) == s {
				n++
			}
		}
	}
	return n
}

// backRank is the promotion row for the side.
func backRank(s gamekit.Side) int {
	if s == gamekit.SideA {
		return 0
	}
	return Size - 1
}

// moveDirs returns the diagonal step directions the piece may take.
// Men move and capture forward only; kings use all four diagonals.
func moveDirs(p Piece) [][2]int {
	switch p {
	case RedMan:
		return [][2]int{{-1, -1}, {-1, 1}}
	case BlackMan:
		return [][2]int{{1, -1}, {1, 1}}
	case RedKing, BlackKing:
		return [][2]int{{-1, -1}, {-1, 1}, {1, -1}, {1, 1}}
	}
	return nil
}

// LegalMoves generates every legal move for the side. If any capture
// exists anywhere on the board, only capture moves are returned
// (mandatory capture), each carrying its full jump chain.
func LegalMoves(b Board, s gamekit.Side) []Move {
	if Outcome(b) != gamekit.InProgress {
		return nil
	}
	var captures, quiet []Move
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			from := Pos{r, c}
			piece := b.At(from)
			if SideOf(piece) != s {
				continue
			}
			captures = append(captures, captureChains(b, from, piece, s)...)
			if len(captures) > 0 {
				continue // quiet moves are moot once a capture exists
			}
			for _, d := range moveDirs(piece) {
				to := Pos{r + d[0], c + d[1]}
				if to.in() && b.At(to) == Empty {
					quiet = append(quiet, Move{
						From:     from,
						To:       to,
						Promotes: !IsKing(piece) && to.Row == backRank(s),
					})
				}
			}
		}
	}
	if len(captures) > 0 {
		return captures
	}
	return quiet
}

// captureChains returns one move per terminal point of every jump chain
// reachable from the origin. Landing on the back rank crowns the piece
// and, under stopChainOnPromotion, ends the chain there.
func captureChains(b Board, from Pos, piece Piece, s gamekit.Side) []Move {
	var out []Move
	extendChain(b, from, from, piece, s, nil, nil, false, &out)
	return out
}

func extendChain(b Board, origin, cur Pos, piece Piece, s gamekit.Side, path, caps []Pos, promotedSoFar bool, out *[]Move) {
	extended := false
	for _, d := range moveDirs(piece) {
		over := Pos{cur.Row + d[0], cur.Col + d[1]}
		land := Pos{cur.Row + 2*d[0], cur.Col + 2*d[1]}
		if !land.in() || b.At(land) != Empty {
			continue
		}
		victim := b.At(over)
		if SideOf(victim) != s.Opponent() {
			continue
		}
		extended = true

		// Work on a scratch board so a chain cannot jump the same
		// piece twice or land on its own vacated square incorrectly.
		next := b
		next.Squares[cur.Row][cur.Col] = Empty
		next.Squares[over.Row][over.Col] = Empty
		nextPiece := piece
		promoted := false
		if !IsKing(piece) && land.Row == backRank(s) {
			nextPiece = crown(piece)
			promoted = true
		}
		next.Squares[land.Row][land.Col] = nextPiece

		nPath := append(append([]Pos(nil), path...), land)
		nCaps := append(append([]Pos(nil), caps...), over)

		if promoted && stopChainOnPromotion {
			*out = append(*out, Move{From: origin, To: land, Path: nPath, Captures: nCaps, Promotes: true})
			continue
		}
		extendChain(next, origin, land, nextPiece, s, nPath, nCaps, promotedSoFar || promoted, out)
	}
	if !extended && len(caps) > 0 {
		*out = append(*out, Move{
			From:     origin,
			To:       cur,
			Path:     append([]Pos(nil), path...),
			Captures: append([]Pos(nil), caps...),
			Promotes: promotedSoFar,
		})
	}
}

func crown(p Piece) Piece {
	switch p {
	case RedMan:
		return RedKing
	case BlackMan:
		return BlackKing
	}
	return p
}

// Apply executes a legal move and returns the successor board. Captured
// pieces are removed, promotion is applied, and the draw counter is
// advanced or reset.
func Apply(b Board, m Move, s gamekit.Side) Board {
	piece := b.At(m.From)
	b.Squares[m.From.Row][m.From.Col] = Empty
	for _, c := range m.Captures {
		b.Squares[c.Row][c.Col] = Empty
	}
	if m.Promotes || (!IsKing(piece) && m.To.Row == backRank(s)) {
		piece = crown(piece)
	}
	b.Squares[m.To.Row][m.To.Col] = piece
	if m.IsCapture() {
		b.PliesSinceCapture = 0
	} else {
		b.PliesSinceCapture++
	}
	return b
}

// Outcome classifies the board: a side with no pieces has lost, and the
// game is drawn after drawPlyLimit plies without a capture.
func Outcome(b Board) gamekit.Outcome {
	if b.PliesSinceCapture >= drawPlyLimit {
		return gamekit.Draw
	}
	redLeft, blackLeft := false, false
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			switch SideOf(b.Squares[r][c]) {
			case gamekit.SideA:
				redLeft = true
			case gamekit.SideB:
				blackLeft = true
			}
		}
	}
	switch {
	case !redLeft && blackLeft:
		return gamekit.SideBWins
	case !blackLeft && redLeft:
		return gamekit.SideAWins
	}
	return gamekit.InProgress
}

// Engine adapts the package functions to the shared engine contract.
type Engine struct{}

func (Engine) Initial(_ *rand.Rand) Board                  { return NewBoard() }
func (Engine) LegalMoves(b Board, s gamekit.Side) []Move   { return LegalMoves(b, s) }
func (Engine) Apply(b Board, m Move, s gamekit.Side) Board { return Apply(b, m, s) }
func (Engine) Outcome(b Board) gamekit.Outcome             { return Outcome(b) }

func (Engine) BeginTurn(b Board, _ gamekit.Side, _ *rand.Rand) Board { return b }

// NextSide always flips: multi-jumps are embedded in a single Move.
func (Engine) NextSide(_ Board, _ Move, s gamekit.Side) gamekit.Side {
	return s.Opponent()
}
