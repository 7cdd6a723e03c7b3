// internal/match/registry.go
package match

import (
	"encoding/json"
	"fmt"
	"math/rand"

	"github.com/haloarcade/tabletop/internal/backgammon"
	"github.com/haloarcade/tabletop/internal/checkers"
	"github.com/haloarcade/tabletop/internal/connectfour"
	"github.com/haloarcade/tabletop/internal/gamekit"
	"github.com/haloarcade/tabletop/internal/room"
	"github.com/haloarcade/tabletop/internal/tictactoe"
)

// Game type identifiers used in room records and wire frames.
const (
	GameTicTacToe   = "tictactoe"
	GameConnectFour = "connect_four"
	GameCheckers    = "checkers"
	GameBackgammon  = "backgammon"
)

// KnownGame reports whether gameType names a supported rule engine.
func KnownGame(gameType string) bool {
	switch gameType {
	case GameTicTacToe, GameConnectFour, GameCheckers, GameBackgammon:
		return true
	}
	return false
}

// MinPlayers returns the roster minimum for the game type. Every
// supported game is two-sided.
func MinPlayers(gameType string) int { return 2 }

// InitialState builds the wire-form initial match state for the game
// type, seating the first two roster players on sides A and B in join
// order. The server calls this on start_game so the first broadcast
// frame carries a fully constructed board.
func InitialState(gameType string, players []*room.Player, rng *rand.Rand) (json.RawMessage, error) {
	seats := map[string]gamekit.Side{}
	sides := []gamekit.Side{gamekit.SideA, gamekit.SideB}
	for i, p := range players {
		if i >= len(sides) {
			break
		}
		seats[p.ID] = sides[i]
	}

	switch gameType {
	case GameTicTacToe:
		return marshalInitial(tictactoe.Engine{}, seats, rng)
	case GameConnectFour:
		return marshalInitial(connectfour.Engine{}, seats, rng)
	case GameCheckers:
		return marshalInitial(checkers.Engine{}, seats, rng)
	case GameBackgammon:
		return marshalInitial(backgammon.Engine{}, seats, rng)
	}
	return nil, fmt.Errorf("unknown game type %q", gameType)
}

func marshalInitial[B, M any](eng gamekit.Engine[B, M], seats map[string]gamekit.Side, rng *rand.Rand) (json.RawMessage, error) {
	st := state[B]{
		Board:   eng.Initial(rng),
		Current: gamekit.SideA,
		Seats:   seats,
	}
	return json.Marshal(st)
}
