// internal/session/session.go

// Package session runs a single-player game: one human against one AI
// opponent over any rule engine, with turn scheduling, undo, and terminal
// detection. All state lives in memory for the lifetime of the session.
package session

import (
	"math/rand"
	"sync"
	"time"

	"github.com/haloarcade/tabletop/internal/gamekit"
)

// Status is the controller's lifecycle state.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusPlaying Status = "playing"
	StatusWon     Status = "won"
	StatusLost    Status = "lost"
	StatusDraw    Status = "draw"
)

// Terminal reports whether the status accepts no further moves.
func (s Status) Terminal() bool {
	return s == StatusWon || s == StatusLost || s == StatusDraw
}

// checkpoint is one history entry: the board and mover as a turn began.
// One entry per turn, not per engine apply, so a multi-move turn
// (backgammon plays several dice) rewinds as a unit.
type checkpoint[B any] struct {
	board B
	side  gamekit.Side
}

// Options tune a controller. The zero value means: human plays SideA and
// moves first, AI thinks for 600ms, passes resolve after 800ms.
type Options struct {
	HumanSide  gamekit.Side
	ThinkDelay time.Duration
	PassDelay  time.Duration
	Seed       int64

	// OnFinish is invoked once per game when the session reaches a
	// terminal status, with the final board already applied. Reward
	// bookkeeping (XP on completion) hangs off this callback.
	OnFinish func(Status)
}

// Controller drives one session. It is safe for concurrent use; the AI
// runs on timers fired off the calling goroutines.
type Controller[B, M any] struct {
	mu         sync.Mutex
	eng        gamekit.Engine[B, M]
	strategies gamekit.StrategyTable[B, M]

	humanSide  gamekit.Side
	aiSide     gamekit.Side
	thinkDelay time.Duration
	passDelay  time.Duration
	rng        *rand.Rand
	onFinish   func(Status)

	status     Status
	difficulty gamekit.Difficulty
	board      B
	current    gamekit.Side
	history    []checkpoint[B]

	// canPass is set for engines where a blocked side forfeits only the
	// turn; every other engine treats a blocked side as losing.
	canPass bool

	// newTurn marks that the next apply begins a fresh turn and must
	// push its checkpoint.
	newTurn bool

	// generation invalidates scheduled AI/pass timers from earlier
	// games; aiPending stops a second AI ply from being scheduled while
	// one is already in flight.
	generation int
	aiPending  bool
}

// New builds an idle controller for the engine and its strategy table.
func New[B, M any](eng gamekit.Engine[B, M], strategies gamekit.StrategyTable[B, M], opts Options) *Controller[B, M] {
	if opts.HumanSide == gamekit.NoSide {
		opts.HumanSide = gamekit.SideA
	}
	if opts.ThinkDelay == 0 {
		opts.ThinkDelay = 600 * time.Millisecond
	}
	if opts.PassDelay == 0 {
		opts.PassDelay = 800 * time.Millisecond
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	canPass := false
	if p, isPasser := any(eng).(gamekit.TurnPasser); isPasser {
		canPass = p.PassWhenBlocked()
	}
	return &Controller[B, M]{
		eng:        eng,
		strategies: strategies,
		canPass:    canPass,
		humanSide:  opts.HumanSide,
		aiSide:     opts.HumanSide.Opponent(),
		thinkDelay: opts.ThinkDelay,
		passDelay:  opts.PassDelay,
		rng:        rand.New(rand.NewSource(seed)),
		onFinish:   opts.OnFinish,
		status:     StatusIdle,
	}
}

// Start begins a new game at the given difficulty. Re-entrant: starting
// from any status resets the board and discards pending AI timers.
func (c *Controller[B, M]) Start(d gamekit.Difficulty) bool {
	if !d.Valid() {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generation++
	c.aiPending = false
	c.status = StatusPlaying
	c.difficulty = d
	c.board = c.eng.Initial(c.rng)
	c.current = gamekit.SideA
	c.history = c.history[:0]
	c.newTurn = true

	c.afterTurnChangeLocked()
	return true
}

// Status returns the lifecycle state.
func (c *Controller[B, M]) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Board returns the current board value.
func (c *Controller[B, M]) Board() B {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.board
}

// CurrentSide returns whose turn it is.
func (c *Controller[B, M]) CurrentSide() gamekit.Side {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// LegalMoves returns the human's current legal moves, or nil when it is
// not the human's turn or the game is not in progress.
func (c *Controller[B, M]) LegalMoves() []M {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status != StatusPlaying || c.current != c.humanSide {
		return nil
	}
	return c.eng.LegalMoves(c.board, c.humanSide)
}

// ApplyHumanMove plays the human's move if it is legal. Illegal or
// out-of-turn moves are silently rejected (reported as false, never an
// error): the caller just clears its selection.
func (c *Controller[B, M]) ApplyHumanMove(match func(M) bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status != StatusPlaying || c.current != c.humanSide {
		return false
	}
	var chosen M
	found := false
	for _, m := range c.eng.LegalMoves(c.board, c.humanSide) {
		if match(m) {
			chosen = m
			found = true
			break
		}
	}
	if !found {
		return false
	}
	c.applyLocked(chosen, c.humanSide)
	return true
}

// Undo rewinds the last human and AI turns as a unit, restoring the
// board as it stood when the human's previous turn began. It is a no-op
// unless the game is playing, it is the human's turn, and at least two
// turns exist.
func (c *Controller[B, M]) Undo() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status != StatusPlaying || c.current != c.humanSide || c.aiPending {
		return false
	}
	if len(c.history) < 2 {
		return false
	}
	// The most recent human checkpoint is the start of the human turn
	// being taken back; everything after it is the AI's reply.
	idx := -1
	for i := len(c.history) - 1; i >= 0; i-- {
		if c.history[i].side == c.humanSide {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	restored := c.history[idx]
	c.history = c.history[:idx]
	c.board = restored.board
	c.current = restored.side
	c.newTurn = true
	c.generation++ // discard any timer scheduled against the undone state
	c.afterTurnChangeLocked()
	return true
}

// Stop abandons the session; pending timers become stale.
func (c *Controller[B, M]) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.aiPending = false
	c.status = StatusIdle
}

// applyLocked records history, applies the ply, and resolves what comes
// next (terminal, turn hand-off, AI scheduling, or auto-pass).
func (c *Controller[B, M]) applyLocked(m M, mover gamekit.Side) {
	if c.newTurn {
		c.history = append(c.history, checkpoint[B]{board: c.board, side: mover})
		c.newTurn = false
	}
	c.board = c.eng.Apply(c.board, m, mover)

	if c.finishIfTerminalLocked() {
		return
	}

	next := c.eng.NextSide(c.board, m, mover)
	if next != c.current {
		c.current = next
		c.board = c.eng.BeginTurn(c.board, c.current, c.rng)
		c.newTurn = true
	}
	c.afterTurnChangeLocked()
}

// afterTurnChangeLocked schedules whatever the new turn needs: an AI
// ply, an automatic pass for engines that allow it (backgammon dice that
// cannot be played), or a loss for a blocked side everywhere else (a
// checkers side with pieces but no moves loses).
func (c *Controller[B, M]) afterTurnChangeLocked() {
	if c.status != StatusPlaying {
		return
	}
	if len(c.eng.LegalMoves(c.board, c.current)) == 0 {
		if c.finishIfTerminalLocked() {
			return
		}
		if c.canPass {
			c.schedulePassLocked()
			return
		}
		c.finishBlockedLocked()
		return
	}
	if c.current == c.aiSide {
		c.scheduleAILocked()
	}
}

func (c *Controller[B, M]) scheduleAILocked() {
	if c.aiPending {
		return
	}
	c.aiPending = true
	gen := c.generation
	time.AfterFunc(c.thinkDelay, func() { c.aiTurn(gen) })
}

func (c *Controller[B, M]) aiTurn(gen int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation || c.status != StatusPlaying || c.current != c.aiSide {
		return // stale timer from an earlier game
	}
	c.aiPending = false
	pick := c.strategies[c.difficulty]
	if pick == nil {
		return
	}
	m, ok := pick(c.board, c.aiSide, c.rng)
	if !ok {
		if c.canPass {
			c.schedulePassLocked()
		} else {
			c.finishBlockedLocked()
		}
		return
	}
	c.applyLocked(m, c.aiSide)
}

// schedulePassLocked hands the turn to the other player after a short
// delay when the mover cannot play.
func (c *Controller[B, M]) schedulePassLocked() {
	gen := c.generation
	time.AfterFunc(c.passDelay, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if gen != c.generation || c.status != StatusPlaying {
			return
		}
		c.aiPending = false
		c.current = c.current.Opponent()
		c.board = c.eng.BeginTurn(c.board, c.current, c.rng)
		c.newTurn = true
		c.afterTurnChangeLocked()
	})
}

// finishBlockedLocked ends the game against the side to move when the
// engine offers no pass rule.
func (c *Controller[B, M]) finishBlockedLocked() {
	if c.current == c.humanSide {
		c.status = StatusLost
	} else {
		c.status = StatusWon
	}
	c.generation++
	c.aiPending = false
	if c.onFinish != nil {
		status := c.status
		go c.onFinish(status)
	}
}

func (c *Controller[B, M]) finishIfTerminalLocked() bool {
	out := c.eng.Outcome(c.board)
	if out == gamekit.InProgress {
		return false
	}
	switch {
	case out == gamekit.Draw:
		c.status = StatusDraw
	case gamekit.WinnerOf(out) == c.humanSide:
		c.status = StatusWon
	default:
		c.status = StatusLost
	}
	c.generation++
	c.aiPending = false
	if c.onFinish != nil {
		status := c.status
		go c.onFinish(status)
	}
	return true
}
