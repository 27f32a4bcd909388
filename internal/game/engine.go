package game

import "fmt"

// Outcome classifies the result of a drop.
type Outcome int

const (
	OutcomeRejected Outcome = iota
	OutcomeColumnFull
	OutcomeContinue
	OutcomeWin
)

func (o Outcome) String() string {
	switch o {
	case OutcomeColumnFull:
		return "column_full"
	case OutcomeContinue:
		return "continue"
	case OutcomeWin:
		return "win"
	}
	return "rejected"
}

// MoveResult describes what a DropPiece call did. Row and Col are only
// meaningful for Continue and Win.
type MoveResult struct {
	Outcome     Outcome
	Player      Player
	Row         int
	Col         int
	NextPlayer  Player
	Winner      Player
	WinningLine []Coord
}

// Placed reports whether the move put a piece on the grid.
func (r MoveResult) Placed() bool {
	return r.Outcome == OutcomeContinue || r.Outcome == OutcomeWin
}

type Options struct {
	Rows      int
	Columns   int
	WinLength int
}

func DefaultOptions() Options {
	return Options{Rows: DefaultRows, Columns: DefaultColumns, WinLength: DefaultWinLength}
}

func (o Options) validate() error {
	if o.Rows <= 0 || o.Columns <= 0 {
		return fmt.Errorf("%w: %dx%d grid", ErrInvalidOptions, o.Rows, o.Columns)
	}
	if o.WinLength < 2 || (o.WinLength > o.Rows && o.WinLength > o.Columns) {
		return fmt.Errorf("%w: win length %d on %dx%d grid", ErrInvalidOptions, o.WinLength, o.Rows, o.Columns)
	}
	return nil
}

// WinHandler is notified with the winning player once per won game.
type WinHandler func(Player)

// State is a read-only snapshot for rendering.
type State struct {
	Grid          Grid
	CurrentPlayer Player
	Winner        Player
	WinningLine   []Coord
	Accepting     bool
	Full          bool
	Moves         int
}

// Engine owns the grid, the turn and win detection. It performs no timing
// and is not safe for concurrent use; the host serialises calls and
// releases the post-drop guard with Settle.
type Engine struct {
	opts        Options
	grid        Grid
	current     Player
	winner      Player
	winningLine []Coord
	moves       int
	dropping    bool
	onWin       WinHandler
}

func NewEngine(opts Options, onWin WinHandler) (*Engine, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	e := &Engine{opts: opts, onWin: onWin}
	e.Reset()
	return e, nil
}

func (e *Engine) Options() Options { return e.opts }

// DropPiece drops a piece for the current player into column.
func (e *Engine) DropPiece(column int) (MoveResult, error) {
	if !e.AcceptingMoves() {
		return MoveResult{Outcome: OutcomeRejected}, nil
	}
	if column < 0 || column >= e.opts.Columns {
		return MoveResult{}, fmt.Errorf("%w: %d not in [0,%d)", ErrInvalidColumn, column, e.opts.Columns)
	}
	row := e.grid.landingRow(column)
	if row < 0 {
		return MoveResult{Outcome: OutcomeColumnFull, Player: e.current, Col: column, Row: -1}, nil
	}

	player := e.current
	e.grid[row][column] = player
	e.moves++
	e.dropping = true

	res := MoveResult{Player: player, Row: row, Col: column}
	if line, ok := e.CheckWin(row, column, player); ok {
		e.winner = player
		e.winningLine = line
		res.Outcome = OutcomeWin
		res.Winner = player
		res.WinningLine = append([]Coord(nil), line...)
		if e.onWin != nil {
			e.onWin(player)
		}
		return res, nil
	}

	e.current = player.Other()
	res.Outcome = OutcomeContinue
	res.NextPlayer = e.current
	return res, nil
}

// CheckWin reports whether player has a run of at least the win length
// through (row, col), returning every cell of the first qualifying run.
// The anchor cell must already hold player's piece; an empty or foreign
// anchor never wins, so CheckWin cannot be used to test a move before
// it is placed.
func (e *Engine) CheckWin(row, col int, player Player) ([]Coord, bool) {
	if !e.grid.inBounds(row, col) || e.grid[row][col] != player {
		return nil, false
	}
	return e.grid.winningLine(row, col, player, e.opts.WinLength)
}

// Reset restores the initial empty game. A pending drop guard is left
// for the host's timer to release.
func (e *Engine) Reset() {
	e.grid = newGrid(e.opts.Rows, e.opts.Columns)
	e.current = Player1
	e.winner = NoPlayer
	e.winningLine = nil
	e.moves = 0
}

// Settle ends the post-drop guard.
func (e *Engine) Settle() {
	e.dropping = false
}

// AcceptingMoves is false once the game is won or while a drop is in flight.
func (e *Engine) AcceptingMoves() bool {
	return e.winner == NoPlayer && !e.dropping
}

func (e *Engine) Dropping() bool { return e.dropping }

func (e *Engine) State() State {
	return State{
		Grid:          e.grid.Clone(),
		CurrentPlayer: e.current,
		Winner:        e.winner,
		WinningLine:   append([]Coord(nil), e.winningLine...),
		Accepting:     e.AcceptingMoves(),
		Full:          e.grid.full(),
		Moves:         e.moves,
	}
}
