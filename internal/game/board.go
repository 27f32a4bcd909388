package game

import "errors"

const (
	DefaultRows      = 6
	DefaultColumns   = 7
	DefaultWinLength = 4
)

// Player identifies who owns a piece. The zero value means no player.
type Player int

const (
	NoPlayer Player = iota
	Player1
	Player2
)

// Other returns the opponent of p.
func (p Player) Other() Player {
	if p == Player1 {
		return Player2
	}
	return Player1
}

func (p Player) String() string {
	switch p {
	case Player1:
		return "player1"
	case Player2:
		return "player2"
	}
	return "none"
}

// Cell holds the owner of a grid position; CellEmpty when unoccupied.
type Cell = Player

const CellEmpty Cell = NoPlayer

var (
	ErrInvalidColumn  = errors.New("invalid column")
	ErrInvalidOptions = errors.New("invalid board options")
)

type Coord struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Grid is indexed [row][col] with row 0 at the top.
type Grid [][]Cell

func newGrid(rows, cols int) Grid {
	g := make(Grid, rows)
	for r := range g {
		g[r] = make([]Cell, cols)
	}
	return g
}

func (g Grid) Rows() int { return len(g) }

func (g Grid) Columns() int {
	if len(g) == 0 {
		return 0
	}
	return len(g[0])
}

func (g Grid) inBounds(r, c int) bool {
	return r >= 0 && r < g.Rows() && c >= 0 && c < g.Columns()
}

// Clone returns a deep copy.
func (g Grid) Clone() Grid {
	dest := make(Grid, len(g))
	for r := range g {
		dest[r] = append([]Cell(nil), g[r]...)
	}
	return dest
}

// landingRow returns the lowest empty row in col, or -1 when the column is full.
func (g Grid) landingRow(col int) int {
	for row := g.Rows() - 1; row >= 0; row-- {
		if g[row][col] == CellEmpty {
			return row
		}
	}
	return -1
}

func (g Grid) full() bool {
	for c := 0; c < g.Columns(); c++ {
		if g[0][c] == CellEmpty {
			return false
		}
	}
	return true
}

// axes are walked in this order; the first qualifying one wins.
var axes = [4][2][2]int{
	{{0, 1}, {0, -1}},  // horizontal
	{{1, 0}, {-1, 0}},  // vertical
	{{1, 1}, {-1, -1}}, // diagonal
	{{1, -1}, {-1, 1}}, // anti-diagonal
}

// winningLine looks for a run of at least winLength pieces of player
// through (row, col). The returned line starts with the anchor, followed
// by the cells found along the first direction, then the second.
func (g Grid) winningLine(row, col int, player Player, winLength int) ([]Coord, bool) {
	for _, axis := range axes {
		coords := []Coord{{Row: row, Col: col}}
		for _, d := range axis {
			r, c := row+d[0], col+d[1]
			for g.inBounds(r, c) && g[r][c] == player {
				coords = append(coords, Coord{Row: r, Col: c})
				r += d[0]
				c += d[1]
			}
		}
		if len(coords) >= winLength {
			return coords, true
		}
	}
	return nil, false
}
