package analytics

import (
	"log/slog"
	"sync"

	"emittr/connectfour/internal/game"
)

// Axis names the direction of a winning line.
type Axis string

const (
	AxisHorizontal   Axis = "horizontal"
	AxisVertical     Axis = "vertical"
	AxisDiagonal     Axis = "diagonal"
	AxisAntiDiagonal Axis = "anti_diagonal"
)

// LineAxis classifies a winning line by the first two of its cells.
func LineAxis(line []game.Coord) (Axis, bool) {
	if len(line) < 2 {
		return "", false
	}
	dr := line[1].Row - line[0].Row
	dc := line[1].Col - line[0].Col
	switch {
	case dr == 0:
		return AxisHorizontal, true
	case dc == 0:
		return AxisVertical, true
	case dr == dc:
		return AxisDiagonal, true
	case dr == -dc:
		return AxisAntiDiagonal, true
	}
	return "", false
}

// Stats aggregates consumed events.
type Stats struct {
	mu           sync.Mutex
	drops        int
	resets       int
	wins         map[game.Player]int
	axes         map[Axis]int
	movesToWin   []int
	durations    []float64
	gamesPerDay  map[string]int
	gamesPerHour map[string]int
	sessions     map[string]struct{}
}

func NewStats() *Stats {
	return &Stats{
		wins:         make(map[game.Player]int),
		axes:         make(map[Axis]int),
		gamesPerDay:  make(map[string]int),
		gamesPerHour: make(map[string]int),
		sessions:     make(map[string]struct{}),
	}
}

func (s *Stats) Record(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.SessionID != "" {
		s.sessions[e.SessionID] = struct{}{}
	}
	switch e.Event {
	case EventPieceDropped:
		s.drops++
	case EventGameReset:
		s.resets++
	case EventGameWon:
		s.wins[e.Player]++
		s.movesToWin = append(s.movesToWin, e.Moves)
		if e.Duration > 0 {
			s.durations = append(s.durations, e.Duration)
		}
		if axis, ok := LineAxis(e.Line); ok {
			s.axes[axis]++
		}
		s.gamesPerDay[e.Timestamp.Format("2006-01-02")]++
		s.gamesPerHour[e.Timestamp.Format("2006-01-02 15:00")]++
	}
}

type Summary struct {
	Sessions        int
	Drops           int
	Resets          int
	GamesWon        int
	WinsPlayer1     int
	WinsPlayer2     int
	AvgMovesToWin   float64
	AvgGameDuration float64
	WinsByAxis      map[Axis]int
	GamesPerDay     map[string]int
	GamesPerHour    map[string]int
}

func (s *Stats) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	sum := Summary{
		Sessions:        len(s.sessions),
		Drops:           s.drops,
		Resets:          s.resets,
		GamesWon:        len(s.movesToWin),
		WinsPlayer1:     s.wins[game.Player1],
		WinsPlayer2:     s.wins[game.Player2],
		AvgMovesToWin:   mean(s.movesToWin),
		AvgGameDuration: mean(s.durations),
		WinsByAxis:      make(map[Axis]int, len(s.axes)),
		GamesPerDay:     make(map[string]int, len(s.gamesPerDay)),
		GamesPerHour:    make(map[string]int, len(s.gamesPerHour)),
	}
	for k, v := range s.axes {
		sum.WinsByAxis[k] = v
	}
	for k, v := range s.gamesPerDay {
		sum.GamesPerDay[k] = v
	}
	for k, v := range s.gamesPerHour {
		sum.GamesPerHour[k] = v
	}
	return sum
}

func (s *Stats) Log(logger *slog.Logger) {
	sum := s.Summary()
	logger.Info("analytics summary",
		"sessions", sum.Sessions,
		"drops", sum.Drops,
		"resets", sum.Resets,
		"games_won", sum.GamesWon,
		"wins_player1", sum.WinsPlayer1,
		"wins_player2", sum.WinsPlayer2,
		"avg_moves_to_win", sum.AvgMovesToWin,
		"avg_game_seconds", sum.AvgGameDuration,
		"wins_by_axis", sum.WinsByAxis,
		"games_per_day", sum.GamesPerDay,
		"games_per_hour", sum.GamesPerHour,
	)
}

func mean[T int | float64](values []T) float64 {
	if len(values) == 0 {
		return 0
	}
	var total float64
	for _, v := range values {
		total += float64(v)
	}
	return total / float64(len(values))
}
