package server

import (
	"emittr/connectfour/internal/game"
	"emittr/connectfour/internal/i18n"
	"emittr/connectfour/internal/session"
)

type stateView struct {
	Type          string             `json:"type"`
	SessionID     string             `json:"sessionId"`
	Board         game.Grid          `json:"board"`
	CurrentPlayer game.Player        `json:"currentPlayer"`
	Winner        game.Player        `json:"winner"`
	WinningLine   []game.Coord       `json:"winningLine"`
	Accepting     bool               `json:"accepting"`
	Full          bool               `json:"full"`
	Moves         int                `json:"moves"`
	Scores        session.Scoreboard `json:"scores"`
	Screen        session.Screen     `json:"screen"`
	Language      string             `json:"language"`
	Status        string             `json:"status"`
	Texts         map[string]string  `json:"texts"`
}

type resultView struct {
	Type        string       `json:"type"`
	Outcome     string       `json:"outcome"`
	Player      game.Player  `json:"player"`
	Row         int          `json:"row"`
	Column      int          `json:"column"`
	NextPlayer  game.Player  `json:"nextPlayer,omitempty"`
	Winner      game.Player  `json:"winner,omitempty"`
	WinningLine []game.Coord `json:"winningLine,omitempty"`
	Message     string       `json:"message,omitempty"`
}

type errorView struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func (s *Server) stateView(kind string, snap session.Snapshot) stateView {
	st := snap.Game
	line := st.WinningLine
	if line == nil {
		line = []game.Coord{}
	}
	return stateView{
		Type:          kind,
		SessionID:     snap.ID,
		Board:         st.Grid,
		CurrentPlayer: st.CurrentPlayer,
		Winner:        st.Winner,
		WinningLine:   line,
		Accepting:     st.Accepting,
		Full:          st.Full,
		Moves:         st.Moves,
		Scores:        snap.Scores,
		Screen:        snap.Screen,
		Language:      snap.Language.String(),
		Status:        s.status(snap),
		Texts:         s.catalog.Bundle(snap.Language),
	}
}

func (s *Server) status(snap session.Snapshot) string {
	st := snap.Game
	switch {
	case st.Winner != game.NoPlayer:
		return s.catalog.Text(snap.Language, i18n.KeyWins, int(st.Winner))
	case st.Full:
		return s.catalog.Text(snap.Language, i18n.KeyBoardFull)
	}
	return s.catalog.Text(snap.Language, i18n.KeyPlayerTurn, int(st.CurrentPlayer))
}

func (s *Server) resultView(snap session.Snapshot, res game.MoveResult) resultView {
	v := resultView{
		Type:        "result",
		Outcome:     res.Outcome.String(),
		Player:      res.Player,
		Row:         res.Row,
		Column:      res.Col,
		NextPlayer:  res.NextPlayer,
		Winner:      res.Winner,
		WinningLine: res.WinningLine,
	}
	switch res.Outcome {
	case game.OutcomeColumnFull:
		v.Message = s.catalog.Text(snap.Language, i18n.KeyColumnFull)
	case game.OutcomeWin:
		v.Message = s.catalog.Text(snap.Language, i18n.KeyWins, int(res.Winner))
	}
	return v
}
