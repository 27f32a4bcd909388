package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"emittr/connectfour/internal/game"
	"emittr/connectfour/internal/storage"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, store storage.Store) (*Server, *httptest.Server) {
	t.Helper()
	s := New(Config{
		Board:           game.DefaultOptions(),
		DefaultLanguage: "en",
		Store:           store,
		Logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		s.sessions.Close()
	})
	return s, ts
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestHealth(t *testing.T) {
	_, ts := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	var body map[string]string
	decode(t, resp, &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}

func TestCreateAndGetSession(t *testing.T) {
	_, ts := newTestServer(t, nil)

	resp, err := http.Post(ts.URL+"/sessions?lang=fr", "application/json", nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created stateView
	decode(t, resp, &created)

	require.NotEmpty(t, created.SessionID)
	assert.Len(t, created.Board, game.DefaultRows)
	assert.Len(t, created.Board[0], game.DefaultColumns)
	assert.Equal(t, game.Player1, created.CurrentPlayer)
	assert.Equal(t, "fr", created.Language)
	assert.Equal(t, "Au tour du joueur 1", created.Status)
	assert.Equal(t, "Puissance 4", created.Texts["title"])
	assert.Equal(t, "landing", string(created.Screen))

	resp, err = http.Get(ts.URL + "/sessions/" + created.SessionID)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got stateView
	decode(t, resp, &got)
	assert.Equal(t, created.SessionID, got.SessionID)

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/sessions/"+created.SessionID, nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/sessions/" + created.SessionID)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestResultsWithoutStore(t *testing.T) {
	_, ts := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/results")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestResultsRejectsBadLimit(t *testing.T) {
	store, err := storage.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "r.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	_, ts := newTestServer(t, store)

	resp, err := http.Get(ts.URL + "/results?limit=abc")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestWebSocketUnknownSession(t *testing.T) {
	_, ts := newTestServer(t, nil)

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(ts, "?session=missing"), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestWebSocketFailedUpgradeDropsSession(t *testing.T) {
	s, ts := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/ws")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, 0, s.sessions.Len())
}

func wsURL(ts *httptest.Server, query string) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws" + query
}

type frame struct {
	Type        string       `json:"type"`
	Outcome     string       `json:"outcome"`
	Winner      game.Player  `json:"winner"`
	WinningLine []game.Coord `json:"winningLine"`
	Message     string       `json:"message"`
	Status      string       `json:"status"`
	Screen      string       `json:"screen"`
	Language    string       `json:"language"`
	Accepting   bool         `json:"accepting"`
	SessionID   string       `json:"sessionId"`
	Scores      struct {
		Player1 int `json:"player1"`
		Player2 int `json:"player2"`
	} `json:"scores"`
}

func readFrame(t *testing.T, conn *websocket.Conn, match func(frame) bool) frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var f frame
		require.NoError(t, conn.ReadJSON(&f))
		if match(f) {
			return f
		}
	}
}

func isType(kind string) func(frame) bool {
	return func(f frame) bool { return f.Type == kind }
}

func TestWebSocketGame(t *testing.T) {
	store, err := storage.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "r.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	_, ts := newTestServer(t, store)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts, "?lang=en"), nil)
	require.NoError(t, err)
	defer conn.Close()

	first := readFrame(t, conn, isType("init"))
	require.NotEmpty(t, first.SessionID)
	assert.Equal(t, "landing", first.Screen)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "start"}))
	readFrame(t, conn, func(f frame) bool { return f.Type == "state" && f.Screen == "board" })

	for _, col := range []int{0, 6, 1, 6, 2, 6} {
		require.NoError(t, conn.WriteJSON(map[string]any{"type": "drop", "column": col}))
		res := readFrame(t, conn, isType("result"))
		require.Equal(t, "continue", res.Outcome)
	}
	require.NoError(t, conn.WriteJSON(map[string]any{"type": "drop", "column": 3}))
	res := readFrame(t, conn, isType("result"))
	require.Equal(t, "win", res.Outcome)
	assert.Equal(t, game.Player1, res.Winner)
	assert.Len(t, res.WinningLine, 4)
	assert.Equal(t, "Player 1 wins!", res.Message)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "drop", "column": 4}))
	res = readFrame(t, conn, isType("result"))
	assert.Equal(t, "rejected", res.Outcome)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "toggleLanguage"}))
	st := readFrame(t, conn, func(f frame) bool { return f.Type == "state" && f.Language == "fr" })
	assert.Equal(t, 1, st.Scores.Player1)
	assert.Equal(t, "Le joueur 1 gagne !", st.Status)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "reset"}))
	st = readFrame(t, conn, func(f frame) bool { return f.Type == "state" && f.Winner == game.NoPlayer })
	assert.Equal(t, "Au tour du joueur 1", st.Status)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "drop", "column": 9}))
	errFrame := readFrame(t, conn, isType("error"))
	assert.Contains(t, errFrame.Message, "invalid column")

	require.Eventually(t, func() bool {
		results, err := store.RecentResults(context.Background(), 10)
		return err == nil && len(results) == 1
	}, 2*time.Second, 10*time.Millisecond)

	resp, err := http.Get(ts.URL + "/results")
	require.NoError(t, err)
	var body struct {
		Results []storage.Result  `json:"results"`
		Totals  storage.WinTotals `json:"totals"`
	}
	decode(t, resp, &body)
	require.Len(t, body.Results, 1)
	assert.Equal(t, first.SessionID, body.Results[0].SessionID)
	assert.Equal(t, 7, body.Results[0].Moves)
	assert.Equal(t, storage.WinTotals{Player1: 1}, body.Totals)
}

func TestWebSocketColumnFull(t *testing.T) {
	_, ts := newTestServer(t, nil)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts, ""), nil)
	require.NoError(t, err)
	defer conn.Close()
	readFrame(t, conn, isType("init"))

	for i := 0; i < game.DefaultRows; i++ {
		require.NoError(t, conn.WriteJSON(map[string]any{"type": "drop", "column": 5}))
		readFrame(t, conn, isType("result"))
	}
	require.NoError(t, conn.WriteJSON(map[string]any{"type": "drop", "column": 5}))
	res := readFrame(t, conn, isType("result"))
	assert.Equal(t, "column_full", res.Outcome)
	assert.Equal(t, "This column is full", res.Message)
}
