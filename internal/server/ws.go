package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"emittr/connectfour/internal/game"
	"emittr/connectfour/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type clientMessage struct {
	Type   string `json:"type"`
	Column *int   `json:"column"`
	Lang   string `json:"lang"`
}

type wsClient struct {
	conn    *websocket.Conn
	send    chan any
	server  *Server
	session *session.Session
}

// handleWS attaches a socket to the session named by ?session=, or to a
// new one when none is given.
func (s *Server) handleWS(c *gin.Context) {
	var (
		sess    *session.Session
		created bool
	)
	if id := c.Query("session"); id != "" {
		existing, ok := s.sessions.Get(id)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": session.ErrNotFound.Error()})
			return
		}
		sess = existing
	} else {
		fresh, err := s.sessions.Create(s.languageFor(c.Query("lang")))
		if err != nil {
			s.logger.Error("create session", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create session"})
			return
		}
		sess, created = fresh, true
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if created {
			s.sessions.Remove(sess.ID)
		}
		return
	}
	client := &wsClient{
		conn:    conn,
		send:    make(chan any, 8),
		server:  s,
		session: sess,
	}
	go client.run()
}

func (c *wsClient) run() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	defer c.conn.Close()

	updates, unsub, err := c.session.Subscribe(ctx)
	if err != nil {
		_ = c.conn.WriteJSON(errorView{Type: "error", Message: err.Error()})
		return
	}
	snap, err := c.session.Snapshot(ctx)
	if err != nil {
		unsub()
		_ = c.conn.WriteJSON(errorView{Type: "error", Message: err.Error()})
		return
	}
	c.send <- c.server.stateView("init", snap)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		c.writePump(updates)
	}()

	c.readPump(ctx)
	unsub()
	close(c.send)
	<-writerDone
}

func (c *wsClient) writePump(updates <-chan session.Snapshot) {
	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				c.drain()
				return
			}
		case snap, ok := <-updates:
			if !ok {
				// Session closed under us; end the read side too.
				_ = c.conn.Close()
				c.drain()
				return
			}
			if err := c.conn.WriteJSON(c.server.stateView("state", snap)); err != nil {
				c.drain()
				return
			}
		}
	}
}

// drain discards queued frames so readPump never blocks on a dead writer.
func (c *wsClient) drain() {
	_ = c.conn.Close()
	for range c.send {
	}
}

func (c *wsClient) readPump(ctx context.Context) {
	logger := c.server.logger.With("session", c.session.ID)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if err := c.handle(ctx, msg); err != nil {
			if errors.Is(err, session.ErrClosed) {
				return
			}
			logger.Debug("client command failed", "type", msg.Type, "error", err)
			c.send <- errorView{Type: "error", Message: err.Error()}
		}
	}
}

func (c *wsClient) handle(ctx context.Context, msg clientMessage) error {
	sess := c.session
	switch msg.Type {
	case "drop":
		if msg.Column == nil {
			return game.ErrInvalidColumn
		}
		res, err := sess.Drop(ctx, *msg.Column)
		if err != nil {
			return err
		}
		snap, err := sess.Snapshot(ctx)
		if err != nil {
			return err
		}
		c.send <- c.server.resultView(snap, res)
		return nil
	case "reset":
		return sess.Reset(ctx)
	case "resetScores":
		return sess.ResetScores(ctx)
	case "language":
		return sess.SetLanguage(ctx, c.server.catalog.Match(msg.Lang))
	case "toggleLanguage":
		return sess.ToggleLanguage(ctx)
	case "start":
		return sess.Start(ctx)
	case "home":
		return sess.Home(ctx)
	}
	return errors.New("unknown message type " + msg.Type)
}
