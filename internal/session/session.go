// Package session hosts game engines for connected clients. Each Session
// runs a single goroutine that owns its engine, score counter, language and
// screen, and releases the post-drop guard on a timer.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"emittr/connectfour/internal/game"
	"emittr/connectfour/internal/i18n"

	"golang.org/x/text/language"
)

// hookQueueSize bounds the hook events buffered behind a slow hook. A full
// queue blocks the session until the hook catches up.
const hookQueueSize = 64

var (
	ErrClosed   = errors.New("session closed")
	ErrNotFound = errors.New("session not found")
)

type Screen string

const (
	ScreenLanding Screen = "landing"
	ScreenBoard   Screen = "board"
)

// Scoreboard counts games won per player for the lifetime of a session.
type Scoreboard struct {
	Player1 int `json:"player1"`
	Player2 int `json:"player2"`
}

func (s *Scoreboard) add(p game.Player) {
	switch p {
	case game.Player1:
		s.Player1++
	case game.Player2:
		s.Player2++
	}
}

type Snapshot struct {
	ID        string
	Game      game.State
	Scores    Scoreboard
	Language  language.Tag
	Screen    Screen
	StartedAt time.Time
}

// Hooks observe session events. They run in event order on a goroutine
// owned by the session and must not call back into the session
// synchronously.
type Hooks struct {
	OnDrop  func(Snapshot, game.MoveResult)
	OnWin   func(Snapshot, game.MoveResult)
	OnReset func(Snapshot)
}

type Config struct {
	Board     game.Options
	DropDelay time.Duration
	Hooks     Hooks
	Logger    *slog.Logger
}

type Session struct {
	ID string

	cfg       Config
	logger    *slog.Logger
	engine    *game.Engine
	scores    Scoreboard
	lang      language.Tag
	screen    Screen
	startedAt time.Time
	subs      map[chan Snapshot]struct{}

	lastActive atomic.Int64
	hooks      chan func()
	cmds       chan func()
	quit       chan struct{}
	done       chan struct{}
	closeOnce  sync.Once
}

func newSession(id string, lang language.Tag, cfg Config) (*Session, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Session{
		ID:        id,
		cfg:       cfg,
		logger:    logger.With("session", id),
		lang:      lang,
		screen:    ScreenLanding,
		startedAt: time.Now(),
		subs:      make(map[chan Snapshot]struct{}),
		hooks:     make(chan func(), hookQueueSize),
		cmds:      make(chan func()),
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	engine, err := game.NewEngine(cfg.Board, s.scores.add)
	if err != nil {
		return nil, err
	}
	s.engine = engine
	s.touch()
	go s.runHooks()
	go s.loop()
	return s, nil
}

func (s *Session) loop() {
	defer close(s.done)
	for {
		select {
		case fn := <-s.cmds:
			fn()
		case <-s.quit:
			for ch := range s.subs {
				close(ch)
			}
			s.subs = nil
			close(s.hooks)
			return
		}
	}
}

// do runs fn on the session goroutine and waits for it to finish.
func (s *Session) do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	select {
	case s.cmds <- func() { fn(); close(finished) }:
	case <-s.quit:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	<-finished
	s.touch()
	return nil
}

func (s *Session) touch() {
	s.lastActive.Store(time.Now().UnixNano())
}

// LastActive is the time of the last completed command.
func (s *Session) LastActive() time.Time {
	return time.Unix(0, s.lastActive.Load())
}

// Close stops the session loop and closes every subscription.
func (s *Session) Close() {
	s.closeOnce.Do(func() { close(s.quit) })
	<-s.done
}

// Drop plays a piece into column for the player whose turn it is. A
// successful drop blocks further drops until DropDelay has elapsed.
func (s *Session) Drop(ctx context.Context, column int) (game.MoveResult, error) {
	var (
		res game.MoveResult
		err error
	)
	doErr := s.do(ctx, func() {
		res, err = s.engine.DropPiece(column)
		if err != nil || !res.Placed() {
			return
		}
		s.armSettle()
		snap := s.snapshot()
		s.publish(snap)
		s.fire(func() {
			if s.cfg.Hooks.OnDrop != nil {
				s.cfg.Hooks.OnDrop(snap, res)
			}
			if res.Outcome == game.OutcomeWin && s.cfg.Hooks.OnWin != nil {
				s.cfg.Hooks.OnWin(snap, res)
			}
		})
		if res.Outcome == game.OutcomeWin {
			s.logger.Info("game won", "winner", res.Winner.String(), "moves", snap.Game.Moves)
		}
	})
	if doErr != nil {
		return game.MoveResult{}, doErr
	}
	return res, err
}

// armSettle releases the drop guard once the drop animation is over.
func (s *Session) armSettle() {
	if s.cfg.DropDelay <= 0 {
		s.engine.Settle()
		return
	}
	time.AfterFunc(s.cfg.DropDelay, func() {
		err := s.do(context.Background(), func() {
			s.engine.Settle()
			s.publish(s.snapshot())
		})
		if err != nil && !errors.Is(err, ErrClosed) {
			s.logger.Warn("settle drop", "error", err)
		}
	})
}

// Reset starts a new game. Scores are kept.
func (s *Session) Reset(ctx context.Context) error {
	return s.do(ctx, func() {
		s.engine.Reset()
		s.startedAt = time.Now()
		snap := s.snapshot()
		s.publish(snap)
		if s.cfg.Hooks.OnReset != nil {
			s.fire(func() { s.cfg.Hooks.OnReset(snap) })
		}
	})
}

func (s *Session) ResetScores(ctx context.Context) error {
	return s.update(ctx, func() { s.scores = Scoreboard{} })
}

func (s *Session) SetLanguage(ctx context.Context, tag language.Tag) error {
	return s.update(ctx, func() { s.lang = tag })
}

func (s *Session) ToggleLanguage(ctx context.Context) error {
	return s.update(ctx, func() { s.lang = i18n.Toggle(s.lang) })
}

// Start leaves the landing page for the board.
func (s *Session) Start(ctx context.Context) error {
	return s.update(ctx, func() { s.screen = ScreenBoard })
}

// Home returns to the landing page; the game in progress is kept.
func (s *Session) Home(ctx context.Context) error {
	return s.update(ctx, func() { s.screen = ScreenLanding })
}

func (s *Session) update(ctx context.Context, fn func()) error {
	return s.do(ctx, func() {
		fn()
		s.publish(s.snapshot())
	})
}

func (s *Session) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := s.do(ctx, func() { snap = s.snapshot() })
	return snap, err
}

// Subscribe returns a channel carrying the latest snapshot after every
// change. Slow readers only see the most recent one. The channel is closed
// when the session closes.
func (s *Session) Subscribe(ctx context.Context) (<-chan Snapshot, func(), error) {
	ch := make(chan Snapshot, 1)
	if err := s.do(ctx, func() { s.subs[ch] = struct{}{} }); err != nil {
		return nil, nil, err
	}
	unsub := func() {
		_ = s.do(context.Background(), func() {
			if _, ok := s.subs[ch]; ok {
				delete(s.subs, ch)
				close(ch)
			}
		})
	}
	return ch, unsub, nil
}

func (s *Session) snapshot() Snapshot {
	return Snapshot{
		ID:        s.ID,
		Game:      s.engine.State(),
		Scores:    s.scores,
		Language:  s.lang,
		Screen:    s.screen,
		StartedAt: s.startedAt,
	}
}

func (s *Session) publish(snap Snapshot) {
	for ch := range s.subs {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}

// fire queues fn for the hook goroutine. It is only called from the
// session loop, so hooks run one at a time in the order events happened.
func (s *Session) fire(fn func()) {
	s.hooks <- fn
}

func (s *Session) runHooks() {
	for fn := range s.hooks {
		s.runHook(fn)
	}
}

func (s *Session) runHook(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("session hook panicked", "panic", r)
		}
	}()
	fn()
}
