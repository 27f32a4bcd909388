package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"emittr/connectfour/internal/analytics"
	"emittr/connectfour/internal/game"
	"emittr/connectfour/internal/i18n"
	"emittr/connectfour/internal/session"
	"emittr/connectfour/internal/storage"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/language"
)

const archiveTimeout = 5 * time.Second

type Server struct {
	router      *gin.Engine
	sessions    *session.Manager
	catalog     *i18n.Catalog
	store       storage.Store
	analytics   *analytics.Producer
	logger      *slog.Logger
	defaultLang language.Tag
	sweepEvery  time.Duration
}

type Config struct {
	Board           game.Options
	DropDelay       time.Duration
	IdleTimeout     time.Duration
	SweepInterval   time.Duration
	DefaultLanguage string
	StaticDir       string
	Store           storage.Store
	Analytics       *analytics.Producer
	Logger          *slog.Logger
}

func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(cfg.Logger))

	catalog := i18n.New()
	s := &Server{
		router:      router,
		catalog:     catalog,
		store:       cfg.Store,
		analytics:   cfg.Analytics,
		logger:      cfg.Logger,
		defaultLang: catalog.Match(cfg.DefaultLanguage),
		sweepEvery:  cfg.SweepInterval,
	}
	s.sessions = session.NewManager(session.Config{
		Board:     cfg.Board,
		DropDelay: cfg.DropDelay,
		Logger:    cfg.Logger,
		Hooks: session.Hooks{
			OnDrop:  s.onDrop,
			OnWin:   s.onWin,
			OnReset: s.onReset,
		},
	}, cfg.IdleTimeout)

	router.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	router.POST("/sessions", s.handleCreateSession)
	router.GET("/sessions/:id", s.handleGetSession)
	router.DELETE("/sessions/:id", s.handleDeleteSession)
	router.GET("/results", s.handleResults)
	router.GET("/ws", s.handleWS)

	if cfg.StaticDir != "" {
		router.StaticFile("/", filepath.Join(cfg.StaticDir, "index.html"))
		router.Static("/static", cfg.StaticDir)
	}
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.router, ReadHeaderTimeout: 10 * time.Second}

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go s.sweeper(sweepCtx)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		s.sessions.Close()
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.sessions.Close()
	if err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) sweeper(ctx context.Context) {
	if s.sweepEvery <= 0 {
		return
	}
	ticker := time.NewTicker(s.sweepEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.sessions.SweepIdle(); n > 0 {
				s.logger.Info("swept idle sessions", "count", n, "live", s.sessions.Len())
			}
		}
	}
}

func (s *Server) handleCreateSession(c *gin.Context) {
	sess, err := s.sessions.Create(s.languageFor(c.Query("lang")))
	if err != nil {
		s.logger.Error("create session", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create session"})
		return
	}
	snap, err := sess.Snapshot(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, s.stateView("state", snap))
}

func (s *Server) handleGetSession(c *gin.Context) {
	sess, ok := s.sessions.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": session.ErrNotFound.Error()})
		return
	}
	snap, err := sess.Snapshot(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusGone, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, s.stateView("state", snap))
}

func (s *Server) handleDeleteSession(c *gin.Context) {
	if _, ok := s.sessions.Get(c.Param("id")); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": session.ErrNotFound.Error()})
		return
	}
	s.sessions.Remove(c.Param("id"))
	c.Status(http.StatusNoContent)
}

func (s *Server) handleResults(c *gin.Context) {
	if s.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": storage.ErrNotConfigured.Error()})
		return
	}
	limit := 10
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 100 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 100"})
			return
		}
		limit = n
	}
	ctx := c.Request.Context()
	results, err := s.store.RecentResults(ctx, limit)
	if err != nil {
		s.logger.Error("list results", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "results unavailable"})
		return
	}
	totals, err := s.store.WinTotals(ctx)
	if err != nil {
		s.logger.Error("win totals", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "results unavailable"})
		return
	}
	if results == nil {
		results = []storage.Result{}
	}
	c.JSON(http.StatusOK, gin.H{"results": results, "totals": totals})
}

func (s *Server) languageFor(value string) language.Tag {
	if value == "" {
		return s.defaultLang
	}
	return s.catalog.Match(value)
}

func (s *Server) onDrop(snap session.Snapshot, res game.MoveResult) {
	s.analytics.Publish(context.Background(), analytics.Event{
		Event:     analytics.EventPieceDropped,
		SessionID: snap.ID,
		Player:    res.Player,
		Row:       res.Row,
		Column:    res.Col,
		Moves:     snap.Game.Moves,
	})
}

func (s *Server) onWin(snap session.Snapshot, res game.MoveResult) {
	ended := time.Now()
	if s.store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
		err := s.store.SaveResult(ctx, storage.Result{
			SessionID:   snap.ID,
			Winner:      res.Winner,
			WinningLine: res.WinningLine,
			Moves:       snap.Game.Moves,
			StartedAt:   snap.StartedAt,
			EndedAt:     ended,
		})
		cancel()
		if err != nil {
			s.logger.Error("archive result", "session", snap.ID, "error", err)
		}
	}
	s.analytics.Publish(context.Background(), analytics.Event{
		Event:     analytics.EventGameWon,
		SessionID: snap.ID,
		Player:    res.Winner,
		Row:       res.Row,
		Column:    res.Col,
		Moves:     snap.Game.Moves,
		Line:      res.WinningLine,
		Duration:  ended.Sub(snap.StartedAt).Seconds(),
	})
}

func (s *Server) onReset(snap session.Snapshot) {
	s.analytics.Publish(context.Background(), analytics.Event{
		Event:     analytics.EventGameReset,
		SessionID: snap.ID,
	})
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
