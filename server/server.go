package server

import (
	"bytes"
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/they4kman/sweepd/game"
	"github.com/they4kman/sweepd/render"
)

var ErrInvalidCoordinate = errors.New("invalid coordinate")

const (
	boardImageCellSize = 24
	shutdownTimeout    = 10 * time.Second
)

type Options struct {
	// Directory of the browser client, served for any unmatched path
	StaticDir string
	// Exposes /snapshot, which discloses mine positions
	Debug bool
}

// Server answers the presentation layer's queries against a single game
type Server struct {
	game    *game.Game
	options Options
	engine  *gin.Engine
	hub     *hub
	log     *logrus.Entry
}

type CheckTileResponse struct {
	RevealedTiles []game.RevealedTile `json:"revealedTiles"`
	GameOver      bool                `json:"gameOver"`
}

type ResetResponse struct {
	GameID string `json:"gameId"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type ConfigResponse struct {
	Width           int     `json:"width"`
	Height          int     `json:"height"`
	MineProbability float64 `json:"mineProbability"`
	InitialFlags    int     `json:"initialFlags"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func New(g *game.Game, options Options) *Server {
	server := &Server{
		game:    g,
		options: options,
		engine:  gin.New(),
		log:     logrus.WithField("component", "server"),
	}
	server.hub = newHub(g, server)

	server.engine.Use(gin.Recovery(), requestLogger(server.log))
	server.routes()

	return server
}

func (server *Server) routes() {
	r := server.engine

	r.GET("/checkTile", server.CheckTile)
	r.POST("/reset", server.Reset)
	r.GET("/config", server.Config)
	r.GET("/board.png", server.BoardImage)
	r.GET("/ws", server.hub.serve)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if server.options.Debug {
		r.GET("/snapshot", server.Snapshot)
	}

	if server.options.StaticDir != "" {
		r.NoRoute(gin.WrapH(http.FileServer(http.Dir(server.options.StaticDir))))
	}
}

func (server *Server) Handler() http.Handler {
	return server.engine
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully
func (server *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: server.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		server.log.WithField("addr", addr).Info("Server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "listen")
	case <-ctx.Done():
	}

	server.log.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := srv.Shutdown(shutdownCtx)
	server.hub.closeAll()
	if err != nil {
		return errors.Wrap(err, "shutdown")
	}

	server.log.Info("Server exited")
	return nil
}

func requestLogger(log *logrus.Entry) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start),
		}).Debug("Handled request")
	}
}

func parseCoordinate(name, value string) (int, error) {
	if value == "" {
		return 0, errors.Wrapf(ErrInvalidCoordinate, "missing %s", name)
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, errors.Wrapf(ErrInvalidCoordinate, "%s=%q is not an integer", name, value)
	}
	return n, nil
}

func isClientError(err error) bool {
	return errors.Is(err, ErrInvalidCoordinate) || errors.Is(err, game.ErrOutOfBounds)
}

// checkTile is shared by the HTTP and WebSocket transports
func (server *Server) checkTile(x, y int) (CheckTileResponse, error) {
	result, err := server.game.Reveal(x, y)
	if err != nil {
		if isClientError(err) {
			RevealRequests.WithLabelValues(resultBadRequest).Inc()
		} else {
			RevealRequests.WithLabelValues(resultError).Inc()
		}
		return CheckTileResponse{}, err
	}

	observeReveal(len(result.RevealedTiles), result.GameOver)

	return CheckTileResponse{
		RevealedTiles: result.RevealedTiles,
		GameOver:      result.GameOver,
	}, nil
}

func (server *Server) reset() (ResetResponse, error) {
	info, err := server.game.Reset()
	if err != nil {
		return ResetResponse{}, err
	}
	BoardResets.Inc()

	return ResetResponse{
		GameID: info.GameID.String(),
		Width:  info.Width,
		Height: info.Height,
	}, nil
}

func (server *Server) fail(c *gin.Context, err error) {
	if isClientError(err) {
		server.log.WithError(err).WithField("query", c.Request.URL.RawQuery).Warn("Rejected request")
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	server.log.WithError(err).Error("Request failed")
	c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
}

// CheckTile reveals the queried tile. Re-querying a revealed tile reveals
// nothing and still reports whether that tile is a mine.
func (server *Server) CheckTile(c *gin.Context) {
	x, err := parseCoordinate("x", c.Query("x"))
	if err != nil {
		RevealRequests.WithLabelValues(resultBadRequest).Inc()
		server.fail(c, err)
		return
	}
	y, err := parseCoordinate("y", c.Query("y"))
	if err != nil {
		RevealRequests.WithLabelValues(resultBadRequest).Inc()
		server.fail(c, err)
		return
	}

	response, err := server.checkTile(x, y)
	if err != nil {
		server.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (server *Server) Reset(c *gin.Context) {
	response, err := server.reset()
	if err != nil {
		server.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (server *Server) Config(c *gin.Context) {
	config := server.game.Config()
	info := server.game.Info()

	c.JSON(http.StatusOK, ConfigResponse{
		Width:           info.Width,
		Height:          info.Height,
		MineProbability: config.MineProbability,
		InitialFlags:    config.InitialFlags,
	})
}

// BoardImage renders the board as a player currently sees it
func (server *Server) BoardImage(c *gin.Context) {
	var (
		buf bytes.Buffer
		err error
	)
	server.game.View(func(board *game.Board) {
		err = render.Board(&buf, board, boardImageCellSize)
	})
	if err != nil {
		server.fail(c, err)
		return
	}

	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

func (server *Server) Snapshot(c *gin.Context) {
	c.Data(http.StatusOK, "application/x-yaml", []byte(server.game.Snapshot().Serialize()))
}
