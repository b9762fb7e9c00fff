package game

import (
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/they4kman/sweepd/util/collections"
)

type GameConfig struct {
	Width, Height   int
	MineProbability float64
	// Flags the presentation layer (or a director) may place; the server only
	// advertises it
	InitialFlags int

	// Seeds the game's random source. Zero picks a time-based seed.
	Seed int64

	// Snapshot to load board configuration from, on start and on every reset
	Snapshot *BoardSnapshot
	// Whether to set all cells as unrevealed when loading the Snapshot
	LoadSnapshotFresh bool
}

func NewGameConfig() GameConfig {
	return GameConfig{
		Width:             DefaultWidth,
		Height:            DefaultHeight,
		MineProbability:   DefaultMineProbability,
		InitialFlags:      DefaultInitialFlags,
		LoadSnapshotFresh: true,
	}
}

func (config GameConfig) validate() error {
	if config.Snapshot == nil {
		if err := validateDimensions(config.Width, config.Height); err != nil {
			return err
		}
	}
	if config.MineProbability < 0 || config.MineProbability >= 1 {
		return errors.Wrapf(ErrInvalidConfig, "mine probability must be in [0, 1), got %v", config.MineProbability)
	}
	if config.InitialFlags < 0 {
		return errors.Wrapf(ErrInvalidConfig, "initial flags must not be negative, got %d", config.InitialFlags)
	}
	return nil
}

// RevealResult answers a single reveal query
type RevealResult struct {
	GameID        uuid.UUID
	X, Y          int
	RevealedTiles []RevealedTile
	// Whether the queried cell itself is a mine
	GameOver bool
}

type BoardInfo struct {
	GameID uuid.UUID
	Width  int
	Height int
	Seed   int64
}

type EventType int

const (
	EventReveal EventType = iota
	EventReset
)

type Event struct {
	Type   EventType
	Reveal RevealResult
	Board  BoardInfo
}

const subscriberBuffer = 64

// Game owns the single board of a session. Reveals and resets are serialised,
// so a reset never interleaves with an in-flight flood fill.
type Game struct {
	config GameConfig
	rand   *rand.Rand

	mu    sync.Mutex
	board *Board
	info  BoardInfo

	subscribersLock sync.Mutex
	subscribers     collections.Set[chan Event]

	log *logrus.Entry
}

func NewGame(config GameConfig) (*Game, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}

	seed := config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	game := &Game{
		config:      config,
		rand:        rand.New(rand.NewSource(seed)),
		subscribers: make(collections.Set[chan Event]),
		log:         logrus.WithField("component", "game"),
	}

	if err := game.resetLocked(); err != nil {
		return nil, err
	}

	return game, nil
}

func (game *Game) Config() GameConfig {
	return game.config
}

func (game *Game) createBoard(seed int64) (*Board, error) {
	if game.config.Snapshot != nil {
		return game.config.Snapshot.CreateBoard(game.config.LoadSnapshotFresh)
	}

	return NewBoard(
		game.config.Width,
		game.config.Height,
		game.config.MineProbability,
		rand.New(rand.NewSource(seed)),
	)
}

func (game *Game) resetLocked() error {
	seed := game.rand.Int63()
	if game.config.Snapshot != nil {
		seed = game.config.Snapshot.Seed
	}

	board, err := game.createBoard(seed)
	if err != nil {
		return err
	}

	game.board = board
	game.info = BoardInfo{
		GameID: uuid.New(),
		Width:  board.Width(),
		Height: board.Height(),
		Seed:   seed,
	}

	game.log.WithFields(logrus.Fields{
		"game_id": game.info.GameID,
		"width":   board.Width(),
		"height":  board.Height(),
		"mines":   board.NumMines(),
	}).Info("Created board")

	return nil
}

// Reset discards the current board and builds a fresh one with the same
// configuration
func (game *Game) Reset() (BoardInfo, error) {
	game.mu.Lock()
	defer game.mu.Unlock()

	if err := game.resetLocked(); err != nil {
		return BoardInfo{}, err
	}

	game.publish(Event{Type: EventReset, Board: game.info})
	return game.info, nil
}

// Reveal reveals (x, y) on the current board, flood-filling from it
func (game *Game) Reveal(x, y int) (RevealResult, error) {
	game.mu.Lock()
	defer game.mu.Unlock()

	tiles, err := game.board.Reveal(x, y)
	if err != nil {
		return RevealResult{}, err
	}
	isMine, err := game.board.IsMine(x, y)
	if err != nil {
		return RevealResult{}, err
	}

	result := RevealResult{
		GameID:        game.info.GameID,
		X:             x,
		Y:             y,
		RevealedTiles: tiles,
		GameOver:      isMine,
	}

	game.log.WithFields(logrus.Fields{
		"game_id":   result.GameID,
		"x":         x,
		"y":         y,
		"revealed":  len(tiles),
		"game_over": result.GameOver,
	}).Debug("Revealed tile")

	// Observers receive reveals in board order
	game.publish(Event{Type: EventReveal, Reveal: result})
	return result, nil
}

func (game *Game) Info() BoardInfo {
	game.mu.Lock()
	defer game.mu.Unlock()
	return game.info
}

func (game *Game) Snapshot() *BoardSnapshot {
	game.mu.Lock()
	defer game.mu.Unlock()
	return game.board.Snapshot(game.info.Seed)
}

// View calls fn with the current board while holding the game lock. fn must
// not retain the board or call back into the game.
func (game *Game) View(fn func(*Board)) {
	game.mu.Lock()
	defer game.mu.Unlock()
	fn(game.board)
}

// Subscribe registers an observer of reveals and resets. Events are dropped
// for subscribers that fall behind, never blocking a reveal. Call the
// returned func to unsubscribe.
func (game *Game) Subscribe() (<-chan Event, func()) {
	events := make(chan Event, subscriberBuffer)

	game.subscribersLock.Lock()
	game.subscribers.Add(events)
	game.subscribersLock.Unlock()

	var once sync.Once
	return events, func() {
		once.Do(func() {
			game.subscribersLock.Lock()
			game.subscribers.Remove(events)
			game.subscribersLock.Unlock()
			close(events)
		})
	}
}

func (game *Game) publish(event Event) {
	game.subscribersLock.Lock()
	defer game.subscribersLock.Unlock()

	for events := range game.subscribers {
		select {
		case events <- event:
		default:
			game.log.WithField("event", event.Type).Warn("Dropped event for slow subscriber")
		}
	}
}
