package game

import (
	"strings"
	"sync"
	"testing"

	"github.com/pkg/errors"
)

func snapshotGame(t *testing.T, rows ...string) *Game {
	t.Helper()
	config := NewGameConfig()
	config.Snapshot = &BoardSnapshot{Seed: 1, SerializedBoard: strings.Join(rows, "\n")}

	game, err := NewGame(config)
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	return game
}

func TestNewGameRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*GameConfig)
	}{
		{"zero width", func(config *GameConfig) { config.Width = 0 }},
		{"probability one", func(config *GameConfig) { config.MineProbability = 1 }},
		{"negative flags", func(config *GameConfig) { config.InitialFlags = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := NewGameConfig()
			tt.modify(&config)
			if _, err := NewGame(config); !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestGameRevealMineIsGameOver(t *testing.T) {
	game := snapshotGame(t,
		"O###",
		"####",
	)

	result, err := game.Reveal(0, 0)
	if err != nil {
		t.Fatalf("Reveal: %v", err)
	}
	if !result.GameOver {
		t.Fatal("expected game over")
	}
	if len(result.RevealedTiles) != 1 || !result.RevealedTiles[0].IsMine {
		t.Fatalf("expected only the mine, got %+v", result.RevealedTiles)
	}

	// Querying the same mine again reports it was a mine but reveals nothing
	again, err := game.Reveal(0, 0)
	if err != nil {
		t.Fatalf("Reveal again: %v", err)
	}
	if !again.GameOver || len(again.RevealedTiles) != 0 {
		t.Fatalf("expected game over with no tiles, got %+v", again)
	}
}

func TestGameRevealFloodIsNotGameOver(t *testing.T) {
	game := snapshotGame(t,
		"###O",
		"####",
		"####",
	)

	result, err := game.Reveal(0, 2)
	if err != nil {
		t.Fatalf("Reveal: %v", err)
	}
	if result.GameOver {
		t.Fatal("expected the game to continue")
	}
	if len(result.RevealedTiles) != 11 {
		t.Fatalf("expected every safe cell revealed, got %d", len(result.RevealedTiles))
	}
	if result.X != 0 || result.Y != 2 || result.GameID != game.Info().GameID {
		t.Fatalf("unexpected result metadata %+v", result)
	}
}

func TestGameRevealOutOfBounds(t *testing.T) {
	game := snapshotGame(t, "###")

	if _, err := game.Reveal(3, 0); !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("expected ErrOutOfBounds, got %v", err)
	}
}

func TestGameResetIsIndependent(t *testing.T) {
	config := NewGameConfig()
	config.Seed = 1
	config.MineProbability = 0.5

	game, err := NewGame(config)
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}

	before := game.Info()
	if _, err := game.Reveal(0, 0); err != nil {
		t.Fatalf("Reveal: %v", err)
	}
	layoutBefore := strings.NewReplacer(".", "#", "*", "O").Replace(game.Snapshot().SerializedBoard)

	after, err := game.Reset()
	if err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if after.GameID == before.GameID || after.Seed == before.Seed {
		t.Fatalf("expected a new board, got %+v after %+v", after, before)
	}
	if after.Width != config.Width || after.Height != config.Height {
		t.Fatalf("expected the configured dimensions, got %dx%d", after.Width, after.Height)
	}

	snapshot := game.Snapshot()
	if strings.ContainsAny(snapshot.SerializedBoard, ".*") {
		t.Fatalf("expected no revealed cells after reset, got\n%s", snapshot.SerializedBoard)
	}
	if snapshot.SerializedBoard == layoutBefore {
		t.Fatal("expected a different mine layout after reset")
	}
}

func TestGameResetReloadsSnapshot(t *testing.T) {
	game := snapshotGame(t, "O##")

	if _, err := game.Reveal(2, 0); err != nil {
		t.Fatalf("Reveal: %v", err)
	}
	if _, err := game.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	if board := game.Snapshot().SerializedBoard; board != "O##" {
		t.Fatalf("expected the fresh snapshot layout, got %q", board)
	}
}

func TestGameSubscribe(t *testing.T) {
	game := snapshotGame(t, "O##")
	events, unsubscribe := game.Subscribe()

	if _, err := game.Reveal(2, 0); err != nil {
		t.Fatalf("Reveal: %v", err)
	}
	info, err := game.Reset()
	if err != nil {
		t.Fatalf("Reset: %v", err)
	}

	// (2, 0) has no adjacent mines, so the flood also reaches (1, 0)
	event := <-events
	if event.Type != EventReveal || event.Reveal.X != 2 || len(event.Reveal.RevealedTiles) != 2 {
		t.Fatalf("unexpected reveal event %+v", event)
	}
	event = <-events
	if event.Type != EventReset || event.Board.GameID != info.GameID {
		t.Fatalf("unexpected reset event %+v", event)
	}

	unsubscribe()
	unsubscribe()
	if _, ok := <-events; ok {
		t.Fatal("expected the channel to be closed")
	}

	if _, err := game.Reveal(1, 0); err != nil {
		t.Fatalf("Reveal after unsubscribe: %v", err)
	}
}

func TestGameConcurrentReveals(t *testing.T) {
	config := NewGameConfig()
	config.Seed = 7
	config.Width, config.Height = 20, 20

	game, err := NewGame(config)
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}

	var (
		wg    sync.WaitGroup
		lock  sync.Mutex
		total int
	)
	for worker := 0; worker < 8; worker++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for y := 0; y < config.Height; y++ {
				for x := 0; x < config.Width; x++ {
					px, py := x, y
					// Odd workers sweep from the opposite corner
					if worker%2 == 1 {
						px, py = config.Width-1-x, config.Height-1-y
					}
					result, err := game.Reveal(px, py)
					if err != nil {
						t.Errorf("Reveal: %v", err)
						return
					}
					lock.Lock()
					total += len(result.RevealedTiles)
					lock.Unlock()
				}
			}
		}(worker)
	}
	wg.Wait()

	if total != config.Width*config.Height {
		t.Fatalf("expected each cell reported once, got %d reports", total)
	}
}
