package server

import (
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/they4kman/sweepd/game"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func newTestServer(t *testing.T, options Options, rows ...string) (*Server, *game.Game) {
	t.Helper()
	config := game.NewGameConfig()
	config.Snapshot = &game.BoardSnapshot{Seed: 1, SerializedBoard: strings.Join(rows, "\n")}

	g, err := game.NewGame(config)
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	return New(g, options), g
}

func get(t *testing.T, server *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func decodeCheckTile(t *testing.T, w *httptest.ResponseRecorder) CheckTileResponse {
	t.Helper()
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var response CheckTileResponse
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("decoding %s: %v", w.Body.String(), err)
	}
	return response
}

func TestCheckTileFlood(t *testing.T) {
	server, _ := newTestServer(t, Options{},
		"#####",
		"#####",
		"####O",
	)

	response := decodeCheckTile(t, get(t, server, "/checkTile?x=0&y=0"))
	if response.GameOver {
		t.Fatal("expected the game to continue")
	}
	if len(response.RevealedTiles) != 14 {
		t.Fatalf("expected 14 safe tiles, got %d", len(response.RevealedTiles))
	}

	first := response.RevealedTiles[0]
	if first != (game.RevealedTile{X: 0, Y: 0, IsMine: false, AdjacentMines: 0}) {
		t.Fatalf("expected the queried tile first, got %+v", first)
	}
}

func TestCheckTileWireFormat(t *testing.T) {
	server, _ := newTestServer(t, Options{}, "O#")

	w := get(t, server, "/checkTile?x=1&y=0")
	expected := `{"revealedTiles":[{"x":1,"y":0,"isMine":false,"adjacentMines":1}],"gameOver":false}`
	if body := strings.TrimSpace(w.Body.String()); body != expected {
		t.Fatalf("expected %s, got %s", expected, body)
	}

	// Already revealed: an empty array, never null
	w = get(t, server, "/checkTile?x=1&y=0")
	expected = `{"revealedTiles":[],"gameOver":false}`
	if body := strings.TrimSpace(w.Body.String()); body != expected {
		t.Fatalf("expected %s, got %s", expected, body)
	}
}

func TestCheckTileMineIsGameOver(t *testing.T) {
	server, _ := newTestServer(t, Options{},
		"O##",
		"###",
	)

	response := decodeCheckTile(t, get(t, server, "/checkTile?x=0&y=0"))
	if !response.GameOver {
		t.Fatal("expected game over")
	}
	if len(response.RevealedTiles) != 1 || !response.RevealedTiles[0].IsMine {
		t.Fatalf("expected only the mine, got %+v", response.RevealedTiles)
	}

	again := decodeCheckTile(t, get(t, server, "/checkTile?x=0&y=0"))
	if !again.GameOver || len(again.RevealedTiles) != 0 {
		t.Fatalf("expected a repeated mine query to reveal nothing and stay game over, got %+v", again)
	}
}

func TestCheckTileRejectsBadCoordinates(t *testing.T) {
	server, g := newTestServer(t, Options{}, strings.Repeat("#", 10))

	tests := []struct {
		name  string
		query string
	}{
		{"missing x", "/checkTile?y=0"},
		{"missing y", "/checkTile?x=0"},
		{"not a number", "/checkTile?x=abc&y=0"},
		{"trailing garbage", "/checkTile?x=3abc&y=0"},
		{"float", "/checkTile?x=1.5&y=0"},
		{"negative", "/checkTile?x=-1&y=0"},
		{"past the edge", "/checkTile?x=10&y=0"},
		{"past the bottom", "/checkTile?x=0&y=1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(t, server, tt.query)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
			}

			var response errorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil || response.Error == "" {
				t.Fatalf("expected an error body, got %s", w.Body.String())
			}
		})
	}

	if board := g.Snapshot().SerializedBoard; strings.Contains(board, ".") {
		t.Fatalf("expected rejected queries to reveal nothing, got %q", board)
	}
}

func TestResetReplacesBoard(t *testing.T) {
	server, g := newTestServer(t, Options{}, "O##")
	before := g.Info()

	decodeCheckTile(t, get(t, server, "/checkTile?x=2&y=0"))

	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/reset", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var response ResetResponse
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if response.GameID == before.GameID.String() || response.Width != 3 || response.Height != 1 {
		t.Fatalf("unexpected reset response %+v", response)
	}

	// The tile revealed before the reset is hidden again
	reveal := decodeCheckTile(t, get(t, server, "/checkTile?x=2&y=0"))
	if len(reveal.RevealedTiles) == 0 {
		t.Fatal("expected the fresh board to reveal tiles again")
	}
}

func TestResetRequiresPost(t *testing.T) {
	server, g := newTestServer(t, Options{}, "O##")
	before := g.Info()

	if w := get(t, server, "/reset"); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for GET /reset, got %d", w.Code)
	}
	if after := g.Info(); after.GameID != before.GameID {
		t.Fatalf("GET /reset replaced the board: %s -> %s", before.GameID, after.GameID)
	}
}

func TestConfigEndpoint(t *testing.T) {
	server, _ := newTestServer(t, Options{}, "###", "###")

	w := get(t, server, "/config")
	var response ConfigResponse
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("decoding %s: %v", w.Body.String(), err)
	}

	expected := ConfigResponse{Width: 3, Height: 2, MineProbability: 0.2, InitialFlags: 10}
	if response != expected {
		t.Fatalf("expected %+v, got %+v", expected, response)
	}
}

func TestBoardImage(t *testing.T) {
	server, _ := newTestServer(t, Options{}, "O##", "###")

	w := get(t, server, "/board.png")
	if w.Code != http.StatusOK || w.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("expected a PNG, got %d %s", w.Code, w.Header().Get("Content-Type"))
	}

	img, err := png.Decode(w.Body)
	if err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if bounds := img.Bounds(); bounds.Dx() != 3*boardImageCellSize || bounds.Dy() != 2*boardImageCellSize {
		t.Fatalf("unexpected bounds %v", bounds)
	}
}

func TestSnapshotOnlyInDebug(t *testing.T) {
	server, _ := newTestServer(t, Options{}, "O#")
	if w := get(t, server, "/snapshot"); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without debug, got %d", w.Code)
	}

	server, _ = newTestServer(t, Options{Debug: true}, "O#")
	w := get(t, server, "/snapshot")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 in debug, got %d", w.Code)
	}

	snapshot, err := game.LoadSnapshot(w.Body.String())
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if snapshot.SerializedBoard != "O#" {
		t.Fatalf("unexpected snapshot %+v", snapshot)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	server, _ := newTestServer(t, Options{}, "##")

	if w := get(t, server, "/healthz"); w.Code != http.StatusOK {
		t.Fatalf("expected 200 from /healthz, got %d", w.Code)
	}

	decodeCheckTile(t, get(t, server, "/checkTile?x=0&y=0"))

	w := get(t, server, "/metrics")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 from /metrics, got %d", w.Code)
	}
	for _, metric := range []string{"sweepd_reveal_requests_total", "sweepd_tiles_revealed_total", "sweepd_flood_size_tiles"} {
		if !strings.Contains(w.Body.String(), metric) {
			t.Errorf("expected %s in metrics", metric)
		}
	}
}

func TestStaticDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<canvas></canvas>"), 0644); err != nil {
		t.Fatalf("writing index: %v", err)
	}

	server, _ := newTestServer(t, Options{StaticDir: dir}, "##")

	w := get(t, server, "/")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "<canvas>") {
		t.Fatalf("expected the index page, got %d %s", w.Code, w.Body.String())
	}

	// API routes still win over static files
	decodeCheckTile(t, get(t, server, "/checkTile?x=0&y=0"))
}
