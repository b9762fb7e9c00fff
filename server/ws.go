package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/they4kman/sweepd/game"
	"github.com/they4kman/sweepd/util/collections"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 50 * time.Second
	maxMessageSize = 512
	sendBuffer     = 16
)

// Message types. Replies to a client's own request use the request's type;
// every connected client also receives "reveal" and "reset" broadcasts.
const (
	messageCheckTile = "checkTile"
	messageReset     = "reset"
	messageReveal    = "reveal"
	messageError     = "error"
)

type socketRequest struct {
	Type string `json:"type"`
	X    *int   `json:"x"`
	Y    *int   `json:"y"`
}

type tileMessage struct {
	Type string `json:"type"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
	CheckTileResponse
}

type resetMessage struct {
	Type string `json:"type"`
	ResetResponse
}

type errorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

type hub struct {
	game   *game.Game
	server *Server

	upgrader websocket.Upgrader

	clientsLock sync.Mutex
	clients     collections.Set[*client]

	log *logrus.Entry
}

type client struct {
	hub    *hub
	conn   *websocket.Conn
	send   chan []byte
	events <-chan game.Event
	done   chan struct{}

	unsubscribe func()
	closeOnce   sync.Once
}

func newHub(g *game.Game, server *Server) *hub {
	return &hub{
		game:   g,
		server: server,
		upgrader: websocket.Upgrader{
			// Any origin may watch the shared board
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(collections.Set[*client]),
		log:     logrus.WithField("component", "ws"),
	}
}

func (hub *hub) serve(c *gin.Context) {
	conn, err := hub.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		hub.log.WithError(err).Warn("Upgrade failed")
		return
	}

	events, unsubscribe := hub.game.Subscribe()
	cl := &client{
		hub:         hub,
		conn:        conn,
		send:        make(chan []byte, sendBuffer),
		events:      events,
		done:        make(chan struct{}),
		unsubscribe: unsubscribe,
	}

	hub.clientsLock.Lock()
	hub.clients.Add(cl)
	count := hub.clients.Len()
	hub.clientsLock.Unlock()

	SocketClients.Inc()
	hub.log.WithFields(logrus.Fields{
		"remote":  conn.RemoteAddr().String(),
		"clients": count,
	}).Info("Client connected")

	go cl.writePump()
	go cl.readPump()
}

func (hub *hub) remove(cl *client) {
	hub.clientsLock.Lock()
	defer hub.clientsLock.Unlock()

	if hub.clients.Contains(cl) {
		hub.clients.Remove(cl)
		SocketClients.Dec()
	}
}

// closeAll disconnects every client; http.Server.Shutdown leaves hijacked
// connections open
func (hub *hub) closeAll() {
	hub.clientsLock.Lock()
	clients := make([]*client, 0, hub.clients.Len())
	for cl := range hub.clients {
		clients = append(clients, cl)
	}
	hub.clientsLock.Unlock()

	for _, cl := range clients {
		cl.close()
	}
}

func (cl *client) close() {
	cl.closeOnce.Do(func() {
		close(cl.done)
		cl.unsubscribe()
		cl.hub.remove(cl)
		_ = cl.conn.Close()
	})
}

func (cl *client) readPump() {
	defer cl.close()

	cl.conn.SetReadLimit(maxMessageSize)
	_ = cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := cl.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				cl.hub.log.WithError(err).Warn("Read failed")
			}
			return
		}

		reply := cl.handle(msg)
		select {
		case cl.send <- reply:
		case <-cl.done:
			return
		}
	}
}

func (cl *client) handle(msg []byte) []byte {
	var request socketRequest
	if err := json.Unmarshal(msg, &request); err != nil {
		return encode(errorMessage{Type: messageError, Error: "malformed message"})
	}

	switch request.Type {
	case messageCheckTile:
		if request.X == nil || request.Y == nil {
			return encode(errorMessage{Type: messageError, Error: errors.Wrap(ErrInvalidCoordinate, "x and y are required").Error()})
		}

		response, err := cl.hub.server.checkTile(*request.X, *request.Y)
		if err != nil {
			if !isClientError(err) {
				cl.hub.log.WithError(err).Error("Reveal failed")
				return encode(errorMessage{Type: messageError, Error: "internal error"})
			}
			return encode(errorMessage{Type: messageError, Error: err.Error()})
		}
		return encode(tileMessage{Type: messageCheckTile, X: *request.X, Y: *request.Y, CheckTileResponse: response})

	case messageReset:
		response, err := cl.hub.server.reset()
		if err != nil {
			cl.hub.log.WithError(err).Error("Reset failed")
			return encode(errorMessage{Type: messageError, Error: "internal error"})
		}
		return encode(resetMessage{Type: messageReset, ResetResponse: response})

	default:
		return encode(errorMessage{Type: messageError, Error: "unknown message type " + request.Type})
	}
}

func eventMessage(event game.Event) []byte {
	switch event.Type {
	case game.EventReset:
		return encode(resetMessage{
			Type: messageReset,
			ResetResponse: ResetResponse{
				GameID: event.Board.GameID.String(),
				Width:  event.Board.Width,
				Height: event.Board.Height,
			},
		})
	default:
		return encode(tileMessage{
			Type: messageReveal,
			X:    event.Reveal.X,
			Y:    event.Reveal.Y,
			CheckTileResponse: CheckTileResponse{
				RevealedTiles: event.Reveal.RevealedTiles,
				GameOver:      event.Reveal.GameOver,
			},
		})
	}
}

func encode(msg interface{}) []byte {
	out, err := json.Marshal(msg)
	if err != nil {
		panic(err)
	}
	return out
}

func (cl *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		cl.close()
	}()

	write := func(messageType int, data []byte) bool {
		_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := cl.conn.WriteMessage(messageType, data); err != nil {
			cl.hub.log.WithError(err).Debug("Write failed")
			return false
		}
		return true
	}

	for {
		select {
		case <-cl.done:
			return
		case msg := <-cl.send:
			if !write(websocket.TextMessage, msg) {
				return
			}
		case event, ok := <-cl.events:
			if !ok {
				return
			}
			if !write(websocket.TextMessage, eventMessage(event)) {
				return
			}
		case <-ticker.C:
			if !write(websocket.PingMessage, nil) {
				return
			}
		}
	}
}
