package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"holdem-live/apps/server/internal/auth"
	"holdem-live/apps/server/internal/lobby"
	"holdem-live/apps/server/internal/table"
	"holdem-live/holdem"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 65536
	sendBufferSize = 256
)

// Connection represents a WebSocket client connection
type Connection struct {
	ID       string
	PlayerID string
	Conn     *websocket.Conn
	Send     chan []byte
	Gateway  *Gateway

	// guarded by Gateway.mu; Send is closed exactly when closed is set
	closed bool
}

// Gateway manages WebSocket connections. One live connection per player;
// a newer one replaces the older.
type Gateway struct {
	mu          sync.RWMutex
	connections map[string]*Connection
	playerConns map[string]*Connection
	nextConnID  uint64

	lobby    *lobby.Lobby
	auth     auth.Service
	logger   *log.Logger
	upgrader websocket.Upgrader
}

// New creates a new Gateway instance
func New(lby *lobby.Lobby, authService auth.Service, logger *log.Logger) *Gateway {
	if logger == nil {
		logger = log.Default()
	}
	return &Gateway{
		connections: make(map[string]*Connection),
		playerConns: make(map[string]*Connection),
		lobby:       lby,
		auth:        authService,
		logger:      logger.WithPrefix("gateway"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// SetLobby wires the lobby after construction. The lobby needs Send as its
// outbound sink, so the two are built in that order.
func (g *Gateway) SetLobby(lby *lobby.Lobby) {
	g.mu.Lock()
	g.lobby = lby
	g.mu.Unlock()
}

func (g *Gateway) getLobby() *lobby.Lobby {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.lobby
}

// HandleWebSocket authenticates the request, then upgrades it.
func (g *Gateway) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := auth.TokenFromRequest(r)
	playerID, ok := g.auth.ResolveSession(token)
	if !ok {
		http.Error(w, "invalid session token", http.StatusUnauthorized)
		return
	}

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Warn("upgrade failed", "err", err)
		return
	}

	g.mu.Lock()
	g.nextConnID++
	c := &Connection{
		ID:       fmt.Sprintf("conn_%d", g.nextConnID),
		PlayerID: playerID,
		Conn:     conn,
		Send:     make(chan []byte, sendBufferSize),
		Gateway:  g,
	}
	old := g.playerConns[playerID]
	g.connections[c.ID] = c
	g.playerConns[playerID] = c
	total := len(g.connections)
	g.mu.Unlock()

	if old != nil {
		old.close()
	}
	g.logger.Info("client connected", "conn", c.ID, "player", playerID, "total", total)

	go c.writePump()
	go c.readPump()

	// 断线重连: 重新同步已加入的桌子
	if lby := g.getLobby(); lby != nil {
		for _, t := range lby.TablesOf(playerID) {
			if err := t.SubmitEvent(table.Event{Type: table.EventConnResume, PlayerID: playerID}); err != nil {
				g.logger.Debug("resume", "table", t.ID, "err", err)
			}
		}
	}
}

func (c *Connection) readPump() {
	defer func() {
		c.Gateway.removeConnection(c)
		c.close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		messageType, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Gateway.logger.Warn("read error", "player", c.PlayerID, "err", err)
			}
			break
		}
		if messageType == websocket.TextMessage {
			c.handleMessage(message)
		}
	}
}

func (c *Connection) handleMessage(data []byte) {
	req, err := ParseRequest(data)
	if err != nil {
		c.sendError("", err.Error())
		return
	}
	lby := c.Gateway.getLobby()
	if lby == nil {
		c.sendError(req.TableID, "Table not found")
		return
	}
	t := lby.GetTable(req.TableID)
	if t == nil {
		c.sendError(req.TableID, "Table not found")
		return
	}

	req.Event.PlayerID = c.PlayerID
	if err := t.SubmitEvent(req.Event); err != nil {
		c.Gateway.logger.Debug("request rejected", "player", c.PlayerID, "table", req.TableID, "type", req.Event.Type, "err", err)
		c.sendError(req.TableID, ErrorMessage(err))
	}
}

func (c *Connection) sendError(tableID, msg string) {
	c.Gateway.deliver(c, table.Message{Type: "error", TableID: tableID, Data: map[string]string{"message": msg}})
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// close stops the write pump; it closes the socket on its way out, which
// in turn ends the read pump.
func (c *Connection) close() {
	c.Gateway.mu.Lock()
	defer c.Gateway.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.Send)
}

func (g *Gateway) removeConnection(c *Connection) {
	g.mu.Lock()
	delete(g.connections, c.ID)
	current := g.playerConns[c.PlayerID] == c
	if current {
		delete(g.playerConns, c.PlayerID)
	}
	total := len(g.connections)
	g.mu.Unlock()
	g.logger.Info("client disconnected", "conn", c.ID, "player", c.PlayerID, "total", total)

	// a replaced connection must not mark the player offline
	if !current {
		return
	}
	if lby := g.getLobby(); lby != nil {
		for _, t := range lby.TablesOf(c.PlayerID) {
			if err := t.SubmitEvent(table.Event{Type: table.EventConnLost, PlayerID: c.PlayerID}); err != nil {
				g.logger.Debug("conn lost", "table", t.ID, "err", err)
			}
		}
	}
}

// Send is the table.Sender for every table: it encodes msg and queues it on
// the player's connection, dropping it when the player is offline or slow.
func (g *Gateway) Send(playerID string, msg table.Message) {
	g.mu.RLock()
	c := g.playerConns[playerID]
	g.mu.RUnlock()
	if c == nil {
		return
	}
	g.deliver(c, msg)
}

func (g *Gateway) deliver(c *Connection, msg table.Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		g.logger.Error("encode message", "type", msg.Type, "err", err)
		return
	}
	// Send is only closed under the write lock.
	g.mu.RLock()
	defer g.mu.RUnlock()
	if c.closed {
		return
	}
	select {
	case c.Send <- data:
	default:
		g.logger.Warn("send buffer full, dropping", "player", c.PlayerID, "type", msg.Type)
	}
}

// ErrorMessage maps an error to the text shown to the client. Internal
// failures are never described.
func ErrorMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case holdem.IsValidation(err):
		return err.Error()
	case holdem.IsNotFound(err):
		return err.Error()
	case errors.Is(err, table.ErrTableClosed):
		return "Table is closed"
	default:
		return "Internal server error"
	}
}
