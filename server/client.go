package server

import (
	"encoding/json"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 256 * 1024
)

// Client represents a single WebSocket connection.
type Client struct {
	ID    string
	Name  string
	Color string

	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	log  *slog.Logger

	// joined receives the outcome of the join ReadPump is waiting on.
	joined chan bool

	// The session this client is currently in (nil if not joined).
	mu      sync.Mutex
	session *Session
	closed  bool
}

var (
	adjectives = []string{"Red", "Blue", "Green", "Gold", "Silver", "Purple", "Orange", "Teal", "Coral", "Jade"}
	animals    = []string{"Fox", "Owl", "Bear", "Wolf", "Hawk", "Deer", "Lynx", "Crow", "Dove", "Seal"}
	colors     = []string{"#e74c3c", "#3498db", "#2ecc71", "#f39c12", "#9b59b6", "#1abc9c", "#e67e22", "#00bcd4", "#ff5722", "#8bc34a"}
)

func newClient(hub *Hub, conn *websocket.Conn) *Client {
	id := uuid.NewString()
	return &Client{
		ID:     id,
		Name:   adjectives[rand.IntN(len(adjectives))] + " " + animals[rand.IntN(len(animals))],
		Color:  colors[rand.IntN(len(colors))],
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, 256),
		log:    slog.With("client", id),
		joined: make(chan bool, 1),
	}
}

func (c *Client) currentSession() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// ReadPump reads messages from the WebSocket and routes them.
func (c *Client) ReadPump() {
	defer func() {
		if s := c.currentSession(); s != nil {
			select {
			case s.leave <- c:
			case <-s.done:
			}
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMsgSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn("read error", "error", err)
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.sendError("invalid message format")
			continue
		}

		s := c.currentSession()
		switch {
		case msg.Type == MsgJoin:
			if s != nil {
				c.sendError("already joined " + s.docID)
				continue
			}
			if !c.hub.join(joinRequest{client: c, docID: msg.DocID, kind: msg.Kind}) {
				return
			}
			// Frames behind the join stay unread until the session has
			// attached the client.
			select {
			case <-c.joined:
			case <-c.hub.done:
				return
			}
		case s == nil:
			c.sendError("not joined to a document")
		default:
			select {
			case s.incoming <- inbound{client: c, msg: msg}:
			case <-s.done:
				c.sendError("document closed")
			}
		}
	}
}

// WritePump writes messages from the send channel to the WebSocket.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) sendMsg(msg ServerMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- msg.Encode():
	default:
		// Client too slow, drop message.
	}
}

func (c *Client) sendError(message string) {
	c.sendMsg(ServerMessage{Type: MsgError, Message: message})
}

func (c *Client) settleJoin(ok bool) {
	select {
	case c.joined <- ok:
	default:
	}
}

func (c *Client) refuseJoin(reason string) {
	c.sendError(reason)
	c.settleJoin(false)
}

// detach clears the client's session and closes its send channel, which
// makes WritePump close the connection.
func (c *Client) detach() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = nil
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *Client) Info() ClientInfo {
	return ClientInfo{ID: c.ID, Name: c.Name, Color: c.Color}
}
