package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"marketsync/pkg/logger"
	"marketsync/pkg/stream"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8 * 1024
)

// Client is one live WebSocket connection serving a single stream.
type Client struct {
	ID     string
	UserID string
	Conn   *websocket.Conn
	Send   chan []byte
}

func NewClient(userID string, conn *websocket.Conn) *Client {
	return &Client{
		ID:     uuid.NewString(),
		UserID: userID,
		Conn:   conn,
		Send:   make(chan []byte, 16),
	}
}

// Manager tracks the open connections so they can be counted and closed on
// shutdown.
type Manager struct {
	clients map[string]*Client
	mutex   sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		clients: make(map[string]*Client),
	}
}

func (m *Manager) Register(client *Client) {
	m.mutex.Lock()
	m.clients[client.ID] = client
	m.mutex.Unlock()
	logger.Debug("WebSocket: client %s registered for user %s", client.ID, client.UserID)
}

func (m *Manager) Unregister(client *Client) {
	m.mutex.Lock()
	delete(m.clients, client.ID)
	m.mutex.Unlock()
	logger.Debug("WebSocket: client %s unregistered", client.ID)
}

func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.clients)
}

// CountForUser returns the number of connections open for userID.
func (m *Manager) CountForUser(userID string) int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	n := 0
	for _, c := range m.clients {
		if c.UserID == userID {
			n++
		}
	}
	return n
}

// CloseAll drops every connection; their pumps then unwind on their own.
func (m *Manager) CloseAll() {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	for _, c := range m.clients {
		c.Conn.Close()
	}
}

// Serve writes every snapshot of s to the client as a "snapshot" frame until
// the stream stops or the connection drops, then cancels s. Inbound frames go
// to handle. Serve blocks for the lifetime of the connection.
func Serve[T any](m *Manager, client *Client, topic string, s *stream.Stream[T], handle MessageHandler) {
	m.Register(client)
	defer m.Unregister(client)
	defer s.Cancel()

	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		client.readPump(m, handle)
	}()

	writePump(client, topic, s, readDone)
	client.Conn.Close()
	<-readDone
}

func (c *Client) readPump(m *Manager, handle MessageHandler) {
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("WebSocket: read error for client %s: %v", c.ID, err)
			}
			return
		}
		m.HandleClientMessage(c, message, handle)
	}
}

func writePump[T any](c *Client, topic string, s *stream.Stream[T], readDone <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case value, ok := <-s.Updates():
			if !ok {
				if err := s.Err(); err != nil {
					logger.Error("WebSocket: stream %s failed for client %s: %v", topic, c.ID, err)
					c.writeJSON(errorMessage(topic, err))
				}
				c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
				c.Conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.writeJSON(snapshotMessage(topic, value)); err != nil {
				return
			}

		case message := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-readDone:
			return
		}
	}
}

func (c *Client) writeJSON(msg WSMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		logger.Error("WebSocket: failed to encode %s frame: %v", msg.Type, err)
		return err
	}
	c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.Conn.WriteMessage(websocket.TextMessage, payload)
}

// reply queues a frame for the write pump; a full queue drops it.
func (c *Client) reply(msg WSMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		logger.Error("WebSocket: failed to encode %s reply: %v", msg.Type, err)
		return
	}
	select {
	case c.Send <- payload:
	default:
		logger.Warn("WebSocket: send queue full for client %s, dropping %s", c.ID, msg.Type)
	}
}
