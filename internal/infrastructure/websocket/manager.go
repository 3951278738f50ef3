package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"echosocial/pkg/logger"
	"echosocial/pkg/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// Client is one live connection bound to a conversation.
type Client struct {
	ID             string
	UserID         string
	ConversationID string
	Conn           *websocket.Conn
	Send           chan []byte

	// OnFrame receives every inbound frame in read order.
	OnFrame func(Frame)
	// OnClose runs once after the connection is unregistered.
	OnClose func()

	closeOnce sync.Once

	// snapshot holds the newest full-state frame that did not fit in Send.
	snapshotMu    sync.Mutex
	snapshot      []byte
	snapshotReady chan struct{}
}

func NewClient(id, userID, conversationID string, conn *websocket.Conn) *Client {
	return &Client{
		ID:             id,
		UserID:         userID,
		ConversationID: conversationID,
		Conn:           conn,
		Send:           make(chan []byte, 256),
		snapshotReady:  make(chan struct{}, 1),
	}
}

// Manager tracks every open live connection.
type Manager struct {
	clients    map[string]*Client
	Register   chan *Client
	Unregister chan *Client
	mutex      sync.RWMutex

	// done is closed once the main loop has stopped.
	done chan struct{}
}

func NewManager() *Manager {
	return &Manager{
		clients:    make(map[string]*Client),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Start runs the manager's main loop until ctx is done, then closes every
// remaining client.
func (m *Manager) Start(ctx context.Context) {
	go func() {
		defer close(m.done)
		for {
			select {
			case client := <-m.Register:
				m.mutex.Lock()
				m.clients[client.ID] = client
				m.mutex.Unlock()
				metrics.LiveSessions.Inc()
				logger.Info("Live session opened: %s (user %s, conversation %s)", client.ID, client.UserID, client.ConversationID)

			case client := <-m.Unregister:
				m.remove(client)

			case <-ctx.Done():
				m.mutex.RLock()
				clients := make([]*Client, 0, len(m.clients))
				for _, client := range m.clients {
					clients = append(clients, client)
				}
				m.mutex.RUnlock()

				for _, client := range clients {
					m.remove(client)
				}
				return
			}
		}
	}()
}

func (m *Manager) remove(client *Client) {
	m.mutex.Lock()
	_, ok := m.clients[client.ID]
	delete(m.clients, client.ID)
	m.mutex.Unlock()

	if !ok {
		return
	}
	metrics.LiveSessions.Dec()
	client.shutdown()
	logger.Info("Live session closed: %s", client.ID)
}

// Add registers a client. It returns false, after closing the client, when
// the manager has already stopped.
func (m *Manager) Add(client *Client) bool {
	select {
	case m.Register <- client:
		return true
	case <-m.done:
		client.shutdown()
		return false
	}
}

// Remove unregisters a client. After the manager has stopped every client
// is already closed, so it returns at once.
func (m *Manager) Remove(client *Client) {
	select {
	case m.Unregister <- client:
	case <-m.done:
	}
}

// Count returns the number of registered clients.
func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.clients)
}

// SendToUser queues a frame on every connection the user has open.
func (m *Manager) SendToUser(userID string, message []byte) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	for _, client := range m.clients {
		if client.UserID == userID {
			client.Queue(message)
		}
	}
}

func (c *Client) shutdown() {
	c.closeOnce.Do(func() {
		close(c.Send)
		if c.OnClose != nil {
			c.OnClose()
		}
	})
}

// Queue sends without blocking. Frames for a slow reader are dropped.
func (c *Client) Queue(message []byte) bool {
	if c.offer(message) {
		return true
	}
	logger.Warn("Dropping frame for slow live session %s", c.ID)
	return false
}

// offer is a non-blocking send that also fails once Send is closed.
func (c *Client) offer(message []byte) (queued bool) {
	defer func() {
		if recover() != nil {
			queued = false
		}
	}()

	select {
	case c.Send <- message:
		return true
	default:
		return false
	}
}

// QueueSnapshot queues a frame that carries the full state of something,
// such as the message list. When Send is full, or an earlier snapshot is
// still waiting, it replaces the waiting snapshot instead of being dropped,
// so a slow reader still ends up with the newest state.
func (c *Client) QueueSnapshot(message []byte) {
	c.snapshotMu.Lock()
	defer c.snapshotMu.Unlock()

	if c.snapshot == nil && c.offer(message) {
		return
	}
	c.snapshot = message
	select {
	case c.snapshotReady <- struct{}{}:
	default:
	}
}

func (c *Client) takeSnapshot() []byte {
	c.snapshotMu.Lock()
	defer c.snapshotMu.Unlock()
	message := c.snapshot
	c.snapshot = nil
	return message
}

// ReadPump reads frames until the connection fails, then unregisters the
// client.
func (c *Client) ReadPump(m *Manager) {
	defer func() {
		m.Remove(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("Live session %s read error: %v", c.ID, err)
			}
			return
		}

		frame, err := DecodeFrame(message)
		if err != nil {
			c.Queue(ErrorFrame("Invalid message format"))
			continue
		}
		if frame.Type == FramePing {
			c.Queue(EncodeFrame(FramePong, nil))
			continue
		}
		if c.OnFrame != nil {
			c.OnFrame(frame)
		}
	}
}

// WritePump drains Send onto the connection and keeps it alive with pings.
// A waiting snapshot is written after everything queued ahead of it.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			if !ok {
				c.closeConn()
				return
			}
			if err := c.write(message); err != nil {
				return
			}

		case <-c.snapshotReady:
			for drained := false; !drained; {
				select {
				case message, ok := <-c.Send:
					if !ok {
						c.closeConn()
						return
					}
					if err := c.write(message); err != nil {
						return
					}
				default:
					drained = true
				}
			}
			if message := c.takeSnapshot(); message != nil {
				if err := c.write(message); err != nil {
					return
				}
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) write(message []byte) error {
	c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
		logger.Warn("Live session %s write error: %v", c.ID, err)
		return err
	}
	return nil
}

func (c *Client) closeConn() {
	c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
	c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
}
