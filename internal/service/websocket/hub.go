package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"signcam/internal/dto"
	"signcam/internal/logger"
)

const writeWait = 5 * time.Second

// viewer is a connected page.
type viewer struct {
	id   string
	conn *websocket.Conn
}

// HubService pushes session state to every connected page. The last state is kept so a page that
// connects later starts from the current view.
type HubService struct {
	clients    map[*websocket.Conn]*viewer
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	mutex      sync.RWMutex
	last       []byte
	done       chan struct{}
	logger     *logger.Logger
}

func NewHubService(logger *logger.Logger) *HubService {
	return &HubService{
		clients:    make(map[*websocket.Conn]*viewer),
		broadcast:  make(chan []byte, 16),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run serves register, unregister and broadcast requests until ctx is done, then closes every
// connection.
func (h *HubService) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for conn := range h.clients {
				conn.Close()
				delete(h.clients, conn)
			}
			h.mutex.Unlock()
			return

		case conn := <-h.register:
			v := &viewer{id: uuid.NewString(), conn: conn}
			h.mutex.Lock()
			h.clients[conn] = v
			last := h.last
			count := len(h.clients)
			h.mutex.Unlock()
			h.logger.Info("Viewer %s connected. Total: %d", v.id, count)

			if last != nil {
				h.send(v, last)
			}

		case conn := <-h.unregister:
			h.mutex.Lock()
			v, ok := h.clients[conn]
			if ok {
				delete(h.clients, conn)
				conn.Close()
			}
			count := len(h.clients)
			h.mutex.Unlock()
			if ok {
				h.logger.Info("Viewer %s disconnected. Total: %d", v.id, count)
			}

		case message := <-h.broadcast:
			h.mutex.Lock()
			h.last = message
			viewers := make([]*viewer, 0, len(h.clients))
			for _, v := range h.clients {
				viewers = append(viewers, v)
			}
			h.mutex.Unlock()

			for _, v := range viewers {
				h.send(v, message)
			}
		}
	}
}

// send writes message to v and drops it on error.
func (h *HubService) send(v *viewer, message []byte) {
	v.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := v.conn.WriteMessage(websocket.TextMessage, message); err != nil {
		h.logger.Error("Error sending state to viewer %s: %v", v.id, err)
		h.mutex.Lock()
		delete(h.clients, v.conn)
		h.mutex.Unlock()
		v.conn.Close()
	}
}

func (h *HubService) Register(conn *websocket.Conn) {
	select {
	case h.register <- conn:
	case <-h.done:
		conn.Close()
	}
}

func (h *HubService) Unregister(conn *websocket.Conn) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

// BroadcastState sends the state view to every viewer.
func (h *HubService) BroadcastState(view dto.StateView) {
	message, err := json.Marshal(view)
	if err != nil {
		h.logger.Error("Failed to marshal state: %v", err)
		return
	}
	select {
	case h.broadcast <- message:
	case <-h.done:
	}
}

func (h *HubService) GetClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}
