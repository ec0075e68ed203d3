package ws

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/coder/websocket"

	"github.com/nuaibria/travelsync/internal/wire"
)

// StatusSource answers GET_STATUS requests with the actor's current state.
type StatusSource interface {
	CurrentMessages(actorID string) []wire.Message
}

// conn wraps a single WebSocket connection.
type conn struct {
	ws      *websocket.Conn
	cancel  context.CancelFunc
	actorID string
}

// Hub tracks the push channels of every connected actor and routes messages
// to the connections of one actor at a time.
type Hub struct {
	mu     sync.RWMutex
	conns  map[string]map[*conn]struct{}
	status StatusSource
}

// NewHub creates a hub. status may be nil, in which case GET_STATUS
// requests are ignored.
func NewHub(status StatusSource) *Hub {
	return &Hub{
		conns:  make(map[string]map[*conn]struct{}),
		status: status,
	}
}

// HandleWS upgrades the request and registers the connection under the
// actor named by the characterId query parameter.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	actorID := r.URL.Query().Get(ActorQueryParam)
	if actorID == "" {
		http.Error(w, "characterId is required", http.StatusBadRequest)
		return
	}

	ws, err := websocket.Accept(w, r, nil)
	if err != nil {
		slog.Error("websocket accept failed", "error", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &conn{ws: ws, cancel: cancel, actorID: actorID}
	h.add(c)

	slog.Info("websocket connected", "actor_id", actorID, "remote", r.RemoteAddr)

	go func() {
		defer func() {
			h.remove(c)
			_ = ws.Close(websocket.StatusNormalClosure, "")
		}()
		for {
			_, data, err := ws.Read(ctx)
			if err != nil {
				return
			}
			h.handleClientFrame(ctx, c, data)
		}
	}()
}

func (h *Hub) handleClientFrame(ctx context.Context, c *conn, data []byte) {
	actorID, err := wire.DecodeStatusRequest(data)
	if err != nil {
		slog.Debug("ignoring client frame", "actor_id", c.actorID, "error", err)
		return
	}
	if actorID != "" && actorID != c.actorID {
		slog.Warn("status request for foreign actor", "actor_id", c.actorID, "requested", actorID)
		return
	}
	if h.status == nil {
		return
	}
	for _, msg := range h.status.CurrentMessages(c.actorID) {
		if err := writeMessage(ctx, c, msg); err != nil {
			slog.Debug("websocket status reply failed", "actor_id", c.actorID, "error", err)
			return
		}
	}
}

// Publish sends msg to every connection of actorID. Failed connections are
// dropped.
func (h *Hub) Publish(ctx context.Context, actorID string, msg wire.Message) error {
	data, err := wire.Encode(msg)
	if err != nil {
		return err
	}

	h.mu.RLock()
	targets := make([]*conn, 0, len(h.conns[actorID]))
	for c := range h.conns[actorID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if err := c.ws.Write(ctx, websocket.MessageText, data); err != nil {
			slog.Debug("websocket write failed", "actor_id", actorID, "error", err)
			h.remove(c)
		}
	}
	return nil
}

// Disconnect closes every connection of actorID.
func (h *Hub) Disconnect(actorID string) {
	h.mu.RLock()
	targets := make([]*conn, 0, len(h.conns[actorID]))
	for c := range h.conns[actorID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		h.remove(c)
		_ = c.ws.Close(websocket.StatusGoingAway, "disconnected")
	}
}

// ConnectionCount returns the number of active connections of actorID.
func (h *Hub) ConnectionCount(actorID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[actorID])
}

func (h *Hub) add(c *conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.conns[c.actorID]
	if !ok {
		set = make(map[*conn]struct{})
		h.conns[c.actorID] = set
	}
	set[c] = struct{}{}
}

func (h *Hub) remove(c *conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set := h.conns[c.actorID]
	if _, ok := set[c]; !ok {
		return
	}
	c.cancel()
	delete(set, c)
	if len(set) == 0 {
		delete(h.conns, c.actorID)
	}
	slog.Info("websocket disconnected", "actor_id", c.actorID)
}

func writeMessage(ctx context.Context, c *conn, msg wire.Message) error {
	data, err := wire.Encode(msg)
	if err != nil {
		return err
	}
	return c.ws.Write(ctx, websocket.MessageText, data)
}
