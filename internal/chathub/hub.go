package chathub

import (
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"userhive/backend/internal/apperr"
	"userhive/backend/internal/metrics"
	"userhive/backend/internal/models"
)

// EventHandler processes one inbound frame from a client.
type EventHandler func(client Client, data json.RawMessage) error

// Inbound pairs a frame with the client it came from.
type Inbound struct {
	Client   Client
	Envelope models.Envelope
}

// Hub owns the clients and rooms of one websocket gateway and dispatches
// inbound frames to registered event handlers. Handler failures are pushed
// back to the offending socket as a structured error event, never as a
// dropped connection.
type Hub struct {
	name string

	mu      sync.RWMutex
	clients map[Client]bool
	rooms   map[string]map[Client]bool

	handlers     map[string]EventHandler
	onConnect    func(Client)
	onDisconnect func(Client)

	RegisterCh   chan Client
	UnregisterCh chan Client
	IncomingCh   chan Inbound

	log *zap.Logger
}

// NewHub constructor
func NewHub(name string, log *zap.Logger) *Hub {
	return &Hub{
		name:         name,
		clients:      make(map[Client]bool),
		rooms:        make(map[string]map[Client]bool),
		handlers:     make(map[string]EventHandler),
		RegisterCh:   make(chan Client),
		UnregisterCh: make(chan Client),
		IncomingCh:   make(chan Inbound),
		log:          log,
	}
}

// On registers the handler for an event name. Call before Run.
func (h *Hub) On(event string, handler EventHandler) {
	h.handlers[event] = handler
}

// OnConnect registers the hook invoked after a client registers.
func (h *Hub) OnConnect(fn func(Client)) {
	h.onConnect = fn
}

// OnDisconnect registers the hook invoked after a client unregisters.
func (h *Hub) OnDisconnect(fn func(Client)) {
	h.onDisconnect = fn
}

// Run is the hub's dispatcher loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.RegisterCh:
			h.register(client)
		case client := <-h.UnregisterCh:
			h.unregister(client)
		case inbound := <-h.IncomingCh:
			h.dispatch(inbound)
		}
	}
}

func (h *Hub) register(client Client) {
	h.mu.Lock()
	h.clients[client] = true
	h.mu.Unlock()

	metrics.SocketConnections.WithLabelValues(h.name).Inc()
	if h.onConnect != nil {
		h.onConnect(client)
	}
}

func (h *Hub) unregister(client Client) {
	h.mu.Lock()
	if !h.clients[client] {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client)
	for roomID, members := range h.rooms {
		delete(members, client)
		if len(members) == 0 {
			delete(h.rooms, roomID)
		}
	}
	h.mu.Unlock()

	client.Close()
	metrics.SocketConnections.WithLabelValues(h.name).Dec()
	if h.onDisconnect != nil {
		h.onDisconnect(client)
	}
}

func (h *Hub) dispatch(inbound Inbound) {
	handler, ok := h.handlers[inbound.Envelope.Event]
	if !ok {
		h.SendError(inbound.Client, inbound.Envelope.Event, "Unknown event.")
		return
	}
	if err := handler(inbound.Client, inbound.Envelope.Data); err != nil {
		h.log.Warn("event failed",
			zap.String("gateway", h.name),
			zap.String("event", inbound.Envelope.Event),
			zap.Error(err))
		h.SendError(inbound.Client, inbound.Envelope.Event, apperr.Message(err))
	}
}

// JoinRooms joins a client to a list of room identifiers.
func (h *Hub) JoinRooms(client Client, roomIDs []string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, roomID := range roomIDs {
		if h.rooms[roomID] == nil {
			h.rooms[roomID] = make(map[Client]bool)
		}
		h.rooms[roomID][client] = true
	}
}

// Broadcast sends a frame to every connected client.
func (h *Hub) Broadcast(event string, payload any) {
	env, err := newEnvelope(event, payload)
	if err != nil {
		h.log.Error("broadcast encode failed", zap.String("event", event), zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		h.push(client, env)
	}
}

// BroadcastRoom sends a frame to every client joined to the room, except the
// optional sender.
func (h *Hub) BroadcastRoom(roomID string, event string, payload any, except Client) {
	env, err := newEnvelope(event, payload)
	if err != nil {
		h.log.Error("broadcast encode failed", zap.String("event", event), zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.rooms[roomID] {
		if client == except {
			continue
		}
		h.push(client, env)
	}
}

// Unicast sends a frame to a single client.
func (h *Hub) Unicast(client Client, event string, payload any) {
	env, err := newEnvelope(event, payload)
	if err != nil {
		h.log.Error("unicast encode failed", zap.String("event", event), zap.Error(err))
		return
	}
	h.push(client, env)
}

// SendError pushes a structured error frame to a single client.
func (h *Hub) SendError(client Client, event, message string) {
	h.Unicast(client, "error", models.WsError{
		Event:     event,
		Message:   message,
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// push is non-blocking: a client whose send buffer is full misses the frame
// instead of stalling the hub.
func (h *Hub) push(client Client, env models.Envelope) {
	select {
	case client.GetSendChannel() <- env:
	default:
		h.log.Warn("send buffer full, dropping frame",
			zap.String("gateway", h.name),
			zap.Uint("user", client.GetUser().ID))
	}
}

func newEnvelope(event string, payload any) (models.Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return models.Envelope{}, err
	}
	return models.Envelope{Event: event, Data: data}, nil
}
