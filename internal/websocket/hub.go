package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"central-ai-web/internal/pkg/logger"
	"central-ai-web/pkg/session"

	"github.com/redis/go-redis/v9"
)

const clusterChannel = "central:web:cluster_events"

// RefreshNotice is pushed to every page of a browser whose dashboard data
// changed.
var RefreshNotice = []byte(`{"type":"dashboard.refresh"}`)

type clusterMessage struct {
	SID     string          `json:"sid"`
	Message json.RawMessage `json:"message"`
	Origin  string          `json:"origin"`
}

// Hub tracks open sockets per browser session id. With redis configured,
// notices are relayed to the other instances too.
type Hub struct {
	clients map[string][]*Client

	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	mu sync.RWMutex

	rdb      *redis.Client
	instance string

	logger logger.ILogger
}

func NewHub(rdb *redis.Client, instance string, log logger.ILogger) *Hub {
	return &Hub{
		clients:    make(map[string][]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		rdb:        rdb,
		instance:   instance,
		logger:     log,
	}
}

// Run serves registrations until ctx is done. Sockets that close afterwards
// no longer wait for it.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	if h.rdb != nil {
		go h.subscribeToRedis(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.SID] = append(h.clients[client.SID], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"sid": session.Fingerprint(client.SID)})

		case client := <-h.unregister:
			h.remove(client)
		}
	}
}

// leave unregisters client unless the hub has stopped.
func (h *Hub) leave(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := h.clients[client.SID]
	for i, c := range clients {
		if c == client {
			h.clients[client.SID] = append(clients[:i], clients[i+1:]...)
			close(client.Send)
			break
		}
	}
	if len(h.clients[client.SID]) == 0 {
		delete(h.clients, client.SID)
	}
}

// Connected reports how many sockets a browser has open on this instance.
func (h *Hub) Connected(sid string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[sid])
}

// NotifyRefresh tells every page of the browser to reload its dashboard.
func (h *Hub) NotifyRefresh(sid string) {
	h.Send(sid, RefreshNotice)
}

func (h *Hub) Send(sid string, data []byte) {
	h.deliver(sid, data)

	if h.rdb != nil {
		payload, _ := json.Marshal(clusterMessage{SID: sid, Message: data, Origin: h.instance})
		if err := h.rdb.Publish(context.Background(), clusterChannel, payload).Err(); err != nil {
			h.logger.Warn("Hub", "Failed to relay message to cluster", map[string]interface{}{"sid": session.Fingerprint(sid), "error": err.Error()})
		}
	}
}

func (h *Hub) deliver(sid string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients[sid] {
		select {
		case client.Send <- data:
		default:
			h.logger.Warn("Hub", "Client Send buffer full, dropping client", map[string]interface{}{"sid": session.Fingerprint(sid)})
			go h.leave(client)
		}
	}
}

func (h *Hub) subscribeToRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, clusterChannel)
	// Closing the subscription ends the range below.
	go func() {
		<-ctx.Done()
		_ = pubsub.Close()
	}()

	for msg := range pubsub.Channel() {
		var payload clusterMessage
		if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
			h.logger.Warn("Hub", "Cluster message parse error", map[string]interface{}{"error": err.Error()})
			continue
		}
		if payload.Origin == h.instance {
			continue
		}
		h.deliver(payload.SID, payload.Message)
	}
}
