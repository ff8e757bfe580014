package service

import (
	"context"
	"edu_admin_backend/internal/model"
	"edu_admin_backend/pkg/logger"
	"edu_admin_backend/pkg/monitoring"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	hubWriteWait     = 10 * time.Second
	hubPongWait      = 60 * time.Second
	hubPingPeriod    = (hubPongWait * 9) / 10
	updatesChannel   = "dashboard_updates"
	maxHubReadLimit  = 512
	subscriberBuffer = 1 // exactly one pending snapshot per subscriber
)

var hubUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Subscriber is one live dashboard stream. Updates holds at most one
// undelivered snapshot; a newer one replaces it.
type Subscriber struct {
	ID      string
	Scope   string
	Updates chan model.DashboardSnapshot
}

// offer places a snapshot in the subscriber's slot, displacing an
// undelivered one. Subscribers always see the latest state, never a
// backlog.
func (s *Subscriber) offer(snapshot model.DashboardSnapshot) {
	for {
		select {
		case s.Updates <- snapshot:
			return
		default:
			select {
			case <-s.Updates:
				monitoring.CoalescedUpdates.Inc()
			default:
			}
		}
	}
}

// hubMessage is the fanout envelope published through Redis so every
// instance delivers to its local subscribers.
type hubMessage struct {
	Scope    string                  `json:"scope"`
	Snapshot model.DashboardSnapshot `json:"snapshot"`
}

// DashboardHub broadcasts recomputed snapshots to stream subscribers.
// With a Redis client it fans out through pub/sub for multi-instance
// deployments; without one it delivers locally.
type DashboardHub struct {
	mu          sync.RWMutex
	subscribers map[string]*Subscriber

	Redis  *redis.Client
	ctx    context.Context
	cancel context.CancelFunc
}

func NewDashboardHub(rdb *redis.Client) *DashboardHub {
	ctx, cancel := context.WithCancel(context.Background())
	return &DashboardHub{
		subscribers: make(map[string]*Subscriber),
		Redis:       rdb,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Run consumes the Redis fanout channel until Stop. No-op without Redis.
func (h *DashboardHub) Run() {
	if h.Redis == nil {
		return
	}

	pubsub := h.Redis.Subscribe(h.ctx, updatesChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var m hubMessage
			if err := json.Unmarshal([]byte(msg.Payload), &m); err != nil {
				logger.Log.Error("Dashboard fanout unmarshal error", zap.Error(err))
				continue
			}
			h.deliverLocal(m.Scope, m.Snapshot)
		case <-h.ctx.Done():
			return
		}
	}
}

// Subscribe registers a stream for one scope.
func (h *DashboardHub) Subscribe(scope string) *Subscriber {
	sub := &Subscriber{
		ID:      uuid.New().String(),
		Scope:   scope,
		Updates: make(chan model.DashboardSnapshot, subscriberBuffer),
	}

	h.mu.Lock()
	h.subscribers[sub.ID] = sub
	h.mu.Unlock()

	monitoring.StreamSubscribers.Inc()
	logger.Log.Debug("Dashboard subscriber connected",
		zap.String("subscriberId", sub.ID), zap.String("scope", scope))
	return sub
}

// Unsubscribe drops the subscriber. Safe to call more than once; no
// delivery retry is ever attempted for a dropped subscriber.
func (h *DashboardHub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	_, ok := h.subscribers[sub.ID]
	if ok {
		delete(h.subscribers, sub.ID)
	}
	h.mu.Unlock()

	if ok {
		monitoring.StreamSubscribers.Dec()
		logger.Log.Debug("Dashboard subscriber disconnected",
			zap.String("subscriberId", sub.ID))
	}
}

// Publish announces a freshly computed snapshot for a scope.
func (h *DashboardHub) Publish(scope string, snapshot model.DashboardSnapshot) {
	if h.Redis != nil {
		payload, err := json.Marshal(hubMessage{Scope: scope, Snapshot: snapshot})
		if err == nil {
			if err := h.Redis.Publish(h.ctx, updatesChannel, payload).Err(); err == nil {
				return
			}
			logger.Log.Warn("Dashboard fanout publish failed, delivering locally",
				zap.Error(err))
		}
	}
	h.deliverLocal(scope, snapshot)
}

func (h *DashboardHub) deliverLocal(scope string, snapshot model.DashboardSnapshot) {
	h.mu.RLock()
	for _, sub := range h.subscribers {
		if sub.Scope == scope {
			sub.offer(snapshot)
		}
	}
	h.mu.RUnlock()
}

// SubscriberCount is used by tests and the health endpoint.
func (h *DashboardHub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// Stop disconnects everything and ends the fanout loop.
func (h *DashboardHub) Stop() {
	h.cancel()

	h.mu.Lock()
	n := len(h.subscribers)
	for id, sub := range h.subscribers {
		close(sub.Updates)
		delete(h.subscribers, id)
	}
	h.mu.Unlock()

	monitoring.StreamSubscribers.Set(0)
	logger.Log.Info("Dashboard hub stopped", zap.Int("closedSubscribers", n))
}

// ServeWs upgrades the request and streams snapshots over WebSocket until
// the client goes away. Write failures deregister the subscriber.
func ServeWs(hub *DashboardHub, w http.ResponseWriter, r *http.Request, scope string) {
	conn, err := hubUpgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Error("Dashboard WebSocket upgrade failed", zap.Error(err))
		return
	}

	sub := hub.Subscribe(scope)

	// Reader only services control frames; clients never send data.
	go func() {
		defer func() {
			hub.Unsubscribe(sub)
			conn.Close()
		}()
		conn.SetReadLimit(maxHubReadLimit)
		conn.SetReadDeadline(time.Now().Add(hubPongWait))
		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(hubPongWait))
			return nil
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	go func() {
		ticker := time.NewTicker(hubPingPeriod)
		defer func() {
			ticker.Stop()
			hub.Unsubscribe(sub)
			conn.Close()
		}()
		for {
			select {
			case snapshot, ok := <-sub.Updates:
				conn.SetWriteDeadline(time.Now().Add(hubWriteWait))
				if !ok {
					conn.WriteMessage(websocket.CloseMessage, []byte{})
					return
				}
				if err := conn.WriteJSON(snapshot); err != nil {
					return
				}
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(hubWriteWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()
}
