package gateway

import (
	"sync"

	"github.com/Laisky/zap"

	"github.com/kelpbot/engine/common/logger"
	"github.com/kelpbot/engine/msg"
)

// Hub owns the authenticated session table and implements the fan-out
// described by msg.Location: a single addressed client, a named subset,
// or every connected session.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewHub() *Hub {
	return &Hub{sessions: make(map[string]*Session)}
}

func (h *Hub) Register(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessions[s.Addr] = s
}

func (h *Hub) Unregister(addr string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sessions, addr)
}

// Count reports how many sessions are currently registered.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Dispatch delivers payload to the sessions named by loc.
func (h *Hub) Dispatch(loc msg.Location, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	switch loc.Kind {
	case msg.LocationClient:
		if s, ok := h.sessions[loc.Addr]; ok {
			h.deliver(s, payload)
		}
	case msg.LocationClients:
		if loc.Addrs == nil {
			for _, s := range h.sessions {
				h.deliver(s, payload)
			}
			return
		}
		for _, addr := range loc.Addrs {
			if s, ok := h.sessions[addr]; ok {
				h.deliver(s, payload)
			}
		}
	case msg.LocationBroadcast:
		for _, s := range h.sessions {
			h.deliver(s, payload)
		}
	case msg.LocationPubsub:
		// Pubsub-bound messages never originate a local fan-out; the
		// caller is expected to have already handed them to the
		// pubsub.Server's outbound channel instead.
	}
}

func (h *Hub) deliver(s *Session, payload []byte) {
	if err := s.Send(payload); err != nil {
		logger.Logger.Debug("dropping session after failed send", zap.String("addr", s.Addr), zap.Error(err))
	}
}
