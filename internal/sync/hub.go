package sync

import (
	"encoding/json"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const writeTimeout = 2 * time.Second

// subscriber is one connected listener. send must be safe to call while
// other goroutines write to the same connection.
type subscriber interface {
	send(line []byte) error
	close()
	transport() string
}

type tcpSubscriber struct {
	conn net.Conn
}

func (s *tcpSubscriber) send(line []byte) error {
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	_, err := s.conn.Write(line)
	return err
}

func (s *tcpSubscriber) close()            { _ = s.conn.Close() }
func (s *tcpSubscriber) transport() string { return "tcp" }

// wsSubscriber serialises writes; gorilla allows one concurrent writer.
type wsSubscriber struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (s *wsSubscriber) send(line []byte) error {
	return s.write(websocket.TextMessage, line)
}

func (s *wsSubscriber) write(messageType int, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return s.conn.WriteMessage(messageType, data)
}

func (s *wsSubscriber) close()            { _ = s.conn.Close() }
func (s *wsSubscriber) transport() string { return "websocket" }

// Hub fans events out to every TCP and WebSocket subscriber.
type Hub struct {
	mu     sync.Mutex
	subs   map[subscriber]struct{}
	logger *zap.Logger
}

type Stats struct {
	TCPClients int `json:"tcp_clients"`
	WSClients  int `json:"ws_clients"`
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		subs:   make(map[subscriber]struct{}),
		logger: logger.Named("sync"),
	}
}

func (h *Hub) subscribe(s subscriber) {
	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()
	h.logger.Debug("subscriber joined", zap.String("transport", s.transport()))
}

// unsubscribe is safe to call for a subscriber the hub already dropped.
func (h *Hub) unsubscribe(s subscriber) {
	h.mu.Lock()
	delete(h.subs, s)
	h.mu.Unlock()
	s.close()
	h.logger.Debug("subscriber left", zap.String("transport", s.transport()))
}

// Publish stamps ev and broadcasts it without blocking the caller.
func (h *Hub) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	go h.BroadcastJSON(ev)
}

// BroadcastJSON writes v as one JSON line to every subscriber. A subscriber
// whose write fails or times out is dropped.
func (h *Hub) BroadcastJSON(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		h.logger.Error("marshal broadcast", zap.Error(err))
		return
	}
	b = append(b, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subs {
		if err := s.send(b); err != nil {
			h.logger.Debug("dropping subscriber", zap.String("transport", s.transport()), zap.Error(err))
			s.close()
			delete(h.subs, s)
		}
	}
}

func (h *Hub) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()

	var st Stats
	for s := range h.subs {
		switch s.(type) {
		case *tcpSubscriber:
			st.TCPClients++
		case *wsSubscriber:
			st.WSClients++
		}
	}
	return st
}

type welcome struct {
	Type      string `json:"type"`
	Transport string `json:"transport"`
	Clients   int    `json:"clients"`
}

func (h *Hub) welcome(s subscriber) error {
	st := h.Stats()
	b, err := json.Marshal(welcome{Type: "welcome", Transport: s.transport(), Clients: st.TCPClients + st.WSClients})
	if err != nil {
		return err
	}
	return s.send(append(b, '\n'))
}
