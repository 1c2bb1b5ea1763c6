package sync

import (
	"bufio"
	"context"
	"errors"
	"net"
	"sync"

	"go.uber.org/zap"
)

// Server streams hub events to raw TCP clients, one JSON object per line.
type Server struct {
	Addr string
	Hub  *Hub

	mu sync.Mutex
	ln net.Listener
}

func NewServer(addr string, hub *Hub) *Server {
	return &Server{Addr: addr, Hub: hub}
}

// Run accepts clients until ctx is done or Close is called. Both end it
// with a nil error.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()

	logger := s.Hub.logger.With(zap.String("addr", ln.Addr().String()))
	logger.Info("tcp sync listening")

	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				logger.Info("tcp sync stopped")
				return nil
			}
			logger.Warn("accept failed", zap.Error(err))
			continue
		}
		go s.serve(conn)
	}
}

func (s *Server) serve(conn net.Conn) {
	sub := &tcpSubscriber{conn: conn}
	if err := s.Hub.welcome(sub); err != nil {
		sub.close()
		return
	}
	s.Hub.subscribe(sub)
	defer s.Hub.unsubscribe(sub)

	// drain until the peer hangs up; incoming lines are ignored
	sc := bufio.NewScanner(conn)
	for sc.Scan() {
	}
}

// ListenAddr returns the bound address once Run has started listening.
func (s *Server) ListenAddr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Close()
}
