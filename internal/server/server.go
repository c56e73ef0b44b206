// internal/server/server.go

// Package server owns the TCP listener and the session worker pool.
package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"querykv/internal/handler"
)

const poolReleaseTimeout = 3 * time.Second

// Server accepts TCP clients and hands each connection to a worker from a
// bounded pool. Pool capacity is the hard cap on concurrent sessions; with
// the default capacity of one, waiting clients are served strictly in turn.
type Server struct {
	addr     string
	maxConns int
	handler  *handler.ConnectionHandler

	listener net.Listener
	pool     *ants.Pool
	wg       sync.WaitGroup

	mu      sync.Mutex
	running bool
	conns   map[net.Conn]struct{}
}

func NewServer(addr string, maxConns int, h *handler.ConnectionHandler) *Server {
	if maxConns < 1 {
		maxConns = 1
	}
	return &Server{
		addr:     addr,
		maxConns: maxConns,
		handler:  h,
		conns:    make(map[net.Conn]struct{}),
	}
}

// Start binds the listener and launches the accept loop. It returns once
// the listener is live.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return errors.New("server already running")
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}

	pool, err := ants.NewPool(s.maxConns, ants.WithPanicHandler(func(v any) {
		slog.Error("Session worker panicked", "panic", v)
	}))
	if err != nil {
		listener.Close()
		return fmt.Errorf("failed to create session pool: %w", err)
	}

	s.listener = listener
	s.pool = pool
	s.running = true

	s.wg.Add(1)
	go s.acceptLoop()

	slog.Info("Server listening", "addr", listener.Addr().String(), "max_connections", s.maxConns)
	return nil
}

// Addr returns the bound listen address, which differs from the configured
// one when port 0 was requested.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if !s.isRunning() {
				return
			}
			slog.Warn("Failed to accept connection", "error", err)
			continue
		}

		if !s.trackConn(conn) {
			conn.Close()
			return
		}

		s.wg.Add(1)
		// Submit blocks while every worker is busy; that wait is what makes
		// excess clients queue instead of being served.
		err = s.pool.Submit(func() {
			defer s.wg.Done()
			defer s.untrackConn(conn)
			s.handler.HandleConnection(conn)
		})
		if err != nil {
			s.wg.Done()
			s.untrackConn(conn)
			conn.Close()
			if !s.isRunning() {
				return
			}
			slog.Warn("Failed to submit session to pool", "error", err)
		}
	}
}

func (s *Server) isRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// trackConn records a live connection, refusing it when the server is
// already stopping so Stop never waits on an untracked session.
func (s *Server) trackConn(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return false
	}
	s.conns[conn] = struct{}{}
	return true
}

func (s *Server) untrackConn(conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, conn)
}

// Stop closes the listener, then every live connection, and waits for
// in-flight sessions to wind down before releasing the pool.
func (s *Server) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	listener := s.listener
	s.mu.Unlock()

	if listener != nil {
		listener.Close()
	}

	s.mu.Lock()
	for conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()

	s.wg.Wait()
	if err := s.pool.ReleaseTimeout(poolReleaseTimeout); err != nil {
		slog.Warn("Session pool did not drain in time", "error", err)
	}
	slog.Info("Server stopped.")
}
