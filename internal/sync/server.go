package sync

import (
	"bufio"
	"context"
	"errors"
	"net"
	"sync"

	"go.uber.org/zap"
)

// Server is the line-delimited JSON feed over plain TCP.
type Server struct {
	Addr   string
	Hub    *Hub
	logger *zap.Logger

	mu sync.Mutex
	ln net.Listener
	wg sync.WaitGroup
}

func NewServer(addr string, hub *Hub, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{Addr: addr, Hub: hub, logger: logger.Named("tcp-sync")}
}

// Listen binds the address so callers notice binding errors before Serve.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()
	s.logger.Info("listening", zap.String("addr", ln.Addr().String()))
	return nil
}

// ListenAddr is the bound address, or nil before Listen.
func (s *Server) ListenAddr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Serve accepts clients until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	s.mu.Lock()
	ln := s.ln
	s.mu.Unlock()
	if ln == nil {
		if err := s.Listen(); err != nil {
			return err
		}
		return s.Serve(ctx)
	}

	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				s.wg.Wait()
				return nil
			}
			s.logger.Warn("accept", zap.Error(err))
			continue
		}

		s.Hub.Add(conn)
		s.Hub.Welcome(conn)
		s.logger.Info("client connected", zap.Stringer("addr", conn.RemoteAddr()))

		s.wg.Add(1)
		go func(c net.Conn) {
			defer s.wg.Done()
			defer func() {
				s.Hub.Remove(c)
				s.logger.Info("client disconnected", zap.Stringer("addr", c.RemoteAddr()))
			}()

			closeOnCancel := context.AfterFunc(ctx, func() { _ = c.Close() })
			defer closeOnCancel()

			// subscribers only read; incoming lines are drained
			sc := bufio.NewScanner(c)
			for sc.Scan() {
			}
		}(conn)
	}
}
