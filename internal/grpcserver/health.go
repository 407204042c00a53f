// Package grpcserver exposes the standard gRPC health service for the api
// server, so orchestrators that speak grpc_health_v1 can watch the same
// signals /ready reports.
package grpcserver

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	synchub "storeadmin/internal/sync"
)

// Service names reported next to the overall ("") status.
const (
	ServiceDB   = "storeadmin.db"
	ServiceFeed = "storeadmin.feed"
)

const (
	defaultInterval = 5 * time.Second
	pingTimeout     = 2 * time.Second
)

type Pinger interface {
	PingContext(ctx context.Context) error
}

type HubStats interface {
	Stats() synchub.Stats
}

// FeedListener is the TCP feed; a nil ListenAddr means it is not bound.
type FeedListener interface {
	ListenAddr() net.Addr
}

type Server struct {
	Addr     string
	Interval time.Duration

	db     Pinger
	hub    HubStats
	feed   FeedListener
	logger *zap.Logger

	health *health.Server
	grpc   *grpc.Server

	mu sync.Mutex
	ln net.Listener
}

// NewServer wires a health server. feed may be nil when the TCP feed is
// disabled; its service then reports SERVICE_UNKNOWN.
func NewServer(addr string, db Pinger, hub HubStats, feed FeedListener, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		Addr:     addr,
		Interval: defaultInterval,
		db:       db,
		hub:      hub,
		feed:     feed,
		logger:   logger.Named("grpc-health"),
		health:   health.NewServer(),
		grpc:     grpc.NewServer(),
	}
	healthpb.RegisterHealthServer(s.grpc, s.health)
	return s
}

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

func (s *Server) ListenAddr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Check refreshes every reported status once.
func (s *Server) Check(ctx context.Context) {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	overall := healthpb.HealthCheckResponse_SERVING
	if err := s.db.PingContext(pingCtx); err != nil {
		s.logger.Warn("health ping failed", zap.Error(err))
		overall = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus(ServiceDB, overall)

	if s.feed != nil {
		feed := healthpb.HealthCheckResponse_SERVING
		if s.feed.ListenAddr() == nil {
			feed = healthpb.HealthCheckResponse_NOT_SERVING
		}
		s.health.SetServingStatus(ServiceFeed, feed)
	}

	s.health.SetServingStatus("", overall)

	if s.hub != nil {
		stats := s.hub.Stats()
		s.logger.Debug("health checked",
			zap.Stringer("status", overall),
			zap.Int("tcp_clients", stats.TCPClients),
			zap.Int("ws_clients", stats.WSClients))
	}
}

// Serve answers health RPCs and refreshes statuses every Interval until ctx
// is cancelled, then drains in-flight calls.
func (s *Server) Serve(ctx context.Context) error {
	if s.ListenAddr() == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}
	s.mu.Lock()
	ln := s.ln
	s.mu.Unlock()

	s.Check(ctx)

	loopCtx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.refresh(loopCtx)
	}()

	stop := context.AfterFunc(ctx, func() {
		// watchers get NOT_SERVING before the listener goes away
		s.health.Shutdown()
		s.grpc.GracefulStop()
	})
	defer stop()

	err := s.grpc.Serve(ln)
	cancel()
	wg.Wait()

	if errors.Is(err, grpc.ErrServerStopped) {
		return nil
	}
	return err
}

func (s *Server) refresh(ctx context.Context) {
	interval := s.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.Check(ctx)
		}
	}
}
