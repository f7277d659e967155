// Package server wires the registries, message processor, reap
// scheduler, and both transports into a single runnable lobby server
// (SPEC_FULL.md §4.12).
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/race/lobbyserver/internal/config"
	"github.com/race/lobbyserver/internal/lobby"
	"github.com/race/lobbyserver/internal/logger"
	"github.com/race/lobbyserver/internal/reaper"
	"github.com/race/lobbyserver/internal/room"
	"github.com/race/lobbyserver/internal/session"
	"github.com/race/lobbyserver/internal/transport/bluebox"
	"github.com/race/lobbyserver/internal/transport/sfstcp"
)

// Server owns every long-lived component of a running lobby server.
type Server struct {
	cfg *config.Config
	log *logger.Logger

	sessions  *session.Registry
	rooms     *room.Registry
	processor *lobby.Processor
	reap      *reaper.Scheduler

	httpSrv *http.Server
	tcpSrv  *sfstcp.Server
}

// New constructs a Server from cfg, wiring every registry and
// transport but not yet listening.
func New(cfg *config.Config, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}

	sessions := session.NewRegistry(nil, log.With("component", "sessions"))
	rooms := room.NewRegistry(nil, log.With("component", "rooms"))
	processor := lobby.NewProcessor(sessions, rooms, nil, log.With("component", "lobby"))
	reap := reaper.New(sessions, rooms, cfg.Timeouts.ReapEvery, cfg.Timeouts.SessionIdle, cfg.Timeouts.RoomIdle, log.With("component", "reaper"))

	s := &Server{
		cfg:       cfg,
		log:       log,
		sessions:  sessions,
		rooms:     rooms,
		processor: processor,
		reap:      reap,
	}

	if cfg.Protocol.EnableBlueBoxHTTP {
		bb := bluebox.New(sessions, processor, cfg.Timeouts.FrameMax, log.With("component", "bluebox"))
		s.httpSrv = &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Ports.BlueBoxHTTP),
			Handler: bb.Router(),
		}
	}
	if cfg.Protocol.EnableSFS2XDirect {
		s.tcpSrv = sfstcp.New(sessions, processor, cfg.Timeouts.FrameMax, log.With("component", "sfstcp"))
	}

	return s
}

// Run starts every enabled transport and the reap scheduler, blocking
// until ctx is cancelled, then drains with a 5 s deadline (spec §5).
func (s *Server) Run(ctx context.Context) error {
	if err := s.reap.Start(); err != nil {
		return fmt.Errorf("starting reap scheduler: %w", err)
	}
	defer s.reap.Stop()

	errCh := make(chan error, 2)

	if s.httpSrv != nil {
		go func() {
			s.log.Info("bluebox http listening", "addr", s.httpSrv.Addr)
			if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				errCh <- fmt.Errorf("bluebox http server: %w", err)
			}
		}()
	}

	tcpCtx, cancelTCP := context.WithCancel(ctx)
	defer cancelTCP()
	if s.tcpSrv != nil {
		go func() {
			addr := fmt.Sprintf(":%d", s.cfg.Ports.SFS2XDirect)
			s.log.Info("sfs2x direct tcp listening", "addr", addr)
			if err := s.tcpSrv.ListenAndServe(tcpCtx, addr); err != nil {
				errCh <- fmt.Errorf("sfs2x tcp server: %w", err)
			}
		}()
	}

	select {
	case <-ctx.Done():
	case err := <-errCh:
		s.log.Error("transport failed, shutting down", "err", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.DefaultShutdownWait)
	defer cancel()

	if s.httpSrv != nil {
		if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
			s.log.Warn("bluebox http shutdown error", "err", err)
		}
	}
	cancelTCP()
	if s.tcpSrv != nil {
		_ = s.tcpSrv.Close()
	}

	return nil
}
