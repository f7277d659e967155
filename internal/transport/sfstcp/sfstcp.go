// Package sfstcp implements the direct SFS2X TCP endpoint (spec §4.8):
// one session per connection, length-framed both ways, with a
// continuous drainer pushing the session's outbound queue back over
// the wire.
package sfstcp

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/race/lobbyserver/internal/codec"
	"github.com/race/lobbyserver/internal/lobby"
	"github.com/race/lobbyserver/internal/logger"
	"github.com/race/lobbyserver/internal/session"
)

// pollInterval is how often the writer goroutine drains a session's
// outbound queue when it finds nothing to send.
const pollInterval = 50 * time.Millisecond

// Server listens for direct TCP connections and feeds them through a
// lobby.Processor.
type Server struct {
	sessions  *session.Registry
	processor *lobby.Processor
	frameMax  int64
	log       *logger.Logger

	mu       sync.Mutex
	listener net.Listener
	wg       sync.WaitGroup
}

// New builds a Server wired to the given registry and processor.
func New(sessions *session.Registry, processor *lobby.Processor, frameMax int64, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	return &Server{sessions: sessions, processor: processor, frameMax: frameMax, log: log}
}

// ListenAndServe binds addr and accepts connections until ctx is
// cancelled or Close is called.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				s.wg.Wait()
				return nil
			}
			return err
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.serveConn(ctx, conn)
		}()
	}
}

// Close stops accepting new connections. In-flight connections drain
// on their own as the client disconnects or logs out.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Close()
}

func (s *Server) serveConn(ctx context.Context, conn net.Conn) {
	defer func() {
		if rec := recover(); rec != nil {
			s.log.Error("tcp connection handler panicked", "panic", rec)
		}
	}()
	defer conn.Close()

	host := conn.RemoteAddr().String()
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}

	sess, err := s.sessions.Create(host)
	if err != nil {
		s.log.Error("tcp session create failed", "err", err)
		return
	}
	defer s.sessions.Disconnect(sess.ID())

	writerCtx, cancelWriter := context.WithCancel(ctx)
	defer cancelWriter()

	var writerWG sync.WaitGroup
	writerWG.Add(1)
	go func() {
		defer writerWG.Done()
		s.drainQueue(writerCtx, conn, sess.ID())
	}()
	defer func() {
		cancelWriter()
		writerWG.Wait()
	}()

	for {
		payload, err := codec.ReadTCPFrame(conn, s.frameMax)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.log.Debug("tcp frame read failed, closing connection", "session_id", sess.ID(), "err", err)
			}
			return
		}

		msg, err := codec.DecodeMessage(payload)
		if err != nil {
			s.log.Warn("tcp message decode failed, closing connection", "session_id", sess.ID(), "err", err)
			return
		}

		if msg.Controller == lobby.ControllerSystem && msg.Action == lobby.ActionLogout {
			_ = s.processor.Handle(sess.ID(), msg)
			return
		}

		if err := s.processor.Handle(sess.ID(), msg); err != nil {
			s.log.Warn("tcp message handling failed", "session_id", sess.ID(), "err", err)
			return
		}
	}
}

// drainQueue continuously pops sess's outbound queue and writes each
// frame back over conn, matching the "TCP writer as continuous
// drainer" design in SPEC_FULL.md §9's design notes.
func (s *Server) drainQueue(ctx context.Context, conn net.Conn, sessionID string) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for {
				frameB64, ok, err := s.sessions.Poll(sessionID)
				if err != nil || !ok {
					break
				}
				raw, err := codec.DecodeBlueBoxFrame(frameB64, s.frameMax)
				if err != nil {
					s.log.Warn("tcp writer: undecodable queued frame", "session_id", sessionID, "err", err)
					continue
				}
				if _, err := conn.Write(codec.EncodeTCPFrame(raw)); err != nil {
					return
				}
			}
		}
	}
}
