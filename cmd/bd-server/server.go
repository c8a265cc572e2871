package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os/signal"
	"syscall"
	"time"
)

const rejectionTimeout = 500 * time.Millisecond

var respMaxClients = []byte("-ERR max number of clients reached\r\n")

// serve accepts connections until SIGINT/SIGTERM and blocks until the
// last session has drained.
//
// The filter is immutable once loaded, so shutdown has no state to
// flush: close the listener, then wait for in-flight sessions. The
// wait reuses the connection-limit semaphore. Every session holds one
// unit while it runs, so acquiring the semaphore at full weight
// returns exactly when the last session finishes; the shutdown timeout
// bounds how long a lingering client can hold the process up.
func (app *application) serve() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", app.config.port))
	if err != nil {
		return err
	}
	app.listener = ln
	addr := ln.Addr().String()

	go func() {
		<-ctx.Done()
		app.logger.Info("shutting down server", "address", addr)
		_ = ln.Close()
	}()

	if app.readyCh != nil {
		close(app.readyCh)
	}
	app.logger.Info("server listening", "address", addr)

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				break
			}
			app.logger.Error("accept failed", "error", err, "address", addr)
			continue
		}

		if !app.sem.TryAcquire(1) {
			app.logger.Info("connection limit reached, rejecting", "remote_addr", conn.RemoteAddr().String())
			_ = conn.SetWriteDeadline(time.Now().Add(rejectionTimeout))
			_, _ = conn.Write(respMaxClients)
			_ = conn.Close()
			continue
		}

		go func() {
			defer app.sem.Release(1)
			newSession(app, conn).run()
		}()
	}

	drainCtx, cancel := context.WithTimeout(context.Background(), app.config.shutdownTimeout)
	defer cancel()
	if err := app.sem.Acquire(drainCtx, int64(app.config.maxConnections)); err != nil {
		app.logger.Warn("shutdown timeout elapsed with sessions still open", "address", addr)
		return nil
	}
	app.logger.Info("server stopped gracefully", "address", addr)
	return nil
}

// session is the per-connection state: one reader, one buffered
// writer, and a scratch buffer that response encoding reuses across
// commands.
type session struct {
	app     *application
	conn    net.Conn
	r       *bufio.Reader
	w       *bufio.Writer
	scratch []byte
}

func newSession(app *application, conn net.Conn) *session {
	return &session{
		app:  app,
		conn: conn,
		r:    bufio.NewReaderSize(conn, 4096),
		w:    bufio.NewWriterSize(conn, 4096),
	}
}

// run is the request/response loop of one client. Replies accumulate
// in the buffered writer and are flushed only when the read buffer is
// empty, so a client that pipelines commands in one TCP segment gets
// all its answers in one write syscall.
func (s *session) run() {
	// Replies to commands handled before a mid-pipeline failure must
	// still reach the client.
	defer func() {
		_ = s.w.Flush()
		_ = s.conn.Close()
	}()

	s.app.totalConnections.Add(1)
	remote := s.conn.RemoteAddr().String()
	s.app.logger.Info("new connection", "remote_addr", remote)

	for {
		if t := s.app.config.idleTimeout; t > 0 {
			if err := s.conn.SetReadDeadline(time.Now().Add(t)); err != nil {
				s.app.logger.Error("setting read deadline", "error", err, "remote_addr", remote)
				return
			}
		}

		name, args, err := s.readCommand()
		if err != nil {
			switch {
			case errors.Is(err, io.EOF):
				s.app.logger.Info("client disconnected", "remote_addr", remote)
			case isProtocolError(err):
				s.writeError(err.Error())
				s.app.logger.Info("closing misbehaving client", "error", err, "remote_addr", remote)
			default:
				s.app.logger.Error("read failed", "error", err, "remote_addr", remote)
			}
			return
		}
		if name == "" {
			continue
		}

		s.app.totalCommands.Add(1)
		s.dispatch(name, args)

		if s.r.Buffered() == 0 {
			if err := s.w.Flush(); err != nil {
				s.app.logger.Error("flush failed", "error", err, "remote_addr", remote)
				return
			}
		}
	}
}
