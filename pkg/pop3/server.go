// popbucket
// Copyright 2026 Blue Static <https://www.bluestatic.org>
// This program is free software licensed under the GNU General Public License,
// version 3.0. The full text of the license can be found in LICENSE.txt.
// SPDX-License-Identifier: GPL-3.0-only

package pop3

import (
	"context"
	"fmt"
	"net"

	"go.uber.org/zap"

	"src.bluestatic.org/popbucket/pkg/mailbox"
	"src.bluestatic.org/popbucket/pkg/metrics"
)

// MailboxBuilder produces a fresh snapshot for each session.
type MailboxBuilder interface {
	Build(ctx context.Context) (*mailbox.Snapshot, error)
}

// Server serves one session at a time: a new connection is not accepted until
// the previous session has closed. There are no read timeouts, so a silent
// client holds the server until it disconnects.
type Server struct {
	Builder MailboxBuilder
	Log     *zap.Logger
}

// Serve accepts connections on `l` until `ctx` is cancelled or a fatal error
// occurs. A failure to build a mailbox is fatal to the server. The listener
// is always closed on return. Serve returns nil after cancellation.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	log := s.Log.With(zap.Stringer("address", l.Addr()))
	stop := context.AfterFunc(ctx, func() {
		l.Close()
	})
	defer stop()
	defer l.Close()

	log.Info("serving")
	for {
		conn, err := l.Accept()
		if err != nil {
			if ctx.Err() != nil {
				log.Info("server stopped")
				return nil
			}
			log.Error("accept", zap.Error(err))
			return err
		}
		metrics.SessionsTotal.Inc()

		if err := s.serveConn(ctx, conn); err != nil {
			log.Error("fatal error", zap.Error(err))
			return err
		}
	}
}

func (s *Server) serveConn(ctx context.Context, conn net.Conn) error {
	mb, err := s.Builder.Build(ctx)
	if err != nil {
		conn.Close()
		return fmt.Errorf("build mailbox: %w", err)
	}
	metrics.MailboxMessages.Set(float64(mb.Len()))
	metrics.MailboxBytes.Set(float64(mb.TotalSize()))

	// Shutting down drops the active session too.
	stop := context.AfterFunc(ctx, func() {
		conn.Close()
	})
	defer stop()

	// Connection errors end only this session.
	AcceptConnection(conn, mb, s.Log)
	return nil
}
