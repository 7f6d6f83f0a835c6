// popbucket
// Copyright 2026 Blue Static <https://www.bluestatic.org>
// This program is free software licensed under the GNU General Public License,
// version 3.0. The full text of the license can be found in LICENSE.txt.
// SPDX-License-Identifier: GPL-3.0-only

package pop3

import (
	"net"

	"go.uber.org/zap"

	"src.bluestatic.org/popbucket/pkg/mailbox"
)

type connection struct {
	f  *Framer
	d  *Dispatcher
	mb *mailbox.Snapshot

	log *zap.Logger
}

// AcceptConnection runs one POP3 session over `netConn`, serving `mb`, until
// the client sends QUIT or the connection fails. The connection is closed on
// return. The error is nil only after a QUIT.
func AcceptConnection(netConn net.Conn, mb *mailbox.Snapshot, log *zap.Logger) error {
	log = log.With(zap.Stringer("client", netConn.RemoteAddr()))
	conn := connection{
		f:   NewFramer(netConn, log),
		d:   NewDispatcher(log),
		mb:  mb,
		log: log,
	}
	defer conn.f.Close()

	conn.log.Info("accepted connection", zap.Int("messages", mb.Len()))
	if err := conn.f.WriteLine(greeting); err != nil {
		conn.log.Error("failed to send greeting", zap.Error(err))
		return err
	}

	for {
		line, err := conn.f.ReadLine()
		if err != nil {
			conn.log.Error("ReadLine()", zap.Error(err))
			return err
		}

		resp := conn.d.Handle(line, conn.mb)
		if err := conn.reply(resp); err != nil {
			conn.log.Error("failed to send reply", zap.Error(err))
			return err
		}
		if resp.Quit {
			conn.log.Info("session closed")
			return nil
		}
	}
}

func (conn *connection) reply(resp Response) error {
	if err := conn.f.WriteLine(resp.Status); err != nil {
		return err
	}
	if resp.Multiline {
		return conn.f.WriteMultiline(resp.Body)
	}
	return nil
}
