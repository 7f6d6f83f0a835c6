// popbucket
// Copyright 2026 Blue Static <https://www.bluestatic.org>
// This program is free software licensed under the GNU General Public License,
// version 3.0. The full text of the license can be found in LICENSE.txt.
// SPDX-License-Identifier: GPL-3.0-only

package pop3

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"src.bluestatic.org/popbucket/pkg/mailbox"
	"src.bluestatic.org/popbucket/pkg/metrics"
)

type verb int

const (
	verbUnknown verb = iota
	verbUSER
	verbPASS
	verbSTAT
	verbLIST
	verbTOP
	verbRETR
	verbDELE
	verbNOOP
	verbCAPA
	verbUIDL
	verbQUIT
)

// parseVerb matches the command token exactly; verbs are case-sensitive.
func parseVerb(tok string) verb {
	switch tok {
	case "USER":
		return verbUSER
	case "PASS":
		return verbPASS
	case "STAT":
		return verbSTAT
	case "LIST":
		return verbLIST
	case "TOP":
		return verbTOP
	case "RETR":
		return verbRETR
	case "DELE":
		return verbDELE
	case "NOOP":
		return verbNOOP
	case "CAPA":
		return verbCAPA
	case "UIDL":
		return verbUIDL
	case "QUIT":
		return verbQUIT
	default:
		return verbUnknown
	}
}

func (v verb) String() string {
	switch v {
	case verbUSER:
		return "USER"
	case verbPASS:
		return "PASS"
	case verbSTAT:
		return "STAT"
	case verbLIST:
		return "LIST"
	case verbTOP:
		return "TOP"
	case verbRETR:
		return "RETR"
	case verbDELE:
		return "DELE"
	case verbNOOP:
		return "NOOP"
	case verbCAPA:
		return "CAPA"
	case verbUIDL:
		return "UIDL"
	case verbQUIT:
		return "QUIT"
	default:
		return "unknown"
	}
}

const (
	greeting = "+OK popbucket POP3 server ready"
	signOff  = "+OK popbucket POP3 server signing off"

	errUnknownCommand = "-ERR unknown command"
	errSyntax         = "-ERR syntax error"
	errNoSuchMessage  = "-ERR no such message"
)

// Response is the reply to one command line. When Multiline is set, Body
// follows the status line and is closed by a lone ".".
type Response struct {
	Status    string
	Body      []byte
	Multiline bool
	// Quit ends the session once the response has been sent.
	Quit bool
}

func (r Response) OK() bool {
	return strings.HasPrefix(r.Status, "+OK")
}

func single(format string, args ...any) Response {
	return Response{Status: fmt.Sprintf(format, args...)}
}

// Dispatcher maps command lines to responses over a mailbox snapshot. It
// holds no mailbox state of its own.
type Dispatcher struct {
	log *zap.Logger
}

func NewDispatcher(log *zap.Logger) *Dispatcher {
	return &Dispatcher{log: log}
}

// Handle runs the command in `line` against `mb`.
func (d *Dispatcher) Handle(line string, mb *mailbox.Snapshot) Response {
	args := strings.Fields(line)
	v := verbUnknown
	if len(args) > 0 {
		v = parseVerb(args[0])
	}
	log := d.log.With(zap.String("command", v.String()))

	var resp Response
	switch v {
	case verbUSER:
		resp = single("+OK user accepted")
	case verbPASS:
		resp = single("+OK pass accepted")
	case verbSTAT:
		resp = single("+OK %d %d", mb.Len(), mb.TotalSize())
	case verbLIST:
		resp = doLIST(args, mb)
	case verbTOP:
		resp = doTOP(args, mb)
	case verbRETR:
		resp = doRETR(args, mb, log)
	case verbDELE:
		resp = doDELE(args, mb, log)
	case verbNOOP:
		resp = single("+OK")
	case verbCAPA:
		resp = single("-ERR")
	case verbUIDL:
		resp = doUIDL(mb)
	case verbQUIT:
		resp = Response{Status: signOff, Quit: true}
	default:
		log.Debug("unknown command", zap.String("token", firstToken(args)))
		resp = single(errUnknownCommand)
	}

	result := metrics.ResultOK
	if !resp.OK() {
		result = metrics.ResultErr
		log.Info("error", zap.String("reply", resp.Status))
	}
	metrics.CommandsTotal.WithLabelValues(v.String(), result).Inc()
	return resp
}

func firstToken(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

// messageNumber parses args[i]. Any integer is accepted; range checks are up
// to the caller.
func messageNumber(args []string, i int) (int, bool) {
	if len(args) <= i {
		return 0, false
	}
	n, err := strconv.Atoi(args[i])
	if err != nil {
		return 0, false
	}
	return n, true
}

func doLIST(args []string, mb *mailbox.Snapshot) Response {
	if len(args) == 1 {
		var b strings.Builder
		for i, msg := range mb.Messages() {
			fmt.Fprintf(&b, "%d %d\r\n", i+1, msg.Size())
		}
		return Response{
			Status:    fmt.Sprintf("+OK %d messages (%d octets)", mb.Len(), mb.TotalSize()),
			Body:      []byte(b.String()),
			Multiline: true,
		}
	}

	n, ok := messageNumber(args, 1)
	if !ok {
		return single(errSyntax)
	}
	msg := mb.Get(n)
	if msg == nil {
		return single("-ERR no such message, only %d messages in maildrop", mb.Len())
	}
	return single("+OK %d %d", n, msg.Size())
}

func doTOP(args []string, mb *mailbox.Snapshot) Response {
	n, ok := messageNumber(args, 1)
	if !ok {
		return single(errSyntax)
	}
	lines, ok := messageNumber(args, 2)
	if !ok || lines < 0 {
		return single(errSyntax)
	}
	msg := mb.Get(n)
	if msg == nil {
		return single(errNoSuchMessage)
	}
	return Response{
		Status:    "+OK top of message follows",
		Body:      msg.Top(lines),
		Multiline: true,
	}
}

func doRETR(args []string, mb *mailbox.Snapshot, log *zap.Logger) Response {
	n, ok := messageNumber(args, 1)
	if !ok {
		return single(errSyntax)
	}
	msg := mb.Get(n)
	if msg == nil {
		return single(errNoSuchMessage)
	}

	fields := []zap.Field{zap.String("unique-id", msg.ID())}
	if h, err := msg.ParsedHeader(); err == nil {
		fields = append(fields,
			zap.String("message-id", h.Get("Message-Id")),
			zap.String("subject", h.Get("Subject")))
	}
	log.Info("retrieve message", fields...)

	return Response{
		Status:    fmt.Sprintf("+OK %d octets", msg.Size()),
		Body:      msg.Raw(),
		Multiline: true,
	}
}

// doDELE only acknowledges; the snapshot is never modified.
func doDELE(args []string, mb *mailbox.Snapshot, log *zap.Logger) Response {
	n, ok := messageNumber(args, 1)
	if !ok {
		return single(errSyntax)
	}
	msg := mb.Get(n)
	if msg == nil {
		return single("-ERR message %d already deleted", n)
	}
	log.Info("delete message", zap.String("unique-id", msg.ID()))
	return single("+OK message %d deleted", n)
}

func doUIDL(mb *mailbox.Snapshot) Response {
	var b strings.Builder
	for i, msg := range mb.Messages() {
		fmt.Fprintf(&b, "%d %s\r\n", i+1, msg.ID())
	}
	return Response{
		Status:    "+OK",
		Body:      []byte(b.String()),
		Multiline: true,
	}
}
