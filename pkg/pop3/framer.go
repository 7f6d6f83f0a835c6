// popbucket
// Copyright 2026 Blue Static <https://www.bluestatic.org>
// This program is free software licensed under the GNU General Public License,
// version 3.0. The full text of the license can be found in LICENSE.txt.
// SPDX-License-Identifier: GPL-3.0-only

package pop3

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/textproto"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

// ErrConnectionClosed is returned by ReadLine when the stream ends, or fails,
// before a complete line arrives.
var ErrConnectionClosed = errors.New("connection closed")

const maxLoggedLine = 50

var crlf = []byte("\r\n")

// Framer splits a byte stream into CRLF-terminated protocol lines. Bytes
// read past the end of a line stay buffered for the next ReadLine.
type Framer struct {
	tp  *textproto.Conn
	log *zap.Logger
}

func NewFramer(rwc io.ReadWriteCloser, log *zap.Logger) *Framer {
	return &Framer{
		tp:  textproto.NewConn(rwc),
		log: log,
	}
}

// ReadLine returns the next line without its terminator. A bare LF is part of
// the line.
func (f *Framer) ReadLine() (string, error) {
	var line []byte
	for {
		chunk, err := f.tp.R.ReadSlice('\n')
		line = append(line, chunk...)
		if err == bufio.ErrBufferFull {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrConnectionClosed, err)
		}
		if bytes.HasSuffix(line, crlf) {
			break
		}
	}
	s := string(line[:len(line)-len(crlf)])
	f.log.Debug("recv", zap.String("line", redact(s)))
	return s, nil
}

// WriteLine sends `text` followed by CRLF and flushes.
func (f *Framer) WriteLine(text string) error {
	f.log.Debug("send", zap.String("line", truncate(text)))
	return f.tp.PrintfLine("%s", text)
}

// WriteMultiline sends `body` dot-stuffed, followed by the terminating "."
// line. Line endings in `body` are sent as stored; CRLF is added before the
// terminator only if `body` does not already end with one.
func (f *Framer) WriteMultiline(body []byte) error {
	f.log.Debug("send", zap.String("body", truncate(string(body))))
	w := f.tp.W
	bol := true
	for _, c := range body {
		if bol && c == '.' {
			w.WriteByte('.')
		}
		w.WriteByte(c)
		bol = c == '\n'
	}
	if len(body) > 0 && !bytes.HasSuffix(body, crlf) {
		w.Write(crlf)
	}
	w.WriteString(".\r\n")
	return w.Flush()
}

func (f *Framer) Close() error {
	return f.tp.Close()
}

// truncate shortens `s` to at most maxLoggedLine bytes without splitting a
// UTF-8 sequence.
func truncate(s string) string {
	if len(s) <= maxLoggedLine {
		return s
	}
	n := maxLoggedLine
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}

func redact(line string) string {
	if len(line) > 5 && strings.EqualFold(line[:5], "PASS ") {
		return line[:5] + "<redacted>"
	}
	return truncate(line)
}
