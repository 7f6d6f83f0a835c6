// popbucket
// Copyright 2026 Blue Static <https://www.bluestatic.org>
// This program is free software licensed under the GNU General Public License,
// version 3.0. The full text of the license can be found in LICENSE.txt.
// SPDX-License-Identifier: GPL-3.0-only

package pop3

import (
	"bytes"
	"fmt"
	"net"
	"net/textproto"
	"strings"

	"go.uber.org/zap"
)

// Client is a minimal POP3 client, used to probe a running server.
type Client struct {
	tp  *textproto.Conn
	log *zap.Logger

	// Greeting is the text of the server's greeting, after "+OK ".
	Greeting string
}

// ListEntry is one line of a LIST or UIDL reply.
type ListEntry struct {
	Number int
	Size   int
	ID     string
}

// Connect reads the greeting from `nc` and returns a Client for it.
func Connect(nc net.Conn, log *zap.Logger) (*Client, error) {
	c := &Client{
		tp:  textproto.NewConn(nc),
		log: log.With(zap.Stringer("address", nc.RemoteAddr())),
	}
	var err error
	c.Greeting, err = c.readReplyLine()
	if err != nil {
		c.tp.Close()
		return nil, fmt.Errorf("Failed to open connection: %w", err)
	}
	return c, nil
}

func (c *Client) transaction(format string, args ...any) (string, error) {
	log := c.log.With(zap.String("command", strings.Fields(format)[0]))
	log.Debug("Sending transaction")
	if err := c.tp.PrintfLine(format, args...); err != nil {
		log.Error("Failed to send command", zap.Error(err))
		return "", err
	}
	reply, err := c.readReplyLine()
	if err != nil {
		log.Debug("Command failed", zap.Error(err))
		return reply, err
	}
	log.Debug("Command succeeded", zap.String("reply", reply))
	return reply, nil
}

func (c *Client) readReplyLine() (string, error) {
	line, err := c.tp.ReadLine()
	if err != nil {
		return line, err
	}
	if strings.HasPrefix(line, "+OK") {
		return strings.TrimPrefix(line[3:], " "), nil
	}
	if strings.HasPrefix(line, "-ERR") {
		return "", fmt.Errorf("Server error: %s", strings.TrimPrefix(line[4:], " "))
	}
	return "", fmt.Errorf("Unexpected server reply: %q", line)
}

// readDotBody reads a multi-line body, undoing dot-stuffing but keeping the
// CRLF of every line.
func (c *Client) readDotBody() ([]byte, error) {
	var body bytes.Buffer
	for {
		line, err := c.tp.R.ReadString('\n')
		if err != nil {
			return nil, err
		}
		if line == ".\r\n" {
			return body.Bytes(), nil
		}
		if strings.HasPrefix(line, ".") {
			line = line[1:]
		}
		body.WriteString(line)
	}
}

func (c *Client) Login(user, pass string) error {
	if _, err := c.transaction("USER %s", user); err != nil {
		return err
	}
	_, err := c.transaction("PASS %s", pass)
	return err
}

func (c *Client) Stat() (count, size int, err error) {
	reply, err := c.transaction("STAT")
	if err != nil {
		return 0, 0, err
	}
	if n, err := fmt.Sscanf(reply, "%d %d", &count, &size); n != 2 {
		return 0, 0, fmt.Errorf("Bad STAT reply %q: %w", reply, err)
	}
	return count, size, nil
}

func (c *Client) List() ([]ListEntry, error) {
	if _, err := c.transaction("LIST"); err != nil {
		return nil, err
	}
	lines, err := c.tp.ReadDotLines()
	if err != nil {
		return nil, err
	}
	entries := make([]ListEntry, len(lines))
	for i, line := range lines {
		if n, err := fmt.Sscanf(line, "%d %d", &entries[i].Number, &entries[i].Size); n != 2 {
			c.log.Error("Bad server message line", zap.Int("index", i), zap.String("line", line))
			return nil, fmt.Errorf("Bad LIST line %q: %w", line, err)
		}
	}
	return entries, nil
}

func (c *Client) ListOne(msg int) (ListEntry, error) {
	var e ListEntry
	reply, err := c.transaction("LIST %d", msg)
	if err != nil {
		return e, err
	}
	if n, err := fmt.Sscanf(reply, "%d %d", &e.Number, &e.Size); n != 2 {
		return e, fmt.Errorf("Bad LIST reply %q: %w", reply, err)
	}
	return e, nil
}

func (c *Client) UIDL() ([]ListEntry, error) {
	if _, err := c.transaction("UIDL"); err != nil {
		return nil, err
	}
	lines, err := c.tp.ReadDotLines()
	if err != nil {
		return nil, err
	}
	entries := make([]ListEntry, len(lines))
	for i, line := range lines {
		if n, err := fmt.Sscanf(line, "%d %s", &entries[i].Number, &entries[i].ID); n != 2 {
			return nil, fmt.Errorf("Bad UIDL line %q: %w", line, err)
		}
	}
	return entries, nil
}

// Retrieve returns the content of message `msg` with CRLF line endings.
func (c *Client) Retrieve(msg int) ([]byte, error) {
	if _, err := c.transaction("RETR %d", msg); err != nil {
		return nil, err
	}
	return c.readDotBody()
}

func (c *Client) Top(msg, lines int) ([]byte, error) {
	if _, err := c.transaction("TOP %d %d", msg, lines); err != nil {
		return nil, err
	}
	return c.readDotBody()
}

func (c *Client) Delete(msg int) error {
	_, err := c.transaction("DELE %d", msg)
	return err
}

func (c *Client) Noop() error {
	_, err := c.transaction("NOOP")
	return err
}

// Quit ends the session and closes the connection.
func (c *Client) Quit() error {
	defer c.tp.Close()
	_, err := c.transaction("QUIT")
	return err
}
