// popbucket
// Copyright 2026 Blue Static <https://www.bluestatic.org>
// This program is free software licensed under the GNU General Public License,
// version 3.0. The full text of the license can be found in LICENSE.txt.
// SPDX-License-Identifier: GPL-3.0-only

package mailbox

import (
	"bufio"
	"bytes"
	"strings"

	"github.com/emersion/go-message/textproto"
	"github.com/pkg/errors"
)

const (
	crlf      = "\r\n"
	separator = crlf + crlf
)

// ErrMalformed is returned when stored content has no blank line between
// the header and the body.
var ErrMalformed = errors.New("message has no header/body separator")

// Message is one stored object, split into its header block and body lines.
// It is immutable once built.
type Message struct {
	id  string
	raw []byte

	header    string
	bodyLines []string
}

// Build splits `raw` on the first CRLFCRLF.
func Build(raw []byte) (*Message, error) {
	idx := bytes.Index(raw, []byte(separator))
	if idx < 0 {
		return nil, ErrMalformed
	}
	return &Message{
		raw:       raw,
		header:    string(raw[:idx]),
		bodyLines: strings.Split(string(raw[idx+len(separator):]), crlf),
	}, nil
}

// ID is the unique identifier reported by UIDL.
func (m *Message) ID() string { return m.id }

// Size is the length in bytes of the unparsed content.
func (m *Message) Size() int { return len(m.raw) }

func (m *Message) Raw() []byte { return m.raw }

// Header is the text before the separator, without a trailing CRLF.
func (m *Message) Header() string { return m.header }

func (m *Message) BodyLines() []string { return m.bodyLines }

// Top returns the header block, a blank line and the first `n` body lines,
// joined with CRLF.
func (m *Message) Top(n int) []byte {
	if n > len(m.bodyLines) {
		n = len(m.bodyLines)
	}
	if n < 0 {
		n = 0
	}
	var b bytes.Buffer
	b.WriteString(m.header)
	b.WriteString(separator)
	b.WriteString(strings.Join(m.bodyLines[:n], crlf))
	return b.Bytes()
}

// ParsedHeader parses the header block into fields.
func (m *Message) ParsedHeader() (textproto.Header, error) {
	r := bufio.NewReader(strings.NewReader(m.header + separator))
	return textproto.ReadHeader(r)
}
