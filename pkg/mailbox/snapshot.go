// popbucket
// Copyright 2026 Blue Static <https://www.bluestatic.org>
// This program is free software licensed under the GNU General Public License,
// version 3.0. The full text of the license can be found in LICENSE.txt.
// SPDX-License-Identifier: GPL-3.0-only

package mailbox

// Snapshot is the ordered set of messages visible to one session. Message
// numbers are 1-based positions in the listing order. A Snapshot is never
// modified after it is built.
type Snapshot struct {
	messages []*Message
	byID     map[string]*Message
}

func newSnapshot(msgs []*Message) *Snapshot {
	s := &Snapshot{
		messages: msgs,
		byID:     make(map[string]*Message, len(msgs)),
	}
	for _, m := range msgs {
		s.byID[m.id] = m
	}
	return s
}

func (s *Snapshot) Len() int { return len(s.messages) }

func (s *Snapshot) TotalSize() int {
	size := 0
	for _, m := range s.messages {
		size += m.Size()
	}
	return size
}

// Get returns message number `n`, or nil if `n` is out of range.
func (s *Snapshot) Get(n int) *Message {
	if n < 1 || n > len(s.messages) {
		return nil
	}
	return s.messages[n-1]
}

func (s *Snapshot) Lookup(id string) *Message {
	return s.byID[id]
}

// Messages returns the messages in number order. The slice must not be
// modified.
func (s *Snapshot) Messages() []*Message {
	return s.messages
}
