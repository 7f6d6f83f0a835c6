// popbucket
// Copyright 2026 Blue Static <https://www.bluestatic.org>
// This program is free software licensed under the GNU General Public License,
// version 3.0. The full text of the license can be found in LICENSE.txt.
// SPDX-License-Identifier: GPL-3.0-only

package pop3

import (
	"net"
	"testing"

	"go.uber.org/zap"
)

func dialClient(t *testing.T, ts *testServer) *Client {
	dc, err := net.Dial(ts.l.Addr().Network(), ts.l.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	c, err := Connect(dc, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestClientExampleSession(t *testing.T) {
	ts := runServer(t, newTestBuilder(testMsg1, testMsg2))
	c := dialClient(t, ts)

	if want := "popbucket POP3 server ready"; c.Greeting != want {
		t.Errorf("Expected greeting %q, got %q", want, c.Greeting)
	}

	ok(t, c.Login("u", "p"))

	count, size, err := c.Stat()
	ok(t, err)
	if count != 2 || size != len(testMsg1)+len(testMsg2) {
		t.Errorf("Unexpected STAT %d %d", count, size)
	}

	msgs, err := c.List()
	ok(t, err)
	if want, got := 2, len(msgs); want != got {
		t.Fatalf("Expected %d messages, got %d", want, got)
	}
	if want, got := len(testMsg1), msgs[0].Size; want != got {
		t.Errorf("Expected message size %d, got %d", want, got)
	}
	if want, got := 2, msgs[1].Number; want != got {
		t.Errorf("Expected message number %d, got %d", want, got)
	}

	ids, err := c.UIDL()
	ok(t, err)
	if len(ids) != 2 || ids[0].ID != "msg01" || ids[1].ID != "msg02" {
		t.Errorf("Unexpected UIDL %+v", ids)
	}

	ok(t, c.Noop())
	ok(t, c.Quit())
}

func TestClientRetrieve(t *testing.T) {
	ts := runServer(t, newTestBuilder(testMsg1, testMsg2))
	c := dialClient(t, ts)
	defer c.Quit()

	for i, raw := range []string{testMsg1, testMsg2} {
		entry, err := c.ListOne(i + 1)
		ok(t, err)

		got, err := c.Retrieve(i + 1)
		ok(t, err)
		if string(got) != raw {
			t.Errorf("Expected body %q, got %q", raw, got)
		}
		if len(got) != entry.Size {
			t.Errorf("Retrieved %d bytes, LIST declared %d", len(got), entry.Size)
		}
	}
}

func TestClientTop(t *testing.T) {
	ts := runServer(t, newTestBuilder(testMsg1))
	c := dialClient(t, ts)
	defer c.Quit()

	header := "From: a@example.com\r\nSubject: one\r\n\r\n"
	cases := []struct {
		lines int
		want  string
	}{
		{0, header},
		{1, header + "Hello\r\n"},
		{2, header + "Hello\r\nWorld\r\n"},
		{50, testMsg1},
	}
	for _, tc := range cases {
		got, err := c.Top(1, tc.lines)
		ok(t, err)
		if string(got) != tc.want {
			t.Errorf("TOP 1 %d: expected %q, got %q", tc.lines, tc.want, got)
		}
	}
}

func TestClientErrors(t *testing.T) {
	ts := runServer(t, newTestBuilder(testMsg1))
	c := dialClient(t, ts)
	defer c.Quit()

	if _, err := c.ListOne(2); err == nil {
		t.Errorf("Expected error for LIST 2")
	}
	if _, err := c.Retrieve(2); err == nil {
		t.Errorf("Expected error for RETR 2")
	}
	if _, err := c.Top(7, 1); err == nil {
		t.Errorf("Expected error for TOP 7 1")
	}
	if err := c.Delete(3); err == nil {
		t.Errorf("Expected error for DELE 3")
	}

	ok(t, c.Delete(1))
	if _, err := c.Retrieve(1); err != nil {
		t.Errorf("Message should survive DELE: %v", err)
	}
}

func TestClientRetrieveMixedLineEndings(t *testing.T) {
	raw := "Subject: x\r\n\r\nline1\nline2\r\n.dot\n"
	ts := runServer(t, newTestBuilder(raw))
	c := dialClient(t, ts)
	defer c.Quit()

	got, err := c.Retrieve(1)
	ok(t, err)
	// The body lacks a final CRLF, so only that is added before the terminator.
	if want := raw + "\r\n"; string(got) != want {
		t.Errorf("Expected body %q, got %q", want, got)
	}

	raw = "Subject: x\r\n\r\nline1\nline2\r\n"
	ts2 := runServer(t, newTestBuilder(raw))
	c2 := dialClient(t, ts2)
	defer c2.Quit()
	entry, err := c2.ListOne(1)
	ok(t, err)
	got, err = c2.Retrieve(1)
	ok(t, err)
	if string(got) != raw {
		t.Errorf("Expected body %q, got %q", raw, got)
	}
	if len(got) != entry.Size {
		t.Errorf("Retrieved %d bytes, LIST declared %d", len(got), entry.Size)
	}
}
