// popbucket
// Copyright 2026 Blue Static <https://www.bluestatic.org>
// This program is free software licensed under the GNU General Public License,
// version 3.0. The full text of the license can be found in LICENSE.txt.
// SPDX-License-Identifier: GPL-3.0-only

package mailbox

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"src.bluestatic.org/popbucket/pkg/storage"
)

const (
	msgA = "Subject: a\r\n\r\nhello"
	msgB = "Subject: b\r\n\r\nworld\r\nagain"
)

func newBackend() *storage.MemoryBackend {
	m := storage.NewMemoryBackend()
	m.Put("mail", "inbox/a", []byte(msgA))
	m.Put("mail", "inbox/b", []byte(msgB))
	m.Put("mail", "inbox/"+ReservedKey, []byte("setup"))
	m.Put("mail", "archive/c", []byte(msgA))
	return m
}

func TestBuilderSnapshot(t *testing.T) {
	b := &Builder{
		Backend: newBackend(),
		Bucket:  "mail",
		Prefix:  "inbox",
		Suffix:  func() string { return "load1" },
		Log:     zap.NewNop(),
	}
	snap, err := b.Build(context.Background())
	require.NoError(t, err)

	require.Equal(t, 2, snap.Len())
	assert.Equal(t, len(msgA)+len(msgB), snap.TotalSize())

	assert.Equal(t, "a_load1", snap.Get(1).ID())
	assert.Equal(t, "b_load1", snap.Get(2).ID())
	assert.Nil(t, snap.Get(0))
	assert.Nil(t, snap.Get(3))

	assert.Same(t, snap.Get(2), snap.Lookup("b_load1"))
	assert.Nil(t, snap.Lookup("b"))
	assert.Equal(t, msgB, string(snap.Get(2).Raw()))
}

func TestBuilderFreshSuffixPerLoad(t *testing.T) {
	b := &Builder{Backend: newBackend(), Bucket: "mail", Prefix: "inbox/", Suffix: NewSuffix}

	first, err := b.Build(context.Background())
	require.NoError(t, err)
	second, err := b.Build(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, first.Get(1).ID(), second.Get(1).ID())
	assert.Regexp(t, `^a_[0-9a-v]{20}$`, first.Get(1).ID())
}

func TestBuilderNoSuffix(t *testing.T) {
	b := &Builder{Backend: newBackend(), Bucket: "mail", Prefix: "inbox/"}
	snap, err := b.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a", snap.Get(1).ID())
	assert.Equal(t, "b", snap.Get(2).ID())
}

func TestBuilderUniqueIdentifiers(t *testing.T) {
	m := storage.NewMemoryBackend()
	m.Put("mail", "x", []byte(msgA))
	m.Put("mail", "/x", []byte(msgB))
	m.Put("mail", "//x", []byte(msgB))

	b := &Builder{Backend: m, Bucket: "mail"}
	snap, err := b.Build(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, snap.Len())

	ids := make(map[string]bool)
	for _, msg := range snap.Messages() {
		assert.False(t, ids[msg.ID()], "duplicate id %s", msg.ID())
		ids[msg.ID()] = true
	}
	assert.Equal(t, "x", snap.Get(1).ID())
	assert.Equal(t, "x-2", snap.Get(2).ID())
	assert.Equal(t, "x-3", snap.Get(3).ID())
}

func TestBuilderEscapesIdentifiers(t *testing.T) {
	m := storage.NewMemoryBackend()
	m.Put("mail", "hello world", []byte(msgA))
	m.Put("mail", "hello%20world", []byte(msgA))
	m.Put("mail", "tab\there", []byte(msgA))
	m.Put("mail", "caf\u00e9", []byte(msgA))

	b := &Builder{Backend: m, Bucket: "mail", Suffix: func() string { return "s" }}
	snap, err := b.Build(context.Background())
	require.NoError(t, err)

	var ids []string
	for _, msg := range snap.Messages() {
		ids = append(ids, msg.ID())
		for _, c := range []byte(msg.ID()) {
			assert.True(t, c >= 0x21 && c <= 0x7e, "id %q has byte %#x", msg.ID(), c)
		}
	}
	assert.Equal(t, []string{"caf%C3%A9_s", "hello%20world_s", "hello%2520world_s", "tab%09here_s"}, ids)
}

func TestBuilderMalformed(t *testing.T) {
	m := newBackend()
	m.Put("mail", "inbox/aa-bad", []byte("no separator here"))

	b := &Builder{Backend: m, Bucket: "mail", Prefix: "inbox/"}
	_, err := b.Build(context.Background())
	assert.True(t, errors.Is(err, ErrMalformed), "got %v", err)
	assert.False(t, errors.Is(err, ErrBackend))

	b.SkipMalformed = true
	snap, err := b.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Len())
	assert.Equal(t, "a", snap.Get(1).ID())
	assert.Equal(t, "b", snap.Get(2).ID())
}

type failingBackend struct {
	storage.Backend
	listErr error
	getErr  error
	readErr error
}

func (f *failingBackend) ListObjects(ctx context.Context, bucket, prefix string) ([]storage.Object, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.Backend.ListObjects(ctx, bucket, prefix)
}

func (f *failingBackend) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.readErr != nil {
		return io.NopCloser(errReader{f.readErr}), nil
	}
	return f.Backend.GetObject(ctx, bucket, key)
}

type errReader struct{ err error }

func (r errReader) Read([]byte) (int, error) { return 0, r.err }

func TestBuilderBackendErrors(t *testing.T) {
	boom := errors.New("boom")
	cases := []*failingBackend{
		{Backend: newBackend(), listErr: boom},
		{Backend: newBackend(), getErr: boom},
		{Backend: newBackend(), readErr: boom},
	}
	for i, fb := range cases {
		b := &Builder{Backend: fb, Bucket: "mail", Prefix: "inbox/", SkipMalformed: true}
		_, err := b.Build(context.Background())
		assert.True(t, errors.Is(err, ErrBackend), "case %d: got %v", i, err)
		assert.True(t, errors.Is(err, boom), "case %d: got %v", i, err)
	}
}

func TestBuilderEmpty(t *testing.T) {
	m := storage.NewMemoryBackend()
	m.Put("mail", "other/a", []byte(msgA))
	b := &Builder{Backend: m, Bucket: "mail", Prefix: "inbox/"}
	snap, err := b.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, snap.Len())
	assert.Equal(t, 0, snap.TotalSize())
}
