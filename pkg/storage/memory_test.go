// popbucket
// Copyright 2026 Blue Static <https://www.bluestatic.org>
// This program is free software licensed under the GNU General Public License,
// version 3.0. The full text of the license can be found in LICENSE.txt.
// SPDX-License-Identifier: GPL-3.0-only

package storage

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBackendListOrder(t *testing.T) {
	m := NewMemoryBackend()
	m.Put("bucket", "inbox/b", []byte("bbb"))
	m.Put("bucket", "inbox/a", []byte("a"))
	m.Put("bucket", "other/c", []byte("cc"))

	objs, err := m.ListObjects(context.Background(), "bucket", "inbox/")
	require.NoError(t, err)
	assert.Equal(t, []Object{
		{Key: "inbox/a", Size: 1},
		{Key: "inbox/b", Size: 3},
	}, objs)

	objs, err = m.ListObjects(context.Background(), "bucket", "")
	require.NoError(t, err)
	assert.Len(t, objs, 3)
}

func TestMemoryBackendGet(t *testing.T) {
	m := NewMemoryBackend()
	data := []byte("hello")
	m.Put("bucket", "k", data)
	data[0] = 'j'

	rc, err := m.GetObject(context.Background(), "bucket", "k")
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "hello", string(got))

	m.Remove("bucket", "k")
	_, err = m.GetObject(context.Background(), "bucket", "k")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestMemoryBackendMissingBucket(t *testing.T) {
	m := NewMemoryBackend()
	_, err := m.ListObjects(context.Background(), "nope", "")
	assert.Error(t, err)
}

func TestMemoryBackendCreateBucket(t *testing.T) {
	m := NewMemoryBackend()
	m.CreateBucket("mail")
	objs, err := m.ListObjects(context.Background(), "mail", "")
	require.NoError(t, err)
	assert.Empty(t, objs)

	m.Put("mail", "k", []byte("v"))
	m.CreateBucket("mail")
	objs, err = m.ListObjects(context.Background(), "mail", "")
	require.NoError(t, err)
	assert.Len(t, objs, 1)
}
