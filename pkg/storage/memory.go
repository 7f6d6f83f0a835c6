// popbucket
// Copyright 2026 Blue Static <https://www.bluestatic.org>
// This program is free software licensed under the GNU General Public License,
// version 3.0. The full text of the license can be found in LICENSE.txt.
// SPDX-License-Identifier: GPL-3.0-only

package storage

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// MemoryBackend is a Backend that keeps objects in process memory. Listings
// are returned in lexicographic key order, like S3.
type MemoryBackend struct {
	mu      sync.Mutex
	buckets map[string]map[string][]byte
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		buckets: make(map[string]map[string][]byte),
	}
}

// CreateBucket makes an empty bucket. It does nothing if the bucket exists.
func (m *MemoryBackend) CreateBucket(bucket string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.buckets[bucket]; !ok {
		m.buckets[bucket] = make(map[string][]byte)
	}
}

// Put stores a copy of `data` under `key`, replacing any previous content.
func (m *MemoryBackend) Put(bucket, key string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.buckets[bucket]; !ok {
		m.buckets[bucket] = make(map[string][]byte)
	}
	m.buckets[bucket][key] = append([]byte(nil), data...)
}

func (m *MemoryBackend) Remove(bucket, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.buckets[bucket], key)
}

func (m *MemoryBackend) ListObjects(ctx context.Context, bucket, prefix string) ([]Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.buckets[bucket]
	if !ok {
		return nil, errors.Errorf("no such bucket %q", bucket)
	}
	objs := make([]Object, 0, len(b))
	for key, data := range b {
		if strings.HasPrefix(key, prefix) {
			objs = append(objs, Object{Key: key, Size: int64(len(data))})
		}
	}
	sort.Slice(objs, func(i, j int) bool {
		return objs[i].Key < objs[j].Key
	})
	return objs, nil
}

func (m *MemoryBackend) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.buckets[bucket][key]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "get %s/%s", bucket, key)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}
