// popbucket
// Copyright 2026 Blue Static <https://www.bluestatic.org>
// This program is free software licensed under the GNU General Public License,
// version 3.0. The full text of the license can be found in LICENSE.txt.
// SPDX-License-Identifier: GPL-3.0-only

// Package storage provides read access to the object stores that hold raw
// mail messages.
//
// A Backend is the only thing the mailbox layer depends on, so the S3, GCS
// and in-memory implementations are interchangeable.
package storage

import (
	"context"
	"io"

	"github.com/pkg/errors"
)

// ErrNotFound is returned by GetObject when the key does not exist.
var ErrNotFound = errors.New("object not found")

// Object describes one entry of a bucket listing.
type Object struct {
	Key  string
	Size int64
}

type Backend interface {
	// ListObjects returns every object in `bucket` whose key starts with
	// `prefix`, in the order the store lists them.
	ListObjects(ctx context.Context, bucket, prefix string) ([]Object, error)
	// GetObject opens the content of `key`. The caller must Close the
	// returned reader after reading it fully.
	GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}
