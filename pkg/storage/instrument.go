// popbucket
// Copyright 2026 Blue Static <https://www.bluestatic.org>
// This program is free software licensed under the GNU General Public License,
// version 3.0. The full text of the license can be found in LICENSE.txt.
// SPDX-License-Identifier: GPL-3.0-only

package storage

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/pkg/errors"

	"src.bluestatic.org/popbucket/pkg/metrics"
)

// Instrument wraps `b` so that every call is counted and timed in the
// storage metrics.
func Instrument(b Backend) Backend {
	return &instrumented{b: b}
}

type instrumented struct {
	b Backend
}

func (i *instrumented) ListObjects(ctx context.Context, bucket, prefix string) ([]Object, error) {
	start := time.Now()
	objs, err := i.b.ListObjects(ctx, bucket, prefix)
	observe("LIST", start, err)
	return objs, err
}

func (i *instrumented) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	start := time.Now()
	rc, err := i.b.GetObject(ctx, bucket, key)
	observe("GET", start, err)
	return rc, err
}

func observe(op string, start time.Time, err error) {
	metrics.StorageOperationsTotal.WithLabelValues(op, classifyError(err)).Inc()
	metrics.StorageOperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// classifyError maps a backend error onto a low-cardinality status label.
func classifyError(err error) string {
	if err == nil {
		return "success"
	}

	msg := err.Error()
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case strings.Contains(msg, "AccessDenied") || strings.Contains(msg, "Forbidden"):
		return "access_denied"
	case strings.Contains(msg, "SlowDown") || strings.Contains(msg, "RequestLimitExceeded"):
		return "throttled"
	case strings.Contains(msg, "connection refused") || strings.Contains(msg, "no such host"):
		return "network_error"
	default:
		return "error"
	}
}
