// popbucket
// Copyright 2026 Blue Static <https://www.bluestatic.org>
// This program is free software licensed under the GNU General Public License,
// version 3.0. The full text of the license can be found in LICENSE.txt.
// SPDX-License-Identifier: GPL-3.0-only

package storage

import (
	"context"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"src.bluestatic.org/popbucket/pkg/metrics"
)

func TestInstrumentCountsOperations(t *testing.T) {
	m := NewMemoryBackend()
	m.Put("bucket", "k", []byte("x"))
	b := Instrument(m)

	listOK := metrics.StorageOperationsTotal.WithLabelValues("LIST", "success")
	getMissing := metrics.StorageOperationsTotal.WithLabelValues("GET", "not_found")
	listBefore := testutil.ToFloat64(listOK)
	getBefore := testutil.ToFloat64(getMissing)

	_, err := b.ListObjects(context.Background(), "bucket", "")
	require.NoError(t, err)

	_, err = b.GetObject(context.Background(), "bucket", "missing")
	assert.Error(t, err)

	assert.Equal(t, listBefore+1, testutil.ToFloat64(listOK))
	assert.Equal(t, getBefore+1, testutil.ToFloat64(getMissing))
}

func TestClassifyError(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, "success"},
		{fmt.Errorf("get: %w", ErrNotFound), "not_found"},
		{fmt.Errorf("op: %w", context.DeadlineExceeded), "timeout"},
		{fmt.Errorf("op: %w", context.Canceled), "canceled"},
		{fmt.Errorf("AccessDenied: go away"), "access_denied"},
		{fmt.Errorf("dial tcp: connection refused"), "network_error"},
		{fmt.Errorf("SlowDown"), "throttled"},
		{fmt.Errorf("boom"), "error"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, classifyError(c.err), "error %v", c.err)
	}
}
