// popbucket
// Copyright 2026 Blue Static <https://www.bluestatic.org>
// This program is free software licensed under the GNU General Public License,
// version 3.0. The full text of the license can be found in LICENSE.txt.
// SPDX-License-Identifier: GPL-3.0-only

package mailbox

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/xid"
	"go.uber.org/zap"

	"src.bluestatic.org/popbucket/pkg/storage"
)

// ReservedKey is written by Amazon SES when a receipt rule is set up. It is
// not a message.
const ReservedKey = "AMAZON_SES_SETUP_NOTIFICATION"

// ErrBackend wraps any listing or fetch failure.
var ErrBackend = errors.New("storage backend failure")

// Builder turns a bucket listing into a Snapshot.
type Builder struct {
	Backend storage.Backend
	Bucket  string
	Prefix  string

	// Suffix returns the string appended to every identifier of one load.
	// It is called once per Build. If nil, identifiers are the bare keys.
	Suffix func() string

	// SkipMalformed omits objects without a header/body separator instead
	// of failing the whole build.
	SkipMalformed bool

	Log *zap.Logger
}

// NewSuffix returns a fresh globally unique suffix, so that clients which
// cache by UIDL see every load as new mail.
func NewSuffix() string {
	return xid.New().String()
}

// Build lists the bucket once and fetches every message.
func (b *Builder) Build(ctx context.Context) (*Snapshot, error) {
	log := b.Log
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("bucket", b.Bucket), zap.String("prefix", b.Prefix))

	objs, err := b.Backend.ListObjects(ctx, b.Bucket, b.Prefix)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBackend, err)
	}

	suffix := ""
	if b.Suffix != nil {
		suffix = "_" + b.Suffix()
	}

	msgs := make([]*Message, 0, len(objs))
	seen := make(map[string]bool, len(objs))
	for _, obj := range objs {
		base := strings.TrimLeft(strings.TrimPrefix(obj.Key, b.Prefix), "/")
		if base == ReservedKey {
			continue
		}
		if escaped := escapeID(base); escaped != base {
			log.Debug("escaped identifier", zap.String("key", obj.Key), zap.String("id", escaped))
			base = escaped
		}

		msg, err := b.fetch(ctx, obj.Key)
		if errors.Is(err, ErrMalformed) && b.SkipMalformed {
			log.Warn("skipping malformed message", zap.String("key", obj.Key))
			continue
		}
		if err != nil {
			return nil, err
		}

		id := base + suffix
		for n := 2; seen[id]; n++ {
			id = fmt.Sprintf("%s%s-%d", base, suffix, n)
		}
		seen[id] = true
		msg.id = id
		msgs = append(msgs, msg)
	}

	log.Info("built mailbox", zap.Int("messages", len(msgs)))
	return newSnapshot(msgs), nil
}

func (b *Builder) fetch(ctx context.Context, key string) (*Message, error) {
	rc, err := b.Backend.GetObject(ctx, b.Bucket, key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBackend, err)
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrBackend, key, err)
	}

	msg, err := Build(raw)
	if err != nil {
		return nil, fmt.Errorf("object %s: %w", key, err)
	}
	return msg, nil
}

// escapeID percent-encodes every byte of `s` outside the printable range
// 0x21-0x7E allowed in a UIDL, and '%' itself, so distinct keys stay distinct.
func escapeID(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < 0x21 || c > 0x7e || c == '%' {
			fmt.Fprintf(&sb, "%%%02X", c)
			continue
		}
		sb.WriteByte(c)
	}
	return sb.String()
}
