// popbucket
// Copyright 2026 Blue Static <https://www.bluestatic.org>
// This program is free software licensed under the GNU General Public License,
// version 3.0. The full text of the license can be found in LICENSE.txt.
// SPDX-License-Identifier: GPL-3.0-only

package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"src.bluestatic.org/popbucket/pkg/mailbox"
	"src.bluestatic.org/popbucket/pkg/metrics"
	"src.bluestatic.org/popbucket/pkg/pop3"
	"src.bluestatic.org/popbucket/pkg/storage"
)

func newBackend(ctx context.Context, c BackendConfig) (storage.Backend, error) {
	var (
		b   storage.Backend
		err error
	)
	switch c.Type {
	case BackendS3:
		b, err = storage.NewS3Backend(storage.S3Config{
			Endpoint:        c.Endpoint,
			Region:          c.Region,
			UseTLS:          c.UseTLS,
			AccessKeyID:     c.AccessKeyID,
			SecretAccessKey: c.SecretAccessKey,
			Trace:           c.Trace,
		})
	case BackendGCS:
		opts, oerr := storage.GCSClientOptions(ctx, c.CredentialsPath)
		if oerr != nil {
			return nil, oerr
		}
		b, err = storage.NewGCSBackend(ctx, opts...)
	case BackendDir:
		b, err = storage.NewDirBackend(c.Root)
	default:
		return nil, fmt.Errorf("Unsupported backend type %q", c.Type)
	}
	if err != nil {
		return nil, err
	}
	return storage.Instrument(b), nil
}

func newBuilder(c Config, a Args, b storage.Backend, log *zap.Logger) *mailbox.Builder {
	builder := &mailbox.Builder{
		Backend:       b,
		Bucket:        a.Bucket,
		Prefix:        a.Prefix,
		SkipMalformed: c.SkipMalformed,
		Log:           log,
	}
	if c.UniqueSuffix {
		builder.Suffix = mailbox.NewSuffix
	}
	return builder
}

// serve runs the POP3 server on `l` and, if `ml` is not nil, the metrics
// endpoint on `ml`, until `ctx` is done or the POP3 server fails.
func serve(ctx context.Context, l, ml net.Listener, b pop3.MailboxBuilder, log *zap.Logger) error {
	g, gctx := errgroup.WithContext(ctx)

	server := &pop3.Server{
		Builder: b,
		Log:     log.With(zap.String("server", "pop3")),
	}
	g.Go(func() error {
		err := server.Serve(gctx, l)
		if err == nil {
			// Stop the metrics endpoint too.
			err = context.Canceled
		}
		return err
	})

	if ml != nil {
		hs := &http.Server{Handler: metrics.NewHandler()}
		g.Go(func() error {
			log.Info("Serving metrics", zap.Stringer("address", ml.Addr()))
			if err := hs.Serve(ml); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			return hs.Shutdown(context.Background())
		})
	}

	if err := g.Wait(); !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
