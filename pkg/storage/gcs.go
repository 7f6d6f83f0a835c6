// popbucket
// Copyright 2026 Blue Static <https://www.bluestatic.org>
// This program is free software licensed under the GNU General Public License,
// version 3.0. The full text of the license can be found in LICENSE.txt.
// SPDX-License-Identifier: GPL-3.0-only

package storage

import (
	"context"
	"io"
	"net/http"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	gcs "google.golang.org/api/storage/v1"
)

// GCSBackend reads objects from a Google Cloud Storage bucket through the
// JSON API.
type GCSBackend struct {
	svc *gcs.Service
}

// GCSClientOptions returns the options that authenticate a GCSBackend. If
// `credentialsPath` is empty, Application Default Credentials are used.
func GCSClientOptions(ctx context.Context, credentialsPath string) ([]option.ClientOption, error) {
	if credentialsPath == "" {
		client, err := google.DefaultClient(ctx, gcs.DevstorageReadOnlyScope)
		if err != nil {
			return nil, errors.Wrap(err, "failed to find default GCS credentials")
		}
		return []option.ClientOption{option.WithHTTPClient(client)}, nil
	}

	data, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read GCS credentials")
	}
	creds, err := google.CredentialsFromJSON(ctx, data, gcs.DevstorageReadOnlyScope)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load GCS credentials")
	}
	client := oauth2.NewClient(ctx, creds.TokenSource)
	return []option.ClientOption{option.WithHTTPClient(client)}, nil
}

func NewGCSBackend(ctx context.Context, opts ...option.ClientOption) (*GCSBackend, error) {
	opts = append(opts, option.WithUserAgent("popbucket"))
	svc, err := gcs.NewService(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize GCS client")
	}
	return &GCSBackend{svc: svc}, nil
}

func (g *GCSBackend) ListObjects(ctx context.Context, bucket, prefix string) ([]Object, error) {
	var objs []Object
	call := g.svc.Objects.List(bucket).Prefix(prefix).Fields("nextPageToken", "items(name,size)")
	err := call.Pages(ctx, func(page *gcs.Objects) error {
		for _, item := range page.Items {
			objs = append(objs, Object{Key: item.Name, Size: int64(item.Size)})
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "list %s/%s", bucket, prefix)
	}
	return objs, nil
}

func (g *GCSBackend) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	resp, err := g.svc.Objects.Get(bucket, key).Context(ctx).Download()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound {
			return nil, errors.Wrapf(ErrNotFound, "get %s/%s", bucket, key)
		}
		return nil, errors.Wrapf(err, "get %s/%s", bucket, key)
	}
	return resp.Body, nil
}
