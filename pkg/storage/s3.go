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

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"
)

type S3Config struct {
	Endpoint string
	Region   string
	UseTLS   bool

	// AccessKeyID and SecretAccessKey are optional. When empty, credentials
	// come from the AWS environment variables, the shared credentials file,
	// or the instance role, in that order.
	AccessKeyID     string
	SecretAccessKey string

	// Trace dumps every HTTP request and response to stdout.
	Trace bool
}

// S3Backend reads objects from an S3-compatible store.
type S3Backend struct {
	client *minio.Client
}

func NewS3Backend(c S3Config) (*S3Backend, error) {
	var creds *credentials.Credentials
	if c.AccessKeyID != "" {
		creds = credentials.NewStaticV4(c.AccessKeyID, c.SecretAccessKey, "")
	} else {
		creds = credentials.NewChainCredentials([]credentials.Provider{
			&credentials.EnvAWS{},
			&credentials.FileAWSCredentials{},
			&credentials.IAM{Client: &http.Client{Transport: http.DefaultTransport}},
		})
	}

	client, err := minio.New(c.Endpoint, &minio.Options{
		Creds:  creds,
		Secure: c.UseTLS,
		Region: c.Region,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize S3 client")
	}
	if c.Trace {
		client.TraceOn(os.Stdout)
	}
	return &S3Backend{client: client}, nil
}

func (s *S3Backend) ListObjects(ctx context.Context, bucket, prefix string) ([]Object, error) {
	opts := minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}
	var objs []Object
	for info := range s.client.ListObjects(ctx, bucket, opts) {
		if info.Err != nil {
			return nil, errors.Wrapf(info.Err, "list %s/%s", bucket, prefix)
		}
		objs = append(objs, Object{Key: info.Key, Size: info.Size})
	}
	return objs, nil
}

func (s *S3Backend) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, errors.Wrapf(err, "get %s/%s", bucket, key)
	}
	// GetObject is lazy; Stat surfaces a missing key before the first Read.
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		if minio.ToErrorResponse(err).StatusCode == http.StatusNotFound {
			return nil, errors.Wrapf(ErrNotFound, "get %s/%s", bucket, key)
		}
		return nil, errors.Wrapf(err, "get %s/%s", bucket, key)
	}
	return obj, nil
}
