// popbucket
// Copyright 2026 Blue Static <https://www.bluestatic.org>
// This program is free software licensed under the GNU General Public License,
// version 3.0. The full text of the license can be found in LICENSE.txt.
// SPDX-License-Identifier: GPL-3.0-only

package storage

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// DirBackend serves buckets from a local directory tree: each bucket is a
// subdirectory of Root and each regular file below it is an object, keyed by
// its slash-separated path relative to the bucket.
type DirBackend struct {
	Root string
}

func NewDirBackend(root string) (*DirBackend, error) {
	fi, err := os.Stat(root)
	if err != nil {
		return nil, errors.Wrap(err, "storage root")
	}
	if !fi.IsDir() {
		return nil, errors.Errorf("storage root %s is not a directory", root)
	}
	return &DirBackend{Root: root}, nil
}

func (d *DirBackend) bucketDir(bucket string) (string, error) {
	if bucket == "" || bucket == "." || bucket == ".." || strings.ContainsAny(bucket, `/\`) {
		return "", errors.Errorf("invalid bucket name %q", bucket)
	}
	return filepath.Join(d.Root, bucket), nil
}

func (d *DirBackend) ListObjects(ctx context.Context, bucket, prefix string) ([]Object, error) {
	dir, err := d.bucketDir(bucket)
	if err != nil {
		return nil, err
	}
	var objs []Object
	err = filepath.WalkDir(dir, func(p string, de fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !de.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}
		fi, err := de.Info()
		if err != nil {
			return err
		}
		objs = append(objs, Object{Key: key, Size: fi.Size()})
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "list %s", bucket)
	}
	sort.Slice(objs, func(i, j int) bool {
		return objs[i].Key < objs[j].Key
	})
	return objs, nil
}

func (d *DirBackend) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	dir, err := d.bucketDir(bucket)
	if err != nil {
		return nil, err
	}
	clean := path.Clean("/" + key)[1:]
	if clean != key {
		return nil, errors.Wrapf(ErrNotFound, "get %s/%s", bucket, key)
	}
	f, err := os.Open(filepath.Join(dir, filepath.FromSlash(key)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, errors.Wrapf(ErrNotFound, "get %s/%s", bucket, key)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get %s/%s", bucket, key)
	}
	return f, nil
}
