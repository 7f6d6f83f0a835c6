// popbucket
// Copyright 2026 Blue Static <https://www.bluestatic.org>
// This program is free software licensed under the GNU General Public License,
// version 3.0. The full text of the license can be found in LICENSE.txt.
// SPDX-License-Identifier: GPL-3.0-only

package main

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap/zapcore"
)

type BackendType string

const (
	BackendS3  BackendType = "s3"
	BackendGCS BackendType = "gcs"
	BackendDir BackendType = "dir"
)

type BackendConfig struct {
	Type BackendType `toml:"type"`

	// S3-compatible stores.
	Endpoint        string `toml:"endpoint"`
	Region          string `toml:"region"`
	UseTLS          bool   `toml:"use_tls"`
	AccessKeyID     string `toml:"access_key_id"`
	SecretAccessKey string `toml:"secret_access_key"`
	Trace           bool   `toml:"trace"`

	// Google Cloud Storage. Empty means Application Default Credentials.
	CredentialsPath string `toml:"credentials_path"`

	// Local directory whose subdirectories are buckets.
	Root string `toml:"root"`
}

type Config struct {
	LogLevel string `toml:"log_level"`

	// MetricsAddr is where /metrics is served. Empty disables it.
	MetricsAddr string `toml:"metrics_addr"`

	// UniqueSuffix appends a fresh suffix to every UIDL on each load, so
	// clients that remember UIDLs download everything again.
	UniqueSuffix bool `toml:"unique_suffix"`

	// SkipMalformed drops objects that are not messages instead of failing
	// the session.
	SkipMalformed bool `toml:"skip_malformed"`

	Backend BackendConfig `toml:"backend"`
}

func DefaultConfig() Config {
	return Config{
		LogLevel:     "info",
		UniqueSuffix: true,
		Backend: BackendConfig{
			Type:     BackendS3,
			Endpoint: "s3.amazonaws.com",
			UseTLS:   true,
		},
	}
}

// LoadConfig reads a TOML file over the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("config file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return cfg, fmt.Errorf("config file: unknown keys %v", undecoded)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if _, err := c.Level(); err != nil {
		return err
	}
	switch c.Backend.Type {
	case BackendS3:
		if c.Backend.Endpoint == "" {
			return fmt.Errorf("Missing backend endpoint")
		}
		if (c.Backend.AccessKeyID == "") != (c.Backend.SecretAccessKey == "") {
			return fmt.Errorf("access_key_id and secret_access_key must be set together")
		}
	case BackendGCS:
	case BackendDir:
		if c.Backend.Root == "" {
			return fmt.Errorf("Missing backend root")
		}
	default:
		return fmt.Errorf("Invalid backend type: %q", c.Backend.Type)
	}
	return nil
}

func (c *Config) Level() (zapcore.Level, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return level, fmt.Errorf("Invalid log_level %q: %w", c.LogLevel, err)
	}
	return level, nil
}

// Args are the positional command line arguments.
type Args struct {
	Host   string
	Port   int
	Bucket string
	Prefix string
}

func (a Args) Addr() string {
	return net.JoinHostPort(a.Host, strconv.Itoa(a.Port))
}

// ParseArgs parses `[host:]port bucket [object_prefix]`.
func ParseArgs(args []string) (Args, error) {
	var a Args
	if len(args) < 2 || len(args) > 3 {
		return a, fmt.Errorf("expected [<host>:]<port> <bucket> [<object_prefix>]")
	}

	port := args[0]
	if strings.Contains(port, ":") {
		var err error
		a.Host, port, err = net.SplitHostPort(port)
		if err != nil {
			return a, fmt.Errorf("Bad address %q: %w", args[0], err)
		}
	}
	p, err := strconv.Atoi(port)
	if err != nil || p < 0 || p > 65535 {
		return a, fmt.Errorf("Unknown port: %s", port)
	}
	a.Port = p

	a.Bucket = args[1]
	if a.Bucket == "" {
		return a, fmt.Errorf("Missing bucket")
	}
	if len(args) == 3 {
		a.Prefix = args[2]
	}
	return a, nil
}
