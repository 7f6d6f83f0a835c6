// popbucket
// Copyright 2026 Blue Static <https://www.bluestatic.org>
// This program is free software licensed under the GNU General Public License,
// version 3.0. The full text of the license can be found in LICENSE.txt.
// SPDX-License-Identifier: GPL-3.0-only

package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"src.bluestatic.org/popbucket/pkg/version"
)

func usage(fs *flag.FlagSet) func() {
	return func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [-config popbucket.toml] [<host>:]<port> <bucket> [<object_prefix>]\n", fs.Name())
		fmt.Fprintf(os.Stderr, "       %s version\n", fs.Name())
		fs.PrintDefaults()
	}
}

func main() {
	fs := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	configPath := fs.String("config", "", "path to a TOML config file")
	fs.Usage = usage(fs)
	fs.Parse(os.Args[1:])

	if fs.NArg() == 1 && fs.Arg(0) == "version" {
		fmt.Print(version.VersionString)
		os.Exit(0)
	}

	args, err := ParseArgs(fs.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		fs.Usage()
		os.Exit(1)
	}

	config := DefaultConfig()
	if *configPath != "" {
		config, err = LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(2)
		}
	}
	if err := config.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(3)
	}

	level, _ := config.Level()
	logConfig := zap.NewDevelopmentConfig()
	logConfig.Development = false
	logConfig.DisableStacktrace = true
	logConfig.Level.SetLevel(level)
	log, err := logConfig.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "create logger: %v\n", err)
		os.Exit(4)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := newBackend(ctx, config.Backend)
	if err != nil {
		log.Fatal("Failed to create storage backend", zap.Error(err))
	}

	l, err := net.Listen("tcp", args.Addr())
	if err != nil {
		log.Fatal("Failed to listen", zap.String("address", args.Addr()), zap.Error(err))
	}

	var ml net.Listener
	if config.MetricsAddr != "" {
		ml, err = net.Listen("tcp", config.MetricsAddr)
		if err != nil {
			log.Fatal("Failed to listen for metrics", zap.String("address", config.MetricsAddr), zap.Error(err))
		}
	}

	log.Info("Starting popbucket",
		zap.String("version", version.VersionString),
		zap.String("bucket", args.Bucket),
		zap.String("prefix", args.Prefix),
		zap.String("address", args.Addr()))

	if err := serve(ctx, l, ml, newBuilder(config, args, backend, log), log); err != nil {
		log.Error("popbucket stopped", zap.Error(err))
		log.Sync()
		os.Exit(5)
	}
	log.Info("popbucket stopped")
}
