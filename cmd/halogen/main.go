// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// halogen writes synthetic HALO raw waveform logs and detection event files.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/OpenPSG/halolog/internal/config"
	"github.com/OpenPSG/halolog/internal/logger"
	"go.uber.org/zap"
)

var (
	configPath = flag.String("config", "", "path to config file (TOML, YAML or JSON)")
	logLevel   = flag.String("log-level", "", "log level (debug, info, warn, error)")
	logFormat  = flag.String("log-format", "", "log format (console, json)")
)

type command func(ctx context.Context, cfg *config.Config, log *zap.Logger, args []string) error

var commands = map[string]command{
	"hours":      cmdHours,
	"raw":        cmdRaw,
	"detections": cmdDetections,
	"inspect":    cmdInspect,
}

func main() {
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(1)
	}

	name := flag.Arg(0)
	if name == "help" {
		usage()
		return
	}

	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", name)
		usage()
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if *logFormat != "" {
		cfg.Logging.Format = *logFormat
	}

	log, err := logger.New(cfg.Logging.Level, cfg.Logging.Format, "halogen")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd(ctx, cfg, log, flag.Args()[1:]); err != nil {
		log.Fatal("Command failed", zap.String("command", name), zap.Error(err))
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `halogen - synthetic HALO recording generator

Usage: halogen [options] <command> [args]

Commands:
  hours        Simulate hours of neural data with seizure detections
  raw          Write a deterministic sine raw log
  detections   Write fake detection start/end pairs
  inspect      Decode and summarize generated files
  help         Show this help message

Options:
  -config <path>      Path to config file
  -log-level <level>  Log level (default: info)
  -log-format <fmt>   Log format, console or json (default: console)

Run 'halogen <command> -h' for command options.`)
}
