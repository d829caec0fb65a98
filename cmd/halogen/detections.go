// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/OpenPSG/halolog/internal/config"
	"github.com/OpenPSG/halolog/internal/generator"
	"go.uber.org/zap"
)

func cmdDetections(ctx context.Context, cfg *config.Config, log *zap.Logger, args []string) error {
	detCfg := cfg.Detections

	fs := flag.NewFlagSet("detections", flag.ExitOnError)
	pairs := fs.Int("pairs", detCfg.Pairs, "seizure start/end pairs per file")
	days := fs.Int("days", detCfg.Days, "number of days back from today, including today")
	filesPerDay := fs.Int("files-per-day", detCfg.FilesPerDay, "hourly files per day")
	seed := fs.Int64("seed", detCfg.Seed, "random seed")
	channel := fs.Int("channel", 0, "force every pair onto this channel (1-32)")
	durationMs := fs.Int("duration-ms", 0, "force the seizure duration in milliseconds")
	out := fs.String("out", "", "write a single file here instead of the day tree")
	base := fs.String("base", cfg.Output.BaseDir, "output base directory")
	_ = fs.Parse(args)

	gen := generator.New(generator.Options{BaseDir: *base, Logger: log})
	opts := generator.PairOptions{Pairs: *pairs, Channel: *channel, DurationMs: *durationMs}

	log.Info("Generating detection pairs", zap.Int("pairs", *pairs), zap.Int64("seed", *seed))

	var files []*generator.PairFile
	if *out != "" {
		pf, err := gen.PairsFile(*out, *seed, opts)
		if err != nil {
			return err
		}
		files = append(files, pf)
	} else {
		var err error
		if files, err = gen.PairsDays(*days, *filesPerDay, *seed, opts); err != nil {
			return err
		}
	}

	if cfg.Redis.Addr != "" {
		pub, closeFn, err := newPublisher(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer closeFn()

		for _, pf := range files {
			if err := pub.PublishEvents(ctx, pf.Path, pf.Events); err != nil {
				return err
			}
		}
	}

	for _, pf := range files {
		fmt.Printf("Wrote %d events to %s\n", len(pf.Events), pf.Path)
	}

	return nil
}
