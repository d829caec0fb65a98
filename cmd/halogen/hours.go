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
	"strings"

	"github.com/OpenPSG/halolog"
	"github.com/OpenPSG/halolog/internal/catalog"
	"github.com/OpenPSG/halolog/internal/config"
	"github.com/OpenPSG/halolog/internal/generator"
	"github.com/OpenPSG/halolog/internal/neuralsim"
	"github.com/OpenPSG/halolog/internal/publish"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func cmdHours(ctx context.Context, cfg *config.Config, log *zap.Logger, args []string) error {
	hoursCfg := cfg.Hours

	fs := flag.NewFlagSet("hours", flag.ExitOnError)
	days := fs.Int("days", hoursCfg.Days, "number of days back from today, including today")
	hourList := fs.String("hours", formatHours(hoursCfg.Hours), "comma separated hours to generate")
	durationSec := fs.Int("duration-sec", hoursCfg.DurationSec, "simulated seconds per hour file")
	seed := fs.Int64("seed", hoursCfg.Seed, "random seed")
	out := fs.String("out", cfg.Output.BaseDir, "output base directory")
	workers := fs.Int("workers", hoursCfg.Workers, "hour files generated in parallel")
	catalogPath := fs.String("catalog", cfg.Catalog.Path, "SQLite catalog path (disabled when empty)")
	_ = fs.Parse(args)

	hours, err := config.ParseHours(*hourList)
	if err != nil {
		return err
	}
	for _, h := range hours {
		if h < 0 || h > 23 {
			return fmt.Errorf("hour %d is not an hour of the day", h)
		}
	}

	gen := generator.New(generator.Options{
		BaseDir:      *out,
		Header:       fileHeader(cfg),
		SampleRateHz: cfg.Recording.SampleRateHz,
		Factory:      sourceFactory(cfg),
		Logger:       log,
	})

	var observers []generator.Observer

	if *catalogPath != "" {
		cat, err := catalog.Open(*catalogPath, log)
		if err != nil {
			return err
		}
		defer cat.Close()

		if _, err := cat.BeginRun(ctx, *seed, "hours"); err != nil {
			return err
		}
		observers = append(observers, cat)
	}

	if cfg.Redis.Addr != "" {
		pub, closeFn, err := newPublisher(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer closeFn()
		observers = append(observers, pub)
	}

	log.Info("Generating hours",
		zap.String("out", *out),
		zap.Int("days", *days),
		zap.Ints("hours", hours),
		zap.Int("duration_sec", *durationSec),
		zap.Int64("seed", *seed))

	results, err := generator.NewRunner(gen, log, observers...).Run(ctx, generator.RunOptions{
		Days:        *days,
		Hours:       hours,
		DurationSec: *durationSec,
		Seed:        *seed,
		Workers:     *workers,
	})
	if err != nil {
		return err
	}

	for _, res := range results {
		fmt.Printf("Generated %s and %s\n", res.RawPath, res.DetectionsPath)
	}

	return nil
}

func fileHeader(cfg *config.Config) halolog.FileHeader {
	hdr := halolog.DefaultHeader()
	hdr.ChannelCount = uint32(cfg.Recording.Channels)
	hdr.SamplesPerRecord = uint32(cfg.Recording.SamplesPerRecord)
	return hdr
}

func sourceFactory(cfg *config.Config) generator.SourceFactory {
	sim := neuralsim.Config{
		SampleRateHz:       cfg.Recording.SampleRateHz,
		Units:              cfg.Simulator.Units,
		NoiseMicrovolts:    cfg.Simulator.NoiseMicrovolts,
		EnableSeizures:     true,
		SeizureProbability: cfg.Simulator.SeizureProbability,
		SeizureDurationMs:  cfg.Simulator.SeizureDurationMs,
	}
	return func(_ int, seed int64) generator.Source {
		return neuralsim.New(sim, seed)
	}
}

func newPublisher(ctx context.Context, cfg *config.Config, log *zap.Logger) (*publish.Publisher, func(), error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.Addr, err)
	}

	log.Info("Publishing detections", zap.String("addr", cfg.Redis.Addr), zap.String("stream", cfg.Redis.Stream))

	return publish.New(client, cfg.Redis.Stream, cfg.Redis.MaxLen, log), func() { _ = client.Close() }, nil
}

func formatHours(hours []int) string {
	parts := make([]string, len(hours))
	for i, h := range hours {
		parts[i] = fmt.Sprintf("%02d", h)
	}
	return strings.Join(parts, ",")
}
