// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Package publish mirrors detection events onto a Redis stream so live
// consumers can follow a generation run.
package publish

import (
	"context"
	"fmt"
	"strconv"

	"github.com/OpenPSG/halolog/detection"
	"github.com/OpenPSG/halolog/internal/generator"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Publisher appends one stream entry per detection event.
type Publisher struct {
	client *redis.Client
	stream string
	maxLen int64
	logger *zap.Logger
}

var _ generator.Observer = (*Publisher)(nil)

// New creates a publisher writing to stream. A positive maxLen caps the
// stream length approximately.
func New(client *redis.Client, stream string, maxLen int64, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{client: client, stream: stream, maxLen: maxLen, logger: logger}
}

// HourGenerated publishes the events of a generated hour.
func (p *Publisher) HourGenerated(ctx context.Context, res *generator.HourResult) error {
	return p.PublishEvents(ctx, res.DetectionsPath, res.Events)
}

// PublishEvents appends events in file order, tagged with the file they were
// written to. Entries carry the decoded fields as written on disk plus the
// raw word.
func (p *Publisher) PublishEvents(ctx context.Context, file string, events []detection.Event) error {
	if len(events) == 0 {
		return nil
	}

	pipe := p.client.Pipeline()
	for _, e := range events {
		word := e.Word()
		wire := detection.Decode(word)

		pipe.XAdd(ctx, &redis.XAddArgs{
			Stream: p.stream,
			MaxLen: p.maxLen,
			Approx: p.maxLen > 0,
			Values: map[string]interface{}{
				"file":         file,
				"channel":      strconv.Itoa(int(wire.Channel)),
				"type":         wire.Type.String(),
				"timestamp_ms": strconv.FormatUint(uint64(wire.Timestamp), 10),
				"word":         strconv.FormatUint(uint64(word), 10),
			},
		})
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to publish %d events to %s: %w", len(events), p.stream, err)
	}

	p.logger.Debug("Published detection events",
		zap.String("stream", p.stream),
		zap.String("file", file),
		zap.Int("events", len(events)))

	return nil
}
