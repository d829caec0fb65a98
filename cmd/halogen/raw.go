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

func cmdRaw(_ context.Context, cfg *config.Config, log *zap.Logger, args []string) error {
	fs := flag.NewFlagSet("raw", flag.ExitOnError)
	records := fs.Int("records", cfg.Raw.Records, "number of records to write")
	out := fs.String("out", "", "output file (default: <base>/<today>/intan_fake.log)")
	base := fs.String("base", cfg.Output.BaseDir, "output base directory")
	_ = fs.Parse(args)

	gen := generator.New(generator.Options{
		BaseDir: *base,
		Header:  fileHeader(cfg),
		Logger:  log,
	})

	path, err := gen.SineLog(*out, *records)
	if err != nil {
		return err
	}

	hdr := gen.Header()
	n := max(*records, 0)
	fmt.Printf("Wrote %d records (%d bytes) to %s\n", n, int64(n)*int64(hdr.RecordSize()), path)

	return nil
}
