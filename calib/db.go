// Copyright 2026 The larconv Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package calib

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

var drvName = "mysql"

// FromDB loads the calibration table tagged tag from the conditions
// database at dsn (user:pass@tcp(host)/dbname).
func FromDB(ctx context.Context, dsn, tag string) (Table, error) {
	db, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, fmt.Errorf("calib: could not open conditions db: %w", err)
	}
	defer db.Close()

	err = ping(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("calib: could not ping conditions db: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	rows, err := db.QueryContext(
		ctx,
		"SELECT chip, channel, gain_v, gain_vcm, pedestal_v FROM calib WHERE tag=?",
		tag,
	)
	if err != nil {
		return nil, fmt.Errorf("calib: could not run calibration query: %w", err)
	}
	defer rows.Close()

	var tbl Table
	i := 0
	for rows.Next() {
		var (
			chip, channel int32
			e             Entry
		)
		err = rows.Scan(&chip, &channel, &e.GainV, &e.GainVCM, &e.PedestalV)
		if err != nil {
			return nil, fmt.Errorf("calib: could not scan row %d: %w", i, err)
		}
		i++
		tbl = tbl.set(chip, channel, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("calib: could not scan db for calibration: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("calib: context error while retrieving calibration: %w", err)
	}

	return tbl, nil
}

func ping(ctx context.Context, db *sql.DB) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return db.PingContext(ctx)
}
