// Copyright (c) 2026 Recordkit Team
// Recordkit - generic record services on top of Bun
// This source code is licensed under the MIT license found in the LICENSE file.

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/uptrace/bun"
)

// DumpTable streams every row of the named table to w as
// Zstandard-compressed NDJSON (one JSON object per row, column names as
// keys). The dump is driver-neutral: it reads whatever the table holds
// without needing a model type, so it works for backup and for moving
// data between backends.
func DumpTable(ctx context.Context, db *bun.DB, table string, w io.Writer) error {
	rows, err := db.NewSelect().Table(table).Rows(ctx)
	if err != nil {
		return fmt.Errorf("could not read table %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("could not list columns of %s: %w", table, err)
	}

	zw, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("could not create zstd writer: %w", err)
	}
	enc := json.NewEncoder(zw)

	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			_ = zw.Close()
			return fmt.Errorf("could not scan row of %s: %w", table, err)
		}
		obj := make(map[string]any, len(cols))
		for i, c := range cols {
			v := vals[i]
			// Drivers hand []byte for text columns; stringify so the
			// JSON stays readable instead of base64-encoded.
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			obj[c] = v
		}
		if err := enc.Encode(obj); err != nil {
			_ = zw.Close()
			return fmt.Errorf("could not encode row of %s: %w", table, err)
		}
	}
	if err := rows.Err(); err != nil {
		_ = zw.Close()
		return err
	}

	return zw.Close()
}
