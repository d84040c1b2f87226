// Copyright (c) 2026 Recordkit Team
// Recordkit - generic record services on top of Bun
// This source code is licensed under the MIT license found in the LICENSE file.

package store

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/klauspost/compress/zstd"
)

func TestDumpTable(t *testing.T) {
	db, err := Open("sqlite", "file:test_store_dump?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer func() { _ = db.Close() }()
	ctx := context.Background()

	if err := CreateSchema(ctx, db, (*note)(nil)); err != nil {
		t.Fatalf("CreateSchema failed: %v", err)
	}
	notes := []note{{Body: "first"}, {Body: "second"}, {Body: "third"}}
	if _, err := db.NewInsert().Model(&notes).Exec(ctx); err != nil {
		t.Fatalf("seeding failed: %v", err)
	}

	var buf bytes.Buffer
	if err := DumpTable(ctx, db, "notes", &buf); err != nil {
		t.Fatalf("DumpTable failed: %v", err)
	}

	zr, err := zstd.NewReader(&buf)
	if err != nil {
		t.Fatalf("dump is not valid zstd: %v", err)
	}
	defer zr.Close()

	var bodies []string
	sc := bufio.NewScanner(zr)
	for sc.Scan() {
		var row map[string]any
		if err := json.Unmarshal(sc.Bytes(), &row); err != nil {
			t.Fatalf("dump line is not valid JSON: %v", err)
		}
		body, ok := row["body"].(string)
		if !ok {
			t.Fatalf("row misses body column: %v", row)
		}
		bodies = append(bodies, body)
	}
	if err := sc.Err(); err != nil {
		t.Fatalf("reading dump failed: %v", err)
	}

	if len(bodies) != 3 {
		t.Fatalf("expected 3 rows in the dump, got %d", len(bodies))
	}
	want := map[string]bool{"first": true, "second": true, "third": true}
	for _, b := range bodies {
		if !want[b] {
			t.Errorf("unexpected row body %q", b)
		}
	}
}

func TestDumpTableMissing(t *testing.T) {
	db, err := Open("sqlite", "file:test_store_dump_missing?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer func() { _ = db.Close() }()

	var buf bytes.Buffer
	if err := DumpTable(context.Background(), db, "no_such_table", &buf); err == nil {
		t.Fatal("expected an error for a missing table")
	}
}
