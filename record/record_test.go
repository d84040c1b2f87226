// Copyright (c) 2026 Recordkit Team
// Recordkit - generic record services on top of Bun
// This source code is licensed under the MIT license found in the LICENSE file.

package record

import (
	"context"
	"strings"
	"testing"

	"github.com/uptrace/bun"

	"github.com/maxisioux/recordkit/store"
)

// Test models shared across the package tests.

type Player struct {
	bun.BaseModel `bun:"table:players,alias:players"`
	ID            int64  `bun:"id,pk,autoincrement"`
	Name          string `bun:"name,notnull,unique"`
	Score         int64  `bun:"score"`
	TeamID        int64  `bun:"team_id"`
}

type PlayerCreate struct {
	Name   string
	Score  int64
	TeamID int64
}

type PlayerUpdate struct {
	Name  Optional[string] `bun:"name"`
	Score Optional[int64]  `bun:"score"`
}

type Team struct {
	bun.BaseModel `bun:"table:teams,alias:teams"`
	ID            int64  `bun:"id,pk,autoincrement"`
	Name          string `bun:"name,notnull"`
}

type Membership struct {
	bun.BaseModel `bun:"table:memberships,alias:memberships"`
	UserID        int64  `bun:"user_id,pk"`
	GroupID       int64  `bun:"group_id,pk"`
	Role          string `bun:"role"`
}

type playerService = Service[Player, PlayerCreate, PlayerUpdate, int64]

// newTestDB opens a fresh in-memory sqlite database with the test schema
// applied.
func newTestDB(t *testing.T) *bun.DB {
	t.Helper()
	dsn := "file:test_" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := store.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := store.CreateSchema(context.Background(), db, (*Player)(nil), (*Team)(nil), (*Membership)(nil)); err != nil {
		t.Fatalf("failed to create test schema: %v", err)
	}
	return db
}

func newTestService(t *testing.T) (*playerService, *BunSession) {
	t.Helper()
	sess := NewSession(newTestDB(t))
	return New[Player, PlayerCreate, PlayerUpdate, int64](sess), sess
}

func mustCreate(t *testing.T, svc *playerService, data PlayerCreate) *Player {
	t.Helper()
	p, err := svc.Create(context.Background(), data)
	if err != nil {
		t.Fatalf("Create(%+v) failed: %v", data, err)
	}
	return p
}
