// Copyright (c) 2026 Recordkit Team
// Recordkit - generic record services on top of Bun
// This source code is licensed under the MIT license found in the LICENSE file.

package record

import (
	"context"
	"errors"
	"testing"
)

// countingSession wraps a Session and counts commit calls.
type countingSession struct {
	Session
	commits int
}

func (c *countingSession) Commit(ctx context.Context) error {
	c.commits++
	return c.Session.Commit(ctx)
}

func TestCreateRoundTrip(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created := mustCreate(t, svc, PlayerCreate{Name: "ann", Score: 10})
	if created.ID == 0 {
		t.Fatal("expected auto-increment key to be populated after create")
	}
	if created.Name != "ann" || created.Score != 10 {
		t.Errorf("created instance carries wrong values: %+v", created)
	}

	loaded, err := svc.GetByKey(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByKey(%d) failed: %v", created.ID, err)
	}
	if loaded == nil {
		t.Fatalf("GetByKey(%d) returned nil for an existing row", created.ID)
	}
	if *loaded != *created {
		t.Errorf("round trip mismatch: created %+v, loaded %+v", created, loaded)
	}
}

func TestGetByKeyAbsent(t *testing.T) {
	svc, _ := newTestService(t)

	loaded, err := svc.GetByKey(context.Background(), 4242)
	if err != nil {
		t.Fatalf("GetByKey on an absent key must not error, got: %v", err)
	}
	if loaded != nil {
		t.Errorf("GetByKey on an absent key must return nil, got %+v", loaded)
	}
}

func TestGetByKeysOmitsMissing(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	a := mustCreate(t, svc, PlayerCreate{Name: "ann"})
	b := mustCreate(t, svc, PlayerCreate{Name: "bob"})
	c := mustCreate(t, svc, PlayerCreate{Name: "cid"})

	if err := svc.DeleteByKey(ctx, b.ID); err != nil {
		t.Fatalf("DeleteByKey(%d) failed: %v", b.ID, err)
	}

	rows, err := svc.GetByKeys(ctx, []int64{a.ID, b.ID, c.ID})
	if err != nil {
		t.Fatalf("GetByKeys failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows back, got %d: %+v", len(rows), rows)
	}
	seen := map[int64]bool{}
	for _, r := range rows {
		seen[r.ID] = true
	}
	if !seen[a.ID] || !seen[c.ID] || seen[b.ID] {
		t.Errorf("wrong rows returned: %+v", rows)
	}
}

func TestGetByKeysEmpty(t *testing.T) {
	svc, _ := newTestService(t)

	rows, err := svc.GetByKeys(context.Background(), nil)
	if err != nil {
		t.Fatalf("GetByKeys(nil) failed: %v", err)
	}
	if rows != nil {
		t.Errorf("GetByKeys(nil) must return nil without touching the store, got %+v", rows)
	}
}

func TestUpdatePartial(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created := mustCreate(t, svc, PlayerCreate{Name: "ann", Score: 10})

	// Only Name is set; Score must survive untouched.
	updated, err := svc.Update(ctx, created.ID, PlayerUpdate{Name: Set("ann2")})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Name != "ann2" {
		t.Errorf("expected name ann2, got %q", updated.Name)
	}
	if updated.Score != 10 {
		t.Errorf("unset field must keep its value, score became %d", updated.Score)
	}

	// An explicitly set zero value is a real change, not an omission.
	updated, err = svc.Update(ctx, created.ID, PlayerUpdate{Score: Set[int64](0)})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Score != 0 {
		t.Errorf("explicit zero must be written, score is %d", updated.Score)
	}
	if updated.Name != "ann2" {
		t.Errorf("unset field must keep its value, name became %q", updated.Name)
	}
}

func TestUpdateAbsentKey(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Update(context.Background(), 999, PlayerUpdate{Name: Set("ghost")})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got: %v", err)
	}
}

func TestUpdateItem(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created := mustCreate(t, svc, PlayerCreate{Name: "ann", Score: 3})

	updated, err := svc.UpdateItem(ctx, created, PlayerUpdate{Score: Set[int64](7)})
	if err != nil {
		t.Fatalf("UpdateItem failed: %v", err)
	}
	if updated != created {
		t.Error("UpdateItem must mutate and return the same instance")
	}
	loaded, err := svc.GetByKey(ctx, created.ID)
	if err != nil || loaded == nil {
		t.Fatalf("reload failed: %v", err)
	}
	if loaded.Score != 7 {
		t.Errorf("expected persisted score 7, got %d", loaded.Score)
	}
}

func TestOne(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.One(ctx, Where("name = ?", "nobody"))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("One with zero matches must be ErrNotFound, got: %v", err)
	}

	mustCreate(t, svc, PlayerCreate{Name: "ann", Score: 5, TeamID: 1})
	mustCreate(t, svc, PlayerCreate{Name: "bob", Score: 5, TeamID: 1})

	got, err := svc.One(ctx, Where("name = ?", "ann"))
	if err != nil {
		t.Fatalf("One with a single match failed: %v", err)
	}
	if got.Name != "ann" {
		t.Errorf("wrong row: %+v", got)
	}

	_, err = svc.One(ctx, Where("score = ?", 5))
	if !errors.Is(err, ErrMultipleResults) {
		t.Errorf("One with two matches must be ErrMultipleResults, got: %v", err)
	}
}

func TestOneOrNone(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	got, err := svc.OneOrNone(ctx, Where("name = ?", "nobody"))
	if err != nil {
		t.Fatalf("OneOrNone with zero matches must not error, got: %v", err)
	}
	if got != nil {
		t.Errorf("OneOrNone with zero matches must return nil, got %+v", got)
	}

	mustCreate(t, svc, PlayerCreate{Name: "ann", Score: 5})
	mustCreate(t, svc, PlayerCreate{Name: "bob", Score: 5})

	got, err = svc.OneOrNone(ctx, Where("name = ?", "bob"))
	if err != nil || got == nil || got.Name != "bob" {
		t.Fatalf("OneOrNone single match: got %+v, err %v", got, err)
	}

	_, err = svc.OneOrNone(ctx, Where("score = ?", 5))
	if !errors.Is(err, ErrMultipleResults) {
		t.Errorf("OneOrNone with two matches must be ErrMultipleResults, got: %v", err)
	}
}

func TestAllWithOptions(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for _, p := range []PlayerCreate{
		{Name: "ann", Score: 30},
		{Name: "bob", Score: 10},
		{Name: "cid", Score: 20},
		{Name: "dee", Score: 40},
	} {
		mustCreate(t, svc, p)
	}

	rows, err := svc.All(ctx, Where("score >= ?", 20), OrderBy("score DESC"), Limit(2), Offset(1))
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Name != "ann" || rows[1].Name != "cid" {
		t.Errorf("wrong page: %+v", rows)
	}
}

func TestDeleteByKey(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created := mustCreate(t, svc, PlayerCreate{Name: "ann"})

	if err := svc.DeleteByKey(ctx, created.ID); err != nil {
		t.Fatalf("DeleteByKey failed: %v", err)
	}
	loaded, err := svc.GetByKey(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByKey after delete failed: %v", err)
	}
	if loaded != nil {
		t.Errorf("row survived delete: %+v", loaded)
	}
}

func TestDeleteByKeyAbsent(t *testing.T) {
	svc, sess := newTestService(t)
	ctx := context.Background()

	mustCreate(t, svc, PlayerCreate{Name: "ann"})

	err := svc.DeleteByKey(ctx, 999)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got: %v", err)
	}
	if sess.Pending() != 0 {
		t.Errorf("failed delete must not leave staged work, pending %d", sess.Pending())
	}
	rows, err := svc.All(ctx)
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("failed delete must not touch other rows, have %d", len(rows))
	}
}

func TestCreateMultiple(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	items, err := svc.CreateMultiple(ctx, []PlayerCreate{
		{Name: "ann"}, {Name: "bob"}, {Name: "cid"},
	})
	if err != nil {
		t.Fatalf("CreateMultiple failed: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 instances back, got %d", len(items))
	}

	rows, err := svc.All(ctx)
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	if len(rows) != 3 {
		t.Errorf("expected 3 persisted rows, got %d", len(rows))
	}
}

func TestAddToSessionEmptyStillCommits(t *testing.T) {
	sess := &countingSession{Session: NewSession(newTestDB(t))}
	svc := New[Player, PlayerCreate, PlayerUpdate, int64](sess)
	ctx := context.Background()

	staged, err := svc.AddToSession(ctx, []PlayerCreate{}, true, OpCreate)
	if err != nil {
		t.Fatalf("AddToSession with an empty batch failed: %v", err)
	}
	if len(staged) != 0 {
		t.Errorf("expected no staged items, got %d", len(staged))
	}
	if sess.commits != 1 {
		t.Errorf("empty batch with commit=true must still commit once, got %d commits", sess.commits)
	}
}

func TestAddToSessionNoCommit(t *testing.T) {
	sess := &countingSession{Session: NewSession(newTestDB(t))}
	svc := New[Player, PlayerCreate, PlayerUpdate, int64](sess)
	ctx := context.Background()

	staged, err := svc.AddToSession(ctx, []PlayerCreate{{Name: "ann"}}, false, OpCreate)
	if err != nil {
		t.Fatalf("AddToSession failed: %v", err)
	}
	if len(staged) != 1 {
		t.Fatalf("expected 1 staged item, got %d", len(staged))
	}
	if sess.commits != 0 {
		t.Errorf("commit=false must not commit, got %d commits", sess.commits)
	}
	if sess.Pending() != 1 {
		t.Errorf("expected 1 pending op, got %d", sess.Pending())
	}

	// Nothing visible until the caller commits.
	rows, err := svc.All(ctx)
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("uncommitted staging must not be visible, found %d rows", len(rows))
	}

	if err := sess.Commit(ctx); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	rows, err = svc.All(ctx)
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("expected 1 row after commit, got %d", len(rows))
	}
}

func TestAddToSessionBadShapes(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.AddToSession(ctx, "not a slice", true, OpCreate); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("wrong item type must be ErrInvalidArgument, got: %v", err)
	}
	if _, err := svc.AddToSession(ctx, []PlayerCreate{}, true, Operation("upsert")); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("unknown operation must be ErrInvalidArgument, got: %v", err)
	}
}

func TestStageUpdates(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	a := mustCreate(t, svc, PlayerCreate{Name: "ann", Score: 1})
	b := mustCreate(t, svc, PlayerCreate{Name: "bob", Score: 2})

	_, err := svc.StageUpdates(ctx, []UpdatePair[Player, PlayerUpdate]{
		{Item: a, Data: PlayerUpdate{Score: Set[int64](100)}},
		{Item: b, Data: PlayerUpdate{Score: Set[int64](200)}},
	}, true)
	if err != nil {
		t.Fatalf("StageUpdates failed: %v", err)
	}

	rows, err := svc.All(ctx, OrderBy("id"))
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	if rows[0].Score != 100 || rows[1].Score != 200 {
		t.Errorf("batch update not persisted: %+v", rows)
	}
}

func TestCreateDuplicate(t *testing.T) {
	svc, sess := newTestService(t)
	ctx := context.Background()

	mustCreate(t, svc, PlayerCreate{Name: "ann"})

	_, err := svc.Create(ctx, PlayerCreate{Name: "ann"})
	if !errors.Is(err, ErrCommitFailed) {
		t.Fatalf("expected ErrCommitFailed, got: %v", err)
	}
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("expected the duplicate cause in the chain, got: %v", err)
	}
	if sess.Pending() != 0 {
		t.Errorf("failed commit must roll back staged work, pending %d", sess.Pending())
	}

	// The session stays usable after a failed commit.
	if _, err := svc.Create(ctx, PlayerCreate{Name: "bob"}); err != nil {
		t.Fatalf("create after a failed commit must work, got: %v", err)
	}
}

func TestCustomHooks(t *testing.T) {
	db := newTestDB(t)
	svc := New[Player, PlayerCreate, PlayerUpdate, int64](NewSession(db),
		WithPrepareForCreate[Player, PlayerCreate, PlayerUpdate](func(data PlayerCreate) (*Player, error) {
			return &Player{Name: "pfx-" + data.Name, Score: data.Score}, nil
		}),
	)
	ctx := context.Background()

	created, err := svc.Create(ctx, PlayerCreate{Name: "ann", Score: 2})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.Name != "pfx-ann" {
		t.Errorf("custom creation hook not applied: %+v", created)
	}
}

func TestRefreshDiscardsEdits(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created := mustCreate(t, svc, PlayerCreate{Name: "ann", Score: 5})

	created.Score = 999
	if err := svc.Refresh(ctx, created); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if created.Score != 5 {
		t.Errorf("Refresh must restore stored values, score is %d", created.Score)
	}
}

// Walks the lifecycle of a single record end to end.
func TestRecordLifecycle(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created := mustCreate(t, svc, PlayerCreate{Name: "ann"})

	updated, err := svc.Update(ctx, created.ID, PlayerUpdate{Name: Set("ann2")})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Name != "ann2" {
		t.Errorf("expected renamed row, got %+v", updated)
	}

	missing, err := svc.GetByKey(ctx, created.ID+1)
	if err != nil || missing != nil {
		t.Errorf("lookup of a never-created key: got %+v, err %v", missing, err)
	}

	if err := svc.DeleteByKey(ctx, created.ID); err != nil {
		t.Fatalf("DeleteByKey failed: %v", err)
	}
	gone, err := svc.GetByKey(ctx, created.ID)
	if err != nil || gone != nil {
		t.Errorf("deleted row must be gone: got %+v, err %v", gone, err)
	}
}
