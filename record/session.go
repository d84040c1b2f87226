// Copyright (c) 2026 Recordkit Team
// Recordkit - generic record services on top of Bun
// This source code is licensed under the MIT license found in the LICENSE file.

package record

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"

	"github.com/uptrace/bun"
)

// Session is the unit-of-work collaborator a Service runs against. Items
// are staged with Add/AddUpdate/Delete and flushed in staging order by
// Commit, inside a single transaction. A session is single-owner and not
// safe for concurrent use.
type Session interface {
	// DB exposes the underlying Bun handle for statement building.
	DB() *bun.DB
	// Add stages one or more items for insertion.
	Add(items ...any)
	// AddUpdate stages one or more items for a primary-key update.
	AddUpdate(items ...any)
	// Delete stages one or more items for deletion by primary key.
	Delete(items ...any)
	// Commit flushes all staged operations in one transaction and clears
	// the staging list on success. Staged operations are kept on failure
	// so the caller decides between retry and Rollback.
	Commit(ctx context.Context) error
	// Rollback discards all staged operations, returning the session to
	// a clean, usable state.
	Rollback()
	// Refresh reloads an item's fields from the store by primary key,
	// discarding any uncommitted in-memory edits to it.
	Refresh(ctx context.Context, item any) error
	// Get looks an item up by primary key, scanning into item. It
	// reports false (and no error) when no row matches.
	Get(ctx context.Context, item any, key any) (bool, error)
	// Pending returns the number of staged operations.
	Pending() int
}

type opKind int

const (
	opInsert opKind = iota
	opUpdate
	opDelete
)

type stagedOp struct {
	kind opKind
	item any
}

// BunSession is the Bun-backed Session implementation.
type BunSession struct {
	db      *bun.DB
	pending []stagedOp
}

// NewSession wraps a *bun.DB in a session. The caller hands over
// ownership: the db handle may be shared (it pools connections), but the
// session itself must not be.
func NewSession(db *bun.DB) *BunSession {
	return &BunSession{db: db}
}

// DB returns the underlying Bun handle.
func (s *BunSession) DB() *bun.DB {
	return s.db
}

// Add stages items for insertion.
func (s *BunSession) Add(items ...any) {
	for _, it := range items {
		s.pending = append(s.pending, stagedOp{kind: opInsert, item: it})
	}
}

// AddUpdate stages items for a primary-key update.
func (s *BunSession) AddUpdate(items ...any) {
	for _, it := range items {
		s.pending = append(s.pending, stagedOp{kind: opUpdate, item: it})
	}
}

// Delete stages items for deletion by primary key.
func (s *BunSession) Delete(items ...any) {
	for _, it := range items {
		s.pending = append(s.pending, stagedOp{kind: opDelete, item: it})
	}
}

// Pending returns the number of staged operations.
func (s *BunSession) Pending() int {
	return len(s.pending)
}

// Commit runs all staged operations in staging order inside one
// transaction. Driver errors are passed through MapDriverError so unique
// violations surface as ErrDuplicate.
func (s *BunSession) Commit(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return MapDriverError(err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, op := range s.pending {
		switch op.kind {
		case opInsert:
			_, err = tx.NewInsert().Model(op.item).Exec(ctx)
		case opUpdate:
			_, err = tx.NewUpdate().Model(op.item).WherePK().Exec(ctx)
		case opDelete:
			_, err = tx.NewDelete().Model(op.item).WherePK().Exec(ctx)
		}
		if err != nil {
			return MapDriverError(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return MapDriverError(err)
	}
	s.pending = nil
	return nil
}

// Rollback discards all staged operations. The failed transaction, if
// any, was already rolled back by Commit's deferred rollback, so no
// database round-trip is issued here.
func (s *BunSession) Rollback() {
	s.pending = nil
}

// Refresh reloads item from the store by its primary key.
func (s *BunSession) Refresh(ctx context.Context, item any) error {
	err := s.db.NewSelect().Model(item).WherePK().Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: refresh target no longer exists", ErrNotFound)
	}
	return err
}

// Get scans the row addressed by key into item. Atomic keys require a
// single-column primary key; Tuple keys map positionally onto the
// primary-key columns; Named keys map by column name.
func (s *BunSession) Get(ctx context.Context, item any, key any) (bool, error) {
	k, err := canonicalKey(key)
	if err != nil {
		return false, err
	}

	typ := reflect.TypeOf(item)
	if typ == nil || typ.Kind() != reflect.Pointer || typ.Elem().Kind() != reflect.Struct {
		return false, fmt.Errorf("%w: Get target must be a struct pointer, got %T", ErrInvalidArgument, item)
	}
	table := s.db.Table(typ.Elem())

	q := s.db.NewSelect().Model(item)
	switch k.kind {
	case keyAtomic:
		if len(table.PKs) != 1 {
			return false, fmt.Errorf("%w: atomic key used with %d-column primary key", ErrInvalidArgument, len(table.PKs))
		}
		q = q.Where("? = ?", bun.Ident(table.PKs[0].Name), k.atom)
	case keyTuple:
		if len(k.tuple) != len(table.PKs) {
			return false, fmt.Errorf("%w: key has %d values, primary key has %d columns", ErrInvalidArgument, len(k.tuple), len(table.PKs))
		}
		for i, pk := range table.PKs {
			q = q.Where("? = ?", bun.Ident(pk.Name), k.tuple[i])
		}
	case keyNamed:
		// Every primary-key column must be named exactly once; anything
		// less would address more than one row.
		if len(k.named) != len(table.PKs) {
			return false, fmt.Errorf("%w: key names %d columns, primary key has %d", ErrInvalidArgument, len(k.named), len(table.PKs))
		}
		seen := make(map[string]bool, len(k.named))
		for _, f := range k.named {
			fld, ok := table.FieldMap[f.Name]
			if !ok || !fld.IsPK {
				return false, fmt.Errorf("%w: %q is not a primary key column", ErrInvalidArgument, f.Name)
			}
			if seen[fld.Name] {
				return false, fmt.Errorf("%w: key column %q named twice", ErrInvalidArgument, f.Name)
			}
			seen[fld.Name] = true
			q = q.Where("? = ?", bun.Ident(fld.Name), f.Value)
		}
	}

	if err := q.Limit(1).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
