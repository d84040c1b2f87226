// Copyright (c) 2026 Recordkit Team
// Recordkit - generic record services on top of Bun
// This source code is licensed under the MIT license found in the LICENSE file.

package record

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors returned by Service and Session operations. All of them
// are wrapped with operation context before being returned, so check with
// errors.Is rather than equality.
var (
	// ErrNotFound is returned when a key- or filter-addressed single-row
	// lookup matches zero rows.
	ErrNotFound = errors.New("record not found")

	// ErrMultipleResults is returned when a single-row lookup (One,
	// OneOrNone) matches more than one row. It signals a non-unique
	// filter and is never worth retrying.
	ErrMultipleResults = errors.New("multiple records matched")

	// ErrCommitFailed is returned when committing staged changes fails.
	// The underlying driver error is wrapped; the session has already
	// been rolled back and remains usable.
	ErrCommitFailed = errors.New("commit failed")

	// ErrInvalidArgument is returned for unrecognized primary-key shapes,
	// unknown batch operations, and malformed inputs.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrDuplicate is returned (inside an ErrCommitFailed chain) when a
	// commit fails because of a unique-constraint violation.
	ErrDuplicate = errors.New("duplicate record")
)

// MapDriverError inspects low-level driver errors and maps common
// constraint violations to package-level sentinel errors (like
// ErrDuplicate). This is a conservative, string-based mapping to avoid
// importing SQL driver packages into this package.
func MapDriverError(err error) error {
	if err == nil {
		return nil
	}
	le := strings.ToLower(err.Error())
	// MySQL duplicate entry, Postgres unique violation (23505), SQLite unique constraint
	if strings.Contains(le, "duplicate") || strings.Contains(le, "unique") || strings.Contains(le, "23505") || strings.Contains(le, "1062") {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}
