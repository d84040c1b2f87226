// Copyright (c) 2026 Recordkit Team
// Recordkit - generic record services on top of Bun
// This source code is licensed under the MIT license found in the LICENSE file.

package record

import (
	"context"
	"fmt"
	"reflect"

	"github.com/uptrace/bun"

	"github.com/maxisioux/recordkit/util/slicest"
)

// Operation selects the flow AddToSession runs items through.
type Operation string

const (
	// OpCreate prepares items with the creation hook and stages inserts.
	OpCreate Operation = "create"
	// OpUpdate applies update pairs to their items and stages updates.
	OpUpdate Operation = "update"
)

// UpdatePair couples an already-loaded model instance with the update
// data to apply to it, for batch update staging.
type UpdatePair[M, U any] struct {
	Item *M
	Data U
}

// Service is a generic CRUD service over one table model. Type
// parameters:
//   - M: the table model (a Bun model struct).
//   - C: the creation input; converted to M by the PrepareForCreate hook.
//   - U: the update input; reduced to explicitly-set changes by the
//     PrepareForUpdate hook.
//   - K: the primary-key type, typically int64 or string, or Key for
//     composite keys.
//
// A service owns its session exclusively. Do not reuse the session
// elsewhere and do not share one service across independent requests:
// uncommitted staged state would leak between callers.
type Service[M, C, U, K any] struct {
	sess  Session
	hooks Hooks[M, C, U]
}

// New builds a service on the given session.
func New[M, C, U, K any](sess Session, opts ...ServiceOption[M, C, U]) *Service[M, C, U, K] {
	hooks := Hooks[M, C, U]{
		PrepareForCreate: defaultPrepareForCreate[M, C],
		PrepareForUpdate: changesOf1[U],
	}
	for _, opt := range opts {
		opt(&hooks)
	}
	return &Service[M, C, U, K]{sess: sess, hooks: hooks}
}

// Session returns the session the service runs against.
func (s *Service[M, C, U, K]) Session() Session {
	return s.sess
}

// Select builds an unexecuted select statement over the service's model.
func (s *Service[M, C, U, K]) Select() *SelectStatement[M] {
	return &SelectStatement[M]{db: s.sess.DB(), tables: []reflect.Type{typeOf[M]()}}
}

// Exec executes a statement over the service's model. Joined statements
// carry a different row shape; run those through the package-level Exec.
func (s *Service[M, C, U, K]) Exec(ctx context.Context, st *SelectStatement[M]) ([]M, error) {
	return st.All(ctx)
}

// All returns every row matching the given options, in query order.
func (s *Service[M, C, U, K]) All(ctx context.Context, opts ...SelectOption) ([]M, error) {
	return s.Select().Apply(opts...).All(ctx)
}

// One returns the single row matching filter. Zero matches yield
// ErrNotFound, multiple matches ErrMultipleResults.
func (s *Service[M, C, U, K]) One(ctx context.Context, filter Cond) (*M, error) {
	return s.Select().Apply(filter).One(ctx)
}

// OneOrNone is like One but returns (nil, nil) when nothing matches.
func (s *Service[M, C, U, K]) OneOrNone(ctx context.Context, filter Cond) (*M, error) {
	return s.Select().Apply(filter).OneOrNone(ctx)
}

// GetByKey looks a row up by primary key. It returns (nil, nil) when no
// row matches; absence is not an error here.
func (s *Service[M, C, U, K]) GetByKey(ctx context.Context, key K) (*M, error) {
	item := new(M)
	found, err := s.sess.Get(ctx, item, any(key))
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return item, nil
}

// GetByKeys bulk-loads rows via an IN filter on the primary-key column.
// Keys without a matching row are silently omitted from the result; the
// order of the result is store-determined. The model must have a
// single-column primary key.
func (s *Service[M, C, U, K]) GetByKeys(ctx context.Context, keys []K) ([]M, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	table := s.sess.DB().Table(typeOf[M]())
	if len(table.PKs) != 1 {
		return nil, fmt.Errorf("%w: bulk key lookup needs a single-column primary key, model has %d", ErrInvalidArgument, len(table.PKs))
	}

	vals := make([]any, len(keys))
	for i, key := range keys {
		k, err := canonicalKey(any(key))
		if err != nil {
			return nil, err
		}
		if k.kind != keyAtomic {
			return nil, fmt.Errorf("%w: bulk key lookup takes atomic keys only", ErrInvalidArgument)
		}
		vals[i] = k.atom
	}

	return s.Select().Where("? IN (?)", bun.Ident(table.PKs[0].Name), bun.In(vals)).All(ctx)
}

// Create converts data through the creation hook, stages it, commits,
// and refreshes the instance so server-generated fields (auto keys,
// defaults) are populated.
func (s *Service[M, C, U, K]) Create(ctx context.Context, data C) (*M, error) {
	item, err := s.hooks.PrepareForCreate(data)
	if err != nil {
		return nil, err
	}
	s.sess.Add(item)
	if err := s.commit(ctx, "create"); err != nil {
		return nil, err
	}
	if err := s.sess.Refresh(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// CreateMultiple converts every input, stages them all, and commits
// once. Unlike Create it does not refresh the created instances:
// refreshing N items needs N extra round-trips, which defeats the point
// of a bulk insert. Auto-increment keys are still populated by the
// driver.
func (s *Service[M, C, U, K]) CreateMultiple(ctx context.Context, datalist []C) ([]*M, error) {
	items, err := slicest.MapX(datalist, s.hooks.PrepareForCreate)
	if err != nil {
		return nil, err
	}
	s.sess.Add(anySlice(items)...)
	if err := s.commit(ctx, "create multiple"); err != nil {
		return nil, err
	}
	return items, nil
}

// AddToSession stages all items using the same flow as Create or Update,
// per op: OpCreate takes []C, OpUpdate takes []UpdatePair[M, U]. With
// commit true the transaction is committed even for an empty item list,
// so call sites can chain batches without conditional commit logic.
// Staged items are never refreshed here, regardless of commit.
func (s *Service[M, C, U, K]) AddToSession(ctx context.Context, items any, commit bool, op Operation) ([]*M, error) {
	var staged []*M

	switch op {
	case OpCreate:
		datalist, ok := items.([]C)
		if !ok {
			return nil, fmt.Errorf("%w: operation %q takes %T, got %T", ErrInvalidArgument, op, datalist, items)
		}
		prepared, err := slicest.MapX(datalist, s.hooks.PrepareForCreate)
		if err != nil {
			return nil, err
		}
		s.sess.Add(anySlice(prepared)...)
		staged = prepared
	case OpUpdate:
		pairs, ok := items.([]UpdatePair[M, U])
		if !ok {
			return nil, fmt.Errorf("%w: operation %q takes %T, got %T", ErrInvalidArgument, op, pairs, items)
		}
		prepared, err := slicest.MapX(pairs, func(p UpdatePair[M, U]) (*M, error) {
			return s.ApplyChanges(p.Item, p.Data)
		})
		if err != nil {
			return nil, err
		}
		s.sess.AddUpdate(anySlice(prepared)...)
		staged = prepared
	default:
		return nil, fmt.Errorf("%w: unsupported operation %q", ErrInvalidArgument, op)
	}

	if commit {
		if err := s.commit(ctx, "batch "+string(op)); err != nil {
			return nil, err
		}
	}
	return staged, nil
}

// StageCreates is the typed convenience form of AddToSession(OpCreate).
func (s *Service[M, C, U, K]) StageCreates(ctx context.Context, items []C, commit bool) ([]*M, error) {
	return s.AddToSession(ctx, items, commit, OpCreate)
}

// StageUpdates is the typed convenience form of AddToSession(OpUpdate).
func (s *Service[M, C, U, K]) StageUpdates(ctx context.Context, pairs []UpdatePair[M, U], commit bool) ([]*M, error) {
	return s.AddToSession(ctx, pairs, commit, OpUpdate)
}

// Update resolves key to a live instance, applies the update data, and
// commits. The updated, refreshed instance is returned.
func (s *Service[M, C, U, K]) Update(ctx context.Context, key K, data U) (*M, error) {
	item, err := s.GetByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("%w: key %s", ErrNotFound, formatKeyOrFallback(any(key)))
	}
	return s.UpdateItem(ctx, item, data)
}

// UpdateItem is Update without the key resolution: the caller supplies
// an instance that is already loaded.
func (s *Service[M, C, U, K]) UpdateItem(ctx context.Context, item *M, data U) (*M, error) {
	if _, err := s.ApplyChanges(item, data); err != nil {
		return nil, err
	}
	s.sess.AddUpdate(item)
	if err := s.commit(ctx, "update"); err != nil {
		return nil, err
	}
	if err := s.sess.Refresh(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// ApplyChanges runs the update hook and assigns the resulting changes
// onto item in place, without staging or committing anything. The same
// pointer is returned.
func (s *Service[M, C, U, K]) ApplyChanges(item *M, data U) (*M, error) {
	changes, err := s.hooks.PrepareForUpdate(data)
	if err != nil {
		return nil, err
	}
	if err := applyChanges(item, changes); err != nil {
		return nil, err
	}
	return item, nil
}

// DeleteByKey deletes the row with the given primary key. A missing row
// is ErrNotFound; nothing is staged or committed in that case.
func (s *Service[M, C, U, K]) DeleteByKey(ctx context.Context, key K) error {
	item, err := s.GetByKey(ctx, key)
	if err != nil {
		return err
	}
	if item == nil {
		return fmt.Errorf("%w: key %s", ErrNotFound, formatKeyOrFallback(any(key)))
	}
	s.sess.Delete(item)
	return s.commit(ctx, "delete")
}

// Refresh reloads item's fields from the store, discarding uncommitted
// in-memory edits to it.
func (s *Service[M, C, U, K]) Refresh(ctx context.Context, item *M) error {
	return s.sess.Refresh(ctx, item)
}

// commit commits the session, rolling it back on failure so it stays
// usable, and wraps the cause in ErrCommitFailed.
func (s *Service[M, C, U, K]) commit(ctx context.Context, op string) error {
	if err := s.sess.Commit(ctx); err != nil {
		s.sess.Rollback()
		return fmt.Errorf("%w: %s: %w", ErrCommitFailed, op, err)
	}
	return nil
}

// applyChanges assigns extracted changes onto a model instance by column
// name.
func applyChanges[M any](item *M, changes []Change) error {
	if len(changes) == 0 {
		return nil
	}

	cols := modelColumns(typeOf[M]())
	byName := slicest.ToMap(cols, func(c modelColumn) (string, []int) {
		return c.name, c.index
	})

	v := reflect.ValueOf(item).Elem()
	for _, ch := range changes {
		index, ok := byName[ch.Column]
		if !ok {
			return fmt.Errorf("%w: model %s has no column %q", ErrInvalidArgument, v.Type(), ch.Column)
		}
		target := v.FieldByIndex(index)
		var value reflect.Value
		if ch.Value != nil {
			value = reflect.ValueOf(ch.Value)
		}
		if err := assignValue(target, value); err != nil {
			return fmt.Errorf("%w: column %q: %v", ErrInvalidArgument, ch.Column, err)
		}
	}
	return nil
}

// changesOf1 adapts changesOf to the hook signature.
func changesOf1[U any](data U) ([]Change, error) {
	return changesOf(data)
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

func anySlice[T any](items []*T) []any {
	return slicest.Map(items, func(it *T) any { return it })
}

// Join1 through Join6 build joined select statements pairing the
// service's model with up to six more model types. All tables land in
// the FROM clause; supply the join conditions through Where. Result rows
// are tuples with the service model first.
func Join1[J1 any, M, C, U, K any](s *Service[M, C, U, K]) *SelectStatement[Tuple2[M, J1]] {
	return &SelectStatement[Tuple2[M, J1]]{db: s.sess.DB(), tables: tableTypes[M](typeOf[J1]())}
}

func Join2[J1, J2 any, M, C, U, K any](s *Service[M, C, U, K]) *SelectStatement[Tuple3[M, J1, J2]] {
	return &SelectStatement[Tuple3[M, J1, J2]]{db: s.sess.DB(), tables: tableTypes[M](typeOf[J1](), typeOf[J2]())}
}

func Join3[J1, J2, J3 any, M, C, U, K any](s *Service[M, C, U, K]) *SelectStatement[Tuple4[M, J1, J2, J3]] {
	return &SelectStatement[Tuple4[M, J1, J2, J3]]{db: s.sess.DB(), tables: tableTypes[M](typeOf[J1](), typeOf[J2](), typeOf[J3]())}
}

func Join4[J1, J2, J3, J4 any, M, C, U, K any](s *Service[M, C, U, K]) *SelectStatement[Tuple5[M, J1, J2, J3, J4]] {
	return &SelectStatement[Tuple5[M, J1, J2, J3, J4]]{db: s.sess.DB(), tables: tableTypes[M](typeOf[J1](), typeOf[J2](), typeOf[J3](), typeOf[J4]())}
}

func Join5[J1, J2, J3, J4, J5 any, M, C, U, K any](s *Service[M, C, U, K]) *SelectStatement[Tuple6[M, J1, J2, J3, J4, J5]] {
	return &SelectStatement[Tuple6[M, J1, J2, J3, J4, J5]]{db: s.sess.DB(), tables: tableTypes[M](typeOf[J1](), typeOf[J2](), typeOf[J3](), typeOf[J4](), typeOf[J5]())}
}

func Join6[J1, J2, J3, J4, J5, J6 any, M, C, U, K any](s *Service[M, C, U, K]) *SelectStatement[Tuple7[M, J1, J2, J3, J4, J5, J6]] {
	return &SelectStatement[Tuple7[M, J1, J2, J3, J4, J5, J6]]{db: s.sess.DB(), tables: tableTypes[M](typeOf[J1](), typeOf[J2](), typeOf[J3](), typeOf[J4](), typeOf[J5](), typeOf[J6]())}
}

func tableTypes[M any](joined ...reflect.Type) []reflect.Type {
	return append([]reflect.Type{typeOf[M]()}, joined...)
}
