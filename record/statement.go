// Copyright (c) 2026 Recordkit Team
// Recordkit - generic record services on top of Bun
// This source code is licensed under the MIT license found in the LICENSE file.

package record

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/uptrace/bun"
)

// Tuple2 through Tuple7 are the row shapes produced by joined selects:
// V1 is always the service's own model, V2..Vn the joined models in the
// order they were given to JoinN.
type Tuple2[T1, T2 any] struct {
	V1 T1
	V2 T2
}

type Tuple3[T1, T2, T3 any] struct {
	V1 T1
	V2 T2
	V3 T3
}

type Tuple4[T1, T2, T3, T4 any] struct {
	V1 T1
	V2 T2
	V3 T3
	V4 T4
}

type Tuple5[T1, T2, T3, T4, T5 any] struct {
	V1 T1
	V2 T2
	V3 T3
	V4 T4
	V5 T5
}

type Tuple6[T1, T2, T3, T4, T5, T6 any] struct {
	V1 T1
	V2 T2
	V3 T3
	V4 T4
	V5 T5
	V6 T6
}

type Tuple7[T1, T2, T3, T4, T5, T6, T7 any] struct {
	V1 T1
	V2 T2
	V3 T3
	V4 T4
	V5 T5
	V6 T6
	V7 T7
}

// SelectStatement is a select over one or more model types, built but not
// executed. For a single table R is the model itself; for joined selects
// R is a TupleN pairing the base model with the joined ones. Joined
// selects list all tables in the FROM clause, so the caller must supply
// the join conditions through Where, exactly like filters.
type SelectStatement[R any] struct {
	db     *bun.DB
	tables []reflect.Type
	state  queryState
}

// Where narrows the statement. Conditions combine with AND.
func (st *SelectStatement[R]) Where(expr string, args ...any) *SelectStatement[R] {
	st.state.conds = append(st.state.conds, Cond{expr: expr, args: args})
	return st
}

// OrderBy appends an ordering expression.
func (st *SelectStatement[R]) OrderBy(expr string, args ...any) *SelectStatement[R] {
	st.state.orders = append(st.state.orders, orderExpr{expr: expr, args: args})
	return st
}

// Limit caps the number of rows returned.
func (st *SelectStatement[R]) Limit(n int) *SelectStatement[R] {
	st.state.limit = &n
	return st
}

// Offset skips the first n rows.
func (st *SelectStatement[R]) Offset(n int) *SelectStatement[R] {
	st.state.offset = &n
	return st
}

// Apply applies select options built elsewhere (Where, OrderBy, Limit,
// Offset values).
func (st *SelectStatement[R]) Apply(opts ...SelectOption) *SelectStatement[R] {
	for _, opt := range opts {
		opt.apply(&st.state)
	}
	return st
}

// All executes the statement and returns every matching row in query
// order.
func (st *SelectStatement[R]) All(ctx context.Context) ([]R, error) {
	return st.run(ctx, st.state)
}

// One executes the statement expecting exactly one row. Zero rows yield
// ErrNotFound, more than one ErrMultipleResults.
func (st *SelectStatement[R]) One(ctx context.Context) (*R, error) {
	rows, err := st.limited(ctx, 2)
	if err != nil {
		return nil, err
	}
	switch len(rows) {
	case 0:
		return nil, fmt.Errorf("%w: no rows matched %s", ErrNotFound, st.describe())
	case 1:
		return &rows[0], nil
	}
	return nil, fmt.Errorf("%w: %s", ErrMultipleResults, st.describe())
}

// OneOrNone is like One but returns (nil, nil) for zero rows.
func (st *SelectStatement[R]) OneOrNone(ctx context.Context) (*R, error) {
	rows, err := st.limited(ctx, 2)
	if err != nil {
		return nil, err
	}
	switch len(rows) {
	case 0:
		return nil, nil
	case 1:
		return &rows[0], nil
	}
	return nil, fmt.Errorf("%w: %s", ErrMultipleResults, st.describe())
}

// limited runs the statement with the limit overridden; the caller's own
// limit/offset are ignored because single-row lookups are not paginated.
func (st *SelectStatement[R]) limited(ctx context.Context, n int) ([]R, error) {
	state := st.state
	state.limit = &n
	state.offset = nil
	return st.run(ctx, state)
}

func (st *SelectStatement[R]) run(ctx context.Context, state queryState) ([]R, error) {
	if len(st.tables) == 1 {
		return st.runScalar(ctx, state)
	}
	return st.runJoined(ctx, state)
}

// runScalar lets Bun generate and scan the whole query: the row type is
// the model itself.
func (st *SelectStatement[R]) runScalar(ctx context.Context, state queryState) ([]R, error) {
	var rows []R
	q := st.db.NewSelect().Model(&rows)
	q = applyState(q, state)
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return rows, nil
}

// runJoined builds an explicit column list over all joined tables so each
// result column lands in the right tuple slot regardless of duplicated
// column names, then scans rows positionally into the tuple fields.
func (st *SelectStatement[R]) runJoined(ctx context.Context, state queryState) ([]R, error) {
	q := st.db.NewSelect()

	type slot struct {
		table int
		index []int
	}
	var slots []slot
	for ti, typ := range st.tables {
		tbl := st.db.Table(typ)
		q = q.TableExpr("?", bun.Ident(tbl.Name))
		for _, col := range modelColumns(typ) {
			q = q.ColumnExpr("?.?", bun.Ident(tbl.Name), bun.Ident(col.name))
			slots = append(slots, slot{table: ti, index: col.index})
		}
	}
	q = applyState(q, state)

	rows, err := q.Rows(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	tupleType := reflect.TypeOf((*R)(nil)).Elem()
	if tupleType.Kind() != reflect.Struct || tupleType.NumField() != len(st.tables) {
		return nil, fmt.Errorf("%w: row shape %s does not match %d selected tables", ErrInvalidArgument, tupleType, len(st.tables))
	}

	var out []R
	for rows.Next() {
		tuple := reflect.New(tupleType).Elem()
		dests := make([]any, len(slots))
		for i, sl := range slots {
			dests[i] = tuple.Field(sl.table).FieldByIndex(sl.index).Addr().Interface()
		}
		if err := rows.Scan(dests...); err != nil {
			return nil, err
		}
		out = append(out, tuple.Interface().(R))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// describe renders the statement's filters for error messages.
func (st *SelectStatement[R]) describe() string {
	if len(st.state.conds) == 0 {
		return "unfiltered select"
	}
	exprs := make([]string, len(st.state.conds))
	for i, c := range st.state.conds {
		exprs[i] = c.expr
	}
	return "filter [" + strings.Join(exprs, " AND ") + "]"
}

func applyState(q *bun.SelectQuery, state queryState) *bun.SelectQuery {
	for _, c := range state.conds {
		q = q.Where(c.expr, c.args...)
	}
	for _, o := range state.orders {
		q = q.OrderExpr(o.expr, o.args...)
	}
	if state.limit != nil {
		q = q.Limit(*state.limit)
	}
	if state.offset != nil {
		q = q.Offset(*state.offset)
	}
	return q
}

type modelColumn struct {
	name  string
	index []int
}

// modelColumns lists the scannable columns of a model struct in field
// order, applying the same bun-tag and underscore naming rules Bun uses.
func modelColumns(typ reflect.Type) []modelColumn {
	var cols []modelColumn
	baseModel := reflect.TypeOf(bun.BaseModel{})
	for i := 0; i < typ.NumField(); i++ {
		sf := typ.Field(i)
		if sf.Type == baseModel {
			continue
		}
		if !sf.IsExported() {
			continue
		}
		if tag, ok := sf.Tag.Lookup("bun"); ok && strings.Split(tag, ",")[0] == "-" {
			continue
		}
		cols = append(cols, modelColumn{name: columnName(sf), index: sf.Index})
	}
	return cols
}

// Exec executes a prepared statement. It is a thin delegation to the
// statement itself and exists so joined statements can be run through the
// same entry point services use for scalar ones.
func Exec[R any](ctx context.Context, st *SelectStatement[R]) ([]R, error) {
	return st.All(ctx)
}
