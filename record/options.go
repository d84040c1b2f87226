// Copyright (c) 2026 Recordkit Team
// Recordkit - generic record services on top of Bun
// This source code is licensed under the MIT license found in the LICENSE file.

package record

// queryState accumulates the portable parts of a select: filters,
// orderings, and pagination. It is deliberately independent of the row
// shape so the same options apply to scalar and joined statements.
type queryState struct {
	conds  []Cond
	orders []orderExpr
	limit  *int
	offset *int
}

// SelectOption narrows, orders, or paginates a select.
type SelectOption interface {
	apply(*queryState)
}

// Cond is a boolean filter expression with placeholder args, in Bun's
// expression syntax (e.g. Where("name = ?", name)). Cond values are
// SelectOptions, so they can be passed to All directly.
type Cond struct {
	expr string
	args []any
}

// Where builds a filter condition. Multiple conditions are combined
// with AND.
func Where(expr string, args ...any) Cond {
	return Cond{expr: expr, args: args}
}

func (c Cond) apply(st *queryState) {
	st.conds = append(st.conds, c)
}

type orderExpr struct {
	expr string
	args []any
}

type orderOption orderExpr

// OrderBy adds an ordering expression (e.g. OrderBy("name ASC")). It may
// be given multiple times; orderings apply in the order given.
func OrderBy(expr string, args ...any) SelectOption {
	return orderOption{expr: expr, args: args}
}

func (o orderOption) apply(st *queryState) {
	st.orders = append(st.orders, orderExpr(o))
}

type limitOption int

// Limit caps the number of rows returned.
func Limit(n int) SelectOption {
	return limitOption(n)
}

func (l limitOption) apply(st *queryState) {
	n := int(l)
	st.limit = &n
}

type offsetOption int

// Offset skips the first n rows.
func Offset(n int) SelectOption {
	return offsetOption(n)
}

func (o offsetOption) apply(st *queryState) {
	n := int(o)
	st.offset = &n
}
