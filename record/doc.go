// Copyright (c) 2026 Recordkit Team
// Recordkit - generic record services on top of Bun
// This source code is licensed under the MIT license found in the LICENSE file.

// Package record implements a generic CRUD service over Bun table models.
//
// A Service is parameterized by four cooperating types: the table model,
// the creation input, the update input, and the primary key. It wraps a
// Session (a small unit-of-work over a *bun.DB) and offers typed reads,
// writes, batch staging, and statement building. A service owns its
// session exclusively for its whole lifetime; do not share a session
// across services, goroutines, or independent logical requests.
package record // import "github.com/maxisioux/recordkit/record"
