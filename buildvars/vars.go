// Copyright (c) 2026 Recordkit Team
// Recordkit - generic record services on top of Bun
// This source code is licensed under the MIT license found in the LICENSE file.

// Package buildvars contains variables injected at build time.
package buildvars

// Version is set at link time via
// `-ldflags -X github.com/maxisioux/recordkit/buildvars.Version=...`.
// It will be empty for local or development builds.
var Version string

// Commit is the short git commit SHA, set at link time.
var Commit string

// Date is the RFC3339 build timestamp, set at link time.
var Date string

// VersionOrDefault returns Version if set, otherwise the provided default.
func VersionOrDefault(def string) string {
	if len(Version) > 0 {
		return Version
	}
	return def
}
