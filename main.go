// Copyright (c) 2026 Recordkit Team
// Recordkit - generic record services on top of Bun
// This source code is licensed under the MIT license found in the LICENSE file.

// Command-line entrypoint for the recordkit utilities.
//
// Usage:
//
//	go run . [command]
//	./recordkit [command]
//
// See --help for the available commands.
package main

import (
	"os"

	"github.com/maxisioux/recordkit/internal/logging"
	"github.com/maxisioux/recordkit/ui/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		logging.Errorf("recordkit error: %v", err)
		os.Exit(1)
	}
}
