// Copyright (c) 2026 Recordkit Team
// Recordkit - generic record services on top of Bun
// This source code is licensed under the MIT license found in the LICENSE file.

// Package logging is the module's thin logging layer over the standard
// library logger. Debug output is off by default and toggled by the CLI
// --verbose flag or by embedding applications.
package logging

import "log"

var debugEnabled bool

// SetDebug enables or disables debug logging.
func SetDebug(enabled bool) {
	debugEnabled = enabled
}

// Debugf logs a formatted debug message when debug is enabled.
// Debugf is a no-op when debug is disabled.
func Debugf(format string, v ...any) {
	if debugEnabled {
		log.Printf(format, v...)
	}
}

// Infof logs an informational formatted message.
func Infof(format string, v ...any) {
	log.Printf(format, v...)
}

// Warnf logs a warning formatted message.
func Warnf(format string, v ...any) {
	log.Printf(format, v...)
}

// Errorf logs an error formatted message.
func Errorf(format string, v ...any) {
	log.Printf(format, v...)
}
