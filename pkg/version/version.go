//-------------------------------------------------------------------------
//
// Trade Ingest
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package version provides build and version information for trade-ingest.
package version

import (
	"fmt"
	"runtime"
)

// Build information set at compile time via ldflags, e.g.
// -X github.com/livetrade/trade-ingest/pkg/version.Version=0.2.0
var (
	Version   = "0.1.0"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// Info returns formatted version information.
func Info() string {
	return fmt.Sprintf(
		"trade-ingest %s (commit: %s, built: %s, go: %s)",
		Version, Commit, BuildDate, runtime.Version(),
	)
}

// Short returns just the version string.
func Short() string {
	return Version
}
