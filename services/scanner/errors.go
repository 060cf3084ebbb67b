// Copyright (C) 2025 Simscan Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package scanner

import "errors"

// Sentinel errors for the scanner service.
var (
	// ErrNoResult indicates no analysis has completed yet.
	ErrNoResult = errors.New("no analysis result available")

	// ErrAnalysisInProgress indicates another analysis is already running.
	ErrAnalysisInProgress = errors.New("analysis already in progress")

	// ErrUnknownMod indicates the named mod is not in the last result.
	ErrUnknownMod = errors.New("unknown mod")
)
