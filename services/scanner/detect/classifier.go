// Copyright (C) 2025 Simscan Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package detect

import "github.com/simscan/simscan/services/scanner/model"

// Classify maps a conflict kind, the number of affected artifacts, and the
// core flag to a severity level.
//
// Description:
//
//	Pure decision table, total over all inputs. The rules apply in
//	priority order:
//
//	  1. isCore always wins: CRITICAL regardless of kind or count.
//	  2. SCRIPT_INJECTION: 3+ CRITICAL, 2 HIGH, else MEDIUM.
//	  3. TUNING_OVERLAP: 3+ HIGH, 2 MEDIUM, else LOW.
//	  4. RESOURCE_DUPLICATE: 3+ MEDIUM, else LOW.
//	  5. DEPENDENCY_MISSING: HIGH.
//	  6. VERSION_CONFLICT: MEDIUM.
//	  7. NAMESPACE_COLLISION: 2+ HIGH, else MEDIUM.
//	  8. Anything else: MEDIUM.
//
//	For a fixed kind and core flag, severity never decreases as the
//	affected count grows.
//
// Thread Safety: Safe for concurrent use; no state.
func Classify(kind model.ConflictKind, affectedCount int, isCore bool) model.Severity {
	if isCore {
		return model.SeverityCritical
	}

	switch kind {
	case model.KindScriptInjection:
		switch {
		case affectedCount >= 3:
			return model.SeverityCritical
		case affectedCount == 2:
			return model.SeverityHigh
		default:
			return model.SeverityMedium
		}

	case model.KindTuningOverlap:
		switch {
		case affectedCount >= 3:
			return model.SeverityHigh
		case affectedCount == 2:
			return model.SeverityMedium
		default:
			return model.SeverityLow
		}

	case model.KindResourceDuplicate:
		if affectedCount >= 3 {
			return model.SeverityMedium
		}
		return model.SeverityLow

	case model.KindDependencyMissing:
		return model.SeverityHigh

	case model.KindVersionConflict:
		return model.SeverityMedium

	case model.KindNamespaceCollision:
		if affectedCount >= 2 {
			return model.SeverityHigh
		}
		return model.SeverityMedium
	}

	return model.SeverityMedium
}
