// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package persist

import (
	"strings"
)

// reserialize rewrites parameters stored in the legacy layout: section-sign
// colour codes become ampersand codes and whitespace is collapsed.
func reserialize(params string) string {
	params = strings.ReplaceAll(params, "§", "&")
	return strings.Join(strings.Fields(params), " ")
}
