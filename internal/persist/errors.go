// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package persist

import (
	"github.com/samber/oops"
)

// Error codes for datastore failures.
const (
	CodeParseFailed    = "PARSE_FAILED"
	CodeMalformedEntry = "MALFORMED_ENTRY"
	CodeLoadFailed     = "LOAD_FAILED"
	CodeSaveFailed     = "SAVE_FAILED"
)

func errParseFailed(cause error) error {
	return oops.In("persist").Code(CodeParseFailed).Wrapf(cause, "flags document is not valid YAML")
}

func errMalformedEntry(scope, flag, reason string) error {
	return oops.In("persist").
		Code(CodeMalformedEntry).
		With("scope", scope).
		With("flag", flag).
		Errorf("malformed entry %s/%s: %s", scope, flag, reason)
}

func errLoadFailed(path string, cause error) error {
	return oops.In("persist").Code(CodeLoadFailed).With("path", path).Wrapf(cause, "read flags file")
}

func errSaveFailed(path, step string, cause error) error {
	return oops.In("persist").
		Code(CodeSaveFailed).
		With("path", path).
		With("step", step).
		Wrapf(cause, "save flags file")
}
