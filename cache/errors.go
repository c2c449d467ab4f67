// errors.go: structured error types for cache operations.
//
// Error kinds follow the three named in the external interface:
// InvalidHandle, EmptyEntry, AmbiguousSupport. None is recovered
// internally; all three propagate unchanged to the caller.
package cache

import (
	goerrors "errors"

	"github.com/agilira/go-errors"
)

const (
	ErrCodeInvalidHandle    errors.ErrorCode = "CACHE_INVALID_HANDLE"
	ErrCodeEmptyEntry       errors.ErrorCode = "CACHE_EMPTY_ENTRY"
	ErrCodeAmbiguousSupport errors.ErrorCode = "CACHE_AMBIGUOUS_SUPPORT"
)

const (
	msgInvalidHandle    = "dereferenced a handle that references no entry"
	msgEmptyEntry       = "entry observed without a value"
	msgAmbiguousSupport = "more than one key supports the probe"
)

// NewErrInvalidHandle reports a dereference of a handle that references
// no entry: a default handle, an invalidated handle, or a miss from Get.
func NewErrInvalidHandle() error {
	return errors.NewWithContext(ErrCodeInvalidHandle, msgInvalidHandle, map[string]interface{}{"referenced": false})
}

// NewErrEmptyEntry reports an entry observed without a value. Unreachable
// through the public API; asserted defensively.
func NewErrEmptyEntry() error {
	return errors.NewWithContext(ErrCodeEmptyEntry, msgEmptyEntry, map[string]interface{}{"reachable": false})
}

// NewErrAmbiguousSupport reports that more than one live key accepted a
// GetSupporting probe, carrying the match count as structured context.
func NewErrAmbiguousSupport(matches int) error {
	return errors.NewWithContext(ErrCodeAmbiguousSupport, msgAmbiguousSupport, map[string]interface{}{"matches": matches})
}

// IsInvalidHandle reports whether err is an InvalidHandle error.
func IsInvalidHandle(err error) bool {
	return errors.HasCode(err, ErrCodeInvalidHandle)
}

// IsEmptyEntry reports whether err is an EmptyEntry error.
func IsEmptyEntry(err error) bool {
	return errors.HasCode(err, ErrCodeEmptyEntry)
}

// IsAmbiguousSupport reports whether err is an AmbiguousSupport error.
func IsAmbiguousSupport(err error) bool {
	return errors.HasCode(err, ErrCodeAmbiguousSupport)
}

// AmbiguousSupportMatches extracts the match count carried by an
// AmbiguousSupport error, if err is one.
func AmbiguousSupportMatches(err error) (int, bool) {
	if !IsAmbiguousSupport(err) {
		return 0, false
	}
	var e *errors.Error
	if !goerrors.As(err, &e) {
		return 0, false
	}
	n, ok := e.Context["matches"].(int)
	return n, ok
}
