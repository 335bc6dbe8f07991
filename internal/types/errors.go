package types

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a requested work item id is absent,
// either locally or on the remote.
var ErrNotFound = errors.New("work item not found")

// ValidationKind classifies a rejected write.
type ValidationKind string

const (
	// ValidationUnsupportedField: the active remote cannot represent the field.
	ValidationUnsupportedField ValidationKind = "unsupported_field"

	// ValidationSelfReference: an item referencing itself as parent or dependency.
	ValidationSelfReference ValidationKind = "self_reference"

	// ValidationDanglingReference: a parent or dependency id that does not exist.
	ValidationDanglingReference ValidationKind = "dangling_reference"

	// ValidationCycleDetected: the write would create a cycle in the
	// parent chain or the dependency graph.
	ValidationCycleDetected ValidationKind = "cycle_detected"
)

// ValidationError rejects a mutation before persistence. It propagates
// synchronously to the caller and is never queued.
type ValidationError struct {
	Kind ValidationKind
	// Field names the offending field for unsupported-field errors.
	Field string
	// ID is the item being written; Ref the id it references, if any.
	ID  string
	Ref string
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case ValidationUnsupportedField:
		return fmt.Sprintf("field %q is not supported by the active backend", e.Field)
	case ValidationSelfReference:
		return fmt.Sprintf("item %s cannot reference itself", e.ID)
	case ValidationDanglingReference:
		return fmt.Sprintf("item %s references %s, which does not exist", e.ID, e.Ref)
	case ValidationCycleDetected:
		return fmt.Sprintf("linking %s to %s would create a cycle", e.ID, e.Ref)
	}
	return string(e.Kind)
}

// IsValidation reports whether err is a ValidationError of the given kind.
func IsValidation(err error, kind ValidationKind) bool {
	var ve *ValidationError
	return errors.As(err, &ve) && ve.Kind == kind
}

// AdapterError wraps a failed remote call (network, auth, rate limit).
// These are captured per queue entry during sync and are non-fatal to
// the pass.
type AdapterError struct {
	Op  string
	Err error
}

func (e *AdapterError) Error() string {
	return fmt.Sprintf("remote %s failed: %v", e.Op, e.Err)
}

func (e *AdapterError) Unwrap() error { return e.Err }
