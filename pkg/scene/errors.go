package scene

import "errors"

var (
	// ErrUnknownEntity is returned when an operation targets an entity whose
	// identity no longer resolves (destroyed, or its slot was reused).
	ErrUnknownEntity = errors.New("unknown entity")

	// ErrDanglingReference is returned when a stale identity is supplied as a
	// parent for create or reparent.
	ErrDanglingReference = errors.New("dangling entity reference")

	// ErrCycleDetected is returned by Reparent when the new parent is the
	// entity itself or one of its descendants.
	ErrCycleDetected = errors.New("reparent would create a cycle")

	// ErrCorruptSnapshot is returned by Restore and UnmarshalSnapshot when a
	// snapshot violates its structural invariants.
	ErrCorruptSnapshot = errors.New("corrupt snapshot")
)
