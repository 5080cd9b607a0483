package domain

import "fmt"

// ValidationError reports a missing or malformed required field on create
// or update.
type ValidationError struct {
	Entity EntityType
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s field %q invalid: %s", e.Entity, e.Field, e.Reason)
	}
	return fmt.Sprintf("%s field %q is required", e.Entity, e.Field)
}

// NotFoundError reports an absent id on update or delete. Mutations
// against missing records surface the miss instead of no-oping.
type NotFoundError struct {
	Entity EntityType
	ID     string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
}

// ReferentialError reports a monitoring point created or updated against a
// project id that names no live project.
type ReferentialError struct {
	Entity    EntityType
	ID        string
	RefEntity EntityType
	RefID     string
}

func (e ReferentialError) Error() string {
	return fmt.Sprintf("%s %q references missing %s %q", e.Entity, e.ID, e.RefEntity, e.RefID)
}

// StorageError reports a durable read or write failure. The in-memory
// state is rolled back to the pre-transaction snapshot before it is
// returned, so memory and disk stay convergent.
type StorageError struct {
	Op  string
	Err error
}

func (e StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e StorageError) Unwrap() error { return e.Err }

// ImportFormatError reports an export bundle missing one of the four
// required collection sections.
type ImportFormatError struct {
	Missing []string
}

func (e ImportFormatError) Error() string {
	return fmt.Sprintf("import bundle missing required sections: %v", e.Missing)
}
