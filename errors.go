package rebind

import "fmt"

// InvalidFactoryError means a bind attempt was made with an unusable factory
// or owner. It is surfaced at bind time, before any evaluation happens.
type InvalidFactoryError struct {
	Reason string
}

func (e InvalidFactoryError) Error() string {
	return fmt.Sprintf("invalid resource factory: %s", e.Reason)
}

// OwnerDestroyedError means a child registration was attempted on an owner
// whose destruction has already run.
type OwnerDestroyedError struct{}

func (e OwnerDestroyedError) Error() string {
	return "owner is already destroyed"
}

// TypeMismatchError means As[T] failed to cast a resolved value to T.
type TypeMismatchError struct {
	Expected string
	Actual   string
}

func (e TypeMismatchError) Error() string {
	return fmt.Sprintf("resource type mismatch: expected=%s actual=%s", e.Expected, e.Actual)
}

// KeyNotFoundError means a view access named a key the live instance does not
// expose.
type KeyNotFoundError struct {
	Key string
}

func (e KeyNotFoundError) Error() string {
	return fmt.Sprintf("resource key not found: %q", e.Key)
}

// DefinitionNotFoundError means a (kind, driver) definition is not registered.
type DefinitionNotFoundError struct {
	Kind   string
	Driver string
}

func (e DefinitionNotFoundError) Error() string {
	return fmt.Sprintf("resource definition not found: kind=%q driver=%q", e.Kind, e.Driver)
}

// DuplicateDefinitionError means the same (kind, driver) was registered twice.
type DuplicateDefinitionError struct {
	Kind   string
	Driver string
}

func (e DuplicateDefinitionError) Error() string {
	return fmt.Sprintf("duplicate resource definition: kind=%q driver=%q", e.Kind, e.Driver)
}
