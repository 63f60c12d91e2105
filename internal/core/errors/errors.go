package errors

import "errors"

// Configuration errors are raised while a granularity, model or raster is
// being built. None of them are transient; they indicate a defect in the
// caller's setup.
var (
	ErrInvalidGranularity = errors.New("invalid granularity")
	ErrInvalidModel       = errors.New("invalid model")
	ErrUnknownFunction    = errors.New("unknown function")
	ErrUnknownModel       = errors.New("unknown model")
	ErrDuplicateModel     = errors.New("model already registered")
)

// State errors are raised when the schema is changed after data exists.
var (
	// ErrLayoutMaterialized is returned when a VALUE entry is added after the
	// bucket layout of its model was created.
	ErrLayoutMaterialized = errors.New("bucket layout already materialized")

	// ErrModelSealed is returned when a GROUP entry is added after the model
	// accepted its first row.
	ErrModelSealed = errors.New("model sealed by accepted rows")
)

// ErrTypeMismatch is returned when a row value cannot be mapped onto the
// value type of the domain logic.
var ErrTypeMismatch = errors.New("type mismatch")

// ErrCapabilityMismatch is the panic value used when a function is invoked
// through a dispatch path that does not match its declared capability.
var ErrCapabilityMismatch = errors.New("function capability mismatch")
