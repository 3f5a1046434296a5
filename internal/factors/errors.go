package factors

// constError is an immutable error type for sentinel errors.
type constError string

func (e constError) Error() string { return string(e) }

// Resolution and storage errors. Compare with errors.Is.
const (
	// ErrNoFactorFound indicates that every lookup and fallback was exhausted.
	ErrNoFactorFound = constError("no emissions factor found")

	// ErrStoreUnavailable indicates the backing store could not be reached.
	// Callers processing a batch treat it as fatal for the whole batch.
	ErrStoreUnavailable = constError("factor store unavailable")

	// ErrInvalidQuery indicates a malformed scope query.
	ErrInvalidQuery = constError("invalid factor query")

	// ErrInvalidRecord indicates a record that cannot be stored.
	ErrInvalidRecord = constError("invalid record")

	// ErrUtilityNotFound indicates an unknown utility identifier.
	ErrUtilityNotFound = constError("utility not found")
)
