package activity

// constError is an immutable error type for sentinel errors.
type constError string

func (e constError) Error() string { return string(e) }

// Activity errors. Compare with errors.Is.
const (
	// ErrInvalidDateFormat indicates an unparseable from_date or thru_date.
	ErrInvalidDateFormat = constError("invalid date format")

	// ErrActivityTimeout marks activities left unresolved when a batch
	// deadline expires.
	ErrActivityTimeout = constError("timeout")

	// ErrUnknownActivityType indicates an activity type with no resolution path.
	ErrUnknownActivityType = constError("activity not recognized")

	// ErrMissingField indicates a required activity field is absent.
	ErrMissingField = constError("missing required field")

	// ErrAddressNotFound indicates an address the geocoder cannot place.
	ErrAddressNotFound = constError("address not found")
)
