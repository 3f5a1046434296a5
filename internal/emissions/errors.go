package emissions

// constError is an immutable error type for sentinel errors.
type constError string

func (e constError) Error() string { return string(e) }

// ErrInvalidFactorForActivity indicates a factor that exists but lacks the
// fields the requested calculation needs.
const ErrInvalidFactorForActivity = constError("invalid emissions factor for activity")
