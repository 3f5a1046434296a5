package units

// constError is an immutable error type for sentinel errors.
type constError string

func (e constError) Error() string { return string(e) }

// ErrUnknownUOM indicates a unit of measure that is empty, not present in the
// conversion table, or used outside of its quantity family.
const ErrUnknownUOM = constError("unknown unit of measure")
