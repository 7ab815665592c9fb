package hydrator

import "errors"

var (
	// ErrIncompleteResolution reports a resolver that broke its contract by
	// returning more or fewer values than identifiers it was given, or by
	// omitting a requested identifier. It is distinct from an identifier that
	// legitimately does not exist, which the resolver reports as a nil value.
	ErrIncompleteResolution = errors.New("incomplete resolution")

	// ErrInvalidIdentifier reports an identifier that cannot be used as a
	// lookup key, such as a map or slice found where an identifier belongs.
	ErrInvalidIdentifier = errors.New("invalid identifier")
)
