package bitseq

import (
	"errors"
	"fmt"
)

// Sentinel errors classifying every failure the package can produce.
// Operations wrap these with context, so callers dispatch on the kind
// with errors.Is and still see the detail in the message.
var (
	// ErrCreation reports malformed or self-contradictory construction
	// arguments: a value out of range for the requested length, a format
	// string that does not parse, or a non-representable E8M0 scale.
	ErrCreation = errors.New("bitseq: creation error")

	// ErrInterpret reports that a valid bit region cannot be mapped to the
	// requested interpretation, such as a hex view of a length that is not
	// a multiple of four.
	ErrInterpret = errors.New("bitseq: interpretation error")

	// ErrByteAlign reports an operation that requires byte alignment
	// invoked on a non-byte-aligned region or position.
	ErrByteAlign = errors.New("bitseq: byte alignment error")

	// ErrRead reports a stream read past the end of the data or a missing
	// delimiter.
	ErrRead = errors.New("bitseq: read error")
)

func creationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrCreation, fmt.Sprintf(format, args...))
}

func interpretf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInterpret, fmt.Sprintf(format, args...))
}

func alignf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrByteAlign, fmt.Sprintf(format, args...))
}

func readf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrRead, fmt.Sprintf(format, args...))
}
