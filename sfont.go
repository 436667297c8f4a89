package sfont

import (
	"errors"
	"fmt"
	"io"
)

// Error kinds. Every failure returned by Decode or Encode wraps exactly one
// of these, so callers can branch with errors.Is.
var (
	// ErrTruncatedInput is returned when fewer bytes are available than a
	// field requires.
	ErrTruncatedInput = errors.New("truncated input")
	// ErrTagMismatch is returned when an expected RIFF, LIST, format or list
	// kind tag is not found.
	ErrTagMismatch = errors.New("tag mismatch")
	// ErrUnknownSection is returned for a leaf chunk tag outside the
	// recognized set.
	ErrUnknownSection = errors.New("unknown section")
	// ErrStructuralInconsistency is returned when index columns are not
	// monotonic or declared lengths disagree with the resolved counts.
	ErrStructuralInconsistency = errors.New("structural inconsistency")
	// ErrSizeMismatch is the structural inconsistency raised when a section
	// length does not match the record count implied by index resolution.
	ErrSizeMismatch = fmt.Errorf("%w: section size mismatch", ErrStructuralInconsistency)
	// ErrEncoderInit is returned when the sample encoder could not start.
	ErrEncoderInit = errors.New("sample encoder initialization failed")

	errNilBank    = errors.New("can't encode a nil bank")
	errNilWriter  = errors.New("can't write to a nil writer")
	errNilReader  = errors.New("can't read from a nil reader")
	errNoSuchItem = errors.New("index out of range")
)

// truncated maps short reads to ErrTruncatedInput and leaves other errors
// untouched.
func truncated(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %w", ErrTruncatedInput, err)
	}

	return err
}

func nullTermStr(b []byte) string {
	return string(b[:clen(b)])
}

func clen(num []byte) int {
	for i := range num {
		if num[i] == 0 {
			return i
		}
	}

	return len(num)
}
