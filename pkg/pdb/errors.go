package pdb

import (
	"errors"
	"fmt"
)

// ErrEmptyResult is returned when a database yields no function symbols.
var ErrEmptyResult = errors.New("no function symbols found")

// ValidationReason is the category of a structural validation failure.
type ValidationReason int

const (
	InvalidSuperBlock ValidationReason = iota + 1
	InvalidFreeBlockMap
	InvalidSignature
	InvalidStreamIndex
	UnknownVersion
	UnsupportedFastLink
)

func (r ValidationReason) String() string {
	switch r {
	case InvalidSuperBlock:
		return "invalid superblock"
	case InvalidFreeBlockMap:
		return "invalid free block map"
	case InvalidSignature:
		return "invalid stream signature"
	case InvalidStreamIndex:
		return "invalid stream index"
	case UnknownVersion:
		return "unknown version"
	case UnsupportedFastLink:
		return "database was linked using unsupported option /DEBUG:FASTLINK"
	default:
		return fmt.Sprintf("validation reason %d", int(r))
	}
}

type ValidationError struct {
	Reason ValidationReason
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Detail == "" {
		return e.Reason.String()
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Detail)
}

// Stream names used in StreamUnavailableError.
const (
	StreamImageSection        = "image section"
	StreamModuleInfo          = "module info"
	StreamPublicSymbol        = "public symbol"
	StreamSectionContribution = "section contribution"
)

type StreamUnavailableError struct {
	Stream string
	Err    error
}

func (e *StreamUnavailableError) Error() string {
	return fmt.Sprintf("%s stream unavailable: %v", e.Stream, e.Err)
}

func (e *StreamUnavailableError) Unwrap() error {
	return e.Err
}

// IsValidationError reports whether err is a validation failure, optionally
// of one of the given reasons.
func IsValidationError(err error, reasons ...ValidationReason) bool {
	var ve *ValidationError
	if !errors.As(err, &ve) {
		return false
	}
	if len(reasons) == 0 {
		return true
	}
	for _, r := range reasons {
		if ve.Reason == r {
			return true
		}
	}
	return false
}

func isStreamUnavailableError(err error) bool {
	var se *StreamUnavailableError
	return errors.As(err, &se)
}

type openError struct {
	err error
}

func (e *openError) Error() string {
	return fmt.Sprintf("open database: %v", e.err)
}

func (e *openError) Unwrap() error {
	return e.err
}

func isOpenError(err error) bool {
	var oe *openError
	return errors.As(err, &oe)
}
