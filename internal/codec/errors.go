package codec

import (
	"errors"
	"fmt"
)

// ErrTooLarge is returned when an image or an intermediate result would exceed MaxPixels.
var ErrTooLarge = errors.New("image exceeds pixel limit")

// DecodeError reports a failure to turn request data into an image.
type DecodeError struct {
	Op  string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("image decode error in %s: %v", e.Op, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// OpError reports a failure inside a pixel operation.
type OpError struct {
	Op  string
	Err error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("image operation %s failed: %v", e.Op, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }
