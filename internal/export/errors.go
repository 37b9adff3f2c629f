package export

import (
	"errors"
	"fmt"
)

// ErrSurfaceNotFound reports that the preview could not be located after
// switching to it.
var ErrSurfaceNotFound = errors.New("preview surface not found")

// CaptureError is a failure of one of the capture, encoding, assembly or
// download collaborators.
type CaptureError struct {
	Stage string
	Err   error
}

func (e *CaptureError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *CaptureError) Unwrap() error {
	return e.Err
}
