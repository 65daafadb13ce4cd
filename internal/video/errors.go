// Error taxonomy for the streaming transform
package video

import (
	"errors"
	"fmt"
)

var (
	// ErrSourceUnreadable means the source file is missing, not a video,
	// or contains no readable frames.
	ErrSourceUnreadable = errors.New("source unreadable")

	// ErrDestinationUnwritable means the destination could not be created
	// or a frame write failed.
	ErrDestinationUnwritable = errors.New("destination unwritable")

	// ErrTransformFailed means the per-frame transform returned an error.
	ErrTransformFailed = errors.New("transform failed")

	// ErrDimensionMismatch means the transform returned a frame whose
	// geometry or channel count differs from what the destination was
	// opened with. Detected before the write; a mismatched codec-level
	// write corrupts the output silently.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrCancelled means the run was stopped at a frame boundary by the
	// caller's context.
	ErrCancelled = errors.New("cancelled")
)

// FrameError ties a failure to the frame index it occurred on.
type FrameError struct {
	Err   error
	Index int
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("frame %d: %v", e.Index, e.Err)
}

func (e *FrameError) Unwrap() error {
	return e.Err
}
