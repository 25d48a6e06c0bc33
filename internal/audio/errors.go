package audio

import "errors"

// ErrDevice indicates the input device is unknown, busy, removed or cannot
// be opened with the requested parameters.
var ErrDevice = errors.New("audio device error")

// ErrInvalidState indicates the operation is not allowed in the session's
// current state.
var ErrInvalidState = errors.New("invalid session state")

// ErrCapture indicates a non-fatal fault while capturing. Frames captured
// so far are kept.
var ErrCapture = errors.New("capture fault")

// ErrEmptyRecording indicates Stop found no captured frames. No file is
// written.
var ErrEmptyRecording = errors.New("empty recording")
