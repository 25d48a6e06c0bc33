//go:build !darwin

package permissions

import "errors"

// ErrMicrophone indicates the user has not granted microphone access
var ErrMicrophone = errors.New("microphone permission not granted")

// EnsureMicrophone is a no-op on non-macOS platforms.
func EnsureMicrophone() error {
	return nil
}
