// Package notify shows desktop notifications for recording events.
package notify

import (
	"fmt"

	"github.com/gen2brain/beeep"
)

const title = "Thought Pad"

// Notify shows a desktop notification
func Notify(message string) error {
	if err := beeep.Notify(title, message, ""); err != nil {
		return fmt.Errorf("failed to show notification: %w", err)
	}
	return nil
}
