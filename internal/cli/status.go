package cli

import (
	"fmt"
	"io"
	"sync"
)

// consoleStatus prints status changes as a single status line
type consoleStatus struct {
	mu   sync.Mutex
	out  io.Writer
	last string

	// notify, when set, also reports starts and failures on the desktop
	notify func(message string)
}

func newConsoleStatus(out io.Writer) *consoleStatus {
	return &consoleStatus{out: out}
}

// Status update methods for the app to call
func (c *consoleStatus) SetIdle() {
	c.updateStatus("idle")
}

func (c *consoleStatus) SetRecording() {
	c.updateStatus("recording")
}

func (c *consoleStatus) SetPaused() {
	c.updateStatus("paused")
}

func (c *consoleStatus) SetProcessing() {
	c.updateStatus("processing")
}

func (c *consoleStatus) SetError() {
	c.updateStatus("error")
}

// updateStatus prints the microphone emoji and status indicator when the
// status changes
func (c *consoleStatus) updateStatus(status string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if status == c.last {
		return
	}
	c.last = status
	fmt.Fprintf(c.out, "🎤 %s %s\n", emojiForStatus(status), status)

	if c.notify == nil {
		return
	}
	switch status {
	case "recording":
		c.notify("Recording")
	case "error":
		c.notify("Recording failed, see the log for details")
	}
}

// emojiForStatus returns the appropriate status emoji
func emojiForStatus(status string) string {
	switch status {
	case "recording":
		return "🔴" // Red - recording
	case "paused":
		return "⏸️"
	case "processing":
		return "🟡" // Yellow - saving the recording
	case "idle":
		return "🟢" // Green - ready/idle
	case "error":
		return "⚪️" // White - error
	default:
		return "🟢" // Green - default to ready
	}
}
