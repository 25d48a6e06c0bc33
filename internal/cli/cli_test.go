package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/petems/thoughtpad/internal/app"
	"github.com/petems/thoughtpad/internal/audio"
	"github.com/petems/thoughtpad/internal/audio/audiotest"
	"github.com/petems/thoughtpad/internal/config"
)

func newRecordingApp(t *testing.T, backend *audiotest.Backend, out *bytes.Buffer) (*app.App, *audio.Session) {
	t.Helper()
	session, err := audio.NewSession(backend, audio.Options{Dir: t.TempDir(), FramesPerBuffer: 4, Logger: zerolog.Nop()})
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	t.Cleanup(func() { session.Close() })

	a := app.New(app.Config{
		Session:       session,
		Config:        &config.Config{PreferredDevice: config.NoDevice},
		Logger:        zerolog.Nop(),
		StatusUpdater: newConsoleStatus(out),
		Handoff:       printRecording(out),
	})
	return a, session
}

func TestRunRecordingSavesOnShutdown(t *testing.T) {
	backend := audiotest.Mono()
	var out bytes.Buffer
	a, session := newRecordingApp(t, backend, &out)

	// End of input returns with the stream still open
	if err := runRecording(context.Background(), a, strings.NewReader("x\n"), &out); err != nil {
		t.Fatalf("runRecording failed: %v", err)
	}
	if session.State() != audio.StateRecording {
		t.Fatalf("expected recording, got %s", session.State())
	}

	backend.Last().Deliver([]float32{0.1, 0.2, 0.3, 0.4}, 0)
	if err := a.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}

	output := out.String()
	for _, want := range []string{"Unknown command \"x\"", "Saved ", "1 ch, 16-bit", "🔴 recording", "🟢 idle"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, output)
		}
	}
}

func TestRunRecordingCommands(t *testing.T) {
	backend := audiotest.Mono()
	var out bytes.Buffer
	a, session := newRecordingApp(t, backend, &out)

	if err := runRecording(context.Background(), a, strings.NewReader("p\nc\ns\nignored\n"), &out); err != nil {
		t.Fatalf("runRecording failed: %v", err)
	}

	if backend.Opened() != 2 {
		t.Errorf("expected clear to open a second stream, got %d", backend.Opened())
	}
	if session.State() != audio.StateRecording {
		t.Errorf("expected a fresh recording after clear, got %s", session.State())
	}
	if strings.Contains(out.String(), "ignored") {
		t.Error("commands after stop should not be processed")
	}
	if !strings.Contains(out.String(), "paused") {
		t.Errorf("expected paused status, got:\n%s", out.String())
	}
	a.Shutdown(context.Background())
}

func TestRunRecordingCanceled(t *testing.T) {
	backend := audiotest.Mono()
	var out bytes.Buffer
	a, _ := newRecordingApp(t, backend, &out)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Blocks on stdin forever unless the context ends the loop
	r, w := io.Pipe()
	defer w.Close()
	if err := runRecording(ctx, a, r, &out); err != nil {
		t.Fatalf("runRecording failed: %v", err)
	}
	if err := a.Shutdown(context.Background()); !errors.Is(err, audio.ErrEmptyRecording) {
		t.Errorf("expected ErrEmptyRecording, got %v", err)
	}
}

func TestStatusPrintsChangesOnly(t *testing.T) {
	var out bytes.Buffer
	s := newConsoleStatus(&out)

	s.SetRecording()
	s.SetRecording()
	s.SetPaused()
	s.SetError()

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 status lines, got %d: %q", len(lines), lines)
	}
	if !strings.Contains(lines[2], "⚪️ error") {
		t.Errorf("unexpected error line %q", lines[2])
	}
}

func TestRedacted(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{key: "", want: ""},
		{key: "abc", want: "***"},
		{key: "sk-1234567890", want: "*********7890"},
	}

	for _, tt := range tests {
		got := redacted(config.Config{APIKey: tt.key})
		if got.APIKey != tt.want {
			t.Errorf("redacted(%q) = %q, want %q", tt.key, got.APIKey, tt.want)
		}
	}
}

func TestLogLevel(t *testing.T) {
	if got := logLevel("warn", 0); got != "warn" {
		t.Errorf("expected configured level, got %q", got)
	}
	if got := logLevel("warn", 1); got != "debug" {
		t.Errorf("expected debug, got %q", got)
	}
	if got := logLevel("warn", 3); got != "trace" {
		t.Errorf("expected trace, got %q", got)
	}
}

func TestPrintDevices(t *testing.T) {
	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)

	devices := []audio.Device{
		{Index: 1, Name: "Built-in", MaxChannels: 1, Default: true},
		{Index: 4, Name: "USB Interface", MaxChannels: 2},
	}
	if err := printDevices(cmd, devices, 4); err != nil {
		t.Fatalf("printDevices failed: %v", err)
	}

	output := out.String()
	for _, want := range []string{"2 found", "1. Built-in (1 ch) [default]", "4. USB Interface (2 ch) [preferred]"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, output)
		}
	}
}

func TestNotifications(t *testing.T) {
	var out bytes.Buffer
	var got []string
	record := func(msg string) { got = append(got, msg) }

	s := newConsoleStatus(&out)
	s.notify = record
	s.SetRecording()
	s.SetProcessing()
	s.SetError()

	handoff := notifySaved(func(ctx context.Context, path string) error { return nil }, record)
	if err := handoff(context.Background(), "/tmp/take.wav"); err != nil {
		t.Fatalf("handoff failed: %v", err)
	}
	failing := notifySaved(func(ctx context.Context, path string) error { return errors.New("boom") }, record)
	if err := failing(context.Background(), "/tmp/other.wav"); err == nil {
		t.Fatal("expected handoff error")
	}

	want := []string{"Recording", "Recording failed, see the log for details", "Recording saved to /tmp/take.wav"}
	if len(got) != len(want) {
		t.Fatalf("expected notifications %q, got %q", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("notification %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

// endlessInput yields "x" lines forever
type endlessInput struct{}

func (endlessInput) Read(p []byte) (int, error) {
	n := len(p) - len(p)%2
	for i := 0; i < n; i += 2 {
		p[i], p[i+1] = 'x', '\n'
	}
	return n, nil
}

func TestReadCommandsStopsWhenCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	commands := readCommands(ctx, endlessInput{})

	if c := <-commands; c != "x" {
		t.Fatalf("expected first command %q, got %q", "x", c)
	}
	cancel()

	received := 0
	for range commands {
		received++
		if received > 1000 {
			t.Fatal("reader kept delivering after cancel")
		}
	}
}

func TestTogglePauseReportsError(t *testing.T) {
	var out bytes.Buffer
	a, _ := newRecordingApp(t, audiotest.Mono(), &out)

	togglePause(a, &out)

	if !strings.Contains(out.String(), "Cannot pause or resume") {
		t.Errorf("expected pause error to be printed, got:\n%s", out.String())
	}
}

func TestDesktopNotifierLogsFailures(t *testing.T) {
	var logs bytes.Buffer
	logger := zerolog.New(&logs)

	var sent []string
	notifier := desktopNotifier(logger, func(msg string) error {
		sent = append(sent, msg)
		if msg == "broken" {
			return errors.New("no notification daemon")
		}
		return nil
	})

	notifier("fine")
	if logs.Len() != 0 {
		t.Errorf("expected no log output for a shown notification, got %s", logs.String())
	}

	notifier("broken")
	if len(sent) != 2 {
		t.Errorf("expected 2 notifications sent, got %d", len(sent))
	}
	for _, want := range []string{"Desktop notification failed", "no notification daemon", `"message":"broken"`} {
		if !strings.Contains(logs.String(), want) {
			t.Errorf("expected log to contain %q, got %s", want, logs.String())
		}
	}
}

func TestPrintNote(t *testing.T) {
	var out bytes.Buffer
	if err := printNote(strings.NewReader("Title: Grocery run\n\nMilk and eggs."), &out); err != nil {
		t.Fatalf("printNote failed: %v", err)
	}
	if want := "title: Grocery run\nbody: Milk and eggs.\n"; out.String() != want {
		t.Errorf("expected %q, got %q", want, out.String())
	}

	if err := printNote(strings.NewReader("no title here"), &out); err == nil {
		t.Error("expected error for a note without a title")
	}
}
