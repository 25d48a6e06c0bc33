package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/petems/thoughtpad/internal/audio"
	"github.com/petems/thoughtpad/internal/config"
)

// StatusUpdater is an interface for updating status (e.g., a status line)
type StatusUpdater interface {
	SetIdle()
	SetRecording()
	SetPaused()
	SetProcessing()
	SetError()
}

// Handoff receives the path of a finished recording, typically to send it
// for transcription. The file belongs to the session and is deleted by the
// next Clear.
type Handoff func(ctx context.Context, path string) error

type Config struct {
	Session       *audio.Session
	Config        *config.Config
	Logger        zerolog.Logger
	StatusUpdater StatusUpdater // Optional - can be nil
	Handoff       Handoff       // Optional - can be nil
}

type App struct {
	session *audio.Session
	cfg     *config.Config
	log     zerolog.Logger
	status  StatusUpdater
	handoff Handoff

	mu   sync.Mutex
	stop context.CancelFunc
	done chan struct{}
}

func New(cfg Config) *App {
	a := &App{
		session: cfg.Session,
		cfg:     cfg.Config,
		log:     cfg.Logger,
		status:  cfg.StatusUpdater,
		handoff: cfg.Handoff,
	}

	// Device indices are not stable across runs, so a stale preference only
	// warns and leaves the system default in place
	if a.cfg != nil && a.cfg.HasPreferredDevice() {
		if err := a.session.SelectDevice(a.cfg.PreferredDevice); err != nil {
			a.log.Warn().Err(err).Int("index", a.cfg.PreferredDevice).Msg("Preferred audio device unavailable, using default")
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	a.stop = cancel
	a.done = make(chan struct{})
	go a.watchFaults(ctx)

	return a
}

// Toggle starts a recording when idle and stops it when recording or
// paused. A stopped session is cleared first so each take gets a new file,
// unless its recording was never saved, in which case saving is retried.
func (a *App) Toggle(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch a.session.State() {
	case audio.StateRecording, audio.StatePaused:
		return a.stopLocked(ctx)
	case audio.StateStopped:
		if a.session.Pending() {
			return a.stopLocked(ctx)
		}
		if err := a.session.Clear(); err != nil {
			return a.fail(err, "Failed to clear previous recording")
		}
	}
	return a.startLocked()
}

func (a *App) startLocked() error {
	a.log.Info().Msg("Starting recording")
	if err := a.session.Start(); err != nil {
		return a.fail(err, "Failed to start recording")
	}
	a.setStatus(StatusRecording)
	return nil
}

func (a *App) stopLocked(ctx context.Context) error {
	a.log.Info().Msg("Stopping recording")
	a.setStatus(StatusProcessing)

	if err := a.session.Stop(); err != nil {
		if errors.Is(err, audio.ErrEmptyRecording) {
			a.log.Info().Msg("No audio captured")
		}
		return a.fail(err, "Failed to save recording")
	}

	path, _ := a.session.OutputPath()
	if a.handoff != nil {
		if err := a.handoff(ctx, path); err != nil {
			return a.fail(err, "Recording handoff failed")
		}
	}

	a.setStatus(StatusIdle)
	return nil
}

// TogglePause pauses a recording or resumes a paused one
func (a *App) TogglePause() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch a.session.State() {
	case audio.StateRecording:
		if err := a.session.Pause(); err != nil {
			return a.fail(err, "Failed to pause")
		}
		a.setStatus(StatusPaused)
	case audio.StatePaused:
		if err := a.session.Resume(); err != nil {
			return a.fail(err, "Failed to resume")
		}
		a.setStatus(StatusRecording)
	default:
		return fmt.Errorf("%w: not recording", audio.ErrInvalidState)
	}
	return nil
}

// Clear discards the current recording, active or finished
func (a *App) Clear() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.session.Clear(); err != nil {
		return a.fail(err, "Failed to clear recording")
	}
	a.log.Info().Msg("Recording cleared")
	a.setStatus(StatusIdle)
	return nil
}

// Shutdown stops an active recording so what was captured is saved, then
// stops watching for faults.
func (a *App) Shutdown(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var err error
	switch a.session.State() {
	case audio.StateRecording, audio.StatePaused:
		err = a.stopLocked(ctx)
	case audio.StateStopped:
		if a.session.Pending() {
			err = a.stopLocked(ctx)
		}
	}

	a.stop()
	<-a.done
	return err
}

func (a *App) SetDevice(index int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.IsRecording() {
		return fmt.Errorf("cannot change device while recording")
	}
	if err := a.session.SelectDevice(index); err != nil {
		return err
	}
	if a.cfg != nil {
		a.cfg.PreferredDevice = index
	}
	return nil
}

func (a *App) ListDevices() ([]audio.Device, error) {
	return a.session.InputDevices()
}

// IsRecording reports whether a stream is open, paused or not
func (a *App) IsRecording() bool {
	switch a.session.State() {
	case audio.StateRecording, audio.StatePaused:
		return true
	}
	return false
}

// OutputPath returns the last finished recording
func (a *App) OutputPath() (string, bool) {
	return a.session.OutputPath()
}

func (a *App) watchFaults(ctx context.Context) {
	defer close(a.done)
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-a.session.Faults():
			a.log.Warn().Err(err).Msg("Capture fault, recording continues")
		}
	}
}

func (a *App) fail(err error, msg string) error {
	a.log.Error().Err(err).Msg(msg)
	a.setStatus(StatusError)
	return err
}

// Status is a coarse application state shown to the user
type Status int

const (
	StatusIdle Status = iota
	StatusRecording
	StatusPaused
	StatusProcessing
	StatusError
)

func (a *App) setStatus(s Status) {
	if a.status == nil {
		return
	}
	switch s {
	case StatusIdle:
		a.status.SetIdle()
	case StatusRecording:
		a.status.SetRecording()
	case StatusPaused:
		a.status.SetPaused()
	case StatusProcessing:
		a.status.SetProcessing()
	case StatusError:
		a.status.SetError()
	}
}
