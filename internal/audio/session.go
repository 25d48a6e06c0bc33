package audio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	DefaultSampleRate      = 44100
	DefaultChannels        = 1
	DefaultFramesPerBuffer = 1024

	faultBuffer = 16
)

// Options configures a Session. Zero values fall back to the defaults.
type Options struct {
	SampleRate      int
	Channels        int
	FramesPerBuffer int
	// Dir is where output files are allocated. Defaults to os.TempDir().
	Dir    string
	Logger zerolog.Logger
}

// Session owns a single recording: device selection, frame accumulation,
// pause/resume and finalization into a WAV file.
//
// The capture callback runs on a thread owned by the audio subsystem and
// only ever takes mu. Operations that open or close streams are serialized
// by ctl so that Stop can block on the stream without holding mu.
type Session struct {
	backend         Backend
	sampleRate      int
	channels        int
	framesPerBuffer int
	dir             string
	log             zerolog.Logger
	faults          chan error

	ctl    sync.Mutex
	stream Stream

	mu         sync.Mutex
	state      State
	device     *Device
	frames     [][]float32
	outputPath string
	finalized  bool
	closed     bool
}

// NewSession creates an idle session and allocates its output path
func NewSession(backend Backend, opts Options) (*Session, error) {
	if backend == nil {
		return nil, fmt.Errorf("audio backend is required")
	}
	if opts.SampleRate == 0 {
		opts.SampleRate = DefaultSampleRate
	}
	if opts.Channels == 0 {
		opts.Channels = DefaultChannels
	}
	if opts.FramesPerBuffer == 0 {
		opts.FramesPerBuffer = DefaultFramesPerBuffer
	}
	if opts.SampleRate < 0 || opts.Channels < 0 || opts.FramesPerBuffer < 0 {
		return nil, fmt.Errorf("invalid stream parameters: rate=%d channels=%d frames=%d",
			opts.SampleRate, opts.Channels, opts.FramesPerBuffer)
	}
	if opts.Dir == "" {
		opts.Dir = os.TempDir()
	}

	s := &Session{
		backend:         backend,
		sampleRate:      opts.SampleRate,
		channels:        opts.Channels,
		framesPerBuffer: opts.FramesPerBuffer,
		dir:             opts.Dir,
		log:             opts.Logger,
		faults:          make(chan error, faultBuffer),
		state:           StateIdle,
	}
	s.outputPath = s.allocatePath()
	return s, nil
}

func (s *Session) allocatePath() string {
	return filepath.Join(s.dir, fmt.Sprintf("thoughtpad_%s.wav", uuid.NewString()))
}

// SampleRate returns the rate fixed at construction
func (s *Session) SampleRate() int { return s.sampleRate }

// Channels returns the channel count fixed at construction
func (s *Session) Channels() int { return s.channels }

// InputDevices lists devices with at least one input channel, in the order
// the subsystem reports them. Indices are only stable within one process.
func (s *Session) InputDevices() ([]Device, error) {
	devices, err := s.backend.Devices()
	if err != nil {
		return nil, fmt.Errorf("%w: list devices: %v", ErrDevice, err)
	}

	result := make([]Device, 0, len(devices))
	for _, d := range devices {
		if d.MaxChannels > 0 {
			result = append(result, d)
		}
	}
	return result, nil
}

// SelectDevice sets the input device used by the next Start. An open
// stream keeps its device.
func (s *Session) SelectDevice(index int) error {
	devices, err := s.InputDevices()
	if err != nil {
		return err
	}

	for _, d := range devices {
		if d.Index == index {
			dev := d
			s.mu.Lock()
			s.device = &dev
			s.mu.Unlock()
			s.log.Debug().Int("index", index).Str("device", d.Name).Msg("Selected input device")
			return nil
		}
	}
	return fmt.Errorf("%w: no input device with index %d", ErrDevice, index)
}

// Device returns the selected device, if any
func (s *Session) Device() (Device, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.device == nil {
		return Device{}, false
	}
	return *s.device, true
}

// Start opens the input stream and begins appending frames
func (s *Session) Start() error {
	s.ctl.Lock()
	defer s.ctl.Unlock()

	s.mu.Lock()
	state, closed, selected := s.state, s.closed, s.device
	s.mu.Unlock()

	if closed {
		return fmt.Errorf("%w: session closed", ErrInvalidState)
	}
	if state != StateIdle {
		return fmt.Errorf("%w: cannot start while %s", ErrInvalidState, state)
	}

	var dev Device
	if selected != nil {
		dev = *selected
	} else {
		d, err := s.backend.DefaultDevice()
		if err != nil {
			return fmt.Errorf("%w: default input device: %v", ErrDevice, err)
		}
		dev = d
	}
	if dev.MaxChannels < s.channels {
		return fmt.Errorf("%w: %q has %d input channels, need %d", ErrDevice, dev.Name, dev.MaxChannels, s.channels)
	}

	stream, err := s.backend.Open(StreamConfig{
		Device:          dev,
		SampleRate:      s.sampleRate,
		Channels:        s.channels,
		FramesPerBuffer: s.framesPerBuffer,
	}, s.onBuffer)
	if err != nil {
		return fmt.Errorf("%w: open %q: %v", ErrDevice, dev.Name, err)
	}

	// Recording must be visible before the first buffer arrives
	s.mu.Lock()
	s.frames = nil
	s.state = StateRecording
	s.mu.Unlock()

	if err := stream.Start(); err != nil {
		s.mu.Lock()
		s.state = StateIdle
		s.mu.Unlock()
		stream.Close()
		return fmt.Errorf("%w: start %q: %v", ErrDevice, dev.Name, err)
	}
	s.stream = stream

	s.log.Info().
		Str("device", dev.Name).
		Int("sample_rate", s.sampleRate).
		Int("channels", s.channels).
		Msg("Recording started")
	return nil
}

// onBuffer is the capture callback
func (s *Session) onBuffer(in []float32, flags StatusFlags) {
	if flags != 0 {
		s.fault(fmt.Errorf("%w: %s", ErrCapture, flags))
	}

	frame := make([]float32, len(in))
	copy(frame, in)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateRecording {
		return
	}
	s.frames = append(s.frames, frame)
}

func (s *Session) fault(err error) {
	select {
	case s.faults <- err:
	default:
		s.log.Warn().Err(err).Msg("Dropped capture fault, channel full")
	}
}

// Faults delivers non-fatal capture faults. Captured frames are kept and
// the session may still be stopped normally.
func (s *Session) Faults() <-chan error {
	return s.faults
}

// Pause drops incoming buffers until Resume. Pausing a paused session is a
// no-op.
func (s *Session) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StatePaused {
		return nil
	}
	if !canTransition(s.state, StatePaused) {
		return fmt.Errorf("%w: cannot pause while %s", ErrInvalidState, s.state)
	}
	s.state = StatePaused
	s.log.Info().Msg("Recording paused")
	return nil
}

// Resume continues appending frames. Resuming a recording session is a
// no-op.
func (s *Session) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateRecording {
		return nil
	}
	if s.state != StatePaused {
		return fmt.Errorf("%w: cannot resume while %s", ErrInvalidState, s.state)
	}
	s.state = StateRecording
	s.log.Info().Msg("Recording resumed")
	return nil
}

// Stop closes the stream and writes every captured frame, in capture order,
// to the output path as 16-bit PCM WAV. It returns ErrEmptyRecording and
// writes nothing when no frames were captured. When writing fails the
// frames are kept and calling Stop again retries the write.
func (s *Session) Stop() error {
	s.ctl.Lock()
	defer s.ctl.Unlock()

	s.mu.Lock()
	retry := s.pendingLocked()
	if !retry && !canTransition(s.state, StateStopped) {
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("%w: cannot stop while %s", ErrInvalidState, state)
	}
	s.state = StateStopped
	s.mu.Unlock()

	if retry {
		s.log.Info().Msg("Retrying write of stopped recording")
	} else {
		s.closeStream()
	}

	// The stream is closed, so frames can no longer change
	s.mu.Lock()
	frames := s.frames
	path := s.outputPath
	s.mu.Unlock()

	if len(frames) == 0 {
		s.log.Warn().Msg("Recording stopped with no audio captured")
		return ErrEmptyRecording
	}

	if err := writeWAV(path, frames, s.sampleRate, s.channels); err != nil {
		return fmt.Errorf("write recording: %w", err)
	}

	s.mu.Lock()
	s.finalized = true
	s.mu.Unlock()

	s.log.Info().
		Str("path", path).
		Int("frames", len(frames)).
		Msg("Recording saved")
	return nil
}

// Pending reports whether the session is stopped with captured audio that
// has not been written yet, i.e. a previous Stop failed to save it.
func (s *Session) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pendingLocked()
}

func (s *Session) pendingLocked() bool {
	return s.state == StateStopped && !s.closed && !s.finalized && len(s.frames) > 0
}

// closeStream stops and closes the open stream, if any. Must hold ctl.
func (s *Session) closeStream() {
	if s.stream == nil {
		return
	}
	if err := s.stream.Stop(); err != nil {
		s.log.Warn().Err(err).Msg("Failed to stop audio stream")
		s.fault(fmt.Errorf("%w: stop stream: %v", ErrCapture, err))
	}
	if err := s.stream.Close(); err != nil {
		s.log.Warn().Err(err).Msg("Failed to close audio stream")
	}
	s.stream = nil
}

// Clear stops any active recording without saving it, deletes the output
// file and allocates a fresh output path. The session returns to idle.
func (s *Session) Clear() error {
	s.ctl.Lock()
	defer s.ctl.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return fmt.Errorf("%w: session closed", ErrInvalidState)
	}
	s.state = StateStopped
	s.mu.Unlock()

	s.closeStream()

	s.mu.Lock()
	defer s.mu.Unlock()

	old := s.outputPath
	if err := removeFile(old); err != nil {
		// Keep the old path so a retry can delete it
		return fmt.Errorf("clear recording: %w", err)
	}
	s.frames = nil
	s.finalized = false
	s.outputPath = s.allocatePath()
	s.state = StateIdle

	s.log.Debug().Str("old", old).Str("new", s.outputPath).Msg("Recording cleared")
	return nil
}

// Close stops any active recording and deletes the output file. The
// session cannot be used afterwards.
func (s *Session) Close() error {
	s.ctl.Lock()
	defer s.ctl.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.state = StateStopped
	s.mu.Unlock()

	s.closeStream()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.frames = nil
	s.finalized = false
	return removeFile(s.outputPath)
}

// OutputPath returns the finalized WAV path once Stop has succeeded
func (s *Session) OutputPath() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.finalized {
		return "", false
	}
	return s.outputPath, true
}

// State returns the current state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// FrameCount returns the number of buffers captured so far
func (s *Session) FrameCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}

// Waveform returns a mono copy of everything captured so far
func (s *Session) Waveform() []float32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	for _, f := range s.frames {
		total += len(f)
	}
	interleaved := make([]float32, 0, total)
	for _, f := range s.frames {
		interleaved = append(interleaved, f...)
	}
	return downmixInterleaved(interleaved, s.channels, total/s.channels)
}

func removeFile(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
