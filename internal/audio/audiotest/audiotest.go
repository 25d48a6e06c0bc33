// Package audiotest provides a scriptable audio.Backend for tests. Buffers
// are delivered by calling Stream.Deliver from any goroutine.
package audiotest

import (
	"errors"
	"sync"

	"github.com/petems/thoughtpad/internal/audio"
)

// Backend is a fake audio subsystem
type Backend struct {
	mu       sync.Mutex
	devices  []audio.Device
	OpenErr  error
	StartErr error
	StopErr  error
	streams  []*Stream
}

// New returns a backend reporting the given devices. The first device with
// Default set is the default input.
func New(devices ...audio.Device) *Backend {
	return &Backend{devices: devices}
}

// Mono returns a backend with one default mono microphone at index 0
func Mono() *Backend {
	return New(audio.Device{Index: 0, Name: "Test Microphone", MaxChannels: 1, Default: true})
}

func (b *Backend) Devices() ([]audio.Device, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]audio.Device(nil), b.devices...), nil
}

func (b *Backend) DefaultDevice() (audio.Device, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, d := range b.devices {
		if d.Default {
			return d, nil
		}
	}
	return audio.Device{}, errors.New("no default input device")
}

func (b *Backend) Open(cfg audio.StreamConfig, cb audio.Callback) (audio.Stream, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.OpenErr != nil {
		return nil, b.OpenErr
	}
	s := &Stream{cfg: cfg, cb: cb, startErr: b.StartErr, stopErr: b.StopErr}
	b.streams = append(b.streams, s)
	return s, nil
}

// Last returns the most recently opened stream, or nil
func (b *Backend) Last() *Stream {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.streams) == 0 {
		return nil
	}
	return b.streams[len(b.streams)-1]
}

// Opened returns how many streams were opened
func (b *Backend) Opened() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.streams)
}

// Stream is a fake input stream
type Stream struct {
	cfg      audio.StreamConfig
	cb       audio.Callback
	startErr error
	stopErr  error

	// mu is held for the whole of a delivery so Stop waits for it
	mu      sync.Mutex
	started bool
	stopped bool
	closed  bool
}

// Config returns the parameters the stream was opened with
func (s *Stream) Config() audio.StreamConfig { return s.cfg }

func (s *Stream) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.startErr != nil {
		return s.startErr
	}
	s.started = true
	return nil
}

func (s *Stream) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	return s.stopErr
}

func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	s.closed = true
	return nil
}

// Deliver runs the capture callback with in. It reports false without
// calling back when the stream is not running.
func (s *Stream) Deliver(in []float32, flags audio.StatusFlags) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started || s.stopped {
		return false
	}
	s.cb(in, flags)
	return true
}

// Closed reports whether Close was called
func (s *Stream) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Fill returns a buffer of n samples all set to v
func Fill(n int, v float32) []float32 {
	buf := make([]float32, n)
	for i := range buf {
		buf[i] = v
	}
	return buf
}
