package audio

// Backend is the system audio subsystem a Session captures through
type Backend interface {
	Devices() ([]Device, error)
	DefaultDevice() (Device, error)
	Open(cfg StreamConfig, cb Callback) (Stream, error)
}

// Stream is an open input stream. Stop must not return while a callback
// invocation is still running.
type Stream interface {
	Start() error
	Stop() error
	Close() error
}

// Callback receives one hardware buffer of interleaved samples in [-1, 1].
// The slice is only valid for the duration of the call.
type Callback func(in []float32, flags StatusFlags)

// StatusFlags reports conditions the subsystem noticed for a buffer
type StatusFlags uint8

const (
	InputUnderflow StatusFlags = 1 << iota
	InputOverflow
)

func (f StatusFlags) String() string {
	switch f {
	case 0:
		return "ok"
	case InputUnderflow:
		return "input underflow"
	case InputOverflow:
		return "input overflow"
	default:
		return "input underflow+overflow"
	}
}

// StreamConfig describes the stream a Session asks the Backend to open
type StreamConfig struct {
	Device          Device
	SampleRate      int
	Channels        int
	FramesPerBuffer int
}

// Device represents an audio input device
type Device struct {
	Index       int
	Name        string
	MaxChannels int
	Default     bool
}
