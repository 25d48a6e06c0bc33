package audio

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// PortAudio is the Backend backed by the system PortAudio library
type PortAudio struct{}

// NewPortAudio initializes PortAudio. Close must be called to release it.
func NewPortAudio() (*PortAudio, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	return &PortAudio{}, nil
}

func (p *PortAudio) Devices() ([]Device, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}

	defaultDevice, _ := portaudio.DefaultInputDevice()

	result := make([]Device, 0, len(devices))
	for i, d := range devices {
		result = append(result, Device{
			Index:       i,
			Name:        d.Name,
			MaxChannels: d.MaxInputChannels,
			Default:     d == defaultDevice,
		})
	}
	return result, nil
}

func (p *PortAudio) DefaultDevice() (Device, error) {
	devices, err := p.Devices()
	if err != nil {
		return Device{}, err
	}
	for _, d := range devices {
		if d.Default {
			return d, nil
		}
	}
	return Device{}, fmt.Errorf("no default input device")
}

func (p *PortAudio) Open(cfg StreamConfig, cb Callback) (Stream, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate devices: %w", err)
	}

	idx := cfg.Device.Index
	if idx < 0 || idx >= len(devices) {
		return nil, fmt.Errorf("device not found: %d", idx)
	}
	device := devices[idx]
	if device.Name != cfg.Device.Name {
		return nil, fmt.Errorf("device %d changed from %q to %q", idx, cfg.Device.Name, device.Name)
	}

	stream, err := portaudio.OpenStream(portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   device,
			Channels: cfg.Channels,
			Latency:  device.DefaultLowInputLatency,
		},
		SampleRate:      float64(cfg.SampleRate),
		FramesPerBuffer: cfg.FramesPerBuffer,
	}, func(in []float32, _ portaudio.StreamCallbackTimeInfo, flags portaudio.StreamCallbackFlags) {
		cb(in, statusFlags(flags))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open audio stream: %w", err)
	}
	return stream, nil
}

// Close terminates PortAudio
func (p *PortAudio) Close() error {
	return portaudio.Terminate()
}

func statusFlags(flags portaudio.StreamCallbackFlags) StatusFlags {
	var f StatusFlags
	if flags&portaudio.InputUnderflow != 0 {
		f |= InputUnderflow
	}
	if flags&portaudio.InputOverflow != 0 {
		f |= InputOverflow
	}
	return f
}
