package audio

import (
	"fmt"
	"math"
	"os"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	bitDepth     = 16
	pcmFormat    = 1
	pcmFullScale = math.MaxInt16
)

// Info describes a WAV file on disk
type Info struct {
	SampleRate int
	Channels   int
	BitDepth   int
	Samples    int
	Duration   time.Duration
}

// pcm16 clamps a normalized sample to [-1, 1] and rounds it to 16 bits
func pcm16(v float32) int {
	x := float64(v)
	switch {
	case math.IsNaN(x):
		return 0
	case x > 1:
		x = 1
	case x < -1:
		x = -1
	}
	return int(math.Round(x * pcmFullScale))
}

// writeWAV encodes frames in order to path. The file is written next to
// path and renamed into place, so a failed write leaves no partial file.
func writeWAV(path string, frames [][]float32, sampleRate, channels int) error {
	tmpPath := path + ".tmp"
	defer os.Remove(tmpPath)

	out, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer out.Close()

	enc := wav.NewEncoder(out, sampleRate, bitDepth, channels, pcmFormat)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		SourceBitDepth: bitDepth,
	}

	for _, frame := range frames {
		data := buf.Data[:0]
		for _, v := range frame {
			data = append(data, pcm16(v))
		}
		buf.Data = data
		if err := enc.Write(buf); err != nil {
			return fmt.Errorf("failed to write samples: %w", err)
		}
	}

	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to finalize WAV header: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close WAV file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to move WAV file: %w", err)
	}
	return nil
}

// Inspect reads the header of a WAV file
func Inspect(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return Info{}, fmt.Errorf("invalid WAV file: %s", path)
	}

	if err := dec.FwdToPCM(); err != nil {
		return Info{}, fmt.Errorf("failed to find PCM data: %w", err)
	}

	info := Info{
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
		BitDepth:   int(dec.BitDepth),
	}
	if info.BitDepth >= 8 {
		info.Samples = int(dec.PCMLen()) / (info.BitDepth / 8)
	}
	if info.SampleRate > 0 && info.Channels > 0 {
		frames := info.Samples / info.Channels
		info.Duration = time.Duration(frames) * time.Second / time.Duration(info.SampleRate)
	}
	return info, nil
}
