package audio

import "testing"

func TestDownmixInterleavedMono(t *testing.T) {
	input := []float32{0.1, 0.2, 0.3, 0.4}
	got := downmixInterleaved(input, 1, len(input))

	if len(got) != len(input) {
		t.Fatalf("expected %d samples, got %d", len(input), len(got))
	}
	for i := range input {
		if got[i] != input[i] {
			t.Fatalf("expected element %d to be %f, got %f", i, input[i], got[i])
		}
	}

	if &got[0] == &input[0] {
		t.Fatal("expected mono result to be copied into a new slice")
	}
}

func TestDownmixInterleavedStereo(t *testing.T) {
	frames := 4
	input := []float32{
		0.0, 1.0,
		0.5, 0.5,
		1.0, 0.0,
		-0.5, 0.5,
	}

	expected := []float32{
		0.5, 0.5, 0.5, 0.0,
	}

	got := downmixInterleaved(input, 2, frames)
	if len(got) != len(expected) {
		t.Fatalf("expected %d frames, got %d", len(expected), len(got))
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Fatalf("frame %d mismatch: expected %f, got %f", i, expected[i], got[i])
		}
	}
}

func TestDownmixInterleavedEmpty(t *testing.T) {
	if got := downmixInterleaved(nil, 2, 0); len(got) != 0 {
		t.Fatalf("expected no frames, got %d", len(got))
	}
}

func TestPCM16(t *testing.T) {
	tests := []struct {
		in   float32
		want int
	}{
		{in: 0, want: 0},
		{in: 1, want: 32767},
		{in: -1, want: -32767},
		{in: 3, want: 32767},
		{in: -3, want: -32767},
		{in: 0.5, want: 16384},
		{in: 1.0 / 32767, want: 1},
	}

	for _, tt := range tests {
		if got := pcm16(tt.in); got != tt.want {
			t.Errorf("pcm16(%f) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestTransitionTable(t *testing.T) {
	tests := []struct {
		from, to State
		want     bool
	}{
		{StateIdle, StateRecording, true},
		{StateIdle, StatePaused, false},
		{StateIdle, StateStopped, false},
		{StateRecording, StatePaused, true},
		{StateRecording, StateStopped, true},
		{StatePaused, StateRecording, true},
		{StatePaused, StateStopped, true},
		{StateStopped, StateRecording, false},
		{StateStopped, StatePaused, false},
	}

	for _, tt := range tests {
		if got := canTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("%s -> %s: got %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}
