package chirp

import (
	"errors"
	"testing"
)

func TestQuantizeTick(t *testing.T) {
	tests := []struct {
		name string
		tick int
		grid int
		want int
	}{
		{"already on grid", 240, 120, 240},
		{"rounds down", 130, 120, 120},
		{"rounds up", 179, 120, 240},
		{"halfway rounds up", 180, 120, 240},
		{"zero stays", 0, 120, 0},
		{"just below half", 59, 120, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := QuantizeTick(tt.tick, tt.grid); got != tt.want {
				t.Errorf("QuantizeTick(%d, %d) = %d, want %d", tt.tick, tt.grid, got, tt.want)
			}
		})
	}
}

func TestGridValid(t *testing.T) {
	tests := []struct {
		name string
		grid int
		ppq  int
		want bool
	}{
		{"sixteenth at 480", 120, 480, true},
		{"eighth triplet at 480", 160, 480, true},
		{"zero grid", 0, 480, false},
		{"negative grid", -120, 480, false},
		{"odd grid", 7, 480, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GridValid(tt.grid, tt.ppq); got != tt.want {
				t.Errorf("GridValid(%d, %d) = %v, want %v", tt.grid, tt.ppq, got, tt.want)
			}
		})
	}
}

func TestQuantize(t *testing.T) {
	song := NewSong(480)
	song.Tracks = []Track{{
		Name: "lead",
		Notes: []Note{
			{Pitch: 60, Start: 130, Duration: 110, Velocity: 100},
		},
	}}

	if _, err := song.Quantize(120, 120); err != nil {
		t.Fatalf("Quantize failed: %v", err)
	}

	got := song.Tracks[0].Notes[0]
	if got.Start != 120 {
		t.Errorf("Start = %d, want 120", got.Start)
	}
	if got.Duration != 120 {
		t.Errorf("Duration = %d, want 120", got.Duration)
	}
	if song.QTicksNotes != 120 || song.QTicksDurations != 120 {
		t.Errorf("declared grids = (%d, %d), want (120, 120)", song.QTicksNotes, song.QTicksDurations)
	}
	if !song.IsQuantized() {
		t.Error("song should report quantized after Quantize")
	}
}

func TestQuantizeCollapsedNote(t *testing.T) {
	song := NewSong(480)
	song.Tracks = []Track{{
		Notes: []Note{
			{Pitch: 60, Start: 110, Duration: 20, Velocity: 100},
		},
	}}

	if _, err := song.Quantize(120, 120); err != nil {
		t.Fatalf("Quantize failed: %v", err)
	}

	got := song.Tracks[0].Notes[0]
	if got.Duration != 120 {
		t.Errorf("collapsed note duration = %d, want one grid unit (120)", got.Duration)
	}
}

func TestQuantizeIdempotent(t *testing.T) {
	song := NewSong(480)
	song.Tracks = []Track{{
		Notes: []Note{
			{Pitch: 60, Start: 130, Duration: 470},
			{Pitch: 64, Start: 955, Duration: 230},
		},
	}}

	if _, err := song.Quantize(120, 120); err != nil {
		t.Fatalf("first Quantize failed: %v", err)
	}
	first := append([]Note(nil), song.Tracks[0].Notes...)

	if _, err := song.Quantize(120, 120); err != nil {
		t.Fatalf("second Quantize failed: %v", err)
	}
	for i, n := range song.Tracks[0].Notes {
		if n != first[i] {
			t.Errorf("note %d changed on second pass: %v -> %v", i, first[i], n)
		}
	}
}

func TestQuantizeInvalidGrid(t *testing.T) {
	song := NewSong(480)

	if _, err := song.Quantize(7, 7); !errors.Is(err, ErrInvalidGrid) {
		t.Errorf("Quantize(7, 7) error = %v, want ErrInvalidGrid", err)
	}
	if _, err := song.Quantize(0, 120); !errors.Is(err, ErrInvalidGrid) {
		t.Errorf("Quantize(0, 120) error = %v, want ErrInvalidGrid", err)
	}
}

func TestQuantizeToNoteName(t *testing.T) {
	tests := []struct {
		value string
		want  int // expected grid at ppq 480
	}{
		{"4", 480},
		{"8", 240},
		{"16", 120},
		{"16.", 60},
		{"8-3", 80},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			song := NewSong(480)
			if _, err := song.QuantizeToNoteName(tt.value); err != nil {
				t.Fatalf("QuantizeToNoteName(%q) failed: %v", tt.value, err)
			}
			if song.QTicksNotes != tt.want {
				t.Errorf("grid = %d, want %d", song.QTicksNotes, tt.want)
			}
		})
	}

	song := NewSong(480)
	if _, err := song.QuantizeToNoteName("13"); !errors.Is(err, ErrInvalidGrid) {
		t.Errorf("QuantizeToNoteName(\"13\") error = %v, want ErrInvalidGrid", err)
	}
}

func TestFindQuantization(t *testing.T) {
	tests := []struct {
		name  string
		ppq   int
		times []int
		want  int
	}{
		{"sixteenths", 480, []int{0, 120, 240, 480, 600}, 120},
		{"quarters", 480, []int{0, 480, 960, 1920}, 480},
		{"no events", 480, nil, 480},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FindQuantization(tt.ppq, tt.times); got != tt.want {
				t.Errorf("FindQuantization = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestEstimateQuantization(t *testing.T) {
	song := NewSong(480)
	song.Tracks = []Track{{
		Notes: []Note{
			{Pitch: 60, Start: 0, Duration: 240},
			{Pitch: 62, Start: 240, Duration: 240},
			{Pitch: 64, Start: 480, Duration: 480},
			{Pitch: 65, Start: 960, Duration: 240},
		},
	}}

	qn, qd, err := song.EstimateQuantization()
	if err != nil {
		t.Fatalf("EstimateQuantization failed: %v", err)
	}
	if qn != 240 {
		t.Errorf("note grid = %d, want 240", qn)
	}
	if qd <= 0 {
		t.Errorf("duration grid = %d, want positive", qd)
	}
	if _, err := song.Quantize(qn, qd); err != nil {
		t.Fatalf("Quantize with estimated grids failed: %v", err)
	}
}
