package ml64

import (
	"errors"
	"strings"
	"testing"

	"github.com/chirptools/chirpconv/pkg/chirp"
	"github.com/chirptools/chirpconv/pkg/mchirp"
)

// measurized builds a two-measure 4/4 song at 480 ppq from the given notes.
func measurized(t *testing.T, bpm float64, notes []chirp.Note) *mchirp.Song {
	t.Helper()
	s := chirp.NewSong(480)
	s.Tempos = []chirp.TempoEvent{{Tick: 0, BPM: bpm}}
	s.TimeSignatures = []chirp.TimeSignatureEvent{{Tick: 0, Num: 4, Denom: 4}}
	s.QTicksNotes = 120
	s.QTicksDurations = 120
	s.Tracks = []chirp.Track{{Name: "lead", Notes: notes}}

	m, err := mchirp.Measurize(s, nil)
	if err != nil {
		t.Fatalf("Measurize failed: %v", err)
	}
	return m
}

func TestPitchCode(t *testing.T) {
	tests := []struct {
		pitch int
		want  string
	}{
		{60, "C4"},
		{61, "C#4"},
		{48, "C3"},
		{69, "A4"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got, err := pitchCode(tt.pitch)
			if err != nil {
				t.Fatalf("pitchCode(%d) failed: %v", tt.pitch, err)
			}
			if got != tt.want {
				t.Errorf("pitchCode(%d) = %q, want %q", tt.pitch, got, tt.want)
			}
		})
	}
}

func TestExportMChirp(t *testing.T) {
	m := measurized(t, 120, []chirp.Note{
		{Pitch: 60, Start: 0, Duration: 480},
		{Pitch: 64, Start: 960, Duration: 960},
		{Pitch: 67, Start: 1920, Duration: 1920},
	})

	got, err := New().ExportMChirp(m)
	if err != nil {
		t.Fatalf("ExportMChirp failed: %v", err)
	}

	want := "ML64(1.3)\n" +
		"song(1)\n" +
		"tempo(120)\n" +
		"track(1)\n" +
		"[m1]C4(4)r(4)E4(2)[m2]G4(1)\n" +
		"track(-)\n" +
		"song(-)\n" +
		"ML64(-)\n"
	if string(got) != want {
		t.Errorf("output mismatch\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestExportTiedNote(t *testing.T) {
	// A sixteenth before the bar line tied to a dotted eighth after it.
	m := measurized(t, 112, []chirp.Note{
		{Pitch: 60, Start: 1800, Duration: 480},
	})

	got, err := New().ExportMChirp(m)
	if err != nil {
		t.Fatalf("ExportMChirp failed: %v", err)
	}

	want := "ML64(1.3)\n" +
		"song(1)\n" +
		"tempo(112)\n" +
		"track(1)\n" +
		"[m1]r(2d)r(8d)C4(16)[m2]c(8d)r(2d)r(16)\n" +
		"track(-)\n" +
		"song(-)\n" +
		"ML64(-)\n"
	if string(got) != want {
		t.Errorf("output mismatch\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestExportWithoutMeasureComments(t *testing.T) {
	m := measurized(t, 120, []chirp.Note{
		{Pitch: 60, Start: 0, Duration: 1920},
	})

	e := New()
	e.Measures = false
	got, err := e.ExportMChirp(m)
	if err != nil {
		t.Fatalf("ExportMChirp failed: %v", err)
	}

	want := "ML64(1.3)\n" +
		"song(1)\n" +
		"tempo(120)\n" +
		"track(1)\n" +
		"C4(1)\n" +
		"track(-)\n" +
		"song(-)\n" +
		"ML64(-)\n"
	if string(got) != want {
		t.Errorf("output mismatch\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestExportDefaultTempo(t *testing.T) {
	m := measurized(t, 120, []chirp.Note{{Pitch: 60, Start: 0, Duration: 480}})
	m.Tempos = nil

	got, err := New().ExportMChirp(m)
	if err != nil {
		t.Fatalf("ExportMChirp failed: %v", err)
	}
	if want := "tempo(112)\n"; !strings.Contains(string(got), want) {
		t.Errorf("output missing %q:\n%s", want, got)
	}
}

func TestExportUnrepresentableDuration(t *testing.T) {
	// A thirty-second note has no ML64 spelling.
	s := chirp.NewSong(480)
	s.Tempos = []chirp.TempoEvent{{Tick: 0, BPM: 120}}
	s.TimeSignatures = []chirp.TimeSignatureEvent{{Tick: 0, Num: 4, Denom: 4}}
	s.QTicksNotes = 60
	s.QTicksDurations = 60
	s.Tracks = []chirp.Track{{Notes: []chirp.Note{{Pitch: 60, Start: 0, Duration: 60}}}}

	m, err := mchirp.Measurize(s, nil)
	if err != nil {
		t.Fatalf("Measurize failed: %v", err)
	}
	if _, err := New().ExportMChirp(m); !errors.Is(err, ErrUnrepresentable) {
		t.Errorf("error = %v, want ErrUnrepresentable", err)
	}
}
