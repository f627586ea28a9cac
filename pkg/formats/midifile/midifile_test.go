package midifile

import (
	"errors"
	"testing"

	"github.com/chirptools/chirpconv/pkg/chirp"
)

func testSong() *chirp.Song {
	s := chirp.NewSong(480)
	s.Metadata.Name = "round trip"
	s.Tempos = []chirp.TempoEvent{{Tick: 0, BPM: 120}}
	s.TimeSignatures = []chirp.TimeSignatureEvent{{Tick: 0, Num: 4, Denom: 4}}
	s.Tracks = []chirp.Track{
		{Name: "lead", Channel: 0, Program: 81, Notes: []chirp.Note{
			{Pitch: 60, Start: 0, Duration: 480, Velocity: 100},
			{Pitch: 64, Start: 480, Duration: 240, Velocity: 90},
			{Pitch: 67, Start: 960, Duration: 960, Velocity: 80},
		}},
		{Name: "bass", Channel: 1, Program: 33, Notes: []chirp.Note{
			{Pitch: 36, Start: 0, Duration: 1920, Velocity: 110},
		}},
	}
	return s
}

func TestRoundTrip(t *testing.T) {
	original := testSong()

	data, err := New().ExportChirp(original)
	if err != nil {
		t.Fatalf("ExportChirp failed: %v", err)
	}
	back, err := New().ImportChirp(data)
	if err != nil {
		t.Fatalf("ImportChirp failed: %v", err)
	}

	if back.PPQ != original.PPQ {
		t.Errorf("PPQ = %d, want %d", back.PPQ, original.PPQ)
	}
	if back.Metadata.Name != original.Metadata.Name {
		t.Errorf("title = %q, want %q", back.Metadata.Name, original.Metadata.Name)
	}
	if len(back.Tracks) != len(original.Tracks) {
		t.Fatalf("got %d tracks, want %d", len(back.Tracks), len(original.Tracks))
	}
	for ti := range original.Tracks {
		want := original.Tracks[ti]
		got := back.Tracks[ti]
		if got.Channel != want.Channel {
			t.Errorf("track %d channel = %d, want %d", ti, got.Channel, want.Channel)
		}
		if got.Program != want.Program {
			t.Errorf("track %d program = %d, want %d", ti, got.Program, want.Program)
		}
		if got.Name != want.Name {
			t.Errorf("track %d name = %q, want %q", ti, got.Name, want.Name)
		}
		if len(got.Notes) != len(want.Notes) {
			t.Fatalf("track %d has %d notes, want %d", ti, len(got.Notes), len(want.Notes))
		}
		for ni := range want.Notes {
			if got.Notes[ni] != want.Notes[ni] {
				t.Errorf("track %d note %d = %+v, want %+v", ti, ni, got.Notes[ni], want.Notes[ni])
			}
		}
	}

	if len(back.Tempos) != 1 || back.Tempos[0].BPM != 120 {
		t.Errorf("tempos = %v, want single 120 BPM event", back.Tempos)
	}
	if len(back.TimeSignatures) != 1 || back.TimeSignatures[0].Num != 4 || back.TimeSignatures[0].Denom != 4 {
		t.Errorf("time signatures = %v, want single 4/4 event", back.TimeSignatures)
	}
}

func TestImportDefaults(t *testing.T) {
	// A file with no tempo or time-signature events still produces a usable
	// song.
	s := chirp.NewSong(480)
	s.Tracks = []chirp.Track{{Channel: 0, Notes: []chirp.Note{
		{Pitch: 60, Start: 0, Duration: 480, Velocity: 100},
	}}}

	data, err := New().ExportChirp(s)
	if err != nil {
		t.Fatalf("ExportChirp failed: %v", err)
	}
	back, err := New().ImportChirp(data)
	if err != nil {
		t.Fatalf("ImportChirp failed: %v", err)
	}

	if len(back.Tempos) != 1 || back.Tempos[0].Tick != 0 || back.Tempos[0].BPM != DefaultBPM {
		t.Errorf("tempos = %v, want a single default at tick 0", back.Tempos)
	}
	if len(back.TimeSignatures) != 1 || back.TimeSignatures[0].Num != 4 {
		t.Errorf("time signatures = %v, want default 4/4", back.TimeSignatures)
	}
}

func TestImportGarbage(t *testing.T) {
	if _, err := New().ImportChirp([]byte("not a midi file")); err == nil {
		t.Error("expected an error for non-MIDI data")
	}
}

func TestExportRejectsDegenerateNotes(t *testing.T) {
	s := chirp.NewSong(480)
	s.Tracks = []chirp.Track{{Notes: []chirp.Note{
		{Pitch: 60, Start: 0, Duration: 0, Velocity: 100},
	}}}

	if _, err := New().ExportChirp(s); !errors.Is(err, chirp.ErrDegenerateEvent) {
		t.Errorf("error = %v, want ErrDegenerateEvent", err)
	}
}

func TestExportRejectsBadPitch(t *testing.T) {
	s := chirp.NewSong(480)
	s.Tracks = []chirp.Track{{Notes: []chirp.Note{
		{Pitch: 200, Start: 0, Duration: 480, Velocity: 100},
	}}}

	if _, err := New().ExportChirp(s); !errors.Is(err, chirp.ErrInvalidPitch) {
		t.Errorf("error = %v, want ErrInvalidPitch", err)
	}
}

func TestRepeatedNoteRoundTrip(t *testing.T) {
	// Back-to-back identical pitches must come back as two notes, not one.
	s := chirp.NewSong(480)
	s.Tempos = []chirp.TempoEvent{{Tick: 0, BPM: 120}}
	s.TimeSignatures = []chirp.TimeSignatureEvent{{Tick: 0, Num: 4, Denom: 4}}
	s.Tracks = []chirp.Track{{Channel: 0, Notes: []chirp.Note{
		{Pitch: 60, Start: 0, Duration: 480, Velocity: 100},
		{Pitch: 60, Start: 480, Duration: 480, Velocity: 100},
	}}}

	data, err := New().ExportChirp(s)
	if err != nil {
		t.Fatalf("ExportChirp failed: %v", err)
	}
	back, err := New().ImportChirp(data)
	if err != nil {
		t.Fatalf("ImportChirp failed: %v", err)
	}

	got := back.Tracks[0].Notes
	if len(got) != 2 {
		t.Fatalf("got %d notes, want 2: %v", len(got), got)
	}
	if got[0].Duration != 480 || got[1].Duration != 480 {
		t.Errorf("durations = (%d, %d), want (480, 480)", got[0].Duration, got[1].Duration)
	}
}
