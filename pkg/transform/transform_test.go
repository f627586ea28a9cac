package transform

import (
	"errors"
	"strings"
	"testing"

	"github.com/chirptools/chirpconv/pkg/chirp"
	"github.com/chirptools/chirpconv/pkg/mchirp"
)

func testSong() *chirp.Song {
	s := chirp.NewSong(480)
	s.Metadata.Name = "test song"
	s.Tracks = []chirp.Track{
		{Name: "lead", Channel: 0, Notes: []chirp.Note{
			{Pitch: 60, Start: 0, Duration: 480},
			{Pitch: 64, Start: 480, Duration: 240},
			{Pitch: 67, Start: 720, Duration: 240},
		}},
		{Name: "bass", Channel: 1, Notes: []chirp.Note{
			{Pitch: 36, Start: 0, Duration: 960},
		}},
	}
	return s
}

func TestCollect(t *testing.T) {
	st := Collect(testSong())

	if st.Title != "test song" {
		t.Errorf("Title = %q", st.Title)
	}
	if st.Resolution != 480 {
		t.Errorf("Resolution = %d", st.Resolution)
	}
	if st.NoteCount != 4 {
		t.Errorf("NoteCount = %d, want 4", st.NoteCount)
	}
	if st.PitchMin != 36 || st.PitchMax != 67 {
		t.Errorf("pitch range = (%d, %d), want (36, 67)", st.PitchMin, st.PitchMax)
	}
	if st.SpanStart != 0 || st.SpanEnd != 960 {
		t.Errorf("tick span = (%d, %d), want (0, 960)", st.SpanStart, st.SpanEnd)
	}
	if len(st.Tracks) != 2 {
		t.Fatalf("got %d track entries, want 2", len(st.Tracks))
	}
	if st.Tracks[0].Notes != 3 || st.Tracks[1].Notes != 1 {
		t.Errorf("per-track counts = (%d, %d), want (3, 1)", st.Tracks[0].Notes, st.Tracks[1].Notes)
	}
	if st.Pitches[60] != 1 || st.Durations[240] != 2 {
		t.Errorf("histograms wrong: pitches=%v durations=%v", st.Pitches, st.Durations)
	}
}

func TestCollectEmptySong(t *testing.T) {
	st := Collect(chirp.NewSong(480))
	if st.NoteCount != 0 || st.SpanStart != 0 || st.SpanEnd != 0 {
		t.Errorf("empty song stats = %+v", st)
	}
}

func TestApplyStatsDescribeInput(t *testing.T) {
	song := testSong()

	// The transform mutates the song; the stats must still describe what was
	// fed in.
	_, st, err := Apply(song, func(s *chirp.Song) (*chirp.Song, error) {
		s.Tracks = s.Tracks[:1]
		return s, nil
	})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if st.NoteCount != 4 {
		t.Errorf("NoteCount = %d, want the pre-transform count 4", st.NoteCount)
	}
	if len(st.Tracks) != 2 {
		t.Errorf("got %d track entries, want the pre-transform 2", len(st.Tracks))
	}
}

func TestApplyPropagatesError(t *testing.T) {
	boom := errors.New("boom")
	_, st, err := Apply(testSong(), func(s *chirp.Song) (*chirp.Song, error) {
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("error = %v, want it unchanged", err)
	}
	if st == nil || st.NoteCount != 4 {
		t.Error("stats must still be valid when the transform fails")
	}
}

func TestIdentity(t *testing.T) {
	song := testSong()
	out, _, err := Apply(song, Identity[*chirp.Song])
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if out != song {
		t.Error("Identity must return its input")
	}
}

func TestApplyOverMeasuredSong(t *testing.T) {
	// The engine runs over the measure-aware representation too. A note tied
	// across the bar line shows up as its two segments in the statistics.
	s := chirp.NewSong(480)
	s.Metadata.Name = "measured"
	s.Tempos = []chirp.TempoEvent{{Tick: 0, BPM: 120}}
	s.TimeSignatures = []chirp.TimeSignatureEvent{{Tick: 0, Num: 4, Denom: 4}}
	s.QTicksNotes = 120
	s.QTicksDurations = 120
	s.Tracks = []chirp.Track{{Name: "lead", Notes: []chirp.Note{
		{Pitch: 60, Start: 0, Duration: 480},
		{Pitch: 64, Start: 1800, Duration: 480},
	}}}

	m, err := mchirp.Measurize(s, nil)
	if err != nil {
		t.Fatalf("Measurize failed: %v", err)
	}

	out, st, err := Apply(m, Identity[*mchirp.Song])
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if out != m {
		t.Error("Identity must return its input")
	}
	if st.Title != "measured" || st.Resolution != 480 {
		t.Errorf("header = (%q, %d), want (\"measured\", 480)", st.Title, st.Resolution)
	}
	if st.NoteCount != 3 {
		t.Errorf("NoteCount = %d, want 3 (two notes, one split at the bar line)", st.NoteCount)
	}
	if st.Durations[120] != 1 || st.Durations[360] != 1 || st.Durations[480] != 1 {
		t.Errorf("duration histogram = %v, want the split segments counted", st.Durations)
	}
	if st.SpanStart != 0 || st.SpanEnd != 2280 {
		t.Errorf("tick span = (%d, %d), want (0, 2280)", st.SpanStart, st.SpanEnd)
	}
}

func TestRender(t *testing.T) {
	text := Collect(testSong()).Render()

	for _, want := range []string{
		"Title:       test song",
		"Resolution:  480 ticks/quarter",
		"Note count:  4",
		"lead (ch 0): 3 notes",
		"bass (ch 1): 1 notes",
		"C4 (60)",
		"quarter",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("rendered stats missing %q:\n%s", want, text)
		}
	}
}
