// Package mchirp implements the quantized, measure-aware, per-track
// monophonic song representation and the passes converting to and from the
// tick-indexed form.
package mchirp

import (
	"fmt"

	"github.com/chirptools/chirpconv/pkg/chirp"
)

// Measure is a fixed span of ticks defined by a time signature. Ticks are
// absolute from the start of the song.
type Measure struct {
	Index  int // Zero-based measure number
	Num    int // Beats per measure
	Denom  int // Beat unit (4 = quarter note)
	Start  int // First tick of the measure
	Length int // Length in ticks, derived from the signature and resolution
}

// End returns the first tick after the measure.
func (m Measure) End() int {
	return m.Start + m.Length
}

// Contains reports whether a tick falls inside the measure.
func (m Measure) Contains(tick int) bool {
	return tick >= m.Start && tick < m.End()
}

// Rest is a silent span inside a measure. Ticks are absolute.
type Rest struct {
	Start    int
	Duration int
}

// MeasureContent holds one track's events confined to one measure. Notes
// never overlap and never cross the measure's boundaries; a note that sounds
// across a boundary is stored as a tied pair of segments.
type MeasureContent struct {
	Notes []chirp.Note
	Rests []Rest
}

// Track holds one voice's contents, one MeasureContent per song measure.
type Track struct {
	Name     string
	Channel  uint8
	Program  uint8
	Measures []MeasureContent
}

// Song is the measure-aware intermediate representation. The measure list is
// shared across tracks; every track has exactly one MeasureContent per
// measure. Same-track polyphony is structurally impossible; simultaneous
// sound only happens across tracks.
type Song struct {
	Metadata chirp.Metadata
	PPQ      int
	Tempos   []chirp.TempoEvent
	Measures []Measure
	Tracks   []Track
}

// Title returns the song name from its metadata.
func (s *Song) Title() string { return s.Metadata.Name }

// Resolution returns the song's ticks per quarter note.
func (s *Song) Resolution() int { return s.PPQ }

// TrackCount returns the number of tracks.
func (s *Song) TrackCount() int { return len(s.Tracks) }

// TrackLabel returns a human-readable label for track i.
func (s *Song) TrackLabel(i int) string {
	t := &s.Tracks[i]
	if t.Name == "" {
		return fmt.Sprintf("ch %d", t.Channel)
	}
	return fmt.Sprintf("%s (ch %d)", t.Name, t.Channel)
}

// TrackNotes returns the notes of track i across all measures, in measure
// order. Tied pairs appear as their split segments.
func (s *Song) TrackNotes(i int) []chirp.Note {
	var out []chirp.Note
	for _, mc := range s.Tracks[i].Measures {
		out = append(out, mc.Notes...)
	}
	return out
}

// EndTime returns the end tick of the final measure.
func (s *Song) EndTime() int {
	if len(s.Measures) == 0 {
		return 0
	}
	return s.Measures[len(s.Measures)-1].End()
}

// TimeSignatures reconstructs the time-signature change list implied by the
// measure sequence: one event at tick 0 and one at each measure where the
// signature differs from the previous measure.
func (s *Song) TimeSignatures() []chirp.TimeSignatureEvent {
	var out []chirp.TimeSignatureEvent
	for _, m := range s.Measures {
		if len(out) == 0 || out[len(out)-1].Num != m.Num || out[len(out)-1].Denom != m.Denom {
			out = append(out, chirp.TimeSignatureEvent{Tick: m.Start, Num: m.Num, Denom: m.Denom})
		}
	}
	return out
}
