// Package chirp implements the unquantized, polyphony-permitting, tick-indexed
// song representation and the passes that operate on it.
package chirp

import (
	"fmt"
	"sort"
	"strings"
)

// DefaultPPQ is the resolution used when a song does not declare one.
const DefaultPPQ = 960

// Track holds the notes for a single voice. All notes in a track belong to
// one channel and one instrument.
type Track struct {
	Name    string
	Channel uint8
	Program uint8
	Notes   []Note
}

// SortNotes orders the track's notes by start tick, then by descending pitch
// for simultaneous starts.
func (t *Track) SortNotes() {
	sort.SliceStable(t.Notes, func(i, j int) bool {
		if t.Notes[i].Start != t.Notes[j].Start {
			return t.Notes[i].Start < t.Notes[j].Start
		}
		return t.Notes[i].Pitch > t.Notes[j].Pitch
	})
}

// IsPolyphonic reports whether any two notes in the track overlap in time.
// The track's notes must be sorted by start tick.
func (t *Track) IsPolyphonic() bool {
	for i := 1; i < len(t.Notes); i++ {
		if t.Notes[i].Start < t.Notes[i-1].End() {
			return true
		}
	}
	return false
}

// EndTime returns the tick at which the last note of the track ends.
func (t *Track) EndTime() int {
	end := 0
	for _, n := range t.Notes {
		if n.End() > end {
			end = n.End()
		}
	}
	return end
}

func (t *Track) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Track: %s (channel %d)\n", t.Name, t.Channel)
	for _, n := range t.Notes {
		b.WriteString(n.String())
		b.WriteByte('\n')
	}
	return b.String()
}

// Song is the unquantized intermediate representation. Notes are indexed by
// absolute tick and same-track polyphony is permitted.
type Song struct {
	Metadata       Metadata
	PPQ            int // Ticks per quarter note, constant for the song
	Tempos         []TempoEvent
	TimeSignatures []TimeSignatureEvent
	KeySignatures  []KeySignatureEvent
	Tracks         []Track

	// Declared quantization grids, in ticks. A song fresh from an importer
	// has both equal to PPQ (i.e. no quantization applied yet).
	QTicksNotes     int
	QTicksDurations int

	quantized *bool // cached IsQuantized result, nil when stale
}

// NewSong creates an empty song at the given resolution.
func NewSong(ppq int) *Song {
	if ppq <= 0 {
		ppq = DefaultPPQ
	}
	return &Song{
		PPQ:             ppq,
		QTicksNotes:     ppq,
		QTicksDurations: ppq,
	}
}

// Invalidate discards the cached quantization state. Passes call it after
// mutating note timing; callers editing Tracks directly must do the same.
func (s *Song) Invalidate() {
	s.quantized = nil
}

func (s *Song) setQuantized(v bool) {
	s.quantized = &v
}

// IsQuantized reports whether every note's start and duration are exact
// multiples of the declared grids. The result is cached until the song is
// mutated through a pass or Invalidate is called.
func (s *Song) IsQuantized() bool {
	if s.quantized != nil {
		return *s.quantized
	}
	q := s.computeQuantized()
	s.quantized = &q
	return q
}

func (s *Song) computeQuantized() bool {
	if s.QTicksNotes <= 0 || s.QTicksDurations <= 0 {
		return false
	}
	for _, t := range s.Tracks {
		for _, n := range t.Notes {
			if n.Start%s.QTicksNotes != 0 || n.Duration%s.QTicksDurations != 0 {
				return false
			}
		}
	}
	return true
}

// IsPolyphonic reports whether any track contains overlapping notes.
func (s *Song) IsPolyphonic() bool {
	for i := range s.Tracks {
		if s.Tracks[i].IsPolyphonic() {
			return true
		}
	}
	return false
}

// EndTime returns the tick at which the last note in the song ends.
func (s *Song) EndTime() int {
	end := 0
	for i := range s.Tracks {
		if e := s.Tracks[i].EndTime(); e > end {
			end = e
		}
	}
	return end
}

// SortAll orders the notes of every track by start tick.
func (s *Song) SortAll() {
	for i := range s.Tracks {
		s.Tracks[i].SortNotes()
	}
}

// Transpose shifts every note by the given number of semitones. Notes that
// would leave the MIDI range are clamped to it.
func (s *Song) Transpose(semitones int) *Song {
	for i := range s.Tracks {
		for j := range s.Tracks[i].Notes {
			p := s.Tracks[i].Notes[j].Pitch + semitones
			if p < 0 {
				p = 0
			}
			if p > 127 {
				p = 127
			}
			s.Tracks[i].Notes[j].Pitch = p
		}
	}
	return s
}

// Modulate performs metric modulation, scaling every time by num/denom and
// adjusting tempos and time signatures so the result sounds identical.
func (s *Song) Modulate(num, denom int) *Song {
	scale := func(t int) int { return t * num / denom }
	for i := range s.Tracks {
		for j := range s.Tracks[i].Notes {
			s.Tracks[i].Notes[j].Start = scale(s.Tracks[i].Notes[j].Start)
			s.Tracks[i].Notes[j].Duration = scale(s.Tracks[i].Notes[j].Duration)
		}
	}
	for i, ts := range s.TimeSignatures {
		s.TimeSignatures[i] = TimeSignatureEvent{Tick: ts.Tick, Num: ts.Num * num, Denom: ts.Denom * denom}
	}
	for i, tm := range s.Tempos {
		s.Tempos[i] = TempoEvent{Tick: scale(tm.Tick), BPM: tm.BPM * float64(num) / float64(denom)}
	}
	for i, ks := range s.KeySignatures {
		s.KeySignatures[i] = KeySignatureEvent{Tick: scale(ks.Tick), Key: ks.Key}
	}
	s.QTicksNotes = scale(s.QTicksNotes)
	s.QTicksDurations = scale(s.QTicksDurations)
	s.Invalidate()
	return s
}

// RemoveControlNotes drops notes with pitch <= controlMax from every track.
// Some MIDI applications use extremely low notes as a signaling mechanism.
func (s *Song) RemoveControlNotes(controlMax int) *Song {
	for i := range s.Tracks {
		kept := s.Tracks[i].Notes[:0]
		for _, n := range s.Tracks[i].Notes {
			if n.Pitch > controlMax {
				kept = append(kept, n)
			}
		}
		s.Tracks[i].Notes = kept
	}
	s.Invalidate()
	return s
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

// TrackNotes returns the notes of track i.
func (s *Song) TrackNotes(i int) []Note { return s.Tracks[i].Notes }
