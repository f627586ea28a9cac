package transform

import (
	"fmt"
	"sort"
	"strings"

	"github.com/chirptools/chirpconv/pkg/chirp"
)

// TrackStats describes one track of the input.
type TrackStats struct {
	Label   string
	Notes   int
	Density float64 // Notes per quarter note over the track's span
}

// Stats is the fixed battery of descriptive statistics computed over a song.
// The field set and the computed values are part of the package's contract;
// Render produces the canonical text form.
type Stats struct {
	Title      string
	Resolution int
	NoteCount  int
	PitchMin   int
	PitchMax   int
	SpanStart  int // First note start, in ticks
	SpanEnd    int // Last note end, in ticks
	Pitches    map[int]int // Pitch histogram
	Durations  map[int]int // Duration histogram, in ticks
	Tracks     []TrackStats
}

// Collect computes the statistics battery over a song.
func Collect[S Source](s S) *Stats {
	st := &Stats{
		Title:      s.Title(),
		Resolution: s.Resolution(),
		PitchMin:   -1,
		PitchMax:   -1,
		Pitches:    make(map[int]int),
		Durations:  make(map[int]int),
	}
	first, last := -1, 0
	for i := 0; i < s.TrackCount(); i++ {
		notes := s.TrackNotes(i)
		ts := TrackStats{Label: s.TrackLabel(i), Notes: len(notes)}
		trackFirst, trackLast := -1, 0
		for _, n := range notes {
			st.NoteCount++
			st.Pitches[n.Pitch]++
			st.Durations[n.Duration]++
			if st.PitchMin == -1 || n.Pitch < st.PitchMin {
				st.PitchMin = n.Pitch
			}
			if n.Pitch > st.PitchMax {
				st.PitchMax = n.Pitch
			}
			if trackFirst == -1 || n.Start < trackFirst {
				trackFirst = n.Start
			}
			if n.End() > trackLast {
				trackLast = n.End()
			}
		}
		if trackFirst >= 0 {
			if first == -1 || trackFirst < first {
				first = trackFirst
			}
			if trackLast > last {
				last = trackLast
			}
			if span := trackLast - trackFirst; span > 0 {
				ts.Density = float64(ts.Notes) * float64(st.Resolution) / float64(span)
			}
		}
		st.Tracks = append(st.Tracks, ts)
	}
	if first > 0 {
		st.SpanStart = first
	}
	st.SpanEnd = last
	return st
}

func pitchLabel(pitch int) string {
	name, err := chirp.PitchToName(pitch, 0)
	if err != nil {
		return fmt.Sprintf("%d", pitch)
	}
	return fmt.Sprintf("%s (%d)", name, pitch)
}

// Render produces the canonical human-readable text block. Field labels and
// ordering are stable across versions; adapters that want another layout
// should read the struct fields instead.
func (st *Stats) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Title:       %s\n", st.Title)
	fmt.Fprintf(&b, "Resolution:  %d ticks/quarter\n", st.Resolution)
	fmt.Fprintf(&b, "Note count:  %d\n", st.NoteCount)
	if st.NoteCount > 0 {
		fmt.Fprintf(&b, "Pitch range: %s - %s\n", pitchLabel(st.PitchMin), pitchLabel(st.PitchMax))
	} else {
		b.WriteString("Pitch range: -\n")
	}
	fmt.Fprintf(&b, "Tick span:   %d - %d\n", st.SpanStart, st.SpanEnd)

	b.WriteString("Tracks:\n")
	for i, t := range st.Tracks {
		fmt.Fprintf(&b, "  %d %s: %d notes, density %.2f\n", i+1, t.Label, t.Notes, t.Density)
	}

	b.WriteString("Pitch histogram:\n")
	for _, p := range sortedKeys(st.Pitches) {
		fmt.Fprintf(&b, "  %-12s %d\n", pitchLabel(p), st.Pitches[p])
	}
	b.WriteString("Duration histogram:\n")
	for _, d := range sortedKeys(st.Durations) {
		name := chirp.DurationToNoteName(d, st.Resolution)
		fmt.Fprintf(&b, "  %6d ticks (%s): %d\n", d, name, st.Durations[d])
	}
	return b.String()
}

func sortedKeys(m map[int]int) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
