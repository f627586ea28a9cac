package mchirp

import (
	"errors"
	"fmt"

	"github.com/chirptools/chirpconv/pkg/chirp"
)

// ErrMalformedMeasures is returned when a track's measure list does not line
// up with the song's shared measure sequence.
var ErrMalformedMeasures = errors.New("track measures do not match song measures")

// flattenTrack walks a track's measures in order and rejoins tied pairs into
// single notes with summed durations. Tie markers that have no matching
// continuation are cleared and the segment kept as a plain note.
func flattenTrack(t *Track) []chirp.Note {
	var out []chirp.Note
	var pending *chirp.Note

	flush := func() {
		if pending != nil {
			pending.TiedFrom, pending.TiedTo = false, false
			out = append(out, *pending)
			pending = nil
		}
	}

	for im := range t.Measures {
		for _, n := range t.Measures[im].Notes {
			if pending != nil && pending.TiedFrom && n.TiedTo &&
				pending.Pitch == n.Pitch && pending.End() == n.Start {
				pending.Duration += n.Duration
				pending.TiedFrom = n.TiedFrom
				continue
			}
			flush()
			nn := n
			pending = &nn
		}
	}
	flush()
	return out
}

// Demeasurize flattens a measure-aware song back onto the tick axis. Ticks
// inside measures are already absolute, so this is a structural flatten plus
// a tie merge, not an arithmetic shift. The result is quantized (measure
// boundaries are grid-aligned by construction) and free of same-track
// overlaps.
func Demeasurize(m *Song) (*chirp.Song, error) {
	for i := range m.Tracks {
		if len(m.Tracks[i].Measures) != len(m.Measures) {
			return nil, fmt.Errorf("%w: track %d has %d measures, song has %d",
				ErrMalformedMeasures, i, len(m.Tracks[i].Measures), len(m.Measures))
		}
	}

	out := chirp.NewSong(m.PPQ)
	out.Metadata = m.Metadata
	out.Tempos = append([]chirp.TempoEvent(nil), m.Tempos...)
	out.TimeSignatures = m.TimeSignatures()
	out.Tracks = make([]chirp.Track, len(m.Tracks))

	grid := 0
	for i := range m.Tracks {
		notes := flattenTrack(&m.Tracks[i])
		out.Tracks[i] = chirp.Track{
			Name:    m.Tracks[i].Name,
			Channel: m.Tracks[i].Channel,
			Program: m.Tracks[i].Program,
			Notes:   notes,
		}
		for _, n := range notes {
			grid = gcdInt(grid, gcdInt(n.Start, n.Duration))
		}
	}
	if grid <= 0 {
		grid = m.PPQ
	}
	out.QTicksNotes = grid
	out.QTicksDurations = grid
	out.IsQuantized() // warm the cache; true by construction
	return out, nil
}

func gcdInt(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
