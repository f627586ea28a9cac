package chirp

import (
	"fmt"
	"strings"
)

// QuantizeTick snaps a tick to the nearest multiple of the grid using
// round-half-up: a tick exactly halfway between two grid lines snaps to the
// higher one.
func QuantizeTick(t, grid int) int {
	return (t + grid/2) / grid * grid
}

// GridValid reports whether a grid is usable at the given resolution. The
// grid must be positive and evenly divide twelve quarter notes, which admits
// binary, dotted, and triplet subdivisions.
func GridValid(grid, ppq int) bool {
	return grid > 0 && (12*ppq)%grid == 0
}

// Quantize snaps every note's start and end to the given grids, in place,
// and returns the song. Note starts snap to qNotes and note ends to
// qDurations. A note whose snapped end falls at or before its snapped start
// is given a duration of one grid unit; collapsed notes are never merged
// here, that is the polyphony remover's job. Tempo, time-signature, and
// key-signature ticks snap to qNotes.
func (s *Song) Quantize(qNotes, qDurations int) (*Song, error) {
	if !GridValid(qNotes, s.PPQ) {
		return nil, fmt.Errorf("%w: note grid %d at ppq %d", ErrInvalidGrid, qNotes, s.PPQ)
	}
	if !GridValid(qDurations, s.PPQ) {
		return nil, fmt.Errorf("%w: duration grid %d at ppq %d", ErrInvalidGrid, qDurations, s.PPQ)
	}
	s.QTicksNotes = qNotes
	s.QTicksDurations = qDurations

	for i := range s.Tracks {
		t := &s.Tracks[i]
		for j, n := range t.Notes {
			start := QuantizeTick(n.Start, qNotes)
			end := QuantizeTick(n.End(), qDurations)
			dur := end - start
			if dur <= 0 {
				dur = qDurations
			}
			if dur%qDurations != 0 {
				// Mixed grids can leave a duration off the duration grid;
				// snap it, never below one grid unit.
				dur = QuantizeTick(dur, qDurations)
				if dur <= 0 {
					dur = qDurations
				}
			}
			t.Notes[j].Start = start
			t.Notes[j].Duration = dur
		}
		t.SortNotes()
	}

	for i, tm := range s.Tempos {
		s.Tempos[i] = TempoEvent{Tick: QuantizeTick(tm.Tick, qNotes), BPM: tm.BPM}
	}
	for i, ts := range s.TimeSignatures {
		s.TimeSignatures[i] = TimeSignatureEvent{Tick: QuantizeTick(ts.Tick, qNotes), Num: ts.Num, Denom: ts.Denom}
	}
	for i, ks := range s.KeySignatures {
		s.KeySignatures[i] = KeySignatureEvent{Tick: QuantizeTick(ks.Tick, qNotes), Key: ks.Key}
	}

	s.setQuantized(true)
	return s, nil
}

// QuantizeToNoteName quantizes using a note-value string instead of raw
// ticks. "16" quantizes to sixteenth notes; a trailing "." admits dotted
// values and a trailing "-3" admits triplets of the given value.
func (s *Song) QuantizeToNoteName(value string) (*Song, error) {
	dotted := strings.Contains(value, ".")
	triplets := strings.Contains(value, "-3")
	value = strings.ReplaceAll(value, ".", "")
	value = strings.ReplaceAll(value, "-3", "")

	f, ok := noteValueFractions[value]
	if !ok {
		return nil, fmt.Errorf("%w: unknown note value %q", ErrInvalidGrid, value)
	}
	qticks := f.Ticks(s.PPQ)
	if dotted {
		qticks /= 2
	}
	if triplets {
		qticks /= 3
	}
	return s.Quantize(qticks, qticks)
}

// quantizationError is the distance, in ticks, from a time to the nearest
// multiple of the candidate grid.
func quantizationError(t, grid int) int {
	j := t / grid
	lo := t - grid*j
	hi := grid*(j+1) - t
	if lo < hi {
		return lo
	}
	return hi
}

// objectiveError scores a candidate grid against a set of times. The maximum
// error is used; empirically it is robust for real-world material.
func objectiveError(times []int, grid int) int {
	worst := 0
	for _, t := range times {
		if e := quantizationError(t, grid); e > worst {
			worst = e
		}
	}
	return worst
}

// FindQuantization estimates the grid underlying a set of times. It walks
// down from quarter notes through successive halvings, testing the triplet of
// each value along the way, and stops at the first error minimum. Returns 1
// (single-tick resolution) when no grid fits.
func FindQuantization(ppq int, times []int) int {
	if len(times) == 0 {
		return ppq
	}
	lastErr := len(times) * ppq
	lastGrid := ppq
	for noteValue := 4; noteValue <= 128; noteValue *= 2 {
		grid := ppq * 4 / noteValue
		e := objectiveError(times, grid)
		if e == 0 {
			return grid
		}
		if e > lastErr {
			return lastGrid
		}
		lastGrid, lastErr = grid, e

		grid = grid * 2 / 3
		e = objectiveError(times, grid)
		if e == 0 {
			return grid
		}
		if e > lastErr {
			return lastGrid
		}
		lastGrid, lastErr = grid, e
	}
	return 1
}

// FindDurationQuantization estimates a duration grid from the shortest note,
// starting from the note-start grid and admitting triplet and half steps
// until the shortest duration fits.
func FindDurationQuantization(durations []int, qNotes int) (int, error) {
	if len(durations) == 0 {
		return qNotes, nil
	}
	min := durations[0]
	for _, d := range durations {
		if d < min {
			min = d
		}
	}
	if min <= 0 {
		return 0, fmt.Errorf("%w: minimum note length %d", ErrDegenerateEvent, min)
	}
	current := qNotes
	for float64(min)/float64(current) < 0.9 {
		tmp := current
		current = current * 3 / 2
		if float64(min)/float64(current) > 0.9 {
			break
		}
		current = tmp / 2
		if current == 0 {
			return 1, nil
		}
	}
	return current, nil
}

// EstimateQuantization estimates note-start and duration grids from the
// song's own note data. Material with long notes or little movement can fool
// the estimator; the result is a starting point, not an oracle.
func (s *Song) EstimateQuantization() (qNotes, qDurations int, err error) {
	var starts, durations []int
	for i := range s.Tracks {
		for _, n := range s.Tracks[i].Notes {
			starts = append(starts, n.Start)
			durations = append(durations, n.Duration)
		}
	}
	qNotes = FindQuantization(s.PPQ, starts)
	qDurations, err = FindDurationQuantization(durations, qNotes)
	if err != nil {
		return 0, 0, err
	}
	if qDurations < qNotes {
		qDurations = qNotes / 2
	}
	return qNotes, qDurations, nil
}
