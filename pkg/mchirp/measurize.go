package mchirp

import (
	"fmt"

	"github.com/chirptools/chirpconv/pkg/chirp"
)

func powerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// ValidateTimeSignatureMap checks that the map has an entry at tick 0,
// strictly increasing ticks, positive beat counts, and power-of-two beat
// units no larger than 32.
func ValidateTimeSignatureMap(ts []chirp.TimeSignatureEvent) error {
	if len(ts) == 0 {
		return fmt.Errorf("%w: empty", ErrMalformedTimeSignatureMap)
	}
	if ts[0].Tick != 0 {
		return fmt.Errorf("%w: first entry at tick %d, want 0", ErrMalformedTimeSignatureMap, ts[0].Tick)
	}
	for i, sig := range ts {
		if sig.Num <= 0 {
			return fmt.Errorf("%w: %d beats per measure at tick %d", ErrMalformedTimeSignatureMap, sig.Num, sig.Tick)
		}
		if !powerOfTwo(sig.Denom) || sig.Denom > 32 {
			return fmt.Errorf("%w: beat unit %d at tick %d", ErrMalformedTimeSignatureMap, sig.Denom, sig.Tick)
		}
		if i > 0 && sig.Tick <= ts[i-1].Tick {
			return fmt.Errorf("%w: tick %d not after %d", ErrMalformedTimeSignatureMap, sig.Tick, ts[i-1].Tick)
		}
	}
	return nil
}

// buildMeasures walks the tick axis from 0 and emits one measure per bar
// until endTime is covered. A signature change only takes effect at the
// first measure boundary at or after its tick. The final bar is always a
// full measure, even when under-filled.
func buildMeasures(ppq, endTime int, ts []chirp.TimeSignatureEvent) []Measure {
	var out []Measure
	start := 0
	for start < endTime || len(out) == 0 {
		sig := ts[0]
		for _, s := range ts {
			if s.Tick <= start {
				sig = s
			} else {
				break
			}
		}
		length := 4 * ppq * sig.Num / sig.Denom
		out = append(out, Measure{
			Index:  len(out),
			Num:    sig.Num,
			Denom:  sig.Denom,
			Start:  start,
			Length: length,
		})
		start += length
	}
	return out
}

// populateTrack distributes a track's notes over the measure grid. Each note
// lands in the measure containing its start tick; a note sounding across a
// boundary is split there into a TiedFrom segment and a TiedTo continuation
// in the following measure. Gaps become explicit rests.
func populateTrack(t *chirp.Track, measures []Measure) []MeasureContent {
	out := make([]MeasureContent, len(measures))
	notes := t.Notes
	inote := 0
	var carry *chirp.Note

	for im, m := range measures {
		mc := &out[im]
		lastEnd := m.Start

		if carry != nil {
			seg := *carry
			seg.Start = m.Start
			if seg.End() > m.End() {
				head := seg
				head.Duration = m.End() - m.Start
				head.TiedFrom = true
				mc.Notes = append(mc.Notes, head)
				carry.Duration -= head.Duration
				lastEnd = m.End()
			} else {
				mc.Notes = append(mc.Notes, seg)
				lastEnd = seg.End()
				carry = nil
			}
		}

		for carry == nil && inote < len(notes) && notes[inote].Start < m.End() {
			n := notes[inote]
			n.TiedFrom, n.TiedTo = false, false
			if gap := n.Start - lastEnd; gap > 0 {
				mc.Rests = append(mc.Rests, Rest{Start: lastEnd, Duration: gap})
			}
			if n.End() <= m.End() {
				mc.Notes = append(mc.Notes, n)
				lastEnd = n.End()
			} else {
				head := n
				head.Duration = m.End() - n.Start
				head.TiedFrom = true
				mc.Notes = append(mc.Notes, head)
				rest := n
				rest.Duration = n.End() - m.End()
				rest.TiedTo = true
				carry = &rest
				lastEnd = m.End()
			}
			inote++
		}

		if gap := m.End() - lastEnd; gap > 0 {
			mc.Rests = append(mc.Rests, Rest{Start: lastEnd, Duration: gap})
		}
	}
	return out
}

// Measurize converts a quantized, non-polyphonic tick-indexed song into the
// measure-aware representation using an explicit time-signature map. Passing
// a nil map uses the song's own time-signature changes.
func Measurize(s *chirp.Song, ts []chirp.TimeSignatureEvent) (*Song, error) {
	if !s.IsQuantized() {
		return nil, fmt.Errorf("measurize: %w", ErrNotQuantized)
	}
	if s.IsPolyphonic() {
		return nil, fmt.Errorf("measurize: %w", ErrPolyphonicInput)
	}
	if ts == nil {
		ts = s.TimeSignatures
	}
	if err := ValidateTimeSignatureMap(ts); err != nil {
		return nil, err
	}
	// A signature whose bar truncates to zero ticks at this resolution would
	// keep buildMeasures from ever advancing.
	for _, sig := range ts {
		if 4*s.PPQ*sig.Num/sig.Denom <= 0 {
			return nil, fmt.Errorf("%w: %d/%d spans no ticks at ppq %d",
				ErrMalformedTimeSignatureMap, sig.Num, sig.Denom, s.PPQ)
		}
	}

	measures := buildMeasures(s.PPQ, s.EndTime(), ts)
	out := &Song{
		Metadata: s.Metadata,
		PPQ:      s.PPQ,
		Tempos:   append([]chirp.TempoEvent(nil), s.Tempos...),
		Measures: measures,
		Tracks:   make([]Track, len(s.Tracks)),
	}
	for i := range s.Tracks {
		t := &s.Tracks[i]
		out.Tracks[i] = Track{
			Name:     t.Name,
			Channel:  t.Channel,
			Program:  t.Program,
			Measures: populateTrack(t, measures),
		}
	}
	return out, nil
}
