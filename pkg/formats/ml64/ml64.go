// Package ml64 exports measure-aware songs to the ML64 text format used by
// C64 music tools.
package ml64

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/chirptools/chirpconv/pkg/chirp"
	"github.com/chirptools/chirpconv/pkg/formats"
	"github.com/chirptools/chirpconv/pkg/mchirp"
)

// Version is the ML64 dialect emitted.
const Version = "1.3"

// ErrUnrepresentable is returned when a duration has no ML64 spelling.
var ErrUnrepresentable = errors.New("duration not representable in ML64")

// allowedDurations are the note values ML64 can spell, as quarter-note
// fractions. Anything longer is emitted as a chain of continue notes.
var allowedDurations = []chirp.Fraction{
	{Num: 6, Den: 1}, {Num: 4, Den: 1}, {Num: 3, Den: 1}, {Num: 2, Den: 1}, {Num: 3, Den: 2}, {Num: 1, Den: 1}, {Num: 3, Den: 4}, {Num: 1, Den: 2}, {Num: 1, Den: 4},
}

var durationCodes = map[chirp.Fraction]string{
	{Num: 6, Den: 1}: "1d", {Num: 4, Den: 1}: "1", {Num: 3, Den: 1}: "2d", {Num: 2, Den: 1}: "2",
	{Num: 3, Den: 2}: "4d", {Num: 1, Den: 1}: "4", {Num: 3, Den: 4}: "8d", {Num: 1, Den: 2}: "8",
	{Num: 1, Den: 4}: "16",
}

// Exporter writes ML64 text. Measures controls whether measure comments are
// emitted at bar starts.
type Exporter struct {
	Measures bool
}

// New creates an ML64 exporter with measure comments enabled.
func New() *Exporter {
	return &Exporter{Measures: true}
}

var _ formats.MChirpExporter = (*Exporter)(nil)

// pitchCode returns the ML64 spelling of a pitch, e.g. "C#4". ML64 uses the
// standard MIDI octave numbering (middle C is C4).
func pitchCode(pitch int) (string, error) {
	return chirp.PitchToName(pitch, 0)
}

// noteCodes spells a duration as an initial token plus continue tokens.
// The label is the pitch spelling, "r" for a rest, or "c" for a continuation
// of a tied note.
func noteCodes(label string, duration, ppq int) (string, error) {
	fracs, err := chirp.DecomposeDuration(duration, ppq, allowedDurations)
	if err != nil {
		return "", fmt.Errorf("%w: %d ticks at ppq %d", ErrUnrepresentable, duration, ppq)
	}
	var b strings.Builder
	for i, f := range fracs {
		tok := label
		if i > 0 && label != "r" && label != "c" {
			tok = "c"
		}
		fmt.Fprintf(&b, "%s(%s)", tok, durationCodes[f])
	}
	return b.String(), nil
}

// ExportMChirp renders the song as ML64 text. The song's structure already
// guarantees quantized, non-polyphonic content; the exporter additionally
// requires every duration to be spellable, which in practice means
// quantization to sixteenth notes or coarser.
func (e *Exporter) ExportMChirp(s *mchirp.Song) ([]byte, error) {
	var out []string
	out = append(out, fmt.Sprintf("ML64(%s)", Version))
	out = append(out, "song(1)")
	bpm := 112
	if len(s.Tempos) > 0 {
		bpm = int(s.Tempos[0].BPM)
	}
	out = append(out, fmt.Sprintf("tempo(%d)", bpm))

	for it := range s.Tracks {
		out = append(out, fmt.Sprintf("track(%d)", it+1))
		body, err := e.renderTrack(s, &s.Tracks[it])
		if err != nil {
			return nil, fmt.Errorf("track %d: %w", it+1, err)
		}
		out = append(out, body)
		out = append(out, "track(-)")
	}
	out = append(out, "song(-)")
	out = append(out, "ML64(-)")
	return []byte(strings.Join(out, "\n") + "\n"), nil
}

func (e *Exporter) renderTrack(s *mchirp.Song, t *mchirp.Track) (string, error) {
	type item struct {
		start int
		order int // measure markers sort before notes at the same tick
		text  string
	}
	var b strings.Builder
	lastContinue := false

	for im := range t.Measures {
		var items []item
		if e.Measures {
			items = append(items, item{start: s.Measures[im].Start, order: 0,
				text: fmt.Sprintf("[m%d]", im+1)})
		}
		for _, n := range t.Measures[im].Notes {
			label := ""
			if lastContinue || n.TiedTo {
				label = "c"
			} else {
				var err error
				label, err = pitchCode(n.Pitch)
				if err != nil {
					return "", err
				}
			}
			text, err := noteCodes(label, n.Duration, s.PPQ)
			if err != nil {
				return "", err
			}
			items = append(items, item{start: n.Start, order: 1, text: text})
			lastContinue = n.TiedFrom
		}
		for _, r := range t.Measures[im].Rests {
			text, err := noteCodes("r", r.Duration, s.PPQ)
			if err != nil {
				return "", err
			}
			items = append(items, item{start: r.Start, order: 1, text: text})
		}
		sort.SliceStable(items, func(i, j int) bool {
			if items[i].start != items[j].start {
				return items[i].start < items[j].start
			}
			return items[i].order < items[j].order
		})
		for _, it := range items {
			b.WriteString(it.text)
		}
	}
	return b.String(), nil
}
