package chirp

import (
	"fmt"
	"regexp"
	"sort"
)

// MiddleC is the MIDI note number for C4.
const MiddleC = 60

// PitchNames lists the twelve pitch classes starting from C.
var PitchNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// Fraction is an exact musical duration expressed as a ratio of a quarter
// note, e.g. {1, 2} is an eighth note.
type Fraction struct {
	Num, Den int
}

// Ticks converts the fraction to ticks at the given resolution.
func (f Fraction) Ticks(ppq int) int {
	return ppq * f.Num / f.Den
}

// Less orders fractions by value.
func (f Fraction) Less(o Fraction) bool {
	return f.Num*o.Den < o.Num*f.Den
}

// durationNames maps exact quarter-note fractions to US note-length names.
var durationNames = map[Fraction]string{
	{8, 1}: "double whole", {6, 1}: "dotted whole", {4, 1}: "whole",
	{3, 1}: "dotted half", {2, 1}: "half", {4, 3}: "half triplet",
	{3, 2}: "dotted quarter", {1, 1}: "quarter", {3, 4}: "dotted eighth",
	{2, 3}: "quarter triplet", {1, 2}: "eighth", {3, 8}: "dotted sixteenth",
	{1, 3}: "eighth triplet", {1, 4}: "sixteenth",
	{3, 16}: "dotted thirty-second", {1, 6}: "sixteenth triplet",
	{1, 8}: "thirty-second", {3, 32}: "dotted sixty-fourth",
	{1, 12}: "thirty-second triplet", {1, 16}: "sixty-fourth",
	{1, 24}: "sixty-fourth triplet",
}

// noteValueFractions maps note-value strings ("4" = quarter, "16" = sixteenth)
// to quarter-note fractions.
var noteValueFractions = map[string]Fraction{
	"1": {4, 1}, "2": {2, 1}, "4": {1, 1}, "8": {1, 2},
	"16": {1, 4}, "32": {1, 8}, "64": {1, 16},
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// DurationToNoteName converts a duration in ticks to a human-readable note
// length such as "eighth". Unknown durations yield "<unknown>".
func DurationToNoteName(duration, ppq int) string {
	if duration <= 0 || ppq <= 0 {
		return "<unknown>"
	}
	g := gcd(duration, ppq)
	f := Fraction{duration / g, ppq / g}
	if name, ok := durationNames[f]; ok {
		return name
	}
	return "<unknown>"
}

// PitchToName returns the note name for a MIDI pitch, e.g. 60 -> "C4".
func PitchToName(pitch, octaveOffset int) (string, error) {
	if pitch < 0 || pitch > 127 {
		return "", fmt.Errorf("%w: %d", ErrInvalidPitch, pitch)
	}
	octave := pitch/12 - 1 + octaveOffset
	return fmt.Sprintf("%s%d", PitchNames[pitch%12], octave), nil
}

var noteNameFormat = regexp.MustCompile(`^([A-G])(#|##|b|bb)?(-?[0-7])$`)

// NameToPitch returns the MIDI note number for a named pitch such as "C#4".
// Enharmonic spellings with double sharps or double flats are accepted.
func NameToPitch(name string, octaveOffset int) (int, error) {
	m := noteNameFormat.FindStringSubmatch(name)
	if m == nil {
		return 0, fmt.Errorf("%w: illegal note name %q", ErrInvalidPitch, name)
	}
	base := -1
	for i, p := range PitchNames {
		if p == m[1] {
			base = i
			break
		}
	}
	var octave int
	fmt.Sscanf(m[3], "%d", &octave)
	octave -= octaveOffset
	pitch := base + 12*(octave+1)
	for _, c := range m[2] {
		switch c {
		case '#':
			pitch++
		case 'b':
			pitch--
		}
	}
	if pitch < 0 || pitch > 127 {
		return 0, fmt.Errorf("%w: %q maps to %d", ErrInvalidPitch, name, pitch)
	}
	return pitch, nil
}

// DecomposeDuration splits a duration into a sum of allowed note values using
// a greedy algorithm, largest value first. Allowed durations are quarter-note
// fractions. Fails when a remainder smaller than the smallest allowed value
// is left over.
func DecomposeDuration(duration, ppq int, allowed []Fraction) ([]Fraction, error) {
	if len(allowed) == 0 {
		return nil, fmt.Errorf("%w: no allowed durations", ErrInvalidDuration)
	}
	sorted := make([]Fraction, len(allowed))
	copy(sorted, allowed)
	sort.Slice(sorted, func(i, j int) bool { return sorted[j].Less(sorted[i]) })
	min := sorted[len(sorted)-1]
	if min.Ticks(ppq) <= 0 {
		return nil, fmt.Errorf("%w: smallest allowed value is below one tick", ErrInvalidDuration)
	}

	var out []Fraction
	remainder := duration
	for remainder > 0 {
		if remainder < min.Ticks(ppq) {
			return nil, fmt.Errorf("%w: %d ticks at ppq %d", ErrInvalidDuration, duration, ppq)
		}
		for _, f := range sorted {
			if remainder >= f.Ticks(ppq) {
				out = append(out, f)
				remainder -= f.Ticks(ppq)
				break
			}
		}
	}
	return out, nil
}
