package chirp

import "fmt"

// Note represents a sounding note with an absolute start time, a duration,
// and a velocity. Times are in ticks from the start of the song.
type Note struct {
	Pitch    int   // MIDI note number (0-127)
	Start    int   // Start time in ticks
	Duration int   // Duration in ticks, always positive
	Velocity uint8 // MIDI velocity (0-127)

	// Tie markers used when a note is split at a measure boundary.
	// TiedFrom means the note continues in the next measure; TiedTo means
	// the note is a continuation of one from the previous measure.
	TiedFrom bool
	TiedTo   bool
}

// End returns the tick at which the note stops sounding.
func (n Note) End() int {
	return n.Start + n.Duration
}

// Overlaps reports whether the tick intervals of two notes intersect.
func (n Note) Overlaps(o Note) bool {
	return n.Start < o.End() && o.Start < n.End()
}

func (n Note) String() string {
	return fmt.Sprintf("pit=%3d st=%5d dur=%5d vel=%3d tied=%v/%v",
		n.Pitch, n.Start, n.Duration, n.Velocity, n.TiedTo, n.TiedFrom)
}
