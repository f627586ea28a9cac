package chirp

import "fmt"

// Policy selects which note survives when two notes on the same track
// overlap.
type Policy int

const (
	// HighestWins keeps the higher-pitched note for the overlapping span.
	HighestWins Policy = iota
	// LowestWins keeps the lower-pitched note for the overlapping span.
	LowestWins
	// FirstWins keeps the earlier-starting note.
	FirstWins
	// LastWins keeps the later-starting note.
	LastWins
)

func (p Policy) String() string {
	switch p {
	case HighestWins:
		return "highest"
	case LowestWins:
		return "lowest"
	case FirstWins:
		return "first"
	case LastWins:
		return "last"
	}
	return fmt.Sprintf("policy(%d)", int(p))
}

// ParsePolicy converts a policy name to a Policy value.
func ParsePolicy(name string) (Policy, error) {
	switch name {
	case "highest", "":
		return HighestWins, nil
	case "lowest":
		return LowestWins, nil
	case "first":
		return FirstWins, nil
	case "last":
		return LastWins, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidPolicy, name)
}

// activeWins decides whether the currently sounding note survives an overlap
// with a later-starting note. Equal pitches under the pitch policies resolve
// to the earlier-starting note.
func activeWins(active, next Note, p Policy) bool {
	switch p {
	case LowestWins:
		if active.Pitch != next.Pitch {
			return active.Pitch < next.Pitch
		}
		return true
	case FirstWins:
		return true
	case LastWins:
		return false
	default: // HighestWins
		if active.Pitch != next.Pitch {
			return active.Pitch > next.Pitch
		}
		return true
	}
}

// resolveOverlaps removes same-track polyphony from a start-sorted note
// slice. When the earlier note loses, it is truncated so it ends where the
// later note starts. When the later note loses, its overlapping head is cut
// off and the remainder re-enters the sweep at its new position; if nothing
// of it remains past the winner's end it is dropped. Notes struck
// simultaneously keep only the winner. A losing note's tail beyond the
// winner's end is not resumed.
func resolveOverlaps(notes []Note, p Policy) (out []Note, truncated, dropped int) {
	work := append([]Note(nil), notes...)
	i := 0
	for i < len(work)-1 {
		a := &work[i]
		n := work[i+1]
		if n.Start >= a.End() {
			i++
			continue
		}
		if n.Start == a.Start {
			if !activeWins(*a, n, p) {
				*a = n
			}
			work = append(work[:i+1], work[i+2:]...)
			dropped++
			continue
		}
		if activeWins(*a, n, p) {
			remainder := n.End() - a.End()
			work = append(work[:i+1], work[i+2:]...)
			if remainder <= 0 {
				dropped++
				continue
			}
			n.Start = work[i].End()
			n.Duration = remainder
			truncated++
			// Reinsert the shortened note so the sweep stays start-sorted.
			j := i + 1
			for j < len(work) && work[j].Start < n.Start {
				j++
			}
			work = append(work, Note{})
			copy(work[j+1:], work[j:])
			work[j] = n
		} else {
			a.Duration = n.Start - a.Start
			truncated++
			i++
		}
	}
	return work, truncated, dropped
}

// RemovePolyphony eliminates same-track overlaps from every track, in place,
// using the given policy. Cross-track overlaps are untouched. The counts of
// truncated and dropped notes are returned alongside the song.
func (s *Song) RemovePolyphony(p Policy) (song *Song, truncated, dropped int, err error) {
	if p < HighestWins || p > LastWins {
		return nil, 0, 0, fmt.Errorf("%w: %d", ErrInvalidPolicy, int(p))
	}
	for i := range s.Tracks {
		s.Tracks[i].SortNotes()
		notes, tr, dr := resolveOverlaps(s.Tracks[i].Notes, p)
		s.Tracks[i].Notes = notes
		truncated += tr
		dropped += dr
	}
	s.Invalidate()
	return s, truncated, dropped, nil
}
