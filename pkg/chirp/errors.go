package chirp

import "errors"

var (
	// ErrInvalidGrid is returned when a quantization grid is not positive or
	// is incommensurate with the song's resolution.
	ErrInvalidGrid = errors.New("invalid quantization grid")

	// ErrDegenerateEvent is returned when an operation would produce a note
	// with a non-positive duration and no policy rescues it.
	ErrDegenerateEvent = errors.New("degenerate note event")

	// ErrMalformedTempoMap is returned when tempo events are unordered, have
	// non-positive BPM, or do not start at tick 0.
	ErrMalformedTempoMap = errors.New("malformed tempo map")

	// ErrInvalidPolicy is returned for an unknown polyphony resolution policy.
	ErrInvalidPolicy = errors.New("invalid polyphony policy")

	// ErrInvalidPitch is returned for pitches outside the MIDI range.
	ErrInvalidPitch = errors.New("invalid pitch")

	// ErrInvalidDuration is returned when a duration cannot be decomposed
	// into the allowed note values.
	ErrInvalidDuration = errors.New("invalid duration")
)
