package mchirp

import "errors"

var (
	// ErrNotQuantized is returned when a song must be quantized first.
	ErrNotQuantized = errors.New("song is not quantized")

	// ErrPolyphonicInput is returned when a song must be free of same-track
	// polyphony first.
	ErrPolyphonicInput = errors.New("song contains same-track polyphony")

	// ErrMalformedTimeSignatureMap is returned for time-signature maps with
	// non-increasing ticks, invalid beat values, or no entry at tick 0.
	ErrMalformedTimeSignatureMap = errors.New("malformed time signature map")
)
