// Package transform applies caller-supplied transformations to either song
// representation and computes descriptive statistics over the input in the
// same pass.
package transform

import "github.com/chirptools/chirpconv/pkg/chirp"

// Source is the read surface the statistics battery needs from a song. Both
// the tick-indexed and the measure-aware representations satisfy it.
type Source interface {
	Title() string
	Resolution() int
	TrackCount() int
	TrackLabel(i int) string
	TrackNotes(i int) []chirp.Note
}

// Func maps a representation to a representation. It may mutate its input in
// place and return it, or build a fresh value.
type Func[S Source] func(S) (S, error)

// Identity returns its input unchanged.
func Identity[S Source](s S) (S, error) {
	return s, nil
}

// Apply runs fn over the song and returns its result together with
// statistics describing the input. The statistics are collected before fn
// runs, so they always describe what was fed in, never what came out. Any
// error from fn is returned unchanged, with the statistics still valid.
func Apply[S Source](s S, fn Func[S]) (S, *Stats, error) {
	stats := Collect(s)
	out, err := fn(s)
	return out, stats, err
}
