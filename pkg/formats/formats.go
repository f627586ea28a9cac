// Package formats defines the boundary contracts between the core
// representations and format-specific adapters. Adapters for unrelated
// formats implement only the capabilities they actually have.
package formats

import (
	"github.com/chirptools/chirpconv/pkg/chirp"
	"github.com/chirptools/chirpconv/pkg/mchirp"
)

// ChirpImporter builds a fully populated tick-indexed song from raw bytes.
// The returned song must satisfy the core invariants; the core performs no
// defensive repair and fails fast in its precondition checks instead.
type ChirpImporter interface {
	ImportChirp(data []byte) (*chirp.Song, error)
}

// ChirpExporter serializes a tick-indexed song.
type ChirpExporter interface {
	ExportChirp(s *chirp.Song) ([]byte, error)
}

// MChirpImporter builds a measure-aware song from raw bytes.
type MChirpImporter interface {
	ImportMChirp(data []byte) (*mchirp.Song, error)
}

// MChirpExporter serializes a measure-aware song.
type MChirpExporter interface {
	ExportMChirp(s *mchirp.Song) ([]byte, error)
}
