package chirp

// TempoEvent sets the playback tempo from a given tick onward.
type TempoEvent struct {
	Tick int
	BPM  float64
}

// TimeSignatureEvent sets the meter from a given tick onward. Num is the
// number of beats per measure and Denom the beat unit (4 = quarter note).
type TimeSignatureEvent struct {
	Tick  int
	Num   int
	Denom int
}

// KeySignatureEvent sets the key from a given tick onward. The key is stored
// as a plain name such as "C" or "F#m"; the core does not interpret it.
type KeySignatureEvent struct {
	Tick int
	Key  string
}

// Metadata holds song-level information carried through every pass.
type Metadata struct {
	Name      string
	Composer  string
	Copyright string
	Extra     map[string]string
}
