// Package midifile adapts Standard MIDI Files to and from the tick-indexed
// song representation.
package midifile

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sort"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/chirptools/chirpconv/pkg/chirp"
	"github.com/chirptools/chirpconv/pkg/formats"
)

// DefaultBPM is used when a file carries no tempo event.
const DefaultBPM = 120.0

// MIDI imports and exports Standard MIDI Files.
type MIDI struct{}

// New creates a MIDI adapter.
func New() *MIDI {
	return &MIDI{}
}

var (
	_ formats.ChirpImporter = (*MIDI)(nil)
	_ formats.ChirpExporter = (*MIDI)(nil)
)

// ImportChirpFile reads a MIDI file from disk.
func (m *MIDI) ImportChirpFile(filename string) (*chirp.Song, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read MIDI file: %w", err)
	}
	return m.ImportChirp(data)
}

// ImportChirp parses SMF data into a tick-indexed song. Notes are grouped by
// MIDI channel, one track per channel in channel order. Note on/off events
// are paired first-on-first-off per channel and pitch; note-ons left hanging
// at the end of a track are closed there.
func (m *MIDI) ImportChirp(data []byte) (s *chirp.Song, err error) {
	// the smf parser panics on some malformed files
	// https://github.com/gomidi/midi/issues/20
	defer func() {
		if r, ok := recover().(string); ok {
			err = errors.New(r)
		}
	}()

	doc, err := smf.ReadFrom(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse MIDI: %w", err)
	}
	mt, ok := doc.TimeFormat.(smf.MetricTicks)
	if !ok {
		return nil, fmt.Errorf("unsupported SMF time format %v", doc.TimeFormat)
	}

	song := chirp.NewSong(int(mt.Resolution()))

	type open struct {
		tick     int
		velocity uint8
	}
	notesByChannel := make(map[uint8][]chirp.Note)
	nameByChannel := make(map[uint8]string)
	programByChannel := make(map[uint8]uint8)

	for _, track := range doc.Tracks {
		absTick := 0
		trackName := ""
		pending := make(map[[2]uint8][]open)
		channelsSeen := make(map[uint8]bool)

		for _, ev := range track {
			absTick += int(ev.Delta)
			msg := ev.Message

			var ch, key, vel, prog uint8
			var bpm float64
			var num, denom, cpt, dsqpq uint8
			var text string

			switch {
			case msg.GetNoteStart(&ch, &key, &vel):
				pending[[2]uint8{ch, key}] = append(pending[[2]uint8{ch, key}], open{tick: absTick, velocity: vel})
				channelsSeen[ch] = true
			case msg.GetNoteEnd(&ch, &key):
				k := [2]uint8{ch, key}
				if opens := pending[k]; len(opens) > 0 {
					o := opens[0]
					pending[k] = opens[1:]
					if absTick > o.tick {
						notesByChannel[ch] = append(notesByChannel[ch], chirp.Note{
							Pitch:    int(key),
							Start:    o.tick,
							Duration: absTick - o.tick,
							Velocity: o.velocity,
						})
					}
				}
			case msg.GetMetaTempo(&bpm):
				song.Tempos = append(song.Tempos, chirp.TempoEvent{Tick: absTick, BPM: bpm})
			case msg.GetMetaTimeSig(&num, &denom, &cpt, &dsqpq):
				song.TimeSignatures = append(song.TimeSignatures,
					chirp.TimeSignatureEvent{Tick: absTick, Num: int(num), Denom: int(denom)})
			case msg.GetMetaTrackName(&text):
				trackName = text
			case msg.GetProgramChange(&ch, &prog):
				programByChannel[ch] = prog
			case msg.GetMetaText(&text):
				if song.Metadata.Name == "" {
					song.Metadata.Name = text
				}
			}
		}

		// Close anything still sounding at the end of the track.
		for k, opens := range pending {
			for _, o := range opens {
				if absTick > o.tick {
					notesByChannel[k[0]] = append(notesByChannel[k[0]], chirp.Note{
						Pitch:    int(k[1]),
						Start:    o.tick,
						Duration: absTick - o.tick,
						Velocity: o.velocity,
					})
				}
			}
		}
		if trackName != "" {
			if len(channelsSeen) == 0 {
				// A named track with no channel events is the sequence's
				// meta track; its name is the song title.
				if song.Metadata.Name == "" {
					song.Metadata.Name = trackName
				}
			}
			for ch := range channelsSeen {
				if _, taken := nameByChannel[ch]; !taken {
					nameByChannel[ch] = trackName
				}
			}
		}
	}

	channels := make([]uint8, 0, len(notesByChannel))
	for ch := range notesByChannel {
		channels = append(channels, ch)
	}
	sort.Slice(channels, func(i, j int) bool { return channels[i] < channels[j] })
	for _, ch := range channels {
		song.Tracks = append(song.Tracks, chirp.Track{
			Name:    nameByChannel[ch],
			Channel: ch,
			Program: programByChannel[ch],
			Notes:   notesByChannel[ch],
		})
	}
	song.SortAll()

	song.Tempos = normalizeTempos(song.Tempos)
	if len(song.TimeSignatures) == 0 {
		song.TimeSignatures = []chirp.TimeSignatureEvent{{Tick: 0, Num: 4, Denom: 4}}
	}
	sort.SliceStable(song.TimeSignatures, func(i, j int) bool {
		return song.TimeSignatures[i].Tick < song.TimeSignatures[j].Tick
	})
	return song, nil
}

// normalizeTempos sorts tempo events, keeps the last event of any
// duplicated tick, and guarantees an event at tick 0.
func normalizeTempos(tempos []chirp.TempoEvent) []chirp.TempoEvent {
	if len(tempos) == 0 {
		return []chirp.TempoEvent{{Tick: 0, BPM: DefaultBPM}}
	}
	sort.SliceStable(tempos, func(i, j int) bool { return tempos[i].Tick < tempos[j].Tick })
	out := tempos[:0]
	for _, t := range tempos {
		if len(out) > 0 && out[len(out)-1].Tick == t.Tick {
			out[len(out)-1] = t
			continue
		}
		out = append(out, t)
	}
	if out[0].Tick != 0 {
		out = append([]chirp.TempoEvent{{Tick: 0, BPM: out[0].BPM}}, out...)
	}
	return out
}

// ExportChirpFile writes a song to a MIDI file on disk.
func (m *MIDI) ExportChirpFile(s *chirp.Song, filename string) error {
	data, err := m.ExportChirp(s)
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0644)
}

// ExportChirp serializes a song as a format-1 SMF: one meta track carrying
// the tempo map and time signatures, then one track per song track.
func (m *MIDI) ExportChirp(s *chirp.Song) ([]byte, error) {
	if s == nil {
		return nil, errors.New("nil song")
	}
	doc := smf.New()
	doc.TimeFormat = smf.MetricTicks(uint16(s.PPQ))

	var meta smf.Track
	lastTick := 0
	if s.Metadata.Name != "" {
		meta.Add(0, smf.MetaTrackSequenceName(s.Metadata.Name))
	}
	type metaEvent struct {
		tick int
		msg  smf.Message
	}
	var metaEvents []metaEvent
	for _, t := range s.Tempos {
		metaEvents = append(metaEvents, metaEvent{t.Tick, smf.MetaTempo(t.BPM)})
	}
	for _, ts := range s.TimeSignatures {
		metaEvents = append(metaEvents, metaEvent{ts.Tick, smf.MetaMeter(uint8(ts.Num), uint8(ts.Denom))})
	}
	sort.SliceStable(metaEvents, func(i, j int) bool { return metaEvents[i].tick < metaEvents[j].tick })
	for _, e := range metaEvents {
		meta.Add(uint32(e.tick-lastTick), e.msg)
		lastTick = e.tick
	}
	meta.Close(0)
	if err := doc.Add(meta); err != nil {
		return nil, fmt.Errorf("failed to add meta track: %w", err)
	}

	for i := range s.Tracks {
		track, err := encodeTrack(&s.Tracks[i])
		if err != nil {
			return nil, err
		}
		if err := doc.Add(track); err != nil {
			return nil, fmt.Errorf("failed to add track %d: %w", i, err)
		}
	}

	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write MIDI: %w", err)
	}
	return buf.Bytes(), nil
}

func encodeTrack(t *chirp.Track) (smf.Track, error) {
	var track smf.Track
	if t.Name != "" {
		track.Add(0, smf.MetaTrackSequenceName(t.Name))
		track.Add(0, smf.MetaInstrument(t.Name))
	}
	track.Add(0, midi.ProgramChange(t.Channel, t.Program))

	type event struct {
		tick int
		off  bool // note offs sort before note ons at the same tick
		msg  smf.Message
	}
	events := make([]event, 0, 2*len(t.Notes))
	for _, n := range t.Notes {
		if n.Pitch < 0 || n.Pitch > 127 {
			return nil, fmt.Errorf("%w: %d", chirp.ErrInvalidPitch, n.Pitch)
		}
		if n.Duration <= 0 {
			return nil, fmt.Errorf("%w: duration %d at tick %d", chirp.ErrDegenerateEvent, n.Duration, n.Start)
		}
		vel := n.Velocity
		if vel == 0 {
			vel = 100
		}
		events = append(events, event{tick: n.Start, msg: smf.Message(midi.NoteOn(t.Channel, uint8(n.Pitch), vel))})
		events = append(events, event{tick: n.End(), off: true, msg: smf.Message(midi.NoteOff(t.Channel, uint8(n.Pitch)))})
	}
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].tick != events[j].tick {
			return events[i].tick < events[j].tick
		}
		return events[i].off && !events[j].off
	})

	lastTick := 0
	for _, e := range events {
		track.Add(uint32(e.tick-lastTick), e.msg)
		lastTick = e.tick
	}
	track.Close(0)
	return track, nil
}
