package chirp

import (
	"fmt"
	"time"
)

// ValidateTempoMap checks that tempo events are strictly increasing by tick,
// start at tick 0, and carry positive BPM values.
func ValidateTempoMap(tempos []TempoEvent) error {
	if len(tempos) == 0 {
		return fmt.Errorf("%w: empty", ErrMalformedTempoMap)
	}
	if tempos[0].Tick != 0 {
		return fmt.Errorf("%w: first event at tick %d, want 0", ErrMalformedTempoMap, tempos[0].Tick)
	}
	for i, t := range tempos {
		if t.BPM <= 0 {
			return fmt.Errorf("%w: non-positive BPM %g at tick %d", ErrMalformedTempoMap, t.BPM, t.Tick)
		}
		if i > 0 && t.Tick <= tempos[i-1].Tick {
			return fmt.Errorf("%w: tick %d not after %d", ErrMalformedTempoMap, t.Tick, tempos[i-1].Tick)
		}
	}
	return nil
}

// TimeAt converts an absolute tick to elapsed wall-clock time by accumulating
// over each tempo segment. The tempo map must be valid (see ValidateTempoMap)
// and ppq positive.
func TimeAt(tempos []TempoEvent, ppq int, tick int) time.Duration {
	var elapsed float64 // seconds
	for i, t := range tempos {
		segEnd := tick
		if i+1 < len(tempos) && tempos[i+1].Tick < tick {
			segEnd = tempos[i+1].Tick
		}
		if segEnd <= t.Tick {
			break
		}
		secondsPerTick := 60.0 / (t.BPM * float64(ppq))
		elapsed += float64(segEnd-t.Tick) * secondsPerTick
	}
	return time.Duration(elapsed * float64(time.Second))
}
