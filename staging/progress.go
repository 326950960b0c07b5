package staging

import (
	"fmt"
	"time"

	"github.com/docker/go-units"
)

// ProgressFunc receives upload progress. loaded never decreases between calls
// of one upload.
type ProgressFunc func(loaded, total int64, elapsed time.Duration)

// Progress is a snapshot of an upload, with derived rate and ETA.
type Progress struct {
	Loaded  int64
	Total   int64
	Elapsed time.Duration
}

func NewProgress(loaded, total int64, elapsed time.Duration) Progress {
	return Progress{Loaded: loaded, Total: total, Elapsed: elapsed}
}

// BytesPerSecond is zero until some time has elapsed.
func (p Progress) BytesPerSecond() float64 {
	if p.Elapsed <= 0 {
		return 0
	}
	return float64(p.Loaded) / p.Elapsed.Seconds()
}

// SecondsRemaining is (total-loaded)/(loaded/elapsed). ok is false while the
// rate is unknown.
func (p Progress) SecondsRemaining() (secs float64, ok bool) {
	rate := p.BytesPerSecond()
	if rate <= 0 {
		return 0, false
	}
	remaining := p.Total - p.Loaded
	if remaining < 0 {
		remaining = 0
	}
	return float64(remaining) / rate, true
}

func (p Progress) Percent() float64 {
	if p.Total <= 0 {
		return 0
	}
	return float64(p.Loaded) * 100 / float64(p.Total)
}

func (p Progress) String() string {
	s := fmt.Sprintf("%s / %s (%.1f%%) %s/s", units.BytesSize(float64(p.Loaded)), units.BytesSize(float64(p.Total)),
		p.Percent(), units.BytesSize(p.BytesPerSecond()))
	if secs, ok := p.SecondsRemaining(); ok {
		s += fmt.Sprintf(", %s left", units.HumanDuration(time.Duration(secs*float64(time.Second))))
	}
	return s
}
