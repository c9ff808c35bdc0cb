//go:build !amd64

package cycletimer

import (
	"time"

	"github.com/kvieira/tboxtiming/internal/block"
)

// NanoTimer is the portable fallback Timer for platforms without an
// assembly-linked cycle counter. It trades single-cycle resolution for
// portability (spec.md §9 permits this capability to "silently no-op" or
// degrade on platforms without the necessary access); measurements taken
// with it are coarser but still monotonic and usable by the same outlier
// discipline.
type NanoTimer struct{}

// nanoEpoch carries the monotonic clock reading NanoTimer counts from.
var nanoEpoch = time.Now()

// Now returns the monotonic nanoseconds elapsed since package
// initialization as a Tick.
func (NanoTimer) Now() block.Tick {
	return block.Tick(time.Since(nanoEpoch))
}

// New returns the platform's real Timer.
func New() Timer {
	return NanoTimer{}
}
