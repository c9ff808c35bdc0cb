// Package cycletimer implements the Cycle Timer capability from spec.md
// §2/§6: a monotonic hardware tick counter with single-cycle resolution,
// conditionally compiled per platform (spec.md §9).
package cycletimer

import (
	"time"

	"github.com/kvieira/tboxtiming/internal/block"
)

// Timer reads the hardware cycle counter. The Measurement Loop reads it
// immediately before and after a single encryption call, with no
// intervening work (spec.md §4.1 "Noise discipline").
type Timer interface {
	Now() block.Tick
}

// WallClock is a distinct, coarser clock used only by the Threshold
// Calibrator to measure the wall-clock duration of its whole calibration
// pass (spec.md §4.2 requires this be a different clock from the one used
// to time individual encryptions).
type WallClock interface {
	Now() time.Time
}

// SystemWallClock is the real WallClock, backed by time.Now.
type SystemWallClock struct{}

// Now returns the current wall-clock time.
func (SystemWallClock) Now() time.Time { return time.Now() }
