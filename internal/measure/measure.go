// Package measure implements the Measurement Loop from spec.md §4.1: it
// drives a Cipher Oracle with random plaintexts, times each encryption,
// discards outliers, and accumulates the per-position-per-byte tallies
// from package tally.
package measure

import (
	"errors"
	"fmt"

	"github.com/kvieira/tboxtiming/internal/block"
	"github.com/kvieira/tboxtiming/internal/entropy"
	"github.com/kvieira/tboxtiming/internal/tally"
	"github.com/kvieira/tboxtiming/internal/tuner"
)

// TimedEncrypter couples a single block encryption with the tick count it
// took. Splitting this out from oracle.Oracle + cycletimer.Timer lets
// spec.md §8's synthetic scenarios (constant-tick oracle, one that leaks
// in[0] directly, one that leaks in[3]^key[3]) be expressed as plain test
// doubles with no real hardware timing involved.
type TimedEncrypter interface {
	EncryptTimed(p block.Block) (block.Block, block.Tick)
}

// ErrDegenerate is returned when the discard rate safeguard trips (see
// Study.MaxDiscardRatio). It is spec.md §4.1's "measurement degeneracy"
// error kind, disabled by default per spec.md §7.
var ErrDegenerate = errors.New("measure: discard rate exceeded configured maximum")

// Study configures and drives one Measurement Loop run (spec.md §4.1).
type Study struct {
	// N is the target count of accepted measurements.
	N int
	// Cutoff is the outlier threshold T (spec.md §4.1 step 3). Ignored
	// when OutlierFilter is false.
	Cutoff block.Tick
	// OutlierFilter enables/disables discarding measurements whose tick
	// count exceeds Cutoff. The Threshold Calibrator runs with this
	// false (spec.md §4.2).
	OutlierFilter bool
	// MaxDiscardRatio, if > 0, aborts the run with ErrDegenerate once the
	// ratio of discarded-to-attempted measurements exceeds it. Disabled
	// (0) by default, matching spec.md §7's "not detected by default".
	MaxDiscardRatio float64
	// Scrub, if non-nil, is invoked before every attempted encryption
	// (spec.md §9's optional Cache Scrubber). Off (nil) by default
	// because of its throughput cost (spec.md §4.1).
	Scrub func()
	// Tuner, if non-nil, is asked to pin the CPU and request realtime
	// priority once before the loop starts (spec.md §5, §9).
	Tuner tuner.Tuner
	// TunerCPU is the logical CPU passed to Tuner.PinCPU, when Tuner is
	// set.
	TunerCPU int
	// OnAccept, if non-nil, is invoked once per accepted measurement
	// with the same (plaintext, ticks) pair handed to the tally table.
	// It exists so callers can build spec.md §6's optional raw dump
	// without the Measurement Loop itself knowing anything about file
	// formats.
	OnAccept func(p block.Block, d block.Tick)
}

// Run drives enc with random plaintexts from src until N measurements have
// been accepted, accumulating tallies into a fresh RunState.
func (s Study) Run(src entropy.Source, enc TimedEncrypter) (*tally.RunState, error) {
	if s.Tuner != nil {
		s.Tuner.PinCPU(s.TunerCPU)
		s.Tuner.Realtime()
	}

	rs := tally.New()

	var attempted, discarded uint64
	for rs.TotalRuns < uint64(s.N) {
		p, err := src.Random()
		if err != nil {
			return nil, fmt.Errorf("drawing random plaintext: %w", err)
		}

		if s.Scrub != nil {
			s.Scrub()
		}

		// The tick counter is read immediately around the single
		// encryption call with no intervening work (spec.md §4.1
		// "Noise discipline").
		ct, d := enc.EncryptTimed(p)
		_ = ct // the Measurement Loop only needs the timing, not ct itself
		attempted++

		if s.OutlierFilter && d > s.Cutoff {
			discarded++
			if s.MaxDiscardRatio > 0 && float64(discarded)/float64(attempted) > s.MaxDiscardRatio {
				return nil, fmt.Errorf(
					"%w: %d/%d discarded (ratio %.3f > max %.3f)",
					ErrDegenerate, discarded, attempted,
					float64(discarded)/float64(attempted), s.MaxDiscardRatio,
				)
			}
			// Resolved Open Question (spec.md §4.1/§9): retry with a
			// fresh plaintext rather than the same one. Either choice is
			// statistically acceptable under uniform random plaintexts;
			// drawing fresh keeps the loop body branch-free and avoids
			// correlating a retried identical plaintext with whatever
			// caused the original outlier (e.g. scheduler preemption).
			continue
		}

		rs.Accept(p, d)
		if s.OnAccept != nil {
			s.OnAccept(p, d)
		}
	}

	return rs, nil
}
