// Package calibrate implements the Threshold Calibrator from spec.md
// §4.2: a preliminary measurement pass, with the outlier filter disabled,
// that estimates an outlier cutoff and the achievable encryption rate.
package calibrate

import (
	"fmt"

	montanastats "github.com/montanaflynn/stats"

	"github.com/kvieira/tboxtiming/internal/block"
	"github.com/kvieira/tboxtiming/internal/cycletimer"
	"github.com/kvieira/tboxtiming/internal/entropy"
	"github.com/kvieira/tboxtiming/internal/measure"
)

// DefaultRunsExponent and DefaultThresholdMultiplier match spec.md §4.2's
// DEFAULT_RUNS = 22 and THRESH_MULT = 5.
const (
	DefaultRunsExponent        = 22
	DefaultThresholdMultiplier = 5.0
)

// Result is what the calibrator writes to the rate file (spec.md §6):
// the achieved encryption rate and the derived outlier cutoff.
type Result struct {
	RatePerSecond float64
	Threshold     block.Tick
	// StdDevTicks is not part of spec.md's rate-file format but is kept
	// on Result as a diagnostic: a calibration pass with unusually high
	// variance is a hint the system is noisy before a single real key
	// study is ever run.
	StdDevTicks float64
}

// Calibrate performs 2^runsExponent measurements against enc with the
// outlier filter disabled, using a wall clock distinct from the cycle
// timer enc is built on (spec.md §4.2 requires these be different
// clocks). It returns the achieved rate and mean*multiplier threshold.
//
// If the caller supplies an explicit threshold via the CLI (spec.md §6),
// it should skip calling Calibrate entirely rather than calling it and
// discarding the result.
func Calibrate(
	src entropy.Source,
	enc measure.TimedEncrypter,
	wall cycletimer.WallClock,
	runsExponent int,
	multiplier float64,
) (Result, error) {
	r := 1 << runsExponent

	ticks := make(montanastats.Float64Data, 0, r)
	start := wall.Now()
	for i := 0; i < r; i++ {
		p, err := src.Random()
		if err != nil {
			return Result{}, fmt.Errorf("calibrate: drawing random plaintext: %w", err)
		}
		_, d := enc.EncryptTimed(p)
		ticks = append(ticks, float64(d))
	}
	elapsed := wall.Now().Sub(start)

	// github.com/montanaflynn/stats.Mean/StandardDeviation operate on the
	// raw per-measurement sample slice collected above, a direct
	// dependency of tuneinsight-lattigo used here for its intended
	// purpose — unlike package stats.Extract, which only ever has
	// pre-aggregated sums to work with.
	mean, err := ticks.Mean()
	if err != nil {
		return Result{}, fmt.Errorf("calibrate: computing mean: %w", err)
	}
	stddev, err := ticks.StandardDeviation()
	if err != nil {
		return Result{}, fmt.Errorf("calibrate: computing stddev: %w", err)
	}

	return Result{
		RatePerSecond: float64(r) / elapsed.Seconds(),
		Threshold:     block.Tick(mean * multiplier),
		StdDevTicks:   stddev,
	}, nil
}
