// Package stats implements the Statistics Pipeline from spec.md §4.3: it
// converts a tally table into a grand-mean-normalized MeanVector.
package stats

import (
	"gonum.org/v1/gonum/mat"

	"github.com/kvieira/tboxtiming/internal/tally"
)

// NumPositions and NumByteValues mirror package tally's constants so
// callers don't need to import tally just to size a MeanVector.
const (
	NumPositions  = tally.NumPositions
	NumByteValues = tally.NumByteValues
)

// MeanVector is the 16x256 matrix of normalized mean timings from
// spec.md §3: MeanVector[i][b] is the normalized mean timing for
// cleartext byte b at position i.
type MeanVector [NumPositions][NumByteValues]float64

// Matrix returns mv as a gonum mat.Dense, so package correlate can slice
// rows directly with RawRowView the way
// other_examples/349c041c_google-gocw__cmd-attack_sbox_cpa.go.go does.
func (mv MeanVector) Matrix() *mat.Dense {
	m := mat.NewDense(NumPositions, NumByteValues, nil)
	for i := 0; i < NumPositions; i++ {
		m.SetRow(i, mv[i][:])
	}
	return m
}

// Extract computes the MeanVector for a completed key study (spec.md
// §4.3): the grand mean G = total_ticks/total_runs, then per cell
// MeanVector(i,b) = (ticks_sum/count)/G, or 1.0 when count is zero (the
// normalized neutral value).
//
// Both ratios here are plain division over already-aggregated sums, not
// a list of raw samples, so there is no natural call site for a
// statistics library (package calibrate uses
// github.com/montanaflynn/stats for the same grand-mean computation where
// the underlying raw samples are still available).
func Extract(rs *tally.RunState) MeanVector {
	var mv MeanVector
	if rs.TotalRuns == 0 {
		// No measurements: spec.md assumes TotalRuns > 0, but returning
		// the neutral vector is a safe, documented degenerate answer
		// instead of dividing by zero.
		for i := range mv {
			for b := range mv[i] {
				mv[i][b] = 1.0
			}
		}
		return mv
	}

	g := float64(rs.TotalTicks) / float64(rs.TotalRuns)

	for i := 0; i < NumPositions; i++ {
		for b := 0; b < NumByteValues; b++ {
			cell := rs.Table[i][b]
			if cell.Count == 0 {
				mv[i][b] = 1.0
				continue
			}
			raw := float64(cell.TicksSum) / float64(cell.Count)
			mv[i][b] = raw / g
		}
	}
	return mv
}
