// Package correlate implements the Correlator and Aggregator from
// spec.md §4.4, §4.5.
//
// The Pearson computation is grounded directly on
// other_examples/349c041c_google-gocw__cmd-attack_sbox_cpa.go.go, a
// correlation-power-analysis attack against the AES-128 first round that
// uses gonum.org/v1/gonum/stat.Correlation per key-byte hypothesis — the
// same leakage model spec.md describes, applied there to power traces and
// here to cycle-timing means.
package correlate

import (
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/kvieira/tboxtiming/internal/block"
	"github.com/kvieira/tboxtiming/internal/stats"
)

// NumPositions and NumByteValues mirror package stats's constants.
const (
	NumPositions  = stats.NumPositions
	NumByteValues = stats.NumByteValues
)

// Matrix is the 16x256 CorrelationMatrix from spec.md §3: Matrix[i][k] is
// the Pearson correlation coefficient under the hypothesis "target-key
// byte at position i equals k."
type Matrix [NumPositions][NumByteValues]float64

// Correlate computes the CorrelationMatrix between a target key's
// MeanVector and a known test key's MeanVector (spec.md §4.4).
//
// For each position i and each candidate target-byte hypothesis k1, it
// builds two length-256 vectors indexed by the shared first-round T-box
// input s: X[s] = target[i][s^k1] (what the target's mean vector would
// look like in T-box-input space if k1 were correct) and
// Y[s] = test[i][s^testKey[i]] (the known test key's mean vector,
// re-indexed the same way). Under the true k1, both land in the same
// T-box-input space and correlate strongly; under a wrong hypothesis the
// re-indexing is a pseudo-random permutation and the correlation is near
// zero (spec.md §4.4 "Rationale").
//
// Positions are independent, so — as in google-gocw's
// attack_sbox_cpa.go, which fans its 16 key-byte positions out across
// goroutines with a sync.WaitGroup — each position's row is computed
// concurrently, here with golang.org/x/sync/errgroup, the same fan-out
// tool the teacher itself uses in set_1.go/c6.go for independent
// candidate key sizes.
func Correlate(target, test stats.MeanVector, testKey block.Block) Matrix {
	var out Matrix

	targetM := target.Matrix()
	testM := test.Matrix()

	var g errgroup.Group
	for i := 0; i < NumPositions; i++ {
		i := i
		g.Go(func() error {
			out[i] = correlateRow(targetM.RawRowView(i), testM.RawRowView(i), testKey[i])
			return nil
		})
	}
	// Every goroutine above is pure computation over already-materialized
	// MeanVector rows; none can fail, so the error is always nil. Wait is
	// still required to establish a happy-before relationship with the
	// writes to out before this function returns.
	_ = g.Wait()

	return out
}

func correlateRow(targetRow, testRow []float64, k2 byte) [NumByteValues]float64 {
	var row [NumByteValues]float64

	x := make([]float64, NumByteValues)
	y := make([]float64, NumByteValues)
	for k1 := 0; k1 < NumByteValues; k1++ {
		for s := 0; s < NumByteValues; s++ {
			x[s] = targetRow[byte(s)^byte(k1)]
			y[s] = testRow[byte(s)^k2]
		}
		// spec.md §4.4 propagates the raw (possibly NaN/Inf, on zero
		// variance) coefficient rather than guarding it; the Aggregator
		// is designed to tolerate that.
		row[k1] = stat.Correlation(x, y, nil)
	}
	return row
}

// SumAll implements the Aggregator from spec.md §4.5: an element-wise sum
// of K CorrelationMatrices, one per test key, amplifying the true
// hypothesis's signal while letting wrong hypotheses' near-zero
// correlations wash out. No averaging is performed — sign and relative
// magnitude of the sum are what pool selection consumes.
//
// Parallelized across positions the same way Correlate is, since summing
// one position's column across all K matrices is independent of every
// other position.
func SumAll(matrices []Matrix) Matrix {
	var out Matrix
	if len(matrices) == 0 {
		return out
	}

	var g errgroup.Group
	for i := 0; i < NumPositions; i++ {
		i := i
		g.Go(func() error {
			var row [NumByteValues]float64
			for _, m := range matrices {
				for k := 0; k < NumByteValues; k++ {
					row[k] += m[i][k]
				}
			}
			out[i] = row
			return nil
		})
	}
	_ = g.Wait()

	return out
}
