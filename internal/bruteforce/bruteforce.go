// Package bruteforce implements the Brute-Force Engine from spec.md
// §4.6: given per-position candidate pools, it enumerates the product
// space and checks each candidate key against a reference
// (plaintext, ciphertext) pair produced by the oracle under the true
// target key.
package bruteforce

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"sort"

	"github.com/ALTree/bigfloat"

	"github.com/kvieira/tboxtiming/internal/block"
	"github.com/kvieira/tboxtiming/internal/oracle"
)

// NumPositions mirrors block.Size: one pool per key-byte position.
const NumPositions = block.Size

// Pool is an ordered list of candidate byte values for one position
// (spec.md §3 "Pool(i)"). A zero-length pool is illegal; Search and
// SearchSpaceSize reject it with ErrEmptyPool.
type Pool []byte

// Pools holds one Pool per key-byte position.
type Pools [NumPositions]Pool

// ErrEmptyPool is returned when a pool has length zero, which spec.md
// §3 calls out explicitly as illegal.
var ErrEmptyPool = errors.New("bruteforce: pool is empty")

// ErrExhausted is returned by Search when the full product space was
// enumerated without a match (spec.md §7's "brute-force exhaustion",
// a normal, non-fatal outcome distinct from configuration/I/O errors).
var ErrExhausted = errors.New("bruteforce: search space exhausted, true key not found")

// SearchSpaceSize returns log2(∏ L_i), the diagnostic spec.md §1's
// overview implies operators want before committing to a brute-force
// pass over potentially enormous pools. The product of 16 pool sizes
// accumulates exactly in a high-precision big.Float rather than
// float64, and github.com/ALTree/bigfloat supplies Log on that type —
// the standard library's math.Log only takes a float64, which would
// force a premature, lossy conversion of the product first.
func (p Pools) SearchSpaceSize() (float64, error) {
	total := new(big.Float).SetPrec(256).SetInt64(1)
	for i, pool := range p {
		if len(pool) == 0 {
			return 0, fmt.Errorf("%w: position %d", ErrEmptyPool, i)
		}
		total.Mul(total, new(big.Float).SetPrec(256).SetInt64(int64(len(pool))))
	}
	ln := bigfloat.Log(total)
	log2 := new(big.Float).SetPrec(256).Quo(ln, big.NewFloat(math.Ln2))
	f, _ := log2.Float64()
	return f, nil
}

// TopN is the pool-derivation helper from SPEC_FULL.md §4: given an
// aggregated CorrelationMatrix row (256 coefficients, one per candidate
// byte value, for a single position) it returns the n byte values with
// the largest coefficients, descending, as a ready-to-use Pool. This is
// the bridge spec.md §1 calls "external pool selection" between the
// Aggregator's output and the Brute-Force Engine's input.
func TopN(row [256]float64, n int) Pool {
	if n <= 0 {
		return nil
	}
	if n > 256 {
		n = 256
	}

	type candidate struct {
		value byte
		score float64
	}
	candidates := make([]candidate, 256)
	for b := 0; b < 256; b++ {
		candidates[b] = candidate{value: byte(b), score: row[b]}
	}
	// NaN coefficients (zero-variance edge case, spec.md §4.4) sort last
	// rather than corrupting the ordering of real scores.
	sort.SliceStable(candidates, func(a, b int) bool {
		sa, sb := candidates[a].score, candidates[b].score
		if math.IsNaN(sa) {
			return false
		}
		if math.IsNaN(sb) {
			return true
		}
		return sa > sb
	})

	pool := make(Pool, n)
	for i := 0; i < n; i++ {
		pool[i] = candidates[i].value
	}
	return pool
}

// Search implements spec.md §4.6's procedure. o must already be keyed to
// the true target key; Search encrypts the all-zeros plaintext once to
// capture the reference ciphertext, then re-keys o with every candidate
// in the product space of pools until one matches, reordering the
// counters so the smallest pools vary fastest (spec.md's rationale:
// high-confidence, small pools are "pinned" as the most frequently
// incremented digits, minimizing expected enumerations when the true
// key sits near the front of each pool).
//
// Search returns the recovered key on success, or ErrExhausted if no
// candidate in the product space matches.
func Search(o oracle.Oracle, pools Pools) (block.Block, error) {
	for i, pool := range pools {
		if len(pool) == 0 {
			return block.Block{}, fmt.Errorf("%w: position %d", ErrEmptyPool, i)
		}
	}

	// Step 1: reference ciphertext under the true target key. o must
	// already be keyed to the target; Search never re-keys it before
	// this point.
	var refPT block.Block
	refCT := o.Encrypt(refPT)

	// Step 2: order positions by ascending pool size, stable on ties
	// (original position order), per spec.md §4.6 step 2.
	order := make([]int, NumPositions)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return len(pools[order[a]]) < len(pools[order[b]])
	})

	// Step 3/4: counter vector over the reordered significance.
	idx := make([]int, NumPositions)
	for {
		var k block.Block
		for i := 0; i < NumPositions; i++ {
			k[i] = pools[i][idx[i]]
		}

		o.Expand(k)
		ct := o.Encrypt(refPT)
		if ct == refCT {
			return k, nil
		}

		if !increment(order, idx, pools) {
			return block.Block{}, ErrExhausted
		}
	}
}

// increment advances idx[order[0]] by one, carrying into order[1],
// order[2], … on overflow (spec.md §4.6 step 4c/4d). It reports whether
// the counter vector still has a valid next state.
func increment(order []int, idx []int, pools Pools) bool {
	for _, pos := range order {
		idx[pos]++
		if idx[pos] < len(pools[pos]) {
			return true
		}
		idx[pos] = 0
	}
	return false
}
