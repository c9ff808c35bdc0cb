// Package tally implements the per-position, per-byte timing tallies and
// the mutable per-key-study RunState from spec.md §3.
package tally

import (
	"fmt"

	"github.com/kvieira/tboxtiming/internal/block"
)

// NumPositions is the number of key-byte positions in an AES-128 block.
const NumPositions = block.Size

// NumByteValues is the number of possible values of a single byte.
const NumByteValues = 256

// Tally accumulates timing data for one cleartext byte value at one
// position: the number of measured encryptions whose cleartext byte at
// that position equaled that value, and the sum of their measured ticks.
type Tally struct {
	Count    uint64
	TicksSum block.Tick
}

// Table is the full 16x256 tally matrix: Table[i][b] is the Tally for
// position i, byte value b.
type Table [NumPositions][NumByteValues]Tally

// RunState is the mutable per-key-study state from spec.md §3: the tally
// table plus the running totals of accepted measurements and their tick
// sum. Tallies are updated strictly in measurement order (spec.md §5); it
// is the caller's responsibility not to call Accept concurrently, matching
// the single-threaded Measurement Loop that owns a RunState exclusively
// for the duration of one key study.
type RunState struct {
	Table      Table
	TotalRuns  uint64
	TotalTicks block.Tick
}

// New returns a zeroed RunState, as spec.md §3 requires at the start of
// each key study.
func New() *RunState {
	return &RunState{}
}

// Accept records one accepted measurement: cleartext p took d ticks to
// encrypt. It performs the 16-way tally update from spec.md §4.1 step 4 —
// a single measurement contributes to all 16 per-position histograms, the
// densest possible use of each sample (spec.md §4.1 "Design rationale").
func (rs *RunState) Accept(p block.Block, d block.Tick) {
	for i := 0; i < NumPositions; i++ {
		b := p[i]
		rs.Table[i][b].Count++
		rs.Table[i][b].TicksSum += d
	}
	rs.TotalTicks += d
	rs.TotalRuns++
}

// CheckInvariants verifies the tally-conservation invariant from spec.md
// §3/§8 #1: for every position, the per-byte counts and tick sums must add
// up to the run totals. It is intended for tests and for an optional
// post-study sanity check, not for the hot accept path.
func (rs *RunState) CheckInvariants() error {
	for i := 0; i < NumPositions; i++ {
		var countSum uint64
		var ticksSum block.Tick
		for b := 0; b < NumByteValues; b++ {
			countSum += rs.Table[i][b].Count
			ticksSum += rs.Table[i][b].TicksSum
		}
		if countSum != rs.TotalRuns {
			return &InvariantError{Position: i, Field: "count", Got: countSum, Want: rs.TotalRuns}
		}
		if uint64(ticksSum) != uint64(rs.TotalTicks) {
			return &InvariantError{Position: i, Field: "ticks", Got: uint64(ticksSum), Want: uint64(rs.TotalTicks)}
		}
	}
	return nil
}

// InvariantError reports a tally-conservation violation at a specific
// position.
type InvariantError struct {
	Position int
	Field    string
	Got      uint64
	Want     uint64
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf(
		"tally: position %d %s conservation violated: got %d, want %d",
		e.Position, e.Field, e.Got, e.Want,
	)
}
