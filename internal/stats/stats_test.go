package stats

import (
	"math"
	"testing"

	"github.com/kvieira/tboxtiming/internal/block"
	"github.com/kvieira/tboxtiming/internal/tally"
)

func TestExtractEmptyRunStateIsNeutral(t *testing.T) {
	mv := Extract(tally.New())
	for i := 0; i < NumPositions; i++ {
		for b := 0; b < NumByteValues; b++ {
			if mv[i][b] != 1.0 {
				t.Fatalf("mv[%d][%d] = %v, want 1.0 for an empty run", i, b, mv[i][b])
			}
		}
	}
}

func TestExtractUniformTicksNormalizesToOne(t *testing.T) {
	rs := tally.New()
	var p block.Block
	for n := 0; n < 100; n++ {
		rs.Accept(p, 1000)
	}

	mv := Extract(rs)
	if mv[3][0] != 1.0 {
		t.Fatalf("mv[3][0] = %v, want 1.0 when every sample shares the same tick count", mv[3][0])
	}
	// Byte values never observed at a position stay at the neutral 1.0.
	if mv[3][1] != 1.0 {
		t.Fatalf("mv[3][1] = %v, want 1.0 for an unobserved byte value", mv[3][1])
	}
}

func TestExtractSkewedCellAboveGrandMean(t *testing.T) {
	rs := tally.New()
	var fast, slow block.Block
	fast[0], slow[0] = 0x00, 0x01

	for n := 0; n < 50; n++ {
		rs.Accept(fast, 1000)
		rs.Accept(slow, 2000)
	}

	mv := Extract(rs)
	if mv[0][0x01] <= mv[0][0x00] {
		t.Fatalf("mv[0][0x01] = %v, mv[0][0x00] = %v: slower byte value should normalize higher",
			mv[0][0x01], mv[0][0x00])
	}
	if math.Abs(mv[0][0x00]-2.0/3.0) > 1e-9 {
		t.Fatalf("mv[0][0x00] = %v, want ~0.667", mv[0][0x00])
	}
	if math.Abs(mv[0][0x01]-4.0/3.0) > 1e-9 {
		t.Fatalf("mv[0][0x01] = %v, want ~1.333", mv[0][0x01])
	}
}

func TestMeanVectorMatrixRoundTrip(t *testing.T) {
	var mv MeanVector
	mv[2][5] = 3.25

	m := mv.Matrix()
	if got := m.At(2, 5); got != 3.25 {
		t.Fatalf("Matrix().At(2,5) = %v, want 3.25", got)
	}
	if rows, cols := m.Dims(); rows != NumPositions || cols != NumByteValues {
		t.Fatalf("Matrix().Dims() = (%d,%d), want (%d,%d)", rows, cols, NumPositions, NumByteValues)
	}
}
