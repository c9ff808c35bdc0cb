package bruteforce

import (
	"errors"
	"math"
	"testing"

	"github.com/kvieira/tboxtiming/internal/block"
)

// fakeOracle is a minimal oracle.Oracle test double: Encrypt returns the
// key itself XORed with the plaintext, so equality under the all-zeros
// probe plaintext reduces to key equality — exactly what Search needs
// without pulling in the real T-box cipher.
type fakeOracle struct {
	key block.Block
}

func (f *fakeOracle) Expand(key block.Block) { f.key = key }
func (f *fakeOracle) Encrypt(pt block.Block) block.Block {
	return block.XOR(f.key, pt)
}

func TestSearchFindsKeyWithinPools(t *testing.T) {
	target := block.Block{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08,
		0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f, 0x10}

	o := &fakeOracle{key: target}

	var pools Pools
	for i := 0; i < NumPositions; i++ {
		// Each position's pool contains the true byte and one decoy.
		pools[i] = Pool{target[i], target[i] ^ 0x01}
	}

	got, err := Search(o, pools)
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if got != target {
		t.Fatalf("Search = %x, want %x", got, target)
	}
}

func TestSearchExhaustionWhenKeyMissing(t *testing.T) {
	target := block.Block{} // all-zero target key
	o := &fakeOracle{key: target}

	var pools Pools
	for i := 0; i < NumPositions; i++ {
		pools[i] = Pool{0xff} // never matches target[i] == 0x00
	}

	_, err := Search(o, pools)
	if !errors.Is(err, ErrExhausted) {
		t.Fatalf("Search error = %v, want ErrExhausted", err)
	}
}

func TestSearchRejectsEmptyPool(t *testing.T) {
	o := &fakeOracle{}
	var pools Pools
	for i := 1; i < NumPositions; i++ {
		pools[i] = Pool{0x00}
	}
	// pools[0] left nil/empty.

	_, err := Search(o, pools)
	if !errors.Is(err, ErrEmptyPool) {
		t.Fatalf("Search error = %v, want ErrEmptyPool", err)
	}
}

func TestTopNOrdersDescendingByScore(t *testing.T) {
	var row [256]float64
	row[0x10] = 0.9
	row[0x20] = 0.5
	row[0x30] = 0.1

	pool := TopN(row, 3)
	want := Pool{0x10, 0x20, 0x30}
	if len(pool) != len(want) {
		t.Fatalf("len(TopN) = %d, want %d", len(pool), len(want))
	}
	for i := range want {
		if pool[i] != want[i] {
			t.Fatalf("TopN[%d] = %#x, want %#x", i, pool[i], want[i])
		}
	}
}

func TestTopNSendsNaNLast(t *testing.T) {
	var row [256]float64
	row[0x01] = math.NaN()
	row[0x02] = 0.3

	pool := TopN(row, 256)
	if pool[0] != 0x02 || pool[255] != 0x01 {
		t.Fatalf("TopN = %#x, want 0x02 first and 0x01 last", pool)
	}
}

func TestSearchSpaceSizeMatchesLog2Product(t *testing.T) {
	var pools Pools
	for i := 0; i < NumPositions; i++ {
		pools[i] = Pool{0x00, 0x01} // 2 candidates at each of 16 positions = 2^16
	}
	got, err := pools.SearchSpaceSize()
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(got-16) > 1e-6 {
		t.Fatalf("SearchSpaceSize() = %v, want 16", got)
	}
}

func TestSearchSpaceSizeRejectsEmptyPool(t *testing.T) {
	var pools Pools
	for i := 1; i < NumPositions; i++ {
		pools[i] = Pool{0x00}
	}
	_, err := pools.SearchSpaceSize()
	if !errors.Is(err, ErrEmptyPool) {
		t.Fatalf("SearchSpaceSize error = %v, want ErrEmptyPool", err)
	}
}
