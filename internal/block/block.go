// Package block defines the fixed-size data types shared by every stage of
// the timing attack: 16-byte blocks (plaintexts, ciphertexts, keys) and
// cycle-tick counts.
package block

import (
	"encoding/hex"
	"fmt"
)

// Size is the width of an AES-128 block, plaintext, ciphertext, and key.
const Size = 16

// Block is a fixed 16-byte array. Passing it by value (rather than a slice)
// means a plaintext or key can be copied, stored as a map key, and compared
// with == without the aliasing hazards a []byte would introduce.
type Block [Size]byte

// String renders b as lowercase hex, e.g. for log lines and dump files.
func (b Block) String() string {
	return hex.EncodeToString(b[:])
}

// FromSlice copies the first Size bytes of s into a Block.
// It returns an error if s is shorter than Size.
func FromSlice(s []byte) (Block, error) {
	var b Block
	if len(s) < Size {
		return b, fmt.Errorf("block: need %d bytes, got %d", Size, len(s))
	}
	copy(b[:], s[:Size])
	return b, nil
}

// XOR returns the byte-wise XOR of a and b.
func XOR(a, b Block) Block {
	var out Block
	for i := range out {
		out[i] = a[i] ^ b[i]
	}
	return out
}

// Tick is a non-negative cycle count for a single measured encryption. A
// single encryption's duration fits comfortably in 32 bits, but running
// sums over many measurements (RunState.TotalTicks, Tally.TicksSum) must be
// 64-bit, so Tick itself is defined as uint64 to avoid widening it at every
// accumulation site.
type Tick uint64
