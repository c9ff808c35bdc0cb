//go:build stdlibcipher

package oracle

import (
	"crypto/aes"
	"crypto/cipher"

	"github.com/kvieira/tboxtiming/internal/block"
)

// StdlibCipher wraps crypto/aes. On every platform the Go toolchain
// targets, crypto/aes is either constant-time or backed by the CPU's AES-NI
// instructions, so it is the "expected immune" implementation named in
// spec.md's Non-goals: this engine should fail to recover a key from it.
// It exists to make that Non-goal testable, not as a general-purpose
// cipher choice.
type StdlibCipher struct {
	blk cipher.Block
}

// New constructs the build's selected Cipher Oracle implementation. This is
// the only call site that should exist for oracle construction; everything
// downstream programs against the Oracle interface.
func New() Oracle {
	return &StdlibCipher{}
}

// Expand stores key as the oracle's active key.
func (c *StdlibCipher) Expand(key block.Block) {
	blk, err := aes.NewCipher(key[:])
	if err != nil {
		// key is always block.Size (16) bytes, which aes.NewCipher always
		// accepts; reaching here means a programming error, not bad input.
		panic(err)
	}
	c.blk = blk
}

// Encrypt encrypts pt under the most recently Expand-ed key.
func (c *StdlibCipher) Encrypt(pt block.Block) block.Block {
	var ct block.Block
	c.blk.Encrypt(ct[:], pt[:])
	return ct
}
