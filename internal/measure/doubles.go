package measure

import "github.com/kvieira/tboxtiming/internal/block"

// ConstantTick is a TimedEncrypter whose timing never varies, used by
// spec.md §8's "smoke tally" scenario: every resulting MeanVector entry
// should normalize to 1.0, and the Correlator should see zero variance at
// every position.
type ConstantTick struct {
	Tick block.Tick
}

// EncryptTimed ignores p and always reports the same tick count. The
// returned ciphertext is unused by the Measurement Loop, so it is left
// zeroed.
func (c ConstantTick) EncryptTimed(p block.Block) (block.Block, block.Tick) {
	return block.Block{}, c.Tick
}

// LeakByte is a TimedEncrypter whose reported tick count is exactly
// p[Pos], the spec.md §8 "sanity cipher identity" scenario used to check
// that the Correlator recovers a known relationship at one position and
// sees noise everywhere else.
type LeakByte struct {
	Pos int
}

// EncryptTimed reports tick = p[Pos].
func (l LeakByte) EncryptTimed(p block.Block) (block.Block, block.Tick) {
	return block.Block{}, block.Tick(p[l.Pos])
}

// LeakXOR is a TimedEncrypter whose reported tick count is
// p[Pos] ^ Key[Pos] — spec.md §8's "XOR lift test", modeling a leak that
// depends on the (unknown) target key rather than the plaintext alone.
type LeakXOR struct {
	Pos int
	Key block.Block
}

// EncryptTimed reports tick = p[Pos] ^ Key[Pos].
func (l LeakXOR) EncryptTimed(p block.Block) (block.Block, block.Tick) {
	return block.Block{}, block.Tick(p[l.Pos] ^ l.Key[l.Pos])
}
