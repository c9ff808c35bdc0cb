//go:build !stdlibcipher

package oracle

import "github.com/kvieira/tboxtiming/internal/block"

// sbox is the canonical AES S-box (FIPS-197). Values match the table used
// by other_examples/349c041c_google-gocw__cmd-attack_sbox_cpa.go.go, a
// correlation-power-analysis attack against the same first-round AES-128
// leakage model this package implements the victim side of.
var sbox = [256]byte{
	0x63, 0x7c, 0x77, 0x7b, 0xf2, 0x6b, 0x6f, 0xc5, 0x30, 0x01, 0x67, 0x2b, 0xfe, 0xd7, 0xab, 0x76,
	0xca, 0x82, 0xc9, 0x7d, 0xfa, 0x59, 0x47, 0xf0, 0xad, 0xd4, 0xa2, 0xaf, 0x9c, 0xa4, 0x72, 0xc0,
	0xb7, 0xfd, 0x93, 0x26, 0x36, 0x3f, 0xf7, 0xcc, 0x34, 0xa5, 0xe5, 0xf1, 0x71, 0xd8, 0x31, 0x15,
	0x04, 0xc7, 0x23, 0xc3, 0x18, 0x96, 0x05, 0x9a, 0x07, 0x12, 0x80, 0xe2, 0xeb, 0x27, 0xb2, 0x75,
	0x09, 0x83, 0x2c, 0x1a, 0x1b, 0x6e, 0x5a, 0xa0, 0x52, 0x3b, 0xd6, 0xb3, 0x29, 0xe3, 0x2f, 0x84,
	0x53, 0xd1, 0x00, 0xed, 0x20, 0xfc, 0xb1, 0x5b, 0x6a, 0xcb, 0xbe, 0x39, 0x4a, 0x4c, 0x58, 0xcf,
	0xd0, 0xef, 0xaa, 0xfb, 0x43, 0x4d, 0x33, 0x85, 0x45, 0xf9, 0x02, 0x7f, 0x50, 0x3c, 0x9f, 0xa8,
	0x51, 0xa3, 0x40, 0x8f, 0x92, 0x9d, 0x38, 0xf5, 0xbc, 0xb6, 0xda, 0x21, 0x10, 0xff, 0xf3, 0xd2,
	0xcd, 0x0c, 0x13, 0xec, 0x5f, 0x97, 0x44, 0x17, 0xc4, 0xa7, 0x7e, 0x3d, 0x64, 0x5d, 0x19, 0x73,
	0x60, 0x81, 0x4f, 0xdc, 0x22, 0x2a, 0x90, 0x88, 0x46, 0xee, 0xb8, 0x14, 0xde, 0x5e, 0x0b, 0xdb,
	0xe0, 0x32, 0x3a, 0x0a, 0x49, 0x06, 0x24, 0x5c, 0xc2, 0xd3, 0xac, 0x62, 0x91, 0x95, 0xe4, 0x79,
	0xe7, 0xc8, 0x37, 0x6d, 0x8d, 0xd5, 0x4e, 0xa9, 0x6c, 0x56, 0xf4, 0xea, 0x65, 0x7a, 0xae, 0x08,
	0xba, 0x78, 0x25, 0x2e, 0x1c, 0xa6, 0xb4, 0xc6, 0xe8, 0xdd, 0x74, 0x1f, 0x4b, 0xbd, 0x8b, 0x8a,
	0x70, 0x3e, 0xb5, 0x66, 0x48, 0x03, 0xf6, 0x0e, 0x61, 0x35, 0x57, 0xb9, 0x86, 0xc1, 0x1d, 0x9e,
	0xe1, 0xf8, 0x98, 0x11, 0x69, 0xd9, 0x8e, 0x94, 0x9b, 0x1e, 0x87, 0xe9, 0xce, 0x55, 0x28, 0xdf,
	0x8c, 0xa1, 0x89, 0x0d, 0xbf, 0xe6, 0x42, 0x68, 0x41, 0x99, 0x2d, 0x0f, 0xb0, 0x54, 0xbb, 0x16,
}

// rcon holds the Rijndael round constants used by the AES-128 key
// schedule. Index 0 is unused so rcon[i/4] lines up with FIPS-197's 1-based
// numbering.
var rcon = [11]byte{0x00, 0x01, 0x02, 0x04, 0x08, 0x10, 0x20, 0x40, 0x80, 0x1b, 0x36}

// te0 is the classic Rijndael T-table: te0[x] packs
// (2*S[x], S[x], S[x], 3*S[x]) into one 32-bit word, combining SubBytes and
// MixColumns into a single table lookup. te1..te3 (used via rotr32) are the
// same table rotated to account for ShiftRows. This is the table-based
// construction spec.md's whole premise rests on: round 1's lookup index is
// fed directly by attacker-chosen plaintext XOR the secret key.
var te0 [256]uint32

func init() {
	for i := 0; i < 256; i++ {
		s := sbox[i]
		te0[i] = uint32(xtime(s))<<24 | uint32(s)<<16 | uint32(s)<<8 | uint32(xtime(s)^s)
	}
}

func xtime(a byte) byte {
	if a&0x80 != 0 {
		return (a << 1) ^ 0x1b
	}
	return a << 1
}

func rotr32(x uint32, n uint) uint32 {
	return x>>n | x<<(32-n)
}

func loadWord(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

func storeWord(b []byte, w uint32) {
	b[0] = byte(w >> 24)
	b[1] = byte(w >> 16)
	b[2] = byte(w >> 8)
	b[3] = byte(w)
}

func subWord(w uint32) uint32 {
	return uint32(sbox[byte(w>>24)])<<24 |
		uint32(sbox[byte(w>>16)])<<16 |
		uint32(sbox[byte(w>>8)])<<8 |
		uint32(sbox[byte(w)])
}

func rotWord(w uint32) uint32 {
	return w<<8 | w>>24
}

// TboxCipher is the default Cipher Oracle: a from-scratch AES-128
// implementation built on Rijndael T-tables instead of crypto/aes's
// constant-time path, so that a real timing difference exists between
// table indices for the Measurement Loop to pick up.
type TboxCipher struct {
	rk [44]uint32
}

// New constructs the build's selected Cipher Oracle implementation. This is
// the only call site that should exist for oracle construction; everything
// downstream programs against the Oracle interface.
func New() Oracle {
	return NewTboxCipher()
}

// NewTboxCipher constructs a TboxCipher directly. Most callers should use
// New, which resolves to whichever implementation this build selects.
func NewTboxCipher() *TboxCipher {
	return &TboxCipher{}
}

// Expand computes the AES-128 key schedule ("expansion of a 16-byte key
// into internal round-key state", spec.md §6). Key expansion indexes the
// S-box with key-dependent bytes (subWord) and must run outside any timed
// measurement window (spec.md §4.1).
func (c *TboxCipher) Expand(key block.Block) {
	var w [44]uint32
	for i := 0; i < 4; i++ {
		w[i] = loadWord(key[4*i : 4*i+4])
	}
	for i := 4; i < 44; i++ {
		temp := w[i-1]
		if i%4 == 0 {
			temp = subWord(rotWord(temp)) ^ uint32(rcon[i/4])<<24
		}
		w[i] = w[i-4] ^ temp
	}
	c.rk = w
}

// Encrypt runs the 10-round AES-128 T-table encryption of pt under the
// last-Expand-ed key. In round 1, the table index accessed for state word
// s0 is byte(s0>>24) == pt[0]^key[0] — the first-round T-box input
// spec.md's leakage model and Correlator are built around.
func (c *TboxCipher) Encrypt(pt block.Block) block.Block {
	s0 := loadWord(pt[0:4]) ^ c.rk[0]
	s1 := loadWord(pt[4:8]) ^ c.rk[1]
	s2 := loadWord(pt[8:12]) ^ c.rk[2]
	s3 := loadWord(pt[12:16]) ^ c.rk[3]

	for round := 1; round <= 9; round++ {
		rk := c.rk[4*round : 4*round+4]
		t0 := te0[byte(s0>>24)] ^ rotr32(te0[byte(s1>>16)], 8) ^ rotr32(te0[byte(s2>>8)], 16) ^ rotr32(te0[byte(s3)], 24) ^ rk[0]
		t1 := te0[byte(s1>>24)] ^ rotr32(te0[byte(s2>>16)], 8) ^ rotr32(te0[byte(s3>>8)], 16) ^ rotr32(te0[byte(s0)], 24) ^ rk[1]
		t2 := te0[byte(s2>>24)] ^ rotr32(te0[byte(s3>>16)], 8) ^ rotr32(te0[byte(s0>>8)], 16) ^ rotr32(te0[byte(s1)], 24) ^ rk[2]
		t3 := te0[byte(s3>>24)] ^ rotr32(te0[byte(s0>>16)], 8) ^ rotr32(te0[byte(s1>>8)], 16) ^ rotr32(te0[byte(s2)], 24) ^ rk[3]
		s0, s1, s2, s3 = t0, t1, t2, t3
	}

	// Final round has no MixColumns, so it only touches the S-box.
	rk := c.rk[40:44]
	var out block.Block
	storeWord(out[0:4], (uint32(sbox[byte(s0>>24)])<<24|uint32(sbox[byte(s1>>16)])<<16|uint32(sbox[byte(s2>>8)])<<8|uint32(sbox[byte(s3)]))^rk[0])
	storeWord(out[4:8], (uint32(sbox[byte(s1>>24)])<<24|uint32(sbox[byte(s2>>16)])<<16|uint32(sbox[byte(s3>>8)])<<8|uint32(sbox[byte(s0)]))^rk[1])
	storeWord(out[8:12], (uint32(sbox[byte(s2>>24)])<<24|uint32(sbox[byte(s3>>16)])<<16|uint32(sbox[byte(s0>>8)])<<8|uint32(sbox[byte(s1)]))^rk[2])
	storeWord(out[12:16], (uint32(sbox[byte(s3>>24)])<<24|uint32(sbox[byte(s0>>16)])<<16|uint32(sbox[byte(s1>>8)])<<8|uint32(sbox[byte(s2)]))^rk[3])
	return out
}
