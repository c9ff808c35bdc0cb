package ioformat

import (
	"encoding/hex"
	"fmt"
	"io"

	"github.com/zeebo/blake3"
)

// WriteDigestSidecar hashes r with BLAKE3 and writes the hex digest
// followed by a newline to w — a checkpoint integrity sidecar for the
// raw/correlation/tally dumps and bf.dat, so a later run can detect a
// truncated or corrupted file from a previous crash before trusting it
// (tuneinsight-lattigo pulls in github.com/zeebo/blake3 as a direct
// dependency for exactly this kind of fast keyed/unkeyed hashing; here
// it guards file integrity rather than lattice parameters).
func WriteDigestSidecar(w io.Writer, r io.Reader) error {
	h := blake3.New()
	if _, err := io.Copy(h, r); err != nil {
		return fmt.Errorf("ioformat: hashing for digest sidecar: %w", err)
	}
	sum := h.Sum(nil)
	if _, err := fmt.Fprintln(w, hex.EncodeToString(sum)); err != nil {
		return fmt.Errorf("ioformat: writing digest sidecar: %w", err)
	}
	return nil
}

// VerifyDigestSidecar re-hashes r and reports whether it matches the
// hex digest read from digest (the counterpart to WriteDigestSidecar).
func VerifyDigestSidecar(r io.Reader, digest io.Reader) (bool, error) {
	h := blake3.New()
	if _, err := io.Copy(h, r); err != nil {
		return false, fmt.Errorf("ioformat: hashing for digest verification: %w", err)
	}
	got := hex.EncodeToString(h.Sum(nil))

	wantBuf, err := io.ReadAll(digest)
	if err != nil {
		return false, fmt.Errorf("ioformat: reading digest sidecar: %w", err)
	}
	want := string(trimNewline(wantBuf))

	return got == want, nil
}

func trimNewline(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b
}
