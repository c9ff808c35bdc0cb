// Package oracle implements the Cipher Oracle capability from spec.md §6:
// one-time initialization, key expansion, and single-block encryption under
// the most recently expanded key.
//
// Two concrete implementations satisfy Oracle, selected at build time via
// the stdlibcipher build tag rather than branched on at any call site
// (spec.md §9 "Conditional OpenSSL vs in-house AES"):
//
//   - the default build (tbox.go) is a from-scratch, table-based AES-128
//     path whose round-1 timing genuinely depends on the T-box index
//     accessed — the vulnerability this whole repo measures.
//   - the stdlibcipher build (stdlib.go) wraps crypto/aes, which is
//     constant-time/AES-NI-backed on every platform Go targets and is the
//     "expected immune" counterpart named in spec.md's Non-goals.
package oracle

import "github.com/kvieira/tboxtiming/internal/block"

// Oracle carries hidden, mutable, process-wide round-key state (spec.md §5,
// §9 "Process-wide expanded key"). Callers must serialize key changes with
// encryption themselves; concurrent use of one Oracle value from multiple
// goroutines is unsupported, matching the single-threaded measurement loop
// this capability is built for.
type Oracle interface {
	// Expand stores key as the oracle's active key, replacing any
	// previously expanded key. It must be called before the first
	// Encrypt, and — per spec.md §4.1 — must never run inside a timed
	// measurement window.
	Expand(key block.Block)

	// Encrypt encrypts pt under the most recently Expand-ed key.
	Encrypt(pt block.Block) block.Block
}
