// Package scrub implements the optional Cache Scrubber from spec.md §4.1,
// §9: before a timed measurement, write zeros over a buffer sized to the
// largest data-cache level, evicting whatever the oracle's T-tables left
// resident. It is off by default because of its severe throughput cost
// (spec.md §4.1) and is never on the critical path unless a caller
// explicitly enables it.
package scrub

import "github.com/klauspost/cpuid/v2"

// defaultBufferSize is used when cpuid reports no usable cache-size
// information (e.g. inside some virtualized or sandboxed environments).
// 32MB comfortably exceeds the L2/L3 size of essentially every commodity
// x86 CPU this engine is meant to run on.
const defaultBufferSize = 32 * 1024 * 1024

// Scrubber writes zeros over a cache-sized buffer on demand.
type Scrubber struct {
	buf []byte
}

// New probes the largest data-cache level via
// github.com/klauspost/cpuid/v2 (promoted from an indirect dependency of
// tuneinsight-lattigo to direct use here) instead of hand-parsing the x86
// CPUID cache-info leaf spec.md §9 mentions, and allocates a scrub buffer
// that size.
func New() *Scrubber {
	size := largestCacheSize()
	if size <= 0 {
		size = defaultBufferSize
	}
	return &Scrubber{buf: make([]byte, size)}
}

func largestCacheSize() int {
	best := 0
	for _, sz := range []int{cpuid.CPU.Cache.L1D, cpuid.CPU.Cache.L2, cpuid.CPU.Cache.L3} {
		if sz > best {
			best = sz
		}
	}
	return best
}

// Scrub writes zeros across the whole buffer, evicting prior cache
// contents sized to the largest cache level probed at construction time.
func (s *Scrubber) Scrub() {
	for i := range s.buf {
		s.buf[i] = 0
	}
}

// BufferSize reports the size of the scrub buffer, mostly useful for
// diagnostics/logging.
func (s *Scrubber) BufferSize() int {
	return len(s.buf)
}
