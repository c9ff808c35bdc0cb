//go:build amd64

package cycletimer

import "github.com/kvieira/tboxtiming/internal/block"

// rdtsc reads the x86 time-stamp counter. Implemented in rdtsc_amd64.s —
// a single-cycle-resolution monotonic counter, the hardware capability
// spec.md §2 calls the "Cycle Timer". Modeled on the tiny asm-linked,
// go:nosplit counter functions in
// lizeren-usbarmory-gotee/trusted_os_usbarmory/internal/cache_timer.go
// (readPMUCycleCounter/dsb), substituting RDTSC for that example's ARM PMU
// register since this repo targets commodity x86 hardware.
//
//go:noescape
func rdtsc() uint64

// RDTSCTimer is the real Timer implementation on amd64.
type RDTSCTimer struct{}

// Now returns the current TSC value as a Tick.
func (RDTSCTimer) Now() block.Tick {
	return block.Tick(rdtsc())
}

// New returns the platform's real Timer.
func New() Timer {
	return RDTSCTimer{}
}
