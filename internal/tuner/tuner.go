// Package tuner implements the Process Tuner capability from spec.md §5,
// §9: best-effort CPU pinning and realtime scheduling priority, intended
// to reduce scheduler-induced jitter in the Measurement Loop's timed
// window. This is a noise-reduction aid, not a correctness requirement —
// every implementation here must silently no-op rather than fail when the
// underlying platform or permissions don't support it.
package tuner

// Tuner requests process-wide scheduling adjustments before a measurement
// run starts. Implementations are best-effort: failures are swallowed, not
// surfaced, because spec.md explicitly scopes this out of the correctness
// contract.
type Tuner interface {
	// PinCPU requests that the current process/thread run only on the
	// given logical CPU.
	PinCPU(cpu int)
	// Realtime requests a realtime (or as-close-as-permitted) scheduling
	// priority for the current process.
	Realtime()
}
