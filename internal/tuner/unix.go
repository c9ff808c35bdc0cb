//go:build !windows

package tuner

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// UnixTuner uses golang.org/x/sys/unix to pin the calling thread to one
// CPU and request an elevated scheduling priority. Grounded on
// astavonin-go-optimization-guide/01-common-patterns/src/zero-copy_test.go,
// which directly imports golang.org/x/sys/unix in a full pack repo.
type UnixTuner struct{}

// New returns the platform's real Tuner.
func New() Tuner {
	return UnixTuner{}
}

// PinCPU pins the current OS thread to cpu via sched_setaffinity. It
// calls runtime.LockOSThread first, so the calling goroutine stays on the
// thread whose affinity mask is set; it never unlocks that thread.
func (UnixTuner) PinCPU(cpu int) {
	runtime.LockOSThread()

	var set unix.CPUSet
	set.Zero()
	set.Set(cpu)

	// Best-effort: spec.md §5/§9 treats this as a noise-reduction aid, not
	// a correctness requirement, so a permission or platform failure here
	// is silently ignored rather than surfaced to the caller.
	_ = unix.SchedSetaffinity(0, &set)
}

// Realtime sets the calling process's nice value to -20 via setpriority.
// It does not switch the process to a SCHED_FIFO/SCHED_RR realtime class.
// Lowering the nice value normally requires CAP_SYS_NICE; without it the
// call fails, the failure is ignored, and the priority is left unchanged.
func (UnixTuner) Realtime() {
	_ = unix.Setpriority(unix.PRIO_PROCESS, 0, -20)
}
