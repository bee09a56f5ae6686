package socket

// Handle is an opaque, non-zero, process-stable identifier for a listening
// or accepted socket, valid only for the lifetime of the [Task] that issued
// it. Its namespace is deliberately independent of the OS file-descriptor
// namespace: the kernel freely recycles a dropped connection's fd for a
// later accept, but a Handle must not (§3) — sharing the two would let a
// stale Handle alias a live, unrelated connection the moment the OS reused
// its old fd.
type Handle uint64

// String implements [fmt.Stringer].
func (h Handle) String() string {
	return uitoa(uint64(h))
}

// uitoa avoids pulling in strconv just for this one call site; handles are
// small, hot-path values logged constantly from the reactor goroutine.
func uitoa(v uint64) string {
	if v == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}

// handleAllocator is the Handle Allocator (C1): a monotonically increasing
// counter that never recycles a value, grounded on the original
// implementation's `next_handle: Cell<u64>` + `take()`
// (original_source/grease-socket/src/lib.rs:308). 0 is reserved for the
// control channel's poll token (§4.1) and is never returned by take.
type handleAllocator struct {
	next uint64
}

func newHandleAllocator() *handleAllocator {
	return &handleAllocator{next: 1}
}

// take returns the current counter value and post-increments, per §4.1.
func (a *handleAllocator) take() Handle {
	h := Handle(a.next)
	a.next++
	return h
}
