package socket

import "net/netip"

// listenerRecord is C4 from SPEC_FULL.md: a bound, listening TCP socket
// still owned by the reactor.
type listenerRecord struct {
	handle Handle
	fd     int
	addr   netip.AddrPort
	sink   Sink
}

// pendingWrite is one queued write on a [connRecord]'s FIFO, per the
// PendingWrite data model: { context, bytes_sent_so_far, data, reply_sink }.
// bytes_sent_so_far isn't tracked as a separate field; data is re-sliced
// forward as bytes drain, which carries the same information.
type pendingWrite struct {
	data []byte
	ctx  Context
	sink Sink
}

// connRecord is C3: an accepted connection and everything the reactor
// needs to drive its read and write sides. Registered with the poller as
// both readable and writable, edge-triggered, for its entire lifetime
// (§4.2) — there is no separate "armed for write" bookkeeping to maintain,
// since the registration never changes after accept.
type connRecord struct {
	handle   Handle
	listener Handle
	fd       int
	peer     netip.AddrPort
	sink     Sink

	// indicationOutstanding is true while an IndReceived is in flight and
	// the client hasn't yet sent the matching RspReceived (§4.3 / P2).
	indicationOutstanding bool

	// writeQueue holds writes queued behind a not-yet-writable socket, in
	// submission order.
	writeQueue []pendingWrite
}
