package socket

import "net/netip"

// Context is an opaque value a client attaches to a bind or send request and
// receives back unchanged on the matching Confirm. The task never inspects
// it; it exists purely so a client can correlate asynchronous replies
// without maintaining its own side table. Modelled as `any` rather than a
// named interface because clients legitimately want to carry arbitrary
// correlation state (a request ID, a channel, a pointer back into their own
// bookkeeping).
type Context = any

// ConnectionType distinguishes how a connection came to exist. Only
// [ConnAccepted] is implemented; [ConnDatagram] is reserved for a future
// UDP-backed connection type and always yields [ErrNotImplemented].
type ConnectionType int

const (
	// ConnAccepted is a TCP connection accepted on a bound listener.
	ConnAccepted ConnectionType = iota
	// ConnDatagram is reserved. Requesting it yields [ErrNotImplemented].
	ConnDatagram
)

func (t ConnectionType) String() string {
	switch t {
	case ConnAccepted:
		return "accepted"
	case ConnDatagram:
		return "datagram"
	default:
		return "unknown"
	}
}

// Request is the sum type of messages a client sends into a [Task] via
// [Task.Request]. The marker method keeps the set closed to this package.
type Request interface {
	isRequest()
}

// ReqBind asks the task to open a listening socket on Addr. The task
// replies with exactly one [CfmBind]. Type must be [ConnAccepted] (the
// only kind currently implemented); any other value yields
// CfmBind{Err: ErrNotImplemented}.
type ReqBind struct {
	Addr    netip.AddrPort
	Backlog int
	Type    ConnectionType
	Ctx     Context
}

func (ReqBind) isRequest() {}

// ReqClose asks the task to tear down the connection identified by Handle.
// The task replies with exactly one [CfmClose]. Listeners cannot be closed
// this way: a listener's Handle yields [BadHandleError]. Closing a
// connection with writes still queued discards them; see the drop
// invariant in SPEC_FULL.md §4.6.
type ReqClose struct {
	Handle Handle
	Ctx    Context
}

func (ReqClose) isRequest() {}

// ReqSend asks the task to write Data to the connection identified by
// Handle. The write may complete synchronously, queue for later drain, or
// fail immediately; in every case the task replies with exactly one
// [CfmSend] once the outcome is known.
type ReqSend struct {
	Handle Handle
	Data   []byte
	Ctx    Context
}

func (ReqSend) isRequest() {}

// Confirm is the sum type of direct, 1:1 replies to a [Request].
type Confirm interface {
	isConfirm()
}

// CfmBind answers a [ReqBind]. On success Handle identifies the new
// listener and Err is nil; Addr echoes the bound address (useful when the
// request asked for port 0). On failure Handle is the zero value and Err
// describes why (typically an [IOError] or, if bind-rate limiting is
// configured, the limiter's own error).
type CfmBind struct {
	Handle Handle
	Addr   netip.AddrPort
	Err    error
	Ctx    Context
}

func (CfmBind) isConfirm() {}

// CfmClose answers a [ReqClose]. Err is non-nil only if Handle did not name
// a live connection ([BadHandleError]): a handle that never existed, a
// listener's handle, and a connection already dropped or closed (which is
// removed from the table at that point) all take this path.
type CfmClose struct {
	Handle Handle
	Err    error
	Ctx    Context
}

func (CfmClose) isConfirm() {}

// CfmSend answers a [ReqSend] once the write's outcome is known: Err is nil
// on a completed (possibly queued-then-flushed) write, [*BadHandleError] if
// Handle was unknown at request time, an [*IOError] if the write itself
// failed, or [*DroppedError] if the connection went away while the write
// was still queued.
type CfmSend struct {
	Handle Handle
	Err    error
	Ctx    Context
}

func (CfmSend) isConfirm() {}

// Indication is the sum type of unsolicited events the task pushes to a
// [Sink]. Only [IndReceived] gets a matching [Response] ([RspReceived]);
// [IndConnected] and [IndDropped] are not acknowledged.
type Indication interface {
	isIndication()
}

// IndConnected announces a new connection accepted on a listener. Handle
// identifies the new connection for subsequent [ReqSend]/[ReqClose]
// requests; Listener identifies the listener it arrived on; Peer is the
// remote address.
type IndConnected struct {
	Handle   Handle
	Listener Handle
	Peer     netip.AddrPort
	Type     ConnectionType
}

func (IndConnected) isIndication() {}

// IndDropped announces that a connection is gone and its Handle is no
// longer valid. Listeners never receive one. Err is nil for an orderly peer
// close or a task shutdown, or an [*IOError] describing the fault that
// caused it.
type IndDropped struct {
	Handle Handle
	Err    error
}

func (IndDropped) isIndication() {}

// IndReceived delivers bytes read from a connection. Per the one-outstanding
// rule (SPEC_FULL.md §4.3 / P2), the task will not issue another
// IndReceived for this Handle until the matching [RspReceived] arrives.
type IndReceived struct {
	Handle Handle
	Data   []byte
}

func (IndReceived) isIndication() {}

// Response is the sum type of acknowledgements a client sends back for an
// [Indication] via [Task.Respond].
type Response interface {
	isResponse()
}

// RspReceived acknowledges an [IndReceived], re-arming reads for Handle.
type RspReceived struct {
	Handle Handle
}

func (RspReceived) isResponse() {}

// Sink receives Confirms and Indications from a [Task]. Implementations
// must be safe to call from the reactor goroutine at arbitrary times; they
// must not block, since a blocked Sink stalls the entire reactor loop (see
// SPEC_FULL.md §5).
type Sink interface {
	SendConfirm(Confirm)
	SendIndication(Indication)
}
