// Package socket is a TCP socket server task: a single background worker
// that owns a set of listening endpoints and their accepted connections, and
// exposes them to clients through an asynchronous message-passing interface
// of Requests, Confirms, Indications, and Responses.
//
// Clients never touch raw sockets. They submit [Request] values (Bind, Send,
// Close) through a [Task] obtained from [New], and receive [Confirm] and
// [Indication] values on the [Sink] they supplied. The task mediates
// readiness-driven I/O so that clients may remain blocking or
// single-threaded without concerning themselves with non-blocking socket
// semantics.
//
// # Architecture
//
// [New] starts a reactor goroutine that owns an OS readiness poller (epoll
// on Linux, kqueue on Darwin), a control inbox, and the set of bound
// listeners and accepted connections. Client goroutines communicate with it
// only by calling [Task.Request] and [Task.Respond], which are safe from
// any goroutine; the reactor's state is never touched by more than one
// goroutine.
//
// # Flow control
//
// At most one [IndReceived] is ever in flight for a given connection. A
// client must send [RspReceived] before the task will read more data from
// that connection. Outbound data queues per-connection when the socket
// isn't immediately writable; [CfmSend] for a queued write arrives once it
// drains, or carries [ErrDropped] if the connection goes away first.
//
// # Platform support
//
// Only Linux (epoll) and Darwin (kqueue) have poller implementations.
package socket
