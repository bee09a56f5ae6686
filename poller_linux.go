//go:build linux

package socket

import (
	"golang.org/x/sys/unix"
)

// ioEvents is the readiness conditions the reactor cares about for a given
// file descriptor.
type ioEvents uint32

const (
	evRead ioEvents = 1 << iota
	evWrite
)

// pollEvent is one readiness notification returned by [poller.wait], in the
// order the OS reported it. token is the dispatch key supplied at add time
// (a [Handle], or 0 for the control channel's wakeup fd) — never the raw
// fd, since the OS is free to recycle fds that the reactor's Handle
// namespace must not (§4.1).
type pollEvent struct {
	token  uint64
	events ioEvents
}

// poller wraps epoll for the reactor's exclusive use. Every other
// eventloop-derived multiplexer in this codebase's lineage guarded its
// registration table with a mutex because callbacks could fire from one
// goroutine while another registered a new fd; a socket [Task] has no such
// concurrency; add/remove/wait are only ever called from the single
// reactor goroutine (SPEC_FULL.md §5), so that table and its locking are
// gone here.
type poller struct {
	epfd     int
	eventBuf [256]unix.EpollEvent
}

func newPoller() (*poller, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, wrapIO("epoll_create1", err)
	}
	return &poller{epfd: epfd}, nil
}

func (p *poller) close() error {
	return wrapIO("epoll close", unix.Close(p.epfd))
}

// add registers fd for events, tagging the registration with token so that
// wait reports token rather than fd: epoll_event's data union is free-form
// user data, so the dispatch key never has to be the kernel fd. edgeTriggered
// is set for accepted connections, so a readiness change is reported once:
// writes are drained until EAGAIN (§4.5), and data left unread after the
// single read of a wakeup is picked up by the read retried on RspReceived
// (§4.3). It is never set for a listener or the wakeup fd, both of which
// are safe, low-frequency level-triggered sources.
func (p *poller) add(fd int, token uint64, events ioEvents, edgeTriggered bool) error {
	ev := unix.EpollEvent{
		Events: eventsToEpoll(events, edgeTriggered),
		Fd:     int32(token),
	}
	return wrapIO("epoll_ctl add", unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, fd, &ev))
}

func (p *poller) remove(fd int) error {
	err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil)
	if err == unix.EBADF || err == unix.ENOENT {
		// fd already closed or never armed; removal is a no-op either way.
		return nil
	}
	return wrapIO("epoll_ctl del", err)
}

// wait blocks with no timeout until at least one fd is ready and returns
// the batch of readiness pairs, in kernel-reported order, for the reactor
// to dispatch by token lookup. out is reused across calls to avoid
// allocating on every iteration of the reactor loop.
func (p *poller) wait(out []pollEvent) ([]pollEvent, error) {
	n, err := unix.EpollWait(p.epfd, p.eventBuf[:], -1)
	if err != nil {
		if err == unix.EINTR {
			return out[:0], nil
		}
		return out[:0], wrapIO("epoll_wait", err)
	}
	out = out[:0]
	for i := 0; i < n; i++ {
		out = append(out, pollEvent{
			token:  uint64(uint32(p.eventBuf[i].Fd)),
			events: epollToEvents(p.eventBuf[i].Events),
		})
	}
	return out, nil
}

func eventsToEpoll(events ioEvents, edgeTriggered bool) uint32 {
	var e uint32
	if events&evRead != 0 {
		e |= unix.EPOLLIN
	}
	if events&evWrite != 0 {
		e |= unix.EPOLLOUT
	}
	if edgeTriggered {
		e |= unix.EPOLLET
	}
	return e
}

func epollToEvents(e uint32) ioEvents {
	var events ioEvents
	if e&(unix.EPOLLIN|unix.EPOLLERR|unix.EPOLLHUP) != 0 {
		events |= evRead
	}
	if e&(unix.EPOLLOUT|unix.EPOLLERR) != 0 {
		events |= evWrite
	}
	return events
}
