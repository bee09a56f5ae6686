//go:build darwin

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

// poller wraps kqueue for the reactor's exclusive use; see poller_linux.go's
// doc comment for why this carries none of the locking its eventloop-derived
// ancestor needed. Unlike epoll, a kqueue event's Ident is always the real
// fd the kernel polls — there's no free-form data field to stash an
// independent dispatch token in — so add/remove maintain a small fd→token
// side table instead, consulted by wait.
type poller struct {
	kq       int
	tokens   map[int]uint64
	eventBuf [256]unix.Kevent_t
}

func newPoller() (*poller, error) {
	kq, err := unix.Kqueue()
	if err != nil {
		return nil, wrapIO("kqueue", err)
	}
	unix.CloseOnExec(kq)
	return &poller{kq: kq, tokens: make(map[int]uint64)}, nil
}

func (p *poller) close() error {
	return wrapIO("kqueue close", unix.Close(p.kq))
}

// add registers fd for events and records its dispatch token. edgeTriggered
// applies EV_CLEAR, used for accepted connections (§4.3); listeners and the
// wakeup fd stay level-triggered.
func (p *poller) add(fd int, token uint64, events ioEvents, edgeTriggered bool) error {
	if err := p.change(eventsToKevents(fd, events, addFlags(edgeTriggered))); err != nil {
		return err
	}
	p.tokens[fd] = token
	return nil
}

func (p *poller) remove(fd int) error {
	_ = p.change([]unix.Kevent_t{
		kevent(fd, unix.EVFILT_READ, unix.EV_DELETE),
		kevent(fd, unix.EVFILT_WRITE, unix.EV_DELETE),
	})
	delete(p.tokens, fd)
	return nil
}

func (p *poller) change(changes []unix.Kevent_t) error {
	if len(changes) == 0 {
		return nil
	}
	_, err := unix.Kevent(p.kq, changes, nil, nil)
	if err == unix.ENOENT {
		// deleting a filter that was never armed (e.g. write side of a
		// read-only registration); not an error for our purposes.
		return nil
	}
	return wrapIO("kevent register", err)
}

// wait blocks with no timeout until at least one fd is ready and returns
// the batch of readiness pairs for the reactor to dispatch by token lookup.
func (p *poller) wait(out []pollEvent) ([]pollEvent, error) {
	n, err := unix.Kevent(p.kq, nil, p.eventBuf[:], nil)
	if err != nil {
		if err == unix.EINTR {
			return out[:0], nil
		}
		return out[:0], wrapIO("kevent poll", err)
	}
	out = out[:0]
	for i := 0; i < n; i++ {
		fd := int(p.eventBuf[i].Ident)
		token, ok := p.tokens[fd]
		if !ok {
			// stale event for an fd removed earlier in this same batch;
			// nothing left to dispatch it to.
			continue
		}
		out = append(out, pollEvent{
			token:  token,
			events: keventToEvents(&p.eventBuf[i]),
		})
	}
	return out, nil
}

func addFlags(edgeTriggered bool) uint16 {
	flags := uint16(unix.EV_ADD | unix.EV_ENABLE)
	if edgeTriggered {
		flags |= unix.EV_CLEAR
	}
	return flags
}

func kevent(fd int, filter int16, flags uint16) unix.Kevent_t {
	return unix.Kevent_t{
		Ident:  uint64(fd),
		Filter: filter,
		Flags:  flags,
	}
}

func eventsToKevents(fd int, events ioEvents, flags uint16) []unix.Kevent_t {
	var kevents []unix.Kevent_t
	if events&evRead != 0 {
		kevents = append(kevents, kevent(fd, unix.EVFILT_READ, flags))
	}
	if events&evWrite != 0 {
		kevents = append(kevents, kevent(fd, unix.EVFILT_WRITE, flags))
	}
	return kevents
}

func keventToEvents(kev *unix.Kevent_t) ioEvents {
	var events ioEvents
	switch kev.Filter {
	case unix.EVFILT_READ:
		events |= evRead
	case unix.EVFILT_WRITE:
		events |= evWrite
	}
	if kev.Flags&unix.EV_ERROR != 0 {
		events |= evRead | evWrite
	}
	return events
}
