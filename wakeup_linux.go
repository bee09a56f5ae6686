//go:build linux

package socket

import (
	"golang.org/x/sys/unix"
)

// waker lets client goroutines interrupt the reactor's blocking poll wait
// once they've pushed a [Request] or [Response] onto its inbox channel. On
// Linux it's a single nonblocking eventfd: both the signalling write and
// the draining read target the same fd.
type waker struct {
	fd int
}

func newWaker() (*waker, error) {
	fd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		return nil, wrapIO("eventfd", err)
	}
	return &waker{fd: fd}, nil
}

func (w *waker) pollFD() int {
	return w.fd
}

// wake is safe to call from any goroutine; it is the only waker method
// that is.
func (w *waker) wake() error {
	var buf [8]byte
	buf[7] = 1
	_, err := unix.Write(w.fd, buf[:])
	if err != nil && err != unix.EAGAIN {
		return wrapIO("eventfd write", err)
	}
	return nil
}

// drain clears the ready state after the reactor observes EPOLLIN on the
// wakeup fd. Called only from the reactor goroutine.
func (w *waker) drain() error {
	var buf [8]byte
	for {
		_, err := unix.Read(w.fd, buf[:])
		if err == unix.EAGAIN {
			return nil
		}
		if err != nil {
			return wrapIO("eventfd read", err)
		}
	}
}

func (w *waker) close() error {
	return wrapIO("eventfd close", unix.Close(w.fd))
}
