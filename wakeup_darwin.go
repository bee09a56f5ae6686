//go:build darwin

package socket

import (
	"golang.org/x/sys/unix"
)

// waker is the Darwin equivalent of the Linux eventfd waker: kqueue has no
// analogue to eventfd, so this falls back to the classic self-pipe trick. A
// single byte written to wfd becomes readable on rfd, which is what the
// reactor registers with kqueue.
type waker struct {
	rfd, wfd int
}

func newWaker() (*waker, error) {
	var fds [2]int
	if err := unix.Pipe(fds[:]); err != nil {
		return nil, wrapIO("pipe", err)
	}
	w := &waker{rfd: fds[0], wfd: fds[1]}
	for _, fd := range fds {
		unix.CloseOnExec(fd)
		if err := unix.SetNonblock(fd, true); err != nil {
			_ = unix.Close(fds[0])
			_ = unix.Close(fds[1])
			return nil, wrapIO("set nonblock", err)
		}
	}
	return w, nil
}

func (w *waker) pollFD() int {
	return w.rfd
}

func (w *waker) wake() error {
	_, err := unix.Write(w.wfd, []byte{1})
	if err != nil && err != unix.EAGAIN {
		return wrapIO("pipe write", err)
	}
	return nil
}

func (w *waker) drain() error {
	var buf [64]byte
	for {
		_, err := unix.Read(w.rfd, buf[:])
		if err == unix.EAGAIN {
			return nil
		}
		if err != nil {
			return wrapIO("pipe read", err)
		}
	}
}

func (w *waker) close() error {
	err1 := unix.Close(w.rfd)
	err2 := unix.Close(w.wfd)
	if err1 != nil {
		return wrapIO("pipe close", err1)
	}
	return wrapIO("pipe close", err2)
}
