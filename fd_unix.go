//go:build linux || darwin

package socket

import (
	"net/netip"

	"golang.org/x/sys/unix"
)

// listenSocket creates, binds, and begins listening on a nonblocking TCP
// socket for addr. It returns the fd and the address actually bound
// (resolving an ephemeral port 0 request).
func listenSocket(addr netip.AddrPort, backlog int) (int, netip.AddrPort, error) {
	domain := unix.AF_INET
	if addr.Addr().Is6() {
		domain = unix.AF_INET6
	}

	fd, err := unix.Socket(domain, unix.SOCK_STREAM, unix.IPPROTO_TCP)
	if err != nil {
		return -1, netip.AddrPort{}, wrapIO("socket", err)
	}

	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		_ = unix.Close(fd)
		return -1, netip.AddrPort{}, wrapIO("setsockopt reuseaddr", err)
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		_ = unix.Close(fd)
		return -1, netip.AddrPort{}, wrapIO("set nonblock", err)
	}

	sa := toSockaddr(addr)
	if err := unix.Bind(fd, sa); err != nil {
		_ = unix.Close(fd)
		return -1, netip.AddrPort{}, wrapIO("bind", err)
	}
	if backlog <= 0 {
		backlog = 128
	}
	if err := unix.Listen(fd, backlog); err != nil {
		_ = unix.Close(fd)
		return -1, netip.AddrPort{}, wrapIO("listen", err)
	}

	bound, err := unix.Getsockname(fd)
	if err != nil {
		_ = unix.Close(fd)
		return -1, netip.AddrPort{}, wrapIO("getsockname", err)
	}
	return fd, fromSockaddr(bound), nil
}

// acceptConn accepts one pending connection from listenFD, reporting
// unix.EAGAIN as (-1, zero peer, ok=false, err=nil) when the backlog is
// empty, so an empty backlog is not treated as an accept failure.
func acceptConn(listenFD int) (fd int, peer netip.AddrPort, ok bool, err error) {
	nfd, sa, aerr := unix.Accept(listenFD)
	if aerr != nil {
		if aerr == unix.EAGAIN || aerr == unix.EWOULDBLOCK {
			return -1, netip.AddrPort{}, false, nil
		}
		return -1, netip.AddrPort{}, false, wrapIO("accept", aerr)
	}
	if err := unix.SetNonblock(nfd, true); err != nil {
		_ = unix.Close(nfd)
		return -1, netip.AddrPort{}, false, wrapIO("set nonblock", err)
	}
	return nfd, fromSockaddr(sa), true, nil
}

// readSocket reads into buf, translating EAGAIN into (0, false, nil) and
// an orderly peer close (zero-length read) into (0, true, nil) so callers
// distinguish "nothing ready yet" from "read this many bytes, possibly
// zero meaning EOF" via the ok flag.
func readSocket(fd int, buf []byte) (n int, ok bool, err error) {
	n, rerr := unix.Read(fd, buf)
	if rerr != nil {
		if rerr == unix.EAGAIN || rerr == unix.EWOULDBLOCK {
			return 0, false, nil
		}
		return 0, false, wrapIO("read", rerr)
	}
	return n, true, nil
}

// writeSocket writes buf, reporting how much was actually accepted before
// the kernel send buffer filled. EAGAIN with n==0 is reported as ok=false
// so the caller queues the remainder rather than treating it as an error.
func writeSocket(fd int, buf []byte) (n int, ok bool, err error) {
	n, werr := unix.Write(fd, buf)
	if werr != nil {
		if werr == unix.EAGAIN || werr == unix.EWOULDBLOCK {
			return 0, false, nil
		}
		return n, false, wrapIO("write", werr)
	}
	return n, true, nil
}

func closeSocket(fd int) error {
	return wrapIO("close", unix.Close(fd))
}

func toSockaddr(addr netip.AddrPort) unix.Sockaddr {
	if addr.Addr().Is4() {
		return &unix.SockaddrInet4{
			Port: int(addr.Port()),
			Addr: addr.Addr().As4(),
		}
	}
	return &unix.SockaddrInet6{
		Port: int(addr.Port()),
		Addr: addr.Addr().As16(),
	}
}

func fromSockaddr(sa unix.Sockaddr) netip.AddrPort {
	switch v := sa.(type) {
	case *unix.SockaddrInet4:
		return netip.AddrPortFrom(netip.AddrFrom4(v.Addr), uint16(v.Port))
	case *unix.SockaddrInet6:
		return netip.AddrPortFrom(netip.AddrFrom16(v.Addr), uint16(v.Port))
	default:
		return netip.AddrPort{}
	}
}
