package socket_test

import (
	"context"
	"math/rand"
	"net"
	"net/netip"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	sock "github.com/joeycumines/go-sockettask"
)

const testTimeout = 5 * time.Second

var testPort atomic.Uint64

func init() {
	testPort.Store(20000)
}

func allocateTestAddr() netip.AddrPort {
	port := uint16(testPort.Add(1))
	return netip.AddrPortFrom(netip.MustParseAddr("127.0.0.1"), port)
}

func newTestTask(t *testing.T) (*sock.Task, *sock.ChannelSink) {
	t.Helper()
	task, err := sock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
		defer cancel()
		_ = task.Shutdown(ctx)
	})
	return task, sock.NewChannelSink(16)
}

func recvConfirm(t *testing.T, sink *sock.ChannelSink) sock.Confirm {
	t.Helper()
	select {
	case msg := <-sink.C:
		require.NotNil(t, msg.Confirm, "expected a Confirm, got an Indication")
		return msg.Confirm
	case <-time.After(testTimeout):
		t.Fatal("timed out waiting for Confirm")
		return nil
	}
}

func recvIndication(t *testing.T, sink *sock.ChannelSink) sock.Indication {
	t.Helper()
	select {
	case msg := <-sink.C:
		require.NotNil(t, msg.Indication, "expected an Indication, got a Confirm")
		return msg.Indication
	case <-time.After(testTimeout):
		t.Fatal("timed out waiting for Indication")
		return nil
	}
}

func bindOK(t *testing.T, task *sock.Task, sink *sock.ChannelSink, addr netip.AddrPort) sock.Handle {
	t.Helper()
	task.Request(sock.ReqBind{Addr: addr, Ctx: "bind"}, sink)
	cfm, ok := recvConfirm(t, sink).(sock.CfmBind)
	require.True(t, ok)
	require.Equal(t, "bind", cfm.Ctx)
	require.NoError(t, cfm.Err)
	require.NotZero(t, cfm.Handle)
	return cfm.Handle
}

func TestBindOK(t *testing.T) {
	task, sink := newTestTask(t)
	addr := allocateTestAddr()
	h := bindOK(t, task, sink, addr)
	require.NotZero(t, h)
}

func TestBindConflict(t *testing.T) {
	task, sink := newTestTask(t)
	addr := allocateTestAddr()
	bindOK(t, task, sink, addr)

	task.Request(sock.ReqBind{Addr: addr, Ctx: "second"}, sink)
	cfm, ok := recvConfirm(t, sink).(sock.CfmBind)
	require.True(t, ok)
	require.Equal(t, "second", cfm.Ctx)
	require.Error(t, cfm.Err)
	require.Zero(t, cfm.Handle)
}

func TestBindUnreachableInterface(t *testing.T) {
	task, sink := newTestTask(t)
	addr := netip.MustParseAddrPort("8.8.8.8:8000")

	task.Request(sock.ReqBind{Addr: addr, Ctx: "unreachable"}, sink)
	cfm, ok := recvConfirm(t, sink).(sock.CfmBind)
	require.True(t, ok)
	require.Error(t, cfm.Err)
}

func TestAcceptAndDrop(t *testing.T) {
	task, sink := newTestTask(t)
	addr := allocateTestAddr()
	listenHandle := bindOK(t, task, sink, addr)

	conn, err := net.DialTCP("tcp", nil, net.TCPAddrFromAddrPort(addr))
	require.NoError(t, err)

	ind, ok := recvIndication(t, sink).(sock.IndConnected)
	require.True(t, ok)
	require.Equal(t, listenHandle, ind.Listener)
	require.NotZero(t, ind.Handle)
	require.Equal(t, sock.ConnAccepted, ind.Type)

	require.NoError(t, conn.Close())

	drop, ok := recvIndication(t, sink).(sock.IndDropped)
	require.True(t, ok)
	require.Equal(t, ind.Handle, drop.Handle)
	require.NoError(t, drop.Err)
}

func TestTwoConnections(t *testing.T) {
	task, sink := newTestTask(t)
	addrA := allocateTestAddr()
	addrB := allocateTestAddr()

	listenA := bindOK(t, task, sink, addrA)
	listenB := bindOK(t, task, sink, addrB)

	connB, err := net.DialTCP("tcp", nil, net.TCPAddrFromAddrPort(addrB))
	require.NoError(t, err)
	connA, err := net.DialTCP("tcp", nil, net.TCPAddrFromAddrPort(addrA))
	require.NoError(t, err)

	seen := map[sock.Handle]sock.Handle{} // conn handle -> listener handle
	for i := 0; i < 2; i++ {
		ind := recvIndication(t, sink).(sock.IndConnected)
		seen[ind.Handle] = ind.Listener
	}
	var connHandleA, connHandleB sock.Handle
	for conn, listener := range seen {
		switch listener {
		case listenA:
			connHandleA = conn
		case listenB:
			connHandleB = conn
		}
	}
	require.NotZero(t, connHandleA)
	require.NotZero(t, connHandleB)

	require.NoError(t, connA.Close())
	drop := recvIndication(t, sink).(sock.IndDropped)
	require.Equal(t, connHandleA, drop.Handle)

	require.NoError(t, connB.Close())
	drop = recvIndication(t, sink).(sock.IndDropped)
	require.Equal(t, connHandleB, drop.Handle)
}

// TestSendData mirrors the reference implementation's send_data case: the
// peer writes 4096 bytes, the client acks each IndReceived with
// RspReceived, and the concatenated IndReceived data must equal what the
// peer wrote.
func TestSendData(t *testing.T) {
	task, sink := newTestTask(t)
	addr := allocateTestAddr()
	listenHandle := bindOK(t, task, sink, addr)

	conn, err := net.DialTCP("tcp", nil, net.TCPAddrFromAddrPort(addr))
	require.NoError(t, err)

	ind := recvIndication(t, sink).(sock.IndConnected)
	require.Equal(t, listenHandle, ind.Listener)
	connHandle := ind.Handle

	data := make([]byte, 4096)
	_, err = rand.New(rand.NewSource(1)).Read(data)
	require.NoError(t, err)

	go func() {
		_, _ = conn.Write(data)
	}()

	var received []byte
	for len(received) < len(data) {
		rind := recvIndication(t, sink).(sock.IndReceived)
		require.Equal(t, connHandle, rind.Handle)
		received = append(received, rind.Data...)
		task.Respond(sock.RspReceived{Handle: rind.Handle})
	}
	require.Equal(t, data, received)

	require.NoError(t, conn.Close())
	drop := recvIndication(t, sink).(sock.IndDropped)
	require.Equal(t, connHandle, drop.Handle)
}

// TestReceiveData mirrors the reference implementation's receive_data case:
// the task sends, the peer reads it all, and a single CfmSend{Ok} arrives.
func TestReceiveData(t *testing.T) {
	task, sink := newTestTask(t)
	addr := allocateTestAddr()
	listenHandle := bindOK(t, task, sink, addr)

	conn, err := net.DialTCP("tcp", nil, net.TCPAddrFromAddrPort(addr))
	require.NoError(t, err)

	ind := recvIndication(t, sink).(sock.IndConnected)
	require.Equal(t, listenHandle, ind.Listener)
	connHandle := ind.Handle

	data := make([]byte, 1024)
	_, err = rand.New(rand.NewSource(2)).Read(data)
	require.NoError(t, err)

	task.Request(sock.ReqSend{Handle: connHandle, Data: data, Ctx: "send"}, sink)

	received := make([]byte, 0, len(data))
	buf := make([]byte, 16)
	for len(received) < len(data) {
		n, err := conn.Read(buf)
		require.NoError(t, err)
		require.NotZero(t, n, "unexpected zero read")
		received = append(received, buf[:n]...)
	}
	require.Equal(t, data, received)

	cfm := recvConfirm(t, sink).(sock.CfmSend)
	require.Equal(t, connHandle, cfm.Handle)
	require.Equal(t, "send", cfm.Ctx)
	require.NoError(t, cfm.Err)

	require.NoError(t, conn.Close())
	drop := recvIndication(t, sink).(sock.IndDropped)
	require.Equal(t, connHandle, drop.Handle)
}

func TestSendToBadHandle(t *testing.T) {
	task, sink := newTestTask(t)

	task.Request(sock.ReqSend{Handle: 999999, Data: []byte("x"), Ctx: "bad"}, sink)
	cfm := recvConfirm(t, sink).(sock.CfmSend)
	require.Error(t, cfm.Err)
	var badHandle *sock.BadHandleError
	require.ErrorAs(t, cfm.Err, &badHandle)
}

func TestCloseBadHandle(t *testing.T) {
	task, sink := newTestTask(t)

	task.Request(sock.ReqClose{Handle: 999999, Ctx: "bad"}, sink)
	cfm := recvConfirm(t, sink).(sock.CfmClose)
	require.ErrorIs(t, cfm.Err, sock.ErrBadHandle)
}

// TestCloseDoesNotIndicateDrop pins §4.7: an explicit Close gets only its
// CfmClose, never a separate IndDropped for the same handle.
func TestCloseDoesNotIndicateDrop(t *testing.T) {
	task, sink := newTestTask(t)
	addr := allocateTestAddr()
	bindOK(t, task, sink, addr)

	conn, err := net.DialTCP("tcp", nil, net.TCPAddrFromAddrPort(addr))
	require.NoError(t, err)
	defer conn.Close()

	ind := recvIndication(t, sink).(sock.IndConnected)

	task.Request(sock.ReqClose{Handle: ind.Handle, Ctx: "close"}, sink)
	cfm := recvConfirm(t, sink).(sock.CfmClose)
	require.Equal(t, ind.Handle, cfm.Handle)
	require.NoError(t, cfm.Err)

	select {
	case msg := <-sink.C:
		t.Fatalf("unexpected message after Close: %+v", msg)
	case <-time.After(200 * time.Millisecond):
	}
}

// TestShutdownDropsOpenConnections exercises the task-stop path: every
// live connection must get a terminal IndDropped so no client is left
// waiting forever.
func TestShutdownDropsOpenConnections(t *testing.T) {
	task, err := sock.New()
	require.NoError(t, err)
	sink := sock.NewChannelSink(16)

	addr := allocateTestAddr()
	task.Request(sock.ReqBind{Addr: addr, Ctx: "bind"}, sink)
	cfm := recvConfirm(t, sink).(sock.CfmBind)
	require.NoError(t, cfm.Err)

	conn, err := net.DialTCP("tcp", nil, net.TCPAddrFromAddrPort(addr))
	require.NoError(t, err)
	defer conn.Close()

	ind := recvIndication(t, sink).(sock.IndConnected)

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()
	require.NoError(t, task.Shutdown(ctx))

	drop := recvIndication(t, sink).(sock.IndDropped)
	require.Equal(t, ind.Handle, drop.Handle)
}

// TestNotImplementedConnectionType pins the reserved ConnDatagram path.
func TestNotImplementedConnectionType(t *testing.T) {
	task, sink := newTestTask(t)
	addr := allocateTestAddr()

	task.Request(sock.ReqBind{Addr: addr, Type: sock.ConnDatagram, Ctx: "dgram"}, sink)
	cfm := recvConfirm(t, sink).(sock.CfmBind)
	require.ErrorIs(t, cfm.Err, sock.ErrNotImplemented)
}
