package socket

import (
	"context"
	"sync"
)

// Task is the Public Handle (C7): the client-facing submission endpoint
// for a running reactor. Its methods are safe to call from any number of
// goroutines concurrently; the reactor goroutine itself is never touched
// by more than one caller.
type Task struct {
	inbox chan inboxItem
	waker *waker
	done  chan struct{}

	shutdownOnce sync.Once
}

// New starts a reactor goroutine and returns a [Task] bound to it. It
// returns an error only for task-fatal setup failures — the poller or
// wakeup mechanism could not be created — since the task cannot function
// at all without them (§7, tier 3).
func New(opts ...TaskOption) (*Task, error) {
	cfg, err := resolveTaskOptions(opts)
	if err != nil {
		return nil, err
	}

	p, err := newPoller()
	if err != nil {
		return nil, err
	}

	w, err := newWaker()
	if err != nil {
		_ = p.close()
		return nil, err
	}

	// Token 0 is reserved for the control channel (§4.1); no Handle the
	// allocator hands out is ever 0, so this registration can never be
	// confused with a listener or connection.
	if err := p.add(w.pollFD(), 0, evRead, false); err != nil {
		_ = w.close()
		_ = p.close()
		return nil, err
	}

	inbox := make(chan inboxItem, cfg.inboxSize)

	r := &reactor{
		poller:      p,
		waker:       w,
		inbox:       inbox,
		opts:        cfg,
		handles:     newHandleAllocator(),
		listeners:   make(map[Handle]*listenerRecord),
		connections: make(map[Handle]*connRecord),
		done:        make(chan struct{}),
	}

	go r.run()

	return &Task{inbox: inbox, waker: w, done: r.done}, nil
}

// Request submits req to the task. sink receives the matching Confirm
// (and, for a successful Bind, every subsequent Indication for that
// listener and its accepted connections). Safe to call from any
// goroutine; never blocks on the reactor, only on the inbox channel
// filling up (see [WithInboxSize]).
func (t *Task) Request(req Request, sink Sink) {
	t.inbox <- inboxItem{req: req, sink: sink}
	_ = t.waker.wake()
}

// Respond delivers a client acknowledgement — currently only
// [RspReceived] — back to the task. Safe to call from any goroutine.
func (t *Task) Respond(rsp Response) {
	t.inbox <- inboxItem{rsp: rsp}
	_ = t.waker.wake()
}

// Shutdown stops the reactor goroutine: every open listener and
// connection is torn down, queued writes are confirmed Dropped, and every
// live connection receives a final IndDropped. It returns once the
// reactor has fully stopped, or ctx is done, whichever comes first.
// Calling Shutdown more than once is safe; only the first call sends the
// stop signal, and every call waits for the same stop, bounded by its own
// ctx.
func (t *Task) Shutdown(ctx context.Context) error {
	t.shutdownOnce.Do(func() {
		t.inbox <- inboxItem{req: shutdownSignal{}}
		_ = t.waker.wake()
	})
	select {
	case <-t.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
