package socket

// reactor is C5, the Reactor Loop: owns the poller, the control inbox, and
// the listeners/connections tables. Exactly one goroutine ever touches it
// (§5), so none of its fields are synchronized.
type reactor struct {
	poller  *poller
	waker   *waker
	inbox   <-chan inboxItem
	opts    *taskOptions
	handles *handleAllocator

	listeners   map[Handle]*listenerRecord
	connections map[Handle]*connRecord

	stopping bool
	done     chan struct{}
}

// run is the reactor's entire lifetime: block on the poller, dispatch
// whatever came back, repeat, until a shutdown Request is observed.
func (r *reactor) run() {
	defer close(r.done)

	var events []pollEvent
	for {
		var err error
		events, err = r.poller.wait(events)
		if err != nil {
			r.opts.logger.Err().Err(err).Log("reactor poll failed, stopping")
			break
		}

		for _, ev := range events {
			if ev.token == 0 {
				r.drainControl()
				continue
			}
			r.dispatchSocketEvent(ev)
		}

		if r.stopping {
			break
		}
	}

	r.teardownAll()
}

// dispatchSocketEvent implements the token-dispatch rules of §4.2 for
// listener and connection tokens. The poller reports the Handle each
// registration was tagged with at add time (§4.1), not the underlying fd,
// so the lookup is a direct map hit on the token.
func (r *reactor) dispatchSocketEvent(ev pollEvent) {
	h := Handle(ev.token)

	if lr, ok := r.listeners[h]; ok {
		if ev.events&evRead != 0 {
			r.handleListenerReadable(lr)
		}
		return
	}

	if cr, ok := r.connections[h]; ok {
		if ev.events&evRead != 0 {
			r.readConnection(cr)
		}
		// the read above may have dropped the connection (peer close,
		// read error); re-check before touching it again.
		if cr, stillOpen := r.connections[h]; stillOpen && ev.events&evWrite != 0 {
			r.drainWrites(cr)
		}
		return
	}

	r.opts.logger.Debug().Log("readiness event for unknown handle, ignored")
}

// drainControl handles token 0 per §4.2: clear the wakeup fd, then drain
// the inbox channel by non-blocking receive until it's empty.
func (r *reactor) drainControl() {
	if err := r.waker.drain(); err != nil {
		r.opts.logger.Err().Err(err).Log("failed to drain wakeup fd")
	}
	for {
		select {
		case item := <-r.inbox:
			r.handleInboxItem(item)
		default:
			return
		}
	}
}

// teardownAll runs on the way out of run: every listener and connection is
// closed, and every connection's pending writes and the connection itself
// get their final, terminal notifications so no client is left waiting on
// a Confirm or Indication that will never arrive.
func (r *reactor) teardownAll() {
	for _, cr := range r.connections {
		r.teardownConnection(cr)
		cr.sink.SendIndication(IndDropped{Handle: cr.handle})
	}
	for _, lr := range r.listeners {
		_ = r.poller.remove(lr.fd)
		_ = closeSocket(lr.fd)
	}
	_ = r.waker.close()
	_ = r.poller.close()
}
