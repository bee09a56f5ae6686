package socket

// readConnection is the Connection Read Path, §4.3. It is invoked both on
// a connection-readable poll event and after a RspReceived re-opens the
// read gate.
func (r *reactor) readConnection(cr *connRecord) {
	if cr.indicationOutstanding {
		return
	}

	buf := make([]byte, r.opts.maxReadLen)
	n, ok, err := readSocket(cr.fd, buf)
	if err != nil {
		r.dropConnection(cr, err)
		return
	}
	if !ok {
		return // EAGAIN/EWOULDBLOCK
	}
	if n == 0 {
		r.dropConnection(cr, nil) // orderly peer close
		return
	}

	cr.indicationOutstanding = true
	cr.sink.SendIndication(IndReceived{Handle: cr.handle, Data: buf[:n]})
}

// handleRspReceived re-opens the read gate for the connection named by
// rsp.Handle and immediately retries a read, per the Response row of
// §4.7. An unknown handle is silently ignored — the connection may have
// dropped in the race between IndReceived and this RspReceived arriving.
func (r *reactor) handleRspReceived(rsp RspReceived) {
	cr, ok := r.connections[rsp.Handle]
	if !ok {
		return
	}
	cr.indicationOutstanding = false
	r.readConnection(cr)
}

// handleSend implements the Send Request row of §4.5/§4.7.
func (r *reactor) handleSend(req ReqSend, sink Sink) {
	cr, ok := r.connections[req.Handle]
	if !ok {
		sink.SendConfirm(CfmSend{
			Handle: req.Handle,
			Err:    &BadHandleError{Handle: req.Handle},
			Ctx:    req.Ctx,
		})
		return
	}

	if len(cr.writeQueue) > 0 {
		cr.writeQueue = append(cr.writeQueue, pendingWrite{
			data: copyBytes(req.Data),
			ctx:  req.Ctx,
			sink: sink,
		})
		return
	}

	n, ok, err := writeSocket(cr.fd, req.Data)
	if err != nil {
		sink.SendConfirm(CfmSend{Handle: req.Handle, Err: err, Ctx: req.Ctx})
		return
	}
	if ok && n == len(req.Data) {
		sink.SendConfirm(CfmSend{Handle: req.Handle, Ctx: req.Ctx})
		return
	}

	cr.writeQueue = append(cr.writeQueue, pendingWrite{
		data: copyBytes(req.Data[n:]),
		ctx:  req.Ctx,
		sink: sink,
	})
}

// drainWrites is the connection-writable half of §4.5: it drains the FIFO
// as far as the socket allows in this wakeup, confirming each fully-sent
// write in submission order.
func (r *reactor) drainWrites(cr *connRecord) {
	for len(cr.writeQueue) > 0 {
		pw := &cr.writeQueue[0]

		n, ok, err := writeSocket(cr.fd, pw.data)
		if err != nil {
			pw.sink.SendConfirm(CfmSend{Handle: cr.handle, Err: err, Ctx: pw.ctx})
			cr.writeQueue = cr.writeQueue[1:]
			// Chosen policy (§9): the rest of the queue stays, retried on
			// the next writable wakeup, rather than failing outright.
			return
		}
		if !ok {
			return // EAGAIN; front of queue unchanged, resume next wakeup
		}

		pw.data = pw.data[n:]
		if len(pw.data) > 0 {
			return // partial write; stays at the front
		}

		pw.sink.SendConfirm(CfmSend{Handle: cr.handle, Ctx: pw.ctx})
		cr.writeQueue = cr.writeQueue[1:]
	}
}

// dropConnection is the Drop Path, §4.6: the connection is gone through
// no request of the client's, so it gets an IndDropped in addition to the
// usual teardown and flush invariant.
func (r *reactor) dropConnection(cr *connRecord, cause error) {
	r.teardownConnection(cr)
	cr.sink.SendIndication(IndDropped{Handle: cr.handle, Err: cause})
}

// teardownConnection removes cr from the reactor's state, deregisters it
// from the poller, closes its fd, and runs the flush invariant: every
// still-queued write is confirmed Dropped to its own reply sink. It does
// not itself send IndDropped — callers decide whether that's appropriate
// (the drop path wants it, an explicit Close does not).
func (r *reactor) teardownConnection(cr *connRecord) {
	delete(r.connections, cr.handle)
	_ = r.poller.remove(cr.fd)
	_ = closeSocket(cr.fd)

	for _, pw := range cr.writeQueue {
		pw.sink.SendConfirm(CfmSend{
			Handle: cr.handle,
			Err:    &DroppedError{Handle: cr.handle},
			Ctx:    pw.ctx,
		})
	}
	cr.writeQueue = nil
}

func copyBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
