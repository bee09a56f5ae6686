package socket

// handleBind implements the Bind row of §4.7. Only [ConnAccepted] is
// supported; any other ConnectionType is rejected without attempting a
// syscall.
func (r *reactor) handleBind(req ReqBind, sink Sink) {
	if req.Type != ConnAccepted {
		sink.SendConfirm(CfmBind{Err: ErrNotImplemented, Ctx: req.Ctx})
		return
	}

	if r.opts.bindLimit != nil {
		if next, ok := r.opts.bindLimit.Allow("bind"); !ok {
			sink.SendConfirm(CfmBind{
				Err: wrapIO("bind rate limit", &rateLimitedError{retryAfter: next.String()}),
				Ctx: req.Ctx,
			})
			return
		}
	}

	fd, bound, err := listenSocket(req.Addr, req.Backlog)
	if err != nil {
		sink.SendConfirm(CfmBind{Err: err, Ctx: req.Ctx})
		return
	}

	handle := r.handles.take()
	if err := r.poller.add(fd, uint64(handle), evRead, false); err != nil {
		_ = closeSocket(fd)
		sink.SendConfirm(CfmBind{Err: err, Ctx: req.Ctx})
		return
	}

	r.listeners[handle] = &listenerRecord{
		handle: handle,
		fd:     fd,
		addr:   bound,
		sink:   sink,
	}

	sink.SendConfirm(CfmBind{Handle: handle, Addr: bound, Ctx: req.Ctx})
}

// handleListenerReadable is the Listener Accept Path, §4.4. A listener is
// level-triggered, so exactly one accept is attempted per wakeup; if more
// connections are pending, the listener stays readable and fires again.
func (r *reactor) handleListenerReadable(lr *listenerRecord) {
	fd, peer, ok, err := acceptConn(lr.fd)
	if err != nil {
		r.opts.logger.Err().Err(err).Log("accept failed, listener remains up")
		return
	}
	if !ok {
		return
	}

	if r.opts.acceptLimit != nil {
		if _, allowed := r.opts.acceptLimit.Allow(lr.handle); !allowed {
			_ = closeSocket(fd)
			return
		}
	}

	handle := r.handles.take()
	if err := r.poller.add(fd, uint64(handle), evRead|evWrite, true); err != nil {
		_ = closeSocket(fd)
		r.opts.logger.Err().Err(err).Log("failed to register accepted connection")
		return
	}

	cr := &connRecord{
		handle:   handle,
		listener: lr.handle,
		fd:       fd,
		peer:     peer,
		sink:     lr.sink,
	}
	r.connections[handle] = cr

	lr.sink.SendIndication(IndConnected{
		Handle:   handle,
		Listener: lr.handle,
		Peer:     peer,
		Type:     ConnAccepted,
	})
}

// rateLimitedError reports that a [WithBindRate] limiter declined a Bind.
type rateLimitedError struct {
	retryAfter string
}

func (e *rateLimitedError) Error() string {
	return "rate limited, retry after " + e.retryAfter
}
