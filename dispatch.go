package socket

// shutdownSignal is an internal Request variant, never constructed by a
// client, that [Task.Shutdown] pushes through the control channel so the
// stop request is processed in the same order as any other inbox item.
type shutdownSignal struct{}

func (shutdownSignal) isRequest() {}

// inboxItem is the control-channel envelope: exactly one of req or rsp is
// set. sink is only meaningful alongside req, since a [Response] produces
// no direct Confirm.
type inboxItem struct {
	req  Request
	sink Sink
	rsp  Response
}

// handleInboxItem is the Request Dispatcher, C6.
func (r *reactor) handleInboxItem(item inboxItem) {
	switch {
	case item.req != nil:
		if _, ok := item.req.(shutdownSignal); ok {
			r.stopping = true
			return
		}
		r.handleRequest(item.req, item.sink)
	case item.rsp != nil:
		r.handleResponse(item.rsp)
	}
}

func (r *reactor) handleRequest(req Request, sink Sink) {
	switch v := req.(type) {
	case ReqBind:
		r.handleBind(v, sink)
	case ReqClose:
		r.handleClose(v, sink)
	case ReqSend:
		r.handleSend(v, sink)
	default:
		r.opts.logger.Debug().Log("unrecognised request ignored")
	}
}

func (r *reactor) handleResponse(rsp Response) {
	switch v := rsp.(type) {
	case RspReceived:
		r.handleRspReceived(v)
	default:
		r.opts.logger.Debug().Log("unrecognised response ignored")
	}
}

// handleClose implements the Close row of §4.7: remove the connection
// named by req.Handle if present, else Err(BadHandle). Unlike the drop
// path, a client-initiated Close never produces an IndDropped — the
// CfmClose is the only signal the client needs, since it already knows the
// handle is gone. Close only ever acts on connections, matching the
// original implementation (original_source/grease-socket/src/lib.rs:633,
// which removes solely from `connections`); there is no Unbind Request in
// this version (§9), so a listener handle is simply unknown to Close and
// always yields BadHandle.
func (r *reactor) handleClose(req ReqClose, sink Sink) {
	if cr, ok := r.connections[req.Handle]; ok {
		r.teardownConnection(cr)
		sink.SendConfirm(CfmClose{Handle: req.Handle, Ctx: req.Ctx})
		return
	}
	sink.SendConfirm(CfmClose{
		Handle: req.Handle,
		Err:    &BadHandleError{Handle: req.Handle},
		Ctx:    req.Ctx,
	})
}
