package socket

import (
	"time"

	"github.com/joeycumines/go-catrate"
	"github.com/joeycumines/logiface"
)

// defaultMaxReadLen bounds a single readSocket call per wakeup, matching
// the original implementation's MAX_READ_LEN (see original_source).
const defaultMaxReadLen = 2048

// taskOptions holds resolved [New] configuration.
type taskOptions struct {
	logger      *logiface.Logger[*logEvent]
	maxReadLen  int
	bindLimit   *catrate.Limiter
	acceptLimit *catrate.Limiter
	inboxSize   int
}

// TaskOption configures a [Task] at construction time.
type TaskOption interface {
	applyTask(*taskOptions) error
}

type taskOptionFunc func(*taskOptions) error

func (f taskOptionFunc) applyTask(o *taskOptions) error { return f(o) }

// WithLogger attaches a structured logger to the task. Accept and
// connection-registration failures, poll and wakeup-fd failures are logged
// at error level; readiness events for unknown handles and unrecognised
// inbox items at debug level. Binds, drops and per-connection read/write
// errors are not logged (they reach the client as Confirms and
// Indications). The default is a no-op logger.
func WithLogger(logger *logiface.Logger[*logEvent]) TaskOption {
	return taskOptionFunc(func(o *taskOptions) error {
		o.logger = logger
		return nil
	})
}

// WithMaxReadLen caps the number of bytes read from a connection per
// readable wakeup before yielding back to the poll loop, bounding how long
// one busy connection can monopolise the reactor goroutine. The default is
// 2048, matching the reference implementation this task's wire semantics
// were distilled from.
func WithMaxReadLen(n int) TaskOption {
	return taskOptionFunc(func(o *taskOptions) error {
		if n <= 0 {
			return &IOError{Kind: "WithMaxReadLen", Cause: ErrNotImplemented}
		}
		o.maxReadLen = n
		return nil
	})
}

// WithBindRate limits how often [ReqBind] may attempt to open a new
// listener (the limiter is consulted before the bind, so failed binds
// count too), using a sliding multi-window limiter (catrate.Limiter) keyed
// on a constant category, since binds are a task-wide, not per-peer,
// concern. A request that exceeds the configured rate receives a [CfmBind]
// whose Err wraps the limiter's rejection rather than attempting the bind.
// Disabled (nil limiter) by default.
func WithBindRate(rates map[time.Duration]int) TaskOption {
	return taskOptionFunc(func(o *taskOptions) error {
		o.bindLimit = catrate.NewLimiter(rates)
		return nil
	})
}

// WithAcceptRate limits how many new connections a listener will accept
// per window. Once the limit is reached, the reactor still calls accept(2)
// to keep the backlog from filling (so legitimate earlier connections
// aren't starved), but immediately closes the new fd without ever sending
// [IndConnected]. Disabled (nil limiter) by default.
func WithAcceptRate(rates map[time.Duration]int) TaskOption {
	return taskOptionFunc(func(o *taskOptions) error {
		o.acceptLimit = catrate.NewLimiter(rates)
		return nil
	})
}

// WithInboxSize sets the buffer depth of the task's control channel, i.e.
// how many [Request]/[Response] values client goroutines may have in
// flight before [Task.Request] and [Task.Respond] block. Default 64.
func WithInboxSize(n int) TaskOption {
	return taskOptionFunc(func(o *taskOptions) error {
		if n <= 0 {
			return &IOError{Kind: "WithInboxSize", Cause: ErrNotImplemented}
		}
		o.inboxSize = n
		return nil
	})
}

func resolveTaskOptions(opts []TaskOption) (*taskOptions, error) {
	cfg := &taskOptions{
		maxReadLen: defaultMaxReadLen,
		inboxSize:  64,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.applyTask(cfg); err != nil {
			return nil, err
		}
	}
	if cfg.logger == nil {
		cfg.logger = newNopLogger()
	}
	return cfg, nil
}
