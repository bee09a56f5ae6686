package socket

// ChannelSink is an ambient convenience [Sink] that funnels every Confirm
// and Indication onto a single Go channel as [SinkMessage] values. It is
// not part of the wire contract between client and [Task]; it exists
// because most clients want `for msg := range sink.C` rather than hand
// authoring their own Sink.
//
// The channel is buffered at construction time. If it fills, SendConfirm
// and SendIndication block, which (per the Sink contract) stalls the
// reactor goroutine until the client drains it — callers that cannot
// guarantee prompt draining should implement their own non-blocking Sink
// instead.
type ChannelSink struct {
	C chan SinkMessage
}

// SinkMessage carries exactly one of Confirm or Indication, never both.
type SinkMessage struct {
	Confirm    Confirm
	Indication Indication
}

// NewChannelSink returns a [ChannelSink] backed by a channel of the given
// buffer size.
func NewChannelSink(buffer int) *ChannelSink {
	return &ChannelSink{C: make(chan SinkMessage, buffer)}
}

func (s *ChannelSink) SendConfirm(c Confirm) {
	s.C <- SinkMessage{Confirm: c}
}

func (s *ChannelSink) SendIndication(i Indication) {
	s.C <- SinkMessage{Indication: i}
}
