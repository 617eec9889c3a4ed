package core

import "matchbook/internal/domain"

// ReplySink delivers engine output to a transport destination. The engine
// never knows what a destination is beyond its identifier; implementations
// must be non-blocking or buffered because the engine holds its lock while
// sending.
type ReplySink interface {
	SendReply(dest string, r domain.OrderReply)
	SendTrade(dest string, t domain.Trade)
	SendError(dest string, e domain.ErrorReply)
	SendBook(dest string, s *domain.BookSnapshot)
}

// FanoutSink forwards every message to each wrapped sink in order.
type FanoutSink struct {
	sinks []ReplySink
}

func NewFanoutSink(sinks ...ReplySink) *FanoutSink {
	return &FanoutSink{sinks: sinks}
}

func (f *FanoutSink) SendReply(dest string, r domain.OrderReply) {
	for _, s := range f.sinks {
		s.SendReply(dest, r)
	}
}

func (f *FanoutSink) SendTrade(dest string, t domain.Trade) {
	for _, s := range f.sinks {
		s.SendTrade(dest, t)
	}
}

func (f *FanoutSink) SendError(dest string, e domain.ErrorReply) {
	for _, s := range f.sinks {
		s.SendError(dest, e)
	}
}

func (f *FanoutSink) SendBook(dest string, b *domain.BookSnapshot) {
	for _, s := range f.sinks {
		s.SendBook(dest, b)
	}
}
