package http

import (
	"sync"

	"matchbook/internal/domain"
)

// Session collects the replies produced while one request is processed.
// The engine runs synchronously on the request goroutine, so appends need
// no locking of their own.
type Session struct {
	Acks   []domain.OrderReply
	Trades []domain.Trade
	Errors []domain.ErrorReply
	Book   *domain.BookSnapshot
}

// ReplyRouter implements the engine's reply sink for the HTTP transport:
// each in-flight request registers a destination and drains its session
// when the engine returns. Messages for unregistered destinations are
// dropped; the event sink carries the broadcast copies.
type ReplyRouter struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewReplyRouter() *ReplyRouter {
	return &ReplyRouter{sessions: make(map[string]*Session)}
}

func (r *ReplyRouter) Open(dest string) *Session {
	s := &Session{}
	r.mu.Lock()
	r.sessions[dest] = s
	r.mu.Unlock()
	return s
}

func (r *ReplyRouter) Close(dest string) {
	r.mu.Lock()
	delete(r.sessions, dest)
	r.mu.Unlock()
}

func (r *ReplyRouter) session(dest string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[dest]
}

func (r *ReplyRouter) SendReply(dest string, reply domain.OrderReply) {
	if s := r.session(dest); s != nil {
		s.Acks = append(s.Acks, reply)
	}
}

func (r *ReplyRouter) SendTrade(dest string, t domain.Trade) {
	if s := r.session(dest); s != nil {
		s.Trades = append(s.Trades, t)
	}
}

func (r *ReplyRouter) SendError(dest string, e domain.ErrorReply) {
	if s := r.session(dest); s != nil {
		s.Errors = append(s.Errors, e)
	}
}

func (r *ReplyRouter) SendBook(dest string, b *domain.BookSnapshot) {
	if s := r.session(dest); s != nil {
		s.Book = b
	}
}
