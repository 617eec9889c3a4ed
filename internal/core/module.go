package core

import (
	"context"
	"log"

	"matchbook/internal/domain"
	"matchbook/internal/port"
)

// Module routes decoded commands to the engine for their instrument. The
// registry is populated once at startup; engines are never added or removed
// while the process serves traffic. Journal and cache are optional
// collaborators written best-effort; the matching core gives no durability
// guarantee.
type Module struct {
	log     *log.Logger
	sink    ReplySink
	engines map[string]*MatchingEngine
	journal port.Journal
	cache   port.Cache
}

func NewModule(logger *log.Logger, sink ReplySink, journal port.Journal, cache port.Cache, instruments []string) *Module {
	m := &Module{
		log:     logger,
		sink:    sink,
		engines: make(map[string]*MatchingEngine, len(instruments)),
		journal: journal,
		cache:   cache,
	}
	for _, in := range instruments {
		m.engines[in] = NewMatchingEngine(in, sink, logger)
	}
	return m
}

// Engine returns the engine registered for instrument.
func (m *Module) Engine(instrument string) (*MatchingEngine, bool) {
	e, ok := m.engines[instrument]
	return e, ok
}

func (m *Module) Instruments() []string {
	out := make([]string, 0, len(m.engines))
	for in := range m.engines {
		out = append(out, in)
	}
	return out
}

func (m *Module) HandleOrderInsert(ctx context.Context, dest string, o *domain.OrderInsert) {
	eng, ok := m.lookup(dest, o.Instrument, o.ClientOrderID)
	if !ok {
		return
	}
	if m.journal != nil {
		_ = m.journal.SaveOrder(ctx, o)
	}
	eng.OrderInsert(dest, o)
	m.refreshCache(ctx, eng)
}

func (m *Module) HandleOrderAmend(ctx context.Context, dest string, a *domain.OrderAmend) {
	eng, ok := m.lookup(dest, a.Instrument, a.ClientOrderID)
	if !ok {
		return
	}
	eng.OrderAmend(dest, a)
	m.refreshCache(ctx, eng)
}

func (m *Module) HandleOrderCancel(ctx context.Context, dest string, c *domain.OrderCancel) {
	eng, ok := m.lookup(dest, c.Instrument, c.ClientOrderID)
	if !ok {
		return
	}
	eng.OrderCancel(dest, c)
	m.refreshCache(ctx, eng)
}

func (m *Module) HandleGetBook(ctx context.Context, dest string, instrument string) {
	eng, ok := m.lookup(dest, instrument, "")
	if !ok {
		return
	}
	snap := eng.Snapshot()
	if m.cache != nil {
		_ = m.cache.SetBook(ctx, instrument, snap)
	}
	m.sink.SendBook(dest, snap)
}

// lookup resolves the engine for instrument. An unknown instrument is
// rejected with an error reply rather than silently dropped.
func (m *Module) lookup(dest, instrument, clientOrderID string) (*MatchingEngine, bool) {
	eng, ok := m.engines[instrument]
	if !ok {
		m.log.Printf("no matching engine for instrument %q", instrument)
		m.sink.SendError(dest, domain.ErrorReply{
			ClientOrderID: clientOrderID,
			Message:       "unknown instrument: " + instrument,
		})
		return nil, false
	}
	return eng, true
}

// refreshCache republishes the book after a mutation: the cache gets the
// new snapshot and feed subscribers get a broadcast. The empty destination
// reaches no request session.
func (m *Module) refreshCache(ctx context.Context, eng *MatchingEngine) {
	snap := eng.Snapshot()
	if m.cache != nil {
		_ = m.cache.SetBook(ctx, eng.Instrument(), snap)
	}
	m.sink.SendBook("", snap)
}
