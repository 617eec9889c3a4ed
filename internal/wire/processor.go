package wire

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"matchbook/internal/core"
	"matchbook/internal/domain"
)

type Action string

const (
	ActionInsert  Action = "Insert"
	ActionAmend   Action = "Amend"
	ActionCancel  Action = "Cancel"
	ActionGetBook Action = "GetBook"
)

// OrderHandler receives validated typed commands together with the
// transport destination the replies should be routed to.
type OrderHandler interface {
	HandleOrderInsert(ctx context.Context, dest string, o *domain.OrderInsert)
	HandleOrderAmend(ctx context.Context, dest string, a *domain.OrderAmend)
	HandleOrderCancel(ctx context.Context, dest string, c *domain.OrderCancel)
	HandleGetBook(ctx context.Context, dest string, instrument string)
}

type envelope struct {
	Action Action          `json:"Action"`
	Data   json.RawMessage `json:"Data"`
}

// Prices and volumes arrive as integers already in fixed-point micro-units;
// no scaling happens here.
type insertPayload struct {
	Account    string `json:"Account"`
	Instrument string `json:"Instrument"`
	Price      uint64 `json:"Price"`
	Volume     uint64 `json:"Volume"`
	Type       string `json:"Type"`
	IsBuy      bool   `json:"IsBuy"`
	ClientID   string `json:"ClientId"`
}

type amendPayload struct {
	insertPayload
	NewPrice  uint64 `json:"NewPrice"`
	NewVolume uint64 `json:"NewVolume"`
	ID        string `json:"Id"`
}

type cancelPayload struct {
	Instrument string `json:"Instrument"`
	Price      uint64 `json:"Price"`
	IsBuy      bool   `json:"IsBuy"`
	ID         string `json:"Id"`
	ClientID   string `json:"ClientId"`
}

type getBookPayload struct {
	Instrument string `json:"Instrument"`
}

// Processor decodes inbound request buffers into typed commands and
// dispatches them. It holds no state across calls. A request that fails
// decoding or validation is answered with an error reply and never reaches
// the handler.
type Processor struct {
	handler OrderHandler
	sink    core.ReplySink
	now     func() time.Time
	newID   func() string
}

func NewProcessor(handler OrderHandler, sink core.ReplySink) *Processor {
	return &Processor{
		handler: handler,
		sink:    sink,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// Process parses payload as an {"Action": ..., "Data": {...}} document and
// invokes the matching handler method. The returned error mirrors what was
// already reported through the sink.
func (p *Processor) Process(ctx context.Context, dest string, payload []byte) error {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return p.reject(dest, "", fmt.Errorf("malformed request: %w", err))
	}

	switch env.Action {
	case ActionInsert:
		var in insertPayload
		if err := json.Unmarshal(env.Data, &in); err != nil {
			return p.reject(dest, in.ClientID, fmt.Errorf("malformed insert data: %w", err))
		}
		o := &domain.OrderInsert{
			Account:       in.Account,
			Instrument:    in.Instrument,
			Price:         domain.Price(in.Price),
			Volume:        domain.Volume(in.Volume),
			Type:          in.Type,
			Side:          sideOf(in.IsBuy),
			Timestamp:     p.now(),
			ID:            p.newID(),
			ClientOrderID: in.ClientID,
		}
		if err := o.Validate(); err != nil {
			return p.reject(dest, in.ClientID, err)
		}
		p.handler.HandleOrderInsert(ctx, dest, o)
		return nil

	case ActionAmend:
		var am amendPayload
		if err := json.Unmarshal(env.Data, &am); err != nil {
			return p.reject(dest, am.ClientID, fmt.Errorf("malformed amend data: %w", err))
		}
		a := &domain.OrderAmend{
			OrderInsert: domain.OrderInsert{
				Account:       am.Account,
				Instrument:    am.Instrument,
				Price:         domain.Price(am.Price),
				Volume:        domain.Volume(am.Volume),
				Type:          am.Type,
				Side:          sideOf(am.IsBuy),
				Timestamp:     p.now(),
				ID:            am.ID,
				ClientOrderID: am.ClientID,
			},
			NewPrice:  domain.Price(am.NewPrice),
			NewVolume: domain.Volume(am.NewVolume),
		}
		if err := a.Validate(); err != nil {
			return p.reject(dest, am.ClientID, err)
		}
		p.handler.HandleOrderAmend(ctx, dest, a)
		return nil

	case ActionCancel:
		var ca cancelPayload
		if err := json.Unmarshal(env.Data, &ca); err != nil {
			return p.reject(dest, ca.ClientID, fmt.Errorf("malformed cancel data: %w", err))
		}
		c := &domain.OrderCancel{
			Instrument:    ca.Instrument,
			Price:         domain.Price(ca.Price),
			Side:          sideOf(ca.IsBuy),
			ID:            ca.ID,
			ClientOrderID: ca.ClientID,
		}
		if err := c.Validate(); err != nil {
			return p.reject(dest, ca.ClientID, err)
		}
		p.handler.HandleOrderCancel(ctx, dest, c)
		return nil

	case ActionGetBook:
		var gb getBookPayload
		if err := json.Unmarshal(env.Data, &gb); err != nil {
			return p.reject(dest, "", fmt.Errorf("malformed getbook data: %w", err))
		}
		if gb.Instrument == "" {
			return p.reject(dest, "", fmt.Errorf("instrument must not be empty"))
		}
		p.handler.HandleGetBook(ctx, dest, gb.Instrument)
		return nil

	default:
		return p.reject(dest, "", fmt.Errorf("unknown action %q", env.Action))
	}
}

func (p *Processor) reject(dest, clientOrderID string, err error) error {
	p.sink.SendError(dest, domain.ErrorReply{
		ClientOrderID: clientOrderID,
		Message:       err.Error(),
	})
	return err
}

func sideOf(isBuy bool) domain.Side {
	if isBuy {
		return domain.Buy
	}
	return domain.Sell
}
