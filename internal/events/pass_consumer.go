package events

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"studioslot/internal/logger"
	"studioslot/internal/pass"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	KeyPassIssued   = "pass.issued"
	KeyPassToppedUp = "pass.topped_up"
)

var ErrMalformedEvent = errors.New("malformed event payload")

type PassIssued struct {
	UserID     int       `json:"user_id"`
	PassType   string    `json:"pass_type"`
	Credits    int       `json:"credits"`
	ValidFrom  time.Time `json:"valid_from"`
	ValidUntil time.Time `json:"valid_until"`
	PaymentID  string    `json:"payment_id"`
}

type PassToppedUp struct {
	PassID    int    `json:"pass_id"`
	Credits   int    `json:"credits"`
	PaymentID string `json:"payment_id"`
}

type DeliverySource interface {
	Deliveries(ctx context.Context) (<-chan amqp.Delivery, error)
}

// PassConsumer applies payment-side pass events to the ledger.
type PassConsumer struct {
	ledger pass.Ledger
	source DeliverySource
}

func NewPassConsumer(ledger pass.Ledger, source DeliverySource) *PassConsumer {
	return &PassConsumer{ledger: ledger, source: source}
}

// Run consumes until ctx is cancelled or the delivery channel closes.
func (pc *PassConsumer) Run(ctx context.Context) error {
	msgs, err := pc.source.Deliveries(ctx)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return nil
			}
			pc.dispatch(ctx, d)
		}
	}
}

func (pc *PassConsumer) dispatch(ctx context.Context, d amqp.Delivery) {
	err := pc.Handle(ctx, d.RoutingKey, d.Body)
	switch {
	case err == nil:
		_ = d.Ack(false)
	case errors.Is(err, ErrMalformedEvent), errors.Is(err, pass.ErrInvalidPass),
		errors.Is(err, pass.ErrInvalidAmount), errors.Is(err, pass.ErrNotPackPass),
		errors.Is(err, pass.ErrPassNotFound):
		logger.Warn("dropping pass event", "routing_key", d.RoutingKey, "error", err)
		_ = d.Nack(false, false)
	default:
		logger.Error("pass event failed, requeueing", "routing_key", d.RoutingKey, "error", err)
		_ = d.Nack(false, true)
	}
}

// Handle applies one event body. Unknown routing keys are ignored.
func (pc *PassConsumer) Handle(ctx context.Context, routingKey string, body []byte) error {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return ErrMalformedEvent
	}

	switch routingKey {
	case KeyPassIssued:
		var evt PassIssued
		if err := json.Unmarshal(env.Data, &evt); err != nil {
			return ErrMalformedEvent
		}
		if evt.UserID <= 0 || evt.PaymentID == "" {
			return ErrMalformedEvent
		}
		p, err := pc.ledger.Issue(ctx, pass.IssueRequest{
			UserID:      evt.UserID,
			Type:        pass.PassType(evt.PassType),
			Credits:     evt.Credits,
			ValidFrom:   evt.ValidFrom,
			ValidUntil:  evt.ValidUntil,
			ExternalRef: evt.PaymentID,
		})
		if err != nil {
			return err
		}
		logger.Info("pass issued", "pass_id", p.ID, "user_id", p.UserID, "pass_type", p.Type)
		return nil

	case KeyPassToppedUp:
		var evt PassToppedUp
		if err := json.Unmarshal(env.Data, &evt); err != nil {
			return ErrMalformedEvent
		}
		if evt.PassID <= 0 || evt.PaymentID == "" {
			return ErrMalformedEvent
		}
		p, err := pc.ledger.TopUp(ctx, pass.TopUpRequest{
			PassID:      evt.PassID,
			Credits:     evt.Credits,
			ExternalRef: evt.PaymentID,
		})
		if err != nil {
			return err
		}
		logger.Info("pass topped up", "pass_id", p.ID, "remaining_credits", p.RemainingCredits)
		return nil
	}

	return nil
}
