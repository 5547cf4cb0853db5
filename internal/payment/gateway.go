// Package payment talks to the external payment collaborator. The API never
// moves money itself; it records payment status and asks for refunds.
package payment

import (
	"context"
	"time"

	"alcyxob/gym-app/internal/domain"
	"alcyxob/gym-app/internal/events"
)

// Gateway requests refunds from the payment provider.
type Gateway interface {
	RequestRefund(ctx context.Context, app *domain.Application, amount float64, reason string) error
}

// eventGateway hands refund requests to the payment integration over the
// event bus.
type eventGateway struct {
	publisher events.Publisher
}

func NewEventGateway(publisher events.Publisher) Gateway {
	return &eventGateway{publisher: publisher}
}

func (g *eventGateway) RequestRefund(ctx context.Context, app *domain.Application, amount float64, reason string) error {
	return g.publisher.Publish(ctx, events.SubjectRefundRequested, events.RefundRequestedEvent{
		EventType:        events.SubjectRefundRequested,
		ApplicationID:    app.ID.Hex(),
		PaymentReference: app.PaymentReference,
		Amount:           amount,
		Reason:           reason,
		RequestedAt:      time.Now().UTC(),
	})
}
