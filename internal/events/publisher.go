package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Subjects published by the API.
const (
	SubjectApplicationSubmitted = "applications.submitted"
	SubjectApplicationApproved  = "applications.approved"
	SubjectApplicationDeclined  = "applications.declined"
	SubjectApplicationArchived  = "applications.archived"
	SubjectApplicationCancelled = "applications.cancelled"
	SubjectBookingCreated       = "bookings.created"
	SubjectBookingCancelled     = "bookings.cancelled"
	SubjectRefundRequested      = "payments.refund.requested"
)

// Publisher emits domain events. Publishing is fire-and-forget: callers
// log failures but do not undo the mutation that produced the event.
type Publisher interface {
	Publish(ctx context.Context, subject string, event any) error
}

type ApplicationEvent struct {
	EventType     string    `json:"event_type"`
	ApplicationID string    `json:"application_id"`
	ApplicantID   string    `json:"applicant_id"`
	CoachID       string    `json:"coach_id"`
	Status        string    `json:"status"`
	PaymentStatus string    `json:"payment_status"`
	OccurredAt    time.Time `json:"occurred_at"`
}

type BookingEvent struct {
	EventType  string    `json:"event_type"`
	BookingID  string    `json:"booking_id"`
	CoachID    string    `json:"coach_id"`
	MemberID   string    `json:"member_id"`
	Date       string    `json:"date"`
	StartTime  string    `json:"start_time"`
	OccurredAt time.Time `json:"occurred_at"`
}

// RefundRequestedEvent is consumed by the payment gateway integration.
type RefundRequestedEvent struct {
	EventType        string    `json:"event_type"`
	ApplicationID    string    `json:"application_id"`
	PaymentReference string    `json:"payment_reference,omitempty"`
	Amount           float64   `json:"amount"`
	Reason           string    `json:"reason,omitempty"`
	RequestedAt      time.Time `json:"requested_at"`
}

type NatsPublisher struct {
	conn   *nats.Conn
	logger *zap.Logger
}

func NewNatsPublisher(natsURL string, logger *zap.Logger) (*NatsPublisher, error) {
	nc, err := nats.Connect(natsURL, nats.Name("gym-app"))
	if err != nil {
		return nil, err
	}
	return &NatsPublisher{conn: nc, logger: logger}, nil
}

func (p *NatsPublisher) Publish(ctx context.Context, subject string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", subject, err)
	}

	msg := nats.NewMsg(subject)
	msg.Data = payload
	if err := p.conn.PublishMsg(msg); err != nil {
		p.logger.Error("Error publishing to NATS", zap.String("subject", subject), zap.Error(err))
		return err
	}

	p.logger.Debug("Published event", zap.String("subject", subject))
	return nil
}

// Close flushes pending messages and closes the connection.
func (p *NatsPublisher) Close() {
	if err := p.conn.Drain(); err != nil {
		p.logger.Warn("NATS drain failed", zap.Error(err))
	}
}

// LogPublisher stands in when no broker is configured; events only reach
// the log.
type LogPublisher struct {
	logger *zap.Logger
}

func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, subject string, event any) error {
	p.logger.Info("Event (no broker configured)", zap.String("subject", subject), zap.Any("event", event))
	return nil
}
