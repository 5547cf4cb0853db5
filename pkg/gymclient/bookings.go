package gymclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

// ErrSlotTaken means another member booked the slot first.
var ErrSlotTaken = errors.New("slot no longer available")

// SlotTakenError carries the availability fetched after losing the race,
// so the caller can re-render without another request.
type SlotTakenError struct {
	Availability *Availability
}

func (e *SlotTakenError) Error() string { return ErrSlotTaken.Error() }
func (e *SlotTakenError) Unwrap() error { return ErrSlotTaken }

type BookRequest struct {
	ApplicationID string
	CoachID       string
	Date          string // YYYY-MM-DD
	StartTime     string // HH:MM
	Notes         string
	HoldToken     string
}

// Availability returns the slot view for one coach on one date.
func (c *Client) Availability(ctx context.Context, coachID, date string) (*Availability, error) {
	if err := requireID("coachId", coachID); err != nil {
		return nil, err
	}
	if date == "" {
		return nil, invalid("date", "date is required")
	}
	q := url.Values{"coach_id": {coachID}, "date": {date}}
	var av Availability
	if err := c.do(ctx, http.MethodGet, "/bookings/availability?"+q.Encode(), nil, &av); err != nil {
		return nil, err
	}
	return &av, nil
}

// HoldSlot reserves a slot for a few minutes. Pass the token to BookSlot.
func (c *Client) HoldSlot(ctx context.Context, coachID, date, start string) (*Hold, error) {
	if err := requireID("coachId", coachID); err != nil {
		return nil, err
	}
	var h Hold
	err := c.do(ctx, http.MethodPost, "/bookings/holds", map[string]string{
		"coachId": coachID, "date": date, "startTime": start,
	}, &h)
	if err != nil {
		if StatusOf(err) == http.StatusConflict {
			return nil, c.slotTaken(ctx, coachID, date)
		}
		return nil, err
	}
	return &h, nil
}

// BookSlot books a slot. When the server reports a conflict the
// availability is fetched again and returned in a *SlotTakenError.
func (c *Client) BookSlot(ctx context.Context, req BookRequest) (*Booking, error) {
	if err := requireID("applicationId", req.ApplicationID); err != nil {
		return nil, err
	}
	if err := requireID("coachId", req.CoachID); err != nil {
		return nil, err
	}
	if req.Date == "" || req.StartTime == "" {
		return nil, invalid("startTime", "choose a date and a time slot")
	}

	var b Booking
	err := c.do(ctx, http.MethodPost, "/bookings", map[string]string{
		"applicationId": req.ApplicationID,
		"coachId":       req.CoachID,
		"date":          req.Date,
		"startTime":     req.StartTime,
		"notes":         req.Notes,
		"holdToken":     req.HoldToken,
	}, &b)
	if err != nil {
		if StatusOf(err) == http.StatusConflict {
			return nil, c.slotTaken(ctx, req.CoachID, req.Date)
		}
		return nil, err
	}
	return &b, nil
}

func (c *Client) slotTaken(ctx context.Context, coachID, date string) error {
	av, err := c.Availability(ctx, coachID, date)
	if err != nil {
		return fmt.Errorf("%w (refresh failed: %v)", ErrSlotTaken, err)
	}
	return &SlotTakenError{Availability: av}
}

func (c *Client) RefreshMyBookings(ctx context.Context) ([]Booking, error) {
	var bookings []Booking
	if err := c.do(ctx, http.MethodGet, "/bookings/me", nil, &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

func (c *Client) RefreshCoachBookings(ctx context.Context) ([]Booking, error) {
	var bookings []Booking
	if err := c.do(ctx, http.MethodGet, "/coach/bookings", nil, &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

func (c *Client) CancelBooking(ctx context.Context, id string) (*Booking, error) {
	return c.bookingAction(ctx, id, "cancel")
}

func (c *Client) CompleteBooking(ctx context.Context, id string) (*Booking, error) {
	return c.bookingAction(ctx, id, "complete")
}

func (c *Client) bookingAction(ctx context.Context, id, action string) (*Booking, error) {
	if err := requireID("bookingId", id); err != nil {
		return nil, err
	}
	var b Booking
	if err := c.do(ctx, http.MethodPost, "/bookings/"+url.PathEscape(id)+"/"+action, nil, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// --- Training ---

func (c *Client) RefreshCoachClients(ctx context.Context) ([]Application, error) {
	var apps []Application
	if err := c.do(ctx, http.MethodGet, "/coach/clients", nil, &apps); err != nil {
		return nil, err
	}
	return apps, nil
}

// LogSession records a session for a client; an empty date means today.
func (c *Client) LogSession(ctx context.Context, applicationID, date string, weightKg float64, notes string) (*TrainingSession, error) {
	if err := requireID("applicationId", applicationID); err != nil {
		return nil, err
	}
	if weightKg <= 0 || weightKg > 500 {
		return nil, invalid("weightKg", "weight must be between 0 and 500 kg")
	}
	var s TrainingSession
	err := c.do(ctx, http.MethodPost, "/coach/applications/"+url.PathEscape(applicationID)+"/sessions", map[string]any{
		"date": date, "weightKg": weightKg, "notes": notes,
	}, &s)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) UpdateSession(ctx context.Context, sessionID, date string, weightKg float64, notes string) (*TrainingSession, error) {
	if err := requireID("sessionId", sessionID); err != nil {
		return nil, err
	}
	if weightKg <= 0 || weightKg > 500 {
		return nil, invalid("weightKg", "weight must be between 0 and 500 kg")
	}
	var s TrainingSession
	err := c.do(ctx, http.MethodPut, "/coach/sessions/"+url.PathEscape(sessionID), map[string]any{
		"date": date, "weightKg": weightKg, "notes": notes,
	}, &s)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) History(ctx context.Context, applicationID string) ([]TrainingSession, error) {
	if err := requireID("applicationId", applicationID); err != nil {
		return nil, err
	}
	var sessions []TrainingSession
	if err := c.do(ctx, http.MethodGet, "/applications/"+url.PathEscape(applicationID)+"/sessions", nil, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (c *Client) Progress(ctx context.Context, applicationID string) ([]ProgressPoint, error) {
	if err := requireID("applicationId", applicationID); err != nil {
		return nil, err
	}
	var points []ProgressPoint
	if err := c.do(ctx, http.MethodGet, "/applications/"+url.PathEscape(applicationID)+"/progress", nil, &points); err != nil {
		return nil, err
	}
	return points, nil
}
