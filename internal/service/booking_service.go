package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"alcyxob/gym-app/internal/domain"
	"alcyxob/gym-app/internal/events"
	"alcyxob/gym-app/internal/repository"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// --- Error Definitions ---
var (
	ErrSlotUnavailable      = errors.New("slot no longer available")
	ErrInvalidSlot          = errors.New("start time is not one of the bookable slots")
	ErrInvalidDate          = errors.New("date must be formatted as YYYY-MM-DD")
	ErrDateInPast           = errors.New("cannot book a date in the past")
	ErrBookingNotFound      = errors.New("booking not found")
	ErrBookingNotScheduled  = errors.New("booking is no longer scheduled")
	ErrApplicationNotActive = errors.New("application is not an active membership")
	ErrWrongCoach           = errors.New("application is assigned to a different coach")
	ErrHoldNotFound         = errors.New("hold expired or not found")
)

// Availability is the booking view of one coach on one date.
type Availability struct {
	CoachID           string        `json:"coachId"`
	Date              string        `json:"date"`
	CoachAvailability string        `json:"coachAvailability,omitempty"`
	Slots             []domain.Slot `json:"slots"`
	Booked            []string      `json:"booked"`
	Held              []string      `json:"held"`
	Available         []string      `json:"available"`
}

// IsAvailable reports whether start can currently be booked.
func (a *Availability) IsAvailable(start string) bool {
	for _, s := range a.Available {
		if s == start {
			return true
		}
	}
	return false
}

type BookInput struct {
	ApplicationID primitive.ObjectID
	CoachID       primitive.ObjectID
	Date          string
	StartTime     string
	Notes         string
	HoldToken     string
}

type BookingService interface {
	// GetAvailability is public; viewer may be nil. The viewer's own holds
	// do not block their view.
	GetAvailability(ctx context.Context, viewer domain.Principal, coachID primitive.ObjectID, date string) (*Availability, error)
	Hold(ctx context.Context, member domain.MemberPrincipal, coachID primitive.ObjectID, date, start string) (*domain.SlotHold, error)
	Book(ctx context.Context, member domain.MemberPrincipal, in BookInput) (*domain.Booking, error)
	Cancel(ctx context.Context, principal domain.Principal, id primitive.ObjectID) (*domain.Booking, error)
	Complete(ctx context.Context, principal domain.Principal, id primitive.ObjectID) (*domain.Booking, error)
	ListForMember(ctx context.Context, member domain.MemberPrincipal) ([]domain.Booking, error)
	ListForCoach(ctx context.Context, coach domain.CoachPrincipal) ([]domain.Booking, error)
}

type bookingService struct {
	bookingRepo repository.BookingRepository
	holdRepo    repository.SlotHoldRepository
	appRepo     repository.ApplicationRepository
	coachRepo   repository.CoachRepository
	publisher   events.Publisher
	holdTTL     time.Duration
	logger      *zap.Logger
	now         func() time.Time
}

func NewBookingService(
	bookingRepo repository.BookingRepository,
	holdRepo repository.SlotHoldRepository,
	appRepo repository.ApplicationRepository,
	coachRepo repository.CoachRepository,
	publisher events.Publisher,
	holdTTL time.Duration,
	logger *zap.Logger,
) BookingService {
	if holdTTL <= 0 {
		holdTTL = 5 * time.Minute
	}
	return &bookingService{
		bookingRepo: bookingRepo,
		holdRepo:    holdRepo,
		appRepo:     appRepo,
		coachRepo:   coachRepo,
		publisher:   publisher,
		holdTTL:     holdTTL,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *bookingService) GetAvailability(ctx context.Context, viewer domain.Principal, coachID primitive.ObjectID, date string) (*Availability, error) {
	if _, err := domain.ParseDate(date); err != nil {
		return nil, ErrInvalidDate
	}
	coach, err := s.coachRepo.GetByID(ctx, coachID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCoachNotFound
		}
		return nil, err
	}

	bookings, err := s.bookingRepo.ListScheduledForCoachDate(ctx, coachID, date)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	holds, err := s.holdRepo.ListForCoachDate(ctx, coachID, date)
	if err != nil {
		return nil, fmt.Errorf("list holds: %w", err)
	}

	booked := make(map[string]bool, len(bookings))
	for _, b := range bookings {
		booked[b.StartTime] = true
	}
	now := s.now()
	held := map[string]bool{}
	for _, h := range holds {
		if !h.Live(now) || booked[h.StartTime] {
			continue
		}
		if viewer != nil && h.HolderID == viewer.UserID() {
			continue
		}
		held[h.StartTime] = true
	}

	av := &Availability{
		CoachID:           coachID.Hex(),
		Date:              date,
		CoachAvailability: coach.Availability,
		Slots:             domain.Slots(),
		Booked:            []string{},
		Held:              []string{},
		Available:         []string{},
	}
	past := s.isPast(date)
	for _, slot := range av.Slots {
		switch {
		case booked[slot.Start]:
			av.Booked = append(av.Booked, slot.Start)
		case held[slot.Start]:
			av.Held = append(av.Held, slot.Start)
		case !past && coach.IsActive:
			av.Available = append(av.Available, slot.Start)
		}
	}
	return av, nil
}

// Hold reserves a slot for holdTTL so the member can finish booking.
func (s *bookingService) Hold(ctx context.Context, member domain.MemberPrincipal, coachID primitive.ObjectID, date, start string) (*domain.SlotHold, error) {
	if err := s.checkSlot(date, start); err != nil {
		return nil, err
	}

	bookings, err := s.bookingRepo.ListScheduledForCoachDate(ctx, coachID, date)
	if err != nil {
		return nil, err
	}
	for _, b := range bookings {
		if b.StartTime == start {
			return nil, ErrSlotUnavailable
		}
	}

	now := s.now()
	// Clear a hold the TTL monitor has not reaped yet.
	if err := s.holdRepo.DeleteExpired(ctx, coachID, date, start, now); err != nil {
		return nil, err
	}

	hold := &domain.SlotHold{
		CoachID:   coachID,
		Date:      date,
		StartTime: start,
		HolderID:  member.ID,
		Token:     uuid.NewString(),
		ExpiresAt: now.Add(s.holdTTL),
		CreatedAt: now,
	}
	if err := s.holdRepo.Create(ctx, hold); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrSlotUnavailable
		}
		return nil, fmt.Errorf("create hold: %w", err)
	}

	s.logger.Debug("Slot held",
		zap.String("coach_id", coachID.Hex()),
		zap.String("date", date),
		zap.String("start", start),
		zap.String("member_id", member.ID.Hex()))
	return hold, nil
}

// Book creates a scheduled booking. The unique index on scheduled
// (coach, date, start) decides between concurrent writers; the loser gets
// ErrSlotUnavailable.
func (s *bookingService) Book(ctx context.Context, member domain.MemberPrincipal, in BookInput) (*domain.Booking, error) {
	if err := s.checkSlot(in.Date, in.StartTime); err != nil {
		return nil, err
	}

	app, err := s.appRepo.GetByID(ctx, in.ApplicationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrApplicationNotFound
		}
		return nil, err
	}
	if app.ApplicantID != member.ID {
		return nil, ErrApplicationNotFound
	}
	if !app.HasActiveTraining() {
		return nil, ErrApplicationNotActive
	}
	if app.CoachID != in.CoachID {
		return nil, ErrWrongCoach
	}

	if err := s.checkHolds(ctx, member, in); err != nil {
		return nil, err
	}

	end, _ := domain.SlotEnd(in.StartTime)
	booking := &domain.Booking{
		ApplicationID: app.ID,
		CoachID:       in.CoachID,
		MemberID:      member.ID,
		Date:          in.Date,
		StartTime:     in.StartTime,
		EndTime:       end,
		Status:        domain.BookingScheduled,
		Notes:         in.Notes,
	}
	if _, err := s.bookingRepo.Create(ctx, booking); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			s.logger.Info("Booking lost slot race",
				zap.String("coach_id", in.CoachID.Hex()),
				zap.String("date", in.Date),
				zap.String("start", in.StartTime))
			return nil, ErrSlotUnavailable
		}
		return nil, fmt.Errorf("create booking: %w", err)
	}

	if in.HoldToken != "" {
		if err := s.holdRepo.DeleteByToken(ctx, in.HoldToken); err != nil && !errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("Failed to release hold", zap.Error(err))
		}
	}

	s.logger.Info("Booking created",
		zap.String("booking_id", booking.ID.Hex()),
		zap.String("coach_id", booking.CoachID.Hex()),
		zap.String("date", booking.Date),
		zap.String("start", booking.StartTime))
	s.publish(ctx, events.SubjectBookingCreated, booking)
	return booking, nil
}

// checkHolds rejects the booking when someone else holds the slot. A
// given hold token must belong to the caller and match the slot.
func (s *bookingService) checkHolds(ctx context.Context, member domain.MemberPrincipal, in BookInput) error {
	now := s.now()
	if in.HoldToken != "" {
		hold, err := s.holdRepo.GetByToken(ctx, in.HoldToken)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrHoldNotFound
			}
			return err
		}
		if hold.HolderID != member.ID || hold.CoachID != in.CoachID || hold.Date != in.Date || hold.StartTime != in.StartTime || !hold.Live(now) {
			return ErrHoldNotFound
		}
		return nil
	}

	holds, err := s.holdRepo.ListForCoachDate(ctx, in.CoachID, in.Date)
	if err != nil {
		return err
	}
	for _, h := range holds {
		if h.StartTime == in.StartTime && h.Live(now) && h.HolderID != member.ID {
			return ErrSlotUnavailable
		}
	}
	return nil
}

func (s *bookingService) Cancel(ctx context.Context, principal domain.Principal, id primitive.ObjectID) (*domain.Booking, error) {
	booking, err := s.loadFor(ctx, principal, id)
	if err != nil {
		return nil, err
	}
	if err := s.bookingRepo.UpdateStatus(ctx, id, domain.BookingScheduled, domain.BookingCancelled); err != nil {
		if errors.Is(err, repository.ErrUpdateFailed) {
			return nil, ErrBookingNotScheduled
		}
		return nil, err
	}
	booking.Status = domain.BookingCancelled

	s.logger.Info("Booking cancelled", zap.String("booking_id", id.Hex()), zap.String("by_role", string(principal.Role())))
	s.publish(ctx, events.SubjectBookingCancelled, booking)
	return booking, nil
}

// Complete marks a scheduled booking as attended. Members cannot do this.
func (s *bookingService) Complete(ctx context.Context, principal domain.Principal, id primitive.ObjectID) (*domain.Booking, error) {
	if _, ok := principal.(domain.MemberPrincipal); ok {
		return nil, ErrForbidden
	}
	booking, err := s.loadFor(ctx, principal, id)
	if err != nil {
		return nil, err
	}
	if err := s.bookingRepo.UpdateStatus(ctx, id, domain.BookingScheduled, domain.BookingCompleted); err != nil {
		if errors.Is(err, repository.ErrUpdateFailed) {
			return nil, ErrBookingNotScheduled
		}
		return nil, err
	}
	booking.Status = domain.BookingCompleted
	s.logger.Info("Booking completed", zap.String("booking_id", id.Hex()))
	return booking, nil
}

func (s *bookingService) ListForMember(ctx context.Context, member domain.MemberPrincipal) ([]domain.Booking, error) {
	return s.bookingRepo.ListByMember(ctx, member.ID)
}

func (s *bookingService) ListForCoach(ctx context.Context, coach domain.CoachPrincipal) ([]domain.Booking, error) {
	return s.bookingRepo.ListByCoach(ctx, coach.CoachID)
}

// loadFor fetches a booking the principal is allowed to act on.
func (s *bookingService) loadFor(ctx context.Context, principal domain.Principal, id primitive.ObjectID) (*domain.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	allowed := false
	switch p := principal.(type) {
	case domain.AdminPrincipal:
		allowed = true
	case domain.CoachPrincipal:
		allowed = booking.CoachID == p.CoachID
	case domain.MemberPrincipal:
		allowed = booking.MemberID == p.ID
	}
	if !allowed {
		return nil, ErrBookingNotFound
	}
	return booking, nil
}

func (s *bookingService) checkSlot(date, start string) error {
	if _, err := domain.ParseDate(date); err != nil {
		return ErrInvalidDate
	}
	if !domain.IsValidSlot(start) {
		return ErrInvalidSlot
	}
	if s.isPast(date) {
		return ErrDateInPast
	}
	return nil
}

// isPast compares calendar dates; today is still bookable.
func (s *bookingService) isPast(date string) bool {
	return date < s.now().Format(domain.DateLayout)
}

func (s *bookingService) publish(ctx context.Context, subject string, b *domain.Booking) {
	err := s.publisher.Publish(ctx, subject, events.BookingEvent{
		EventType:  subject,
		BookingID:  b.ID.Hex(),
		CoachID:    b.CoachID.Hex(),
		MemberID:   b.MemberID.Hex(),
		Date:       b.Date,
		StartTime:  b.StartTime,
		OccurredAt: s.now(),
	})
	if err != nil {
		s.logger.Warn("Failed to publish booking event", zap.String("subject", subject), zap.Error(err))
	}
}
