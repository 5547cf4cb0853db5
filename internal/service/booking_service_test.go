package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"alcyxob/gym-app/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap/zaptest"
)

type bookingFixture struct {
	svc      *bookingService
	apps     *memApplications
	bookings *memBookings
	holds    *memHolds
	coach    domain.Coach
	member   domain.MemberPrincipal
	app      *domain.Application
	clock    time.Time
}

const bookingDate = "2030-06-03"

func newBookingFixture(t *testing.T) *bookingFixture {
	fx := &bookingFixture{
		apps:     newMemApplications(),
		bookings: newMemBookings(),
		holds:    &memHolds{},
		member:   domain.MemberPrincipal{ID: primitive.NewObjectID(), Name: "Jane"},
		clock:    time.Date(2030, 6, 1, 9, 0, 0, 0, time.UTC),
	}
	coaches := newMemCoaches()
	fx.coach = coaches.add(domain.Coach{Name: "Ana", IsActive: true, Availability: "Weekdays"})
	fx.app = fx.activeApplication(fx.member.ID)

	svc := NewBookingService(fx.bookings, fx.holds, fx.apps, coaches, &recordingPublisher{}, 5*time.Minute, zaptest.NewLogger(t)).(*bookingService)
	svc.now = func() time.Time { return fx.clock }
	fx.svc = svc
	return fx
}

func (fx *bookingFixture) activeApplication(applicant primitive.ObjectID) *domain.Application {
	return fx.apps.put(domain.Application{
		ApplicantID:    applicant,
		CoachID:        fx.coach.ID,
		PackageID:      primitive.NewObjectID(),
		Status:         domain.ApplicationApproved,
		TrainingStatus: domain.TrainingActive,
		PaymentStatus:  domain.PaymentCompleted,
	})
}

func (fx *bookingFixture) input(start string) BookInput {
	return BookInput{ApplicationID: fx.app.ID, CoachID: fx.coach.ID, Date: bookingDate, StartTime: start}
}

func TestAvailabilityLosesExactlyTheBookedSlot(t *testing.T) {
	fx := newBookingFixture(t)
	ctx := context.Background()

	before, err := fx.svc.GetAvailability(ctx, nil, fx.coach.ID, bookingDate)
	require.NoError(t, err)
	assert.Len(t, before.Available, 9)
	assert.Equal(t, "Weekdays", before.CoachAvailability)

	_, err = fx.svc.Book(ctx, fx.member, fx.input("14:00"))
	require.NoError(t, err)

	after, err := fx.svc.GetAvailability(ctx, nil, fx.coach.ID, bookingDate)
	require.NoError(t, err)

	assert.Len(t, after.Available, len(before.Available)-1)
	assert.NotContains(t, after.Available, "14:00")
	assert.Equal(t, []string{"14:00"}, after.Booked)
	assert.False(t, after.IsAvailable("14:00"))
}

func TestBookRejectsAlreadyScheduledSlot(t *testing.T) {
	fx := newBookingFixture(t)
	ctx := context.Background()

	booking, err := fx.svc.Book(ctx, fx.member, fx.input("10:00"))
	require.NoError(t, err)
	assert.Equal(t, "11:00", booking.EndTime)
	assert.Equal(t, domain.BookingScheduled, booking.Status)

	other := domain.MemberPrincipal{ID: primitive.NewObjectID()}
	otherApp := fx.activeApplication(other.ID)
	in := fx.input("10:00")
	in.ApplicationID = otherApp.ID

	_, err = fx.svc.Book(ctx, other, in)
	assert.ErrorIs(t, err, ErrSlotUnavailable)
}

func TestConcurrentBookingsHaveOneWinner(t *testing.T) {
	fx := newBookingFixture(t)
	ctx := context.Background()

	const bookers = 8
	var wg sync.WaitGroup
	errs := make([]error, bookers)
	for i := 0; i < bookers; i++ {
		m := domain.MemberPrincipal{ID: primitive.NewObjectID()}
		app := fx.activeApplication(m.ID)
		in := fx.input("16:00")
		in.ApplicationID = app.ID
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = fx.svc.Book(ctx, m, in)
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, ErrSlotUnavailable)
		}
	}
	assert.Equal(t, 1, wins)
}

func TestBookValidatesSlotAndDate(t *testing.T) {
	fx := newBookingFixture(t)
	ctx := context.Background()

	_, err := fx.svc.Book(ctx, fx.member, fx.input("09:00"))
	assert.ErrorIs(t, err, ErrInvalidSlot)

	in := fx.input("10:00")
	in.Date = "03/06/2030"
	_, err = fx.svc.Book(ctx, fx.member, in)
	assert.ErrorIs(t, err, ErrInvalidDate)

	in.Date = "2030-05-31"
	_, err = fx.svc.Book(ctx, fx.member, in)
	assert.ErrorIs(t, err, ErrDateInPast)

	in.Date = "2030-06-01"
	_, err = fx.svc.Book(ctx, fx.member, in)
	assert.NoError(t, err, "today is bookable")
}

func TestBookRequiresOwnActiveApplicationWithThatCoach(t *testing.T) {
	fx := newBookingFixture(t)
	ctx := context.Background()

	_, err := fx.svc.Book(ctx, domain.MemberPrincipal{ID: primitive.NewObjectID()}, fx.input("10:00"))
	assert.ErrorIs(t, err, ErrApplicationNotFound)

	in := fx.input("10:00")
	in.CoachID = primitive.NewObjectID()
	_, err = fx.svc.Book(ctx, fx.member, in)
	assert.ErrorIs(t, err, ErrWrongCoach)

	pending := fx.apps.put(domain.Application{ApplicantID: fx.member.ID, CoachID: fx.coach.ID, Status: domain.ApplicationPending})
	in = fx.input("10:00")
	in.ApplicationID = pending.ID
	_, err = fx.svc.Book(ctx, fx.member, in)
	assert.ErrorIs(t, err, ErrApplicationNotActive)
}

func TestHoldBlocksOthersUntilExpiry(t *testing.T) {
	fx := newBookingFixture(t)
	ctx := context.Background()

	hold, err := fx.svc.Hold(ctx, fx.member, fx.coach.ID, bookingDate, "12:00")
	require.NoError(t, err)
	assert.NotEmpty(t, hold.Token)

	other := domain.MemberPrincipal{ID: primitive.NewObjectID()}
	_, err = fx.svc.Hold(ctx, other, fx.coach.ID, bookingDate, "12:00")
	assert.ErrorIs(t, err, ErrSlotUnavailable)

	av, err := fx.svc.GetAvailability(ctx, other, fx.coach.ID, bookingDate)
	require.NoError(t, err)
	assert.Equal(t, []string{"12:00"}, av.Held)
	assert.NotContains(t, av.Available, "12:00")

	own, err := fx.svc.GetAvailability(ctx, fx.member, fx.coach.ID, bookingDate)
	require.NoError(t, err)
	assert.Contains(t, own.Available, "12:00", "a member's own hold does not block them")

	otherApp := fx.activeApplication(other.ID)
	in := fx.input("12:00")
	in.ApplicationID = otherApp.ID
	_, err = fx.svc.Book(ctx, other, in)
	assert.ErrorIs(t, err, ErrSlotUnavailable)

	fx.clock = fx.clock.Add(6 * time.Minute)
	_, err = fx.svc.Hold(ctx, other, fx.coach.ID, bookingDate, "12:00")
	assert.NoError(t, err, "expired holds are replaced")
}

func TestBookWithHoldTokenReleasesHold(t *testing.T) {
	fx := newBookingFixture(t)
	ctx := context.Background()

	hold, err := fx.svc.Hold(ctx, fx.member, fx.coach.ID, bookingDate, "15:00")
	require.NoError(t, err)

	in := fx.input("15:00")
	in.HoldToken = hold.Token
	_, err = fx.svc.Book(ctx, fx.member, in)
	require.NoError(t, err)

	_, err = fx.holds.GetByToken(ctx, hold.Token)
	assert.Error(t, err)

	in = fx.input("17:00")
	in.HoldToken = "not-a-token"
	_, err = fx.svc.Book(ctx, fx.member, in)
	assert.ErrorIs(t, err, ErrHoldNotFound)
}

func TestCancelAndCompleteBooking(t *testing.T) {
	fx := newBookingFixture(t)
	ctx := context.Background()

	booking, err := fx.svc.Book(ctx, fx.member, fx.input("11:00"))
	require.NoError(t, err)

	_, err = fx.svc.Complete(ctx, fx.member, booking.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	coach := domain.CoachPrincipal{ID: primitive.NewObjectID(), CoachID: fx.coach.ID}
	done, err := fx.svc.Complete(ctx, coach, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingCompleted, done.Status)

	_, err = fx.svc.Cancel(ctx, fx.member, booking.ID)
	assert.ErrorIs(t, err, ErrBookingNotScheduled)

	second, err := fx.svc.Book(ctx, fx.member, fx.input("13:00"))
	require.NoError(t, err)
	_, err = fx.svc.Cancel(ctx, domain.MemberPrincipal{ID: primitive.NewObjectID()}, second.ID)
	assert.ErrorIs(t, err, ErrBookingNotFound)

	cancelled, err := fx.svc.Cancel(ctx, fx.member, second.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingCancelled, cancelled.Status)

	av, err := fx.svc.GetAvailability(ctx, nil, fx.coach.ID, bookingDate)
	require.NoError(t, err)
	assert.Contains(t, av.Available, "13:00", "a cancelled slot is free again")
}

func TestAvailabilityForPastDateHasNothingSelectable(t *testing.T) {
	fx := newBookingFixture(t)
	av, err := fx.svc.GetAvailability(context.Background(), nil, fx.coach.ID, "2030-05-01")
	require.NoError(t, err)
	assert.Empty(t, av.Available)
	assert.Len(t, av.Slots, 9)
}
