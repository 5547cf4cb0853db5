package mongo

import (
	"context"
	"testing"
	"time"

	"alcyxob/gym-app/internal/domain"
	"alcyxob/gym-app/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func duplicateKeyResponse() bson.D {
	return mtest.CreateWriteErrorsResponse(mtest.WriteError{
		Index:   0,
		Code:    11000,
		Message: "E11000 duplicate key error",
	})
}

func TestApplicationRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("second active application is a duplicate", func(mt *mtest.T) {
		repo := NewMongoApplicationRepository(mt.DB)
		mt.AddMockResponses(duplicateKeyResponse())

		_, err := repo.Create(ctx, &domain.Application{
			ApplicantID: primitive.NewObjectID(),
			PackageID:   primitive.NewObjectID(),
			CoachID:     primitive.NewObjectID(),
			Status:      domain.ApplicationPending,
		})
		assert.ErrorIs(mt, err, repository.ErrDuplicate)
	})

	mt.Run("no active application maps to not found", func(mt *mtest.T) {
		repo := NewMongoApplicationRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "gym.applications", mtest.FirstBatch))

		_, err := repo.GetActiveByApplicant(ctx, primitive.NewObjectID())
		assert.ErrorIs(mt, err, repository.ErrNotFound)
	})

	mt.Run("active application is decoded", func(mt *mtest.T) {
		repo := NewMongoApplicationRepository(mt.DB)
		id := primitive.NewObjectID()
		applicant := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "gym.applications", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: id},
			{Key: "applicantId", Value: applicant},
			{Key: "status", Value: "approved"},
			{Key: "paymentStatus", Value: "completed"},
			{Key: "isArchived", Value: false},
			{Key: "heightCm", Value: 175.0},
		}))

		app, err := repo.GetActiveByApplicant(ctx, applicant)
		require.NoError(mt, err)
		assert.Equal(mt, id, app.ID)
		assert.Equal(mt, domain.ApplicationApproved, app.Status)
		assert.Equal(mt, domain.PaymentCompleted, app.PaymentStatus)
		assert.Equal(mt, 175.0, app.HeightCm)
	})

	mt.Run("delete archived reports deleted count", func(mt *mtest.T) {
		repo := NewMongoApplicationRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: int32(3)}))

		n, err := repo.DeleteArchived(ctx, nil)
		require.NoError(mt, err)
		assert.Equal(mt, int64(3), n)
	})

	mt.Run("replace with stale guard fails", func(mt *mtest.T) {
		repo := NewMongoApplicationRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: int32(0)},
			bson.E{Key: "nModified", Value: int32(0)},
		))

		app := &domain.Application{ID: primitive.NewObjectID(), Status: domain.ApplicationApproved}
		err := repo.ReplaceIf(ctx, app, repository.ApplicationGuard{Status: domain.ApplicationPending})
		assert.ErrorIs(mt, err, repository.ErrUpdateFailed)

		filter := mt.GetStartedEvent().Command.Lookup("updates").Array().Index(0).Value().Document().Lookup("q").Document()
		assert.Equal(mt, string(domain.ApplicationPending), filter.Lookup("status").StringValue())
		assert.False(mt, filter.Lookup("isArchived").Boolean())
	})

	mt.Run("replace with matching guard", func(mt *mtest.T) {
		repo := NewMongoApplicationRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: int32(1)},
			bson.E{Key: "nModified", Value: int32(1)},
		))

		app := &domain.Application{ID: primitive.NewObjectID(), Status: domain.ApplicationDeclined}
		require.NoError(mt, repo.ReplaceIf(ctx, app, repository.ApplicationGuard{Status: domain.ApplicationPending}))
		assert.False(mt, app.UpdatedAt.IsZero())
	})

	mt.Run("set payment status returns updated record", func(mt *mtest.T) {
		repo := NewMongoApplicationRepository(mt.DB)
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
			{Key: "_id", Value: id},
			{Key: "status", Value: string(domain.ApplicationDeclined)},
			{Key: "paymentStatus", Value: string(domain.PaymentFailed)},
			{Key: "paymentReference", Value: "ref-9"},
		}}))

		app, err := repo.SetPaymentStatus(ctx, id, domain.PaymentFailed, "ref-9")
		require.NoError(mt, err)
		assert.Equal(mt, domain.PaymentFailed, app.PaymentStatus)
		assert.Equal(mt, domain.ApplicationDeclined, app.Status)
	})
}

func TestBookingRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	newBooking := func() *domain.Booking {
		return &domain.Booking{
			ApplicationID: primitive.NewObjectID(),
			CoachID:       primitive.NewObjectID(),
			MemberID:      primitive.NewObjectID(),
			Date:          "2026-11-02",
			StartTime:     "10:00",
			EndTime:       "11:00",
		}
	}

	mt.Run("create defaults to scheduled", func(mt *mtest.T) {
		repo := NewMongoBookingRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		b := newBooking()
		id, err := repo.Create(ctx, b)
		require.NoError(mt, err)
		assert.False(mt, id.IsZero())
		assert.Equal(mt, domain.BookingScheduled, b.Status)
	})

	mt.Run("losing writer gets duplicate", func(mt *mtest.T) {
		repo := NewMongoBookingRepository(mt.DB)
		mt.AddMockResponses(duplicateKeyResponse())

		_, err := repo.Create(ctx, newBooking())
		assert.ErrorIs(mt, err, repository.ErrDuplicate)
	})

	mt.Run("status transition from wrong state fails", func(mt *mtest.T) {
		repo := NewMongoBookingRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: int32(0)},
			bson.E{Key: "nModified", Value: int32(0)},
		))

		err := repo.UpdateStatus(ctx, primitive.NewObjectID(), domain.BookingScheduled, domain.BookingCompleted)
		assert.ErrorIs(mt, err, repository.ErrUpdateFailed)
	})

	mt.Run("scheduled bookings for a coach day", func(mt *mtest.T) {
		repo := NewMongoBookingRepository(mt.DB)
		coach := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "gym.bookings", mtest.FirstBatch,
			bson.D{{Key: "_id", Value: primitive.NewObjectID()}, {Key: "coachId", Value: coach}, {Key: "date", Value: "2026-11-02"}, {Key: "startTime", Value: "10:00"}, {Key: "status", Value: "scheduled"}},
			bson.D{{Key: "_id", Value: primitive.NewObjectID()}, {Key: "coachId", Value: coach}, {Key: "date", Value: "2026-11-02"}, {Key: "startTime", Value: "15:00"}, {Key: "status", Value: "scheduled"}},
		))

		bookings, err := repo.ListScheduledForCoachDate(ctx, coach, "2026-11-02")
		require.NoError(mt, err)
		require.Len(mt, bookings, 2)
		assert.Equal(mt, "15:00", bookings[1].StartTime)
	})
}

func TestSlotHoldRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("held slot is a duplicate", func(mt *mtest.T) {
		repo := NewMongoSlotHoldRepository(mt.DB)
		mt.AddMockResponses(duplicateKeyResponse())

		err := repo.Create(ctx, &domain.SlotHold{
			CoachID:   primitive.NewObjectID(),
			Date:      "2026-11-02",
			StartTime: "12:00",
			Token:     "t",
			ExpiresAt: time.Now().Add(time.Minute),
		})
		assert.ErrorIs(mt, err, repository.ErrDuplicate)
	})
}
