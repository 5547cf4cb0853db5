package mongo

import (
	"context"
	"errors"
	"time"

	"alcyxob/gym-app/internal/domain"
	"alcyxob/gym-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongoBookingRepository implements repository.BookingRepository
type mongoBookingRepository struct {
	collection *mongo.Collection
}

// NewMongoBookingRepository creates a new Booking repository backed by MongoDB.
func NewMongoBookingRepository(db *mongo.Database) repository.BookingRepository {
	return &mongoBookingRepository{collection: db.Collection(bookingCollectionName)}
}

// Create inserts a scheduled booking. The partial unique index on
// (coachId, date, startTime) decides races between concurrent bookers.
func (r *mongoBookingRepository) Create(ctx context.Context, b *domain.Booking) (primitive.ObjectID, error) {
	if b.CoachID.IsZero() || b.ApplicationID.IsZero() || b.Date == "" || b.StartTime == "" {
		return primitive.NilObjectID, errors.New("booking requires coachId, applicationId, date and startTime")
	}
	b.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now
	if b.Status == "" {
		b.Status = domain.BookingScheduled
	}

	if _, err := r.collection.InsertOne(ctx, b); err != nil {
		return primitive.NilObjectID, translateWriteError(err)
	}
	return b.ID, nil
}

func (r *mongoBookingRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Booking, error) {
	var b domain.Booking
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&b); err != nil {
		return nil, translateFindError(err)
	}
	return &b, nil
}

func (r *mongoBookingRepository) ListScheduledForCoachDate(ctx context.Context, coachID primitive.ObjectID, date string) ([]domain.Booking, error) {
	filter := bson.M{"coachId": coachID, "date": date, "status": domain.BookingScheduled}
	return r.find(ctx, filter, bson.D{{Key: "startTime", Value: 1}})
}

func (r *mongoBookingRepository) ListByMember(ctx context.Context, memberID primitive.ObjectID) ([]domain.Booking, error) {
	return r.find(ctx, bson.M{"memberId": memberID}, bson.D{{Key: "date", Value: -1}, {Key: "startTime", Value: -1}})
}

func (r *mongoBookingRepository) ListByCoach(ctx context.Context, coachID primitive.ObjectID) ([]domain.Booking, error) {
	return r.find(ctx, bson.M{"coachId": coachID}, bson.D{{Key: "date", Value: -1}, {Key: "startTime", Value: -1}})
}

// UpdateStatus moves a booking from one status to another. A booking that
// is no longer in `from` reports ErrUpdateFailed.
func (r *mongoBookingRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, from, to domain.BookingStatus) error {
	filter := bson.M{"_id": id, "status": from}
	update := bson.M{"$set": bson.M{"status": to, "updatedAt": time.Now().UTC()}}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrUpdateFailed
	}
	return nil
}

func (r *mongoBookingRepository) CancelScheduledForApplication(ctx context.Context, applicationID primitive.ObjectID) (int64, error) {
	filter := bson.M{"applicationId": applicationID, "status": domain.BookingScheduled}
	update := bson.M{"$set": bson.M{"status": domain.BookingCancelled, "updatedAt": time.Now().UTC()}}
	result, err := r.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, err
	}
	return result.ModifiedCount, nil
}

func (r *mongoBookingRepository) DeleteByApplications(ctx context.Context, applicationIDs []primitive.ObjectID) error {
	if len(applicationIDs) == 0 {
		return nil
	}
	_, err := r.collection.DeleteMany(ctx, bson.M{"applicationId": bson.M{"$in": applicationIDs}})
	return err
}

func (r *mongoBookingRepository) CountScheduled(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"status": domain.BookingScheduled})
}

func (r *mongoBookingRepository) find(ctx context.Context, filter bson.M, sort bson.D) ([]domain.Booking, error) {
	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(sort))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	bookings := []domain.Booking{}
	if err = cursor.All(ctx, &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

func bookingIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			// One scheduled booking per coach slot
			Keys: bson.D{{Key: "coachId", Value: 1}, {Key: "date", Value: 1}, {Key: "startTime", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetName("one_scheduled_booking_per_slot").
				SetPartialFilterExpression(bson.M{"status": domain.BookingScheduled}),
		},
		{Keys: bson.D{{Key: "memberId", Value: 1}, {Key: "date", Value: -1}}},
		{Keys: bson.D{{Key: "applicationId", Value: 1}, {Key: "status", Value: 1}}},
	}
}
