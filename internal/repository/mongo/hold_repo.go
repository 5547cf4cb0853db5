package mongo

import (
	"context"
	"time"

	"alcyxob/gym-app/internal/domain"
	"alcyxob/gym-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongoSlotHoldRepository implements repository.SlotHoldRepository
type mongoSlotHoldRepository struct {
	collection *mongo.Collection
}

// NewMongoSlotHoldRepository creates a new SlotHold repository backed by MongoDB.
func NewMongoSlotHoldRepository(db *mongo.Database) repository.SlotHoldRepository {
	return &mongoSlotHoldRepository{collection: db.Collection(holdCollectionName)}
}

func (r *mongoSlotHoldRepository) Create(ctx context.Context, hold *domain.SlotHold) error {
	hold.ID = primitive.NewObjectID()
	hold.CreatedAt = time.Now().UTC()
	_, err := r.collection.InsertOne(ctx, hold)
	return translateWriteError(err)
}

func (r *mongoSlotHoldRepository) GetByToken(ctx context.Context, token string) (*domain.SlotHold, error) {
	var hold domain.SlotHold
	if err := r.collection.FindOne(ctx, bson.M{"token": token}).Decode(&hold); err != nil {
		return nil, translateFindError(err)
	}
	return &hold, nil
}

func (r *mongoSlotHoldRepository) ListForCoachDate(ctx context.Context, coachID primitive.ObjectID, date string) ([]domain.SlotHold, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"coachId": coachID, "date": date})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	holds := []domain.SlotHold{}
	if err = cursor.All(ctx, &holds); err != nil {
		return nil, err
	}
	return holds, nil
}

// DeleteExpired clears a lapsed hold on one slot so a new one can be
// inserted before the TTL monitor gets to it.
func (r *mongoSlotHoldRepository) DeleteExpired(ctx context.Context, coachID primitive.ObjectID, date, start string, now time.Time) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{
		"coachId":   coachID,
		"date":      date,
		"startTime": start,
		"expiresAt": bson.M{"$lte": now},
	})
	return err
}

func (r *mongoSlotHoldRepository) DeleteByToken(ctx context.Context, token string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"token": token})
	return err
}

func holdIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "coachId", Value: 1}, {Key: "date", Value: 1}, {Key: "startTime", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "token", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "expiresAt", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	}
}
