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

// mongoTrainingSessionRepository implements repository.TrainingSessionRepository
type mongoTrainingSessionRepository struct {
	collection *mongo.Collection
}

// NewMongoTrainingSessionRepository creates a new TrainingSession repository backed by MongoDB.
func NewMongoTrainingSessionRepository(db *mongo.Database) repository.TrainingSessionRepository {
	return &mongoTrainingSessionRepository{collection: db.Collection(sessionCollectionName)}
}

func (r *mongoTrainingSessionRepository) Create(ctx context.Context, s *domain.TrainingSession) (primitive.ObjectID, error) {
	if s.ApplicationID.IsZero() || s.CoachID.IsZero() || s.Date == "" {
		return primitive.NilObjectID, errors.New("session requires applicationId, coachId and date")
	}
	s.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	s.CreatedAt = now
	s.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, s); err != nil {
		return primitive.NilObjectID, err
	}
	return s.ID, nil
}

func (r *mongoTrainingSessionRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.TrainingSession, error) {
	var s domain.TrainingSession
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&s); err != nil {
		return nil, translateFindError(err)
	}
	return &s, nil
}

func (r *mongoTrainingSessionRepository) ListByApplication(ctx context.Context, applicationID primitive.ObjectID) ([]domain.TrainingSession, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "createdAt", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"applicationId": applicationID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	sessions := []domain.TrainingSession{}
	if err = cursor.All(ctx, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// Update edits weight, notes and date in place; no history is kept.
func (r *mongoTrainingSessionRepository) Update(ctx context.Context, s *domain.TrainingSession) error {
	s.UpdatedAt = time.Now().UTC()
	update := bson.M{"$set": bson.M{
		"weightKg":  s.WeightKg,
		"notes":     s.Notes,
		"date":      s.Date,
		"updatedAt": s.UpdatedAt,
	}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": s.ID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoTrainingSessionRepository) DeleteByApplications(ctx context.Context, applicationIDs []primitive.ObjectID) error {
	if len(applicationIDs) == 0 {
		return nil
	}
	_, err := r.collection.DeleteMany(ctx, bson.M{"applicationId": bson.M{"$in": applicationIDs}})
	return err
}

func sessionIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{Keys: bson.D{{Key: "applicationId", Value: 1}, {Key: "date", Value: 1}}},
	}
}
