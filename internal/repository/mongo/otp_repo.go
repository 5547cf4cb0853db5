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

// mongoOTPRepository implements repository.OTPRepository
type mongoOTPRepository struct {
	collection *mongo.Collection
}

// NewMongoOTPRepository creates a new OTP repository backed by MongoDB.
func NewMongoOTPRepository(db *mongo.Database) repository.OTPRepository {
	return &mongoOTPRepository{collection: db.Collection(otpCollectionName)}
}

// Upsert replaces any pending code for the same email and purpose, which
// also resets the attempt counter.
func (r *mongoOTPRepository) Upsert(ctx context.Context, otp *domain.OTP) error {
	if otp.ID.IsZero() {
		otp.ID = primitive.NewObjectID()
	}
	otp.CreatedAt = time.Now().UTC()
	filter := bson.M{"email": otp.Email, "purpose": otp.Purpose}

	// _id is immutable, so keep whatever the existing document has.
	set := bson.M{
		"email":        otp.Email,
		"purpose":      otp.Purpose,
		"codeHash":     otp.CodeHash,
		"attempts":     0,
		"name":         otp.Name,
		"passwordHash": otp.PasswordHash,
		"expiresAt":    otp.ExpiresAt,
		"createdAt":    otp.CreatedAt,
	}
	update := bson.M{"$set": set, "$setOnInsert": bson.M{"_id": otp.ID}}
	_, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

func (r *mongoOTPRepository) Get(ctx context.Context, email string, purpose domain.OTPPurpose) (*domain.OTP, error) {
	var otp domain.OTP
	if err := r.collection.FindOne(ctx, bson.M{"email": email, "purpose": purpose}).Decode(&otp); err != nil {
		return nil, translateFindError(err)
	}
	return &otp, nil
}

func (r *mongoOTPRepository) IncrementAttempts(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"attempts": 1}})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoOTPRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func otpIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}, {Key: "purpose", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "expiresAt", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	}
}
