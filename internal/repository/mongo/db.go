package mongo

import (
	"context"
	"errors"
	"time"

	"alcyxob/gym-app/internal/repository"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Default connection timeout
const defaultTimeout = 10 * time.Second

// Collection names
const (
	userCollectionName        = "users"
	applicationCollectionName = "applications"
	coachCollectionName       = "coaches"
	packageCollectionName     = "packages"
	sessionCollectionName     = "training_sessions"
	bookingCollectionName     = "bookings"
	holdCollectionName        = "slot_holds"
	otpCollectionName         = "otps"
)

// ConnectDB establishes a connection to MongoDB using the provided URI and
// verifies it with a ping against the primary.
func ConnectDB(uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer pingCancel()

	if err = client.Ping(pingCtx, readpref.Primary()); err != nil {
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer disconnectCancel()
		_ = client.Disconnect(disconnectCtx)
		return nil, err
	}

	return client, nil
}

// DisconnectDB gracefully disconnects the MongoDB client.
func DisconnectDB(client *mongo.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	return client.Disconnect(ctx)
}

// EnsureIndexes creates the indexes of every collection. The unique
// indexes back invariants (one active application per applicant, one
// scheduled booking per coach slot), so failures are returned.
func EnsureIndexes(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	steps := []struct {
		collection string
		models     []mongo.IndexModel
	}{
		{userCollectionName, userIndexes()},
		{applicationCollectionName, applicationIndexes()},
		{coachCollectionName, coachIndexes()},
		{sessionCollectionName, sessionIndexes()},
		{bookingCollectionName, bookingIndexes()},
		{holdCollectionName, holdIndexes()},
		{otpCollectionName, otpIndexes()},
	}

	var errs []error
	for _, step := range steps {
		names, err := db.Collection(step.collection).Indexes().CreateMany(ctx, step.models)
		if err != nil {
			logger.Error("Failed to create indexes", zap.String("collection", step.collection), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		logger.Debug("Indexes ensured", zap.String("collection", step.collection), zap.Strings("indexes", names))
	}
	return errors.Join(errs...)
}

// translateWriteError maps driver errors onto repository errors.
func translateWriteError(err error) error {
	if err == nil {
		return nil
	}
	if mongo.IsDuplicateKeyError(err) {
		return repository.ErrDuplicate
	}
	return err
}

func translateFindError(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return repository.ErrNotFound
	}
	return err
}
