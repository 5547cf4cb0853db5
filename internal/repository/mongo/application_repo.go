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

// mongoApplicationRepository implements repository.ApplicationRepository
type mongoApplicationRepository struct {
	collection *mongo.Collection
}

// NewMongoApplicationRepository creates a new Application repository backed by MongoDB.
func NewMongoApplicationRepository(db *mongo.Database) repository.ApplicationRepository {
	return &mongoApplicationRepository{
		collection: db.Collection(applicationCollectionName),
	}
}

// Create inserts a new application. A second non-archived application for
// the same applicant violates the partial unique index and comes back as
// repository.ErrDuplicate.
func (r *mongoApplicationRepository) Create(ctx context.Context, app *domain.Application) (primitive.ObjectID, error) {
	if app.ApplicantID.IsZero() || app.PackageID.IsZero() || app.CoachID.IsZero() {
		return primitive.NilObjectID, errors.New("application requires applicantId, packageId and coachId")
	}

	app.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	if app.SubmittedAt.IsZero() {
		app.SubmittedAt = now
	}
	app.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, app); err != nil {
		return primitive.NilObjectID, translateWriteError(err)
	}
	return app.ID, nil
}

func (r *mongoApplicationRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Application, error) {
	var app domain.Application
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&app); err != nil {
		return nil, translateFindError(err)
	}
	return &app, nil
}

func (r *mongoApplicationRepository) GetActiveByApplicant(ctx context.Context, applicantID primitive.ObjectID) (*domain.Application, error) {
	var app domain.Application
	filter := bson.M{"applicantId": applicantID, "isArchived": false}
	if err := r.collection.FindOne(ctx, filter).Decode(&app); err != nil {
		return nil, translateFindError(err)
	}
	return &app, nil
}

// List returns applications newest first.
func (r *mongoApplicationRepository) List(ctx context.Context, f repository.ApplicationFilter) ([]domain.Application, error) {
	opts := options.Find().SetSort(bson.D{{Key: "submittedAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, applicationFilterDoc(f), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	apps := []domain.Application{}
	if err = cursor.All(ctx, &apps); err != nil {
		return nil, err
	}
	return apps, nil
}

// ReplaceIf is a compare-and-swap on (status, isArchived), so two
// transitions racing from the same state cannot both be applied.
func (r *mongoApplicationRepository) ReplaceIf(ctx context.Context, app *domain.Application, guard repository.ApplicationGuard) error {
	if app.ID.IsZero() {
		return errors.New("application ID is required for update")
	}
	app.UpdatedAt = time.Now().UTC()

	filter := bson.M{"_id": app.ID, "status": guard.Status, "isArchived": guard.Archived}
	result, err := r.collection.ReplaceOne(ctx, filter, app)
	if err != nil {
		return translateWriteError(err)
	}
	if result.MatchedCount == 0 {
		return repository.ErrUpdateFailed
	}
	return nil
}

func (r *mongoApplicationRepository) SetPaymentStatus(ctx context.Context, id primitive.ObjectID, status domain.PaymentStatus, reference string) (*domain.Application, error) {
	set := bson.M{"paymentStatus": status, "updatedAt": time.Now().UTC()}
	if reference != "" {
		set["paymentReference"] = reference
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var app domain.Application
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&app)
	if err != nil {
		return nil, translateFindError(err)
	}
	return &app, nil
}

func (r *mongoApplicationRepository) DeleteArchived(ctx context.Context, ids []primitive.ObjectID) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, archivedFilter(ids))
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

func (r *mongoApplicationRepository) ListArchivedIDs(ctx context.Context, ids []primitive.ObjectID) ([]primitive.ObjectID, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 1})
	cursor, err := r.collection.Find(ctx, archivedFilter(ids), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err = cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	out := make([]primitive.ObjectID, len(rows))
	for i, row := range rows {
		out[i] = row.ID
	}
	return out, nil
}

func (r *mongoApplicationRepository) CountActiveTrainingByCoach(ctx context.Context, coachID primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{
		"coachId":        coachID,
		"isArchived":     false,
		"status":         domain.ApplicationApproved,
		"trainingStatus": domain.TrainingActive,
	})
}

func (r *mongoApplicationRepository) Count(ctx context.Context, f repository.ApplicationFilter) (int64, error) {
	return r.collection.CountDocuments(ctx, applicationFilterDoc(f))
}

// Revenue sums package prices of applications whose payment completed,
// grouped by submission month.
func (r *mongoApplicationRepository) Revenue(ctx context.Context) ([]repository.RevenueBucket, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"paymentStatus": domain.PaymentCompleted}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         packageCollectionName,
			"localField":   "packageId",
			"foreignField": "_id",
			"as":           "package",
		}}},
		{{Key: "$unwind", Value: "$package"}},
		{{Key: "$group", Value: bson.M{
			"_id":   bson.M{"$dateToString": bson.M{"format": "%Y-%m", "date": "$submittedAt"}},
			"total": bson.M{"$sum": "$package.price"},
			"count": bson.M{"$sum": 1},
		}}},
		{{Key: "$sort", Value: bson.M{"_id": 1}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	buckets := []repository.RevenueBucket{}
	if err = cursor.All(ctx, &buckets); err != nil {
		return nil, err
	}
	return buckets, nil
}

func applicationFilterDoc(f repository.ApplicationFilter) bson.M {
	filter := bson.M{}
	if f.Archived != nil {
		filter["isArchived"] = *f.Archived
	}
	if f.Status != nil {
		filter["status"] = *f.Status
	}
	if f.CoachID != nil {
		filter["coachId"] = *f.CoachID
	}
	if f.ApplicantID != nil {
		filter["applicantId"] = *f.ApplicantID
	}
	return filter
}

func archivedFilter(ids []primitive.ObjectID) bson.M {
	filter := bson.M{"isArchived": true}
	if ids != nil {
		filter["_id"] = bson.M{"$in": ids}
	}
	return filter
}

func applicationIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			// At most one non-archived application per applicant
			Keys: bson.D{{Key: "applicantId", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetName("one_active_application").
				SetPartialFilterExpression(bson.M{"isArchived": false}),
		},
		{
			Keys: bson.D{{Key: "isArchived", Value: 1}, {Key: "status", Value: 1}, {Key: "submittedAt", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "coachId", Value: 1}, {Key: "trainingStatus", Value: 1}},
		},
	}
}
