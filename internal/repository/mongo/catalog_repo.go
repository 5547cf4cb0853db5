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

// mongoCoachRepository implements repository.CoachRepository
type mongoCoachRepository struct {
	collection *mongo.Collection
}

// NewMongoCoachRepository creates a new Coach repository backed by MongoDB.
func NewMongoCoachRepository(db *mongo.Database) repository.CoachRepository {
	return &mongoCoachRepository{collection: db.Collection(coachCollectionName)}
}

func (r *mongoCoachRepository) Create(ctx context.Context, coach *domain.Coach) (primitive.ObjectID, error) {
	if coach.Name == "" {
		return primitive.NilObjectID, errors.New("coach name is required")
	}
	coach.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	coach.CreatedAt = now
	coach.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, coach); err != nil {
		return primitive.NilObjectID, translateWriteError(err)
	}
	return coach.ID, nil
}

func (r *mongoCoachRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Coach, error) {
	var coach domain.Coach
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&coach); err != nil {
		return nil, translateFindError(err)
	}
	return &coach, nil
}

func (r *mongoCoachRepository) List(ctx context.Context, activeOnly bool) ([]domain.Coach, error) {
	filter := bson.M{}
	if activeOnly {
		filter["isActive"] = true
	}
	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	coaches := []domain.Coach{}
	if err = cursor.All(ctx, &coaches); err != nil {
		return nil, err
	}
	return coaches, nil
}

// Update writes the editable profile fields. ClientCount is only changed
// through IncrementClientCount.
func (r *mongoCoachRepository) Update(ctx context.Context, coach *domain.Coach) error {
	coach.UpdatedAt = time.Now().UTC()
	update := bson.M{"$set": bson.M{
		"name":              coach.Name,
		"email":             coach.Email,
		"bio":               coach.Bio,
		"specialty":         coach.Specialty,
		"certifications":    coach.Certifications,
		"yearsOfExperience": coach.YearsOfExperience,
		"availability":      coach.Availability,
		"rating":            coach.Rating,
		"isActive":          coach.IsActive,
		"pictureUrl":        coach.PictureURL,
		"updatedAt":         coach.UpdatedAt,
	}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": coach.ID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoCoachRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// IncrementClientCount adjusts the client counter, never below zero.
func (r *mongoCoachRepository) IncrementClientCount(ctx context.Context, id primitive.ObjectID, delta int) error {
	filter := bson.M{"_id": id}
	if delta < 0 {
		filter["clientCount"] = bson.M{"$gte": -delta}
	}
	update := bson.M{
		"$inc": bson.M{"clientCount": delta},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	}
	_, err := r.collection.UpdateOne(ctx, filter, update)
	return err
}

func (r *mongoCoachRepository) Count(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{})
}

func coachIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{Keys: bson.D{{Key: "isActive", Value: 1}, {Key: "name", Value: 1}}},
	}
}

// mongoPackageRepository implements repository.PackageRepository
type mongoPackageRepository struct {
	collection *mongo.Collection
}

// NewMongoPackageRepository creates a new Package repository backed by MongoDB.
func NewMongoPackageRepository(db *mongo.Database) repository.PackageRepository {
	return &mongoPackageRepository{collection: db.Collection(packageCollectionName)}
}

func (r *mongoPackageRepository) Create(ctx context.Context, pkg *domain.Package) (primitive.ObjectID, error) {
	if pkg.Title == "" {
		return primitive.NilObjectID, errors.New("package title is required")
	}
	pkg.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	pkg.CreatedAt = now
	pkg.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, pkg); err != nil {
		return primitive.NilObjectID, translateWriteError(err)
	}
	return pkg.ID, nil
}

func (r *mongoPackageRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Package, error) {
	var pkg domain.Package
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&pkg); err != nil {
		return nil, translateFindError(err)
	}
	return &pkg, nil
}

// List returns packages cheapest first.
func (r *mongoPackageRepository) List(ctx context.Context) ([]domain.Package, error) {
	cursor, err := r.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "price", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	pkgs := []domain.Package{}
	if err = cursor.All(ctx, &pkgs); err != nil {
		return nil, err
	}
	return pkgs, nil
}

func (r *mongoPackageRepository) Update(ctx context.Context, pkg *domain.Package) error {
	pkg.UpdatedAt = time.Now().UTC()
	update := bson.M{"$set": bson.M{
		"title":       pkg.Title,
		"description": pkg.Description,
		"price":       pkg.Price,
		"pictureUrl":  pkg.PictureURL,
		"updatedAt":   pkg.UpdatedAt,
	}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": pkg.ID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoPackageRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoPackageRepository) Count(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{})
}
