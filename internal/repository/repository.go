package repository

import (
	"alcyxob/gym-app/internal/domain"
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for repository layer
var (
	ErrNotFound     = RepositoryError("not found")
	ErrDuplicate    = RepositoryError("duplicate key")
	ErrUpdateFailed = RepositoryError("update failed")
	ErrDeleteFailed = RepositoryError("delete failed")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	List(ctx context.Context, role domain.Role) ([]domain.User, error)
	UpdatePassword(ctx context.Context, id primitive.ObjectID, passwordHash string) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteByCoachID(ctx context.Context, coachID primitive.ObjectID) (int64, error)
	CountByRole(ctx context.Context, role domain.Role) (int64, error)
}

// ApplicationFilter narrows admin listings. Nil fields are not applied.
type ApplicationFilter struct {
	Archived    *bool
	Status      *domain.ApplicationStatus
	CoachID     *primitive.ObjectID
	ApplicantID *primitive.ObjectID
}

// ApplicationRepository defines the interface for membership applications.
type ApplicationRepository interface {
	Create(ctx context.Context, app *domain.Application) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Application, error)
	// GetActiveByApplicant returns the applicant's non-archived application.
	GetActiveByApplicant(ctx context.Context, applicantID primitive.ObjectID) (*domain.Application, error)
	List(ctx context.Context, filter ApplicationFilter) ([]domain.Application, error)
	// ReplaceIf replaces the stored application with app only while the
	// stored copy still matches guard. A miss reports ErrUpdateFailed.
	ReplaceIf(ctx context.Context, app *domain.Application, guard ApplicationGuard) error
	SetPaymentStatus(ctx context.Context, id primitive.ObjectID, status domain.PaymentStatus, reference string) (*domain.Application, error)
	// DeleteArchived hard-deletes archived applications among ids; a nil
	// ids slice means every archived application.
	DeleteArchived(ctx context.Context, ids []primitive.ObjectID) (int64, error)
	ListArchivedIDs(ctx context.Context, ids []primitive.ObjectID) ([]primitive.ObjectID, error)
	CountActiveTrainingByCoach(ctx context.Context, coachID primitive.ObjectID) (int64, error)
	Count(ctx context.Context, filter ApplicationFilter) (int64, error)
	Revenue(ctx context.Context) ([]RevenueBucket, error)
}

// ApplicationGuard is the stored state a conditional write expects to find.
type ApplicationGuard struct {
	Status   domain.ApplicationStatus
	Archived bool
}

// GuardOf captures the guard matching app as loaded.
func GuardOf(app *domain.Application) ApplicationGuard {
	return ApplicationGuard{Status: app.Status, Archived: app.IsArchived}
}

// RevenueBucket is the sum of package prices of paid applications per month.
type RevenueBucket struct {
	Month string  `bson:"_id" json:"month"` // YYYY-MM
	Total float64 `bson:"total" json:"total"`
	Count int     `bson:"count" json:"count"`
}

// CoachRepository defines the interface for coach catalog records.
type CoachRepository interface {
	Create(ctx context.Context, coach *domain.Coach) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Coach, error)
	List(ctx context.Context, activeOnly bool) ([]domain.Coach, error)
	Update(ctx context.Context, coach *domain.Coach) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	IncrementClientCount(ctx context.Context, id primitive.ObjectID, delta int) error
	Count(ctx context.Context) (int64, error)
}

// PackageRepository defines the interface for membership packages.
type PackageRepository interface {
	Create(ctx context.Context, pkg *domain.Package) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Package, error)
	List(ctx context.Context) ([]domain.Package, error)
	Update(ctx context.Context, pkg *domain.Package) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	Count(ctx context.Context) (int64, error)
}

// TrainingSessionRepository defines the interface for logged sessions.
type TrainingSessionRepository interface {
	Create(ctx context.Context, session *domain.TrainingSession) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.TrainingSession, error)
	// ListByApplication returns sessions ordered by date ascending.
	ListByApplication(ctx context.Context, applicationID primitive.ObjectID) ([]domain.TrainingSession, error)
	Update(ctx context.Context, session *domain.TrainingSession) error
	DeleteByApplications(ctx context.Context, applicationIDs []primitive.ObjectID) error
}

// BookingRepository defines the interface for slot bookings.
type BookingRepository interface {
	// Create returns ErrDuplicate when the coach already has a scheduled
	// booking at the same date and start time.
	Create(ctx context.Context, booking *domain.Booking) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Booking, error)
	ListScheduledForCoachDate(ctx context.Context, coachID primitive.ObjectID, date string) ([]domain.Booking, error)
	ListByMember(ctx context.Context, memberID primitive.ObjectID) ([]domain.Booking, error)
	ListByCoach(ctx context.Context, coachID primitive.ObjectID) ([]domain.Booking, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, from, to domain.BookingStatus) error
	CancelScheduledForApplication(ctx context.Context, applicationID primitive.ObjectID) (int64, error)
	DeleteByApplications(ctx context.Context, applicationIDs []primitive.ObjectID) error
	CountScheduled(ctx context.Context) (int64, error)
}

// SlotHoldRepository stores short-lived slot reservations.
type SlotHoldRepository interface {
	// Create returns ErrDuplicate when a hold for the slot already exists.
	Create(ctx context.Context, hold *domain.SlotHold) error
	GetByToken(ctx context.Context, token string) (*domain.SlotHold, error)
	ListForCoachDate(ctx context.Context, coachID primitive.ObjectID, date string) ([]domain.SlotHold, error)
	DeleteExpired(ctx context.Context, coachID primitive.ObjectID, date, start string, now time.Time) error
	DeleteByToken(ctx context.Context, token string) error
}

// OTPRepository stores pending one-time codes, one per (email, purpose).
type OTPRepository interface {
	Upsert(ctx context.Context, otp *domain.OTP) error
	Get(ctx context.Context, email string, purpose domain.OTPPurpose) (*domain.OTP, error)
	IncrementAttempts(ctx context.Context, id primitive.ObjectID) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}
