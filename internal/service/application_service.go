package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"alcyxob/gym-app/internal/domain"
	"alcyxob/gym-app/internal/events"
	"alcyxob/gym-app/internal/payment"
	"alcyxob/gym-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// --- Error Definitions ---
var (
	ErrApplicationNotFound     = errors.New("application not found")
	ErrActiveApplicationExists = errors.New("you already have an active application")
	ErrApplicationArchived     = errors.New("application is archived")
	ErrAlreadyArchived         = errors.New("application is already archived")
	ErrNotArchived             = errors.New("only archived applications can be deleted")
	ErrInvalidTransition       = errors.New("application has already been reviewed")
	ErrApplicationChanged      = errors.New("application was changed by another request")
	ErrCannotCancelApproved    = errors.New("an approved application cannot be cancelled")
	ErrRefundFailed            = errors.New("failed to request refund from payment provider")
	ErrPackageNotFound         = errors.New("package not found")
	ErrCoachNotFound           = errors.New("coach not found")
	ErrCoachInactive           = errors.New("coach is not accepting clients")
)

// SubmitApplicationInput is what an applicant sends with the form.
type SubmitApplicationInput struct {
	FullName         string
	Email            string
	Phone            string
	Age              int
	HeightCm         float64
	WeightKg         float64
	IDImageURL       string
	PackageID        primitive.ObjectID
	CoachID          primitive.ObjectID
	WaiverAccepted   bool
	PaymentReference string
}

// Validate runs the checks that must pass before anything is stored.
func (in SubmitApplicationInput) Validate() error {
	switch {
	case !in.WaiverAccepted:
		return validationErrorf("you must accept the waiver before submitting")
	case in.PackageID.IsZero():
		return validationErrorf("please choose a package")
	case in.CoachID.IsZero():
		return validationErrorf("please choose a coach")
	case strings.TrimSpace(in.FullName) == "":
		return validationErrorf("full name is required")
	case in.HeightCm <= 0 || in.HeightCm > 300:
		return validationErrorf("height must be between 0 and 300 cm")
	case in.WeightKg <= 0 || in.WeightKg > 500:
		return validationErrorf("weight must be between 0 and 500 kg")
	case in.Age < 0:
		return validationErrorf("age cannot be negative")
	}
	return nil
}

// DecisionResult is returned by transitions that may involve a refund.
type DecisionResult struct {
	Application     *domain.Application
	RefundInitiated bool
}

// ArchiveResult reports the side effects of archiving.
type ArchiveResult struct {
	Application       *domain.Application
	TrainingCancelled bool
	BookingsCancelled int64
}

type ApplicationService interface {
	Submit(ctx context.Context, member domain.MemberPrincipal, in SubmitApplicationInput) (*domain.Application, error)
	GetActive(ctx context.Context, member domain.MemberPrincipal) (*domain.Application, error)
	Get(ctx context.Context, principal domain.Principal, id primitive.ObjectID) (*domain.Application, error)
	List(ctx context.Context, filter repository.ApplicationFilter) ([]domain.Application, error)
	ListForCoach(ctx context.Context, coach domain.CoachPrincipal) ([]domain.Application, error)

	Approve(ctx context.Context, admin domain.AdminPrincipal, id primitive.ObjectID) (*domain.Application, error)
	Decline(ctx context.Context, admin domain.AdminPrincipal, id primitive.ObjectID, reason string) (*DecisionResult, error)
	Archive(ctx context.Context, admin domain.AdminPrincipal, id primitive.ObjectID) (*ArchiveResult, error)
	Cancel(ctx context.Context, member domain.MemberPrincipal, id primitive.ObjectID) (*DecisionResult, error)
	UpdatePaymentStatus(ctx context.Context, id primitive.ObjectID, status domain.PaymentStatus, reference string) (*domain.Application, error)

	DeleteArchived(ctx context.Context, id primitive.ObjectID) error
	DeleteArchivedSelected(ctx context.Context, ids []primitive.ObjectID) (int64, error)
	DeleteAllArchived(ctx context.Context) (int64, error)
}

// applicationService implements the ApplicationService interface.
type applicationService struct {
	appRepo     repository.ApplicationRepository
	coachRepo   repository.CoachRepository
	packageRepo repository.PackageRepository
	sessionRepo repository.TrainingSessionRepository
	bookingRepo repository.BookingRepository
	payments    payment.Gateway
	publisher   events.Publisher
	logger      *zap.Logger
	now         func() time.Time
}

func NewApplicationService(
	appRepo repository.ApplicationRepository,
	coachRepo repository.CoachRepository,
	packageRepo repository.PackageRepository,
	sessionRepo repository.TrainingSessionRepository,
	bookingRepo repository.BookingRepository,
	payments payment.Gateway,
	publisher events.Publisher,
	logger *zap.Logger,
) ApplicationService {
	return &applicationService{
		appRepo:     appRepo,
		coachRepo:   coachRepo,
		packageRepo: packageRepo,
		sessionRepo: sessionRepo,
		bookingRepo: bookingRepo,
		payments:    payments,
		publisher:   publisher,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// === Submission ===

func (s *applicationService) Submit(ctx context.Context, member domain.MemberPrincipal, in SubmitApplicationInput) (*domain.Application, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	// Pre-submission lookup; the partial unique index catches the race.
	if _, err := s.appRepo.GetActiveByApplicant(ctx, member.ID); err == nil {
		return nil, ErrActiveApplicationExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("lookup active application: %w", err)
	}

	if _, err := s.packageRepo.GetByID(ctx, in.PackageID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPackageNotFound
		}
		return nil, err
	}
	coach, err := s.coachRepo.GetByID(ctx, in.CoachID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCoachNotFound
		}
		return nil, err
	}
	if !coach.IsActive {
		return nil, ErrCoachInactive
	}

	app := &domain.Application{
		ApplicantID:      member.ID,
		FullName:         strings.TrimSpace(in.FullName),
		Email:            strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:            in.Phone,
		Age:              in.Age,
		HeightCm:         in.HeightCm,
		WeightKg:         in.WeightKg,
		IDImageURL:       in.IDImageURL,
		PackageID:        in.PackageID,
		CoachID:          in.CoachID,
		WaiverAccepted:   true,
		PaymentStatus:    domain.PaymentPending,
		PaymentReference: in.PaymentReference,
		Status:           domain.ApplicationPending,
		TrainingStatus:   domain.TrainingNone,
		SubmittedAt:      s.now(),
	}
	if _, err := s.appRepo.Create(ctx, app); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrActiveApplicationExists
		}
		return nil, fmt.Errorf("create application: %w", err)
	}

	s.logger.Info("Application submitted",
		zap.String("application_id", app.ID.Hex()),
		zap.String("applicant_id", member.ID.Hex()),
		zap.String("coach_id", app.CoachID.Hex()))
	s.publish(ctx, events.SubjectApplicationSubmitted, app)
	return app, nil
}

// === Reads ===

func (s *applicationService) GetActive(ctx context.Context, member domain.MemberPrincipal) (*domain.Application, error) {
	app, err := s.appRepo.GetActiveByApplicant(ctx, member.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrApplicationNotFound
		}
		return nil, err
	}
	return app, nil
}

// Get returns the application when principal may see it. Callers without
// access get ErrApplicationNotFound so ids cannot be probed.
func (s *applicationService) Get(ctx context.Context, principal domain.Principal, id primitive.ObjectID) (*domain.Application, error) {
	app, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canRead(principal, app) {
		return nil, ErrApplicationNotFound
	}
	return app, nil
}

func canRead(principal domain.Principal, app *domain.Application) bool {
	switch p := principal.(type) {
	case domain.AdminPrincipal:
		return true
	case domain.CoachPrincipal:
		return app.CoachID == p.CoachID
	case domain.MemberPrincipal:
		return app.ApplicantID == p.ID
	default:
		return false
	}
}

func (s *applicationService) List(ctx context.Context, filter repository.ApplicationFilter) ([]domain.Application, error) {
	return s.appRepo.List(ctx, filter)
}

// ListForCoach returns the coach's current clients.
func (s *applicationService) ListForCoach(ctx context.Context, coach domain.CoachPrincipal) ([]domain.Application, error) {
	archived := false
	status := domain.ApplicationApproved
	return s.appRepo.List(ctx, repository.ApplicationFilter{
		Archived: &archived,
		Status:   &status,
		CoachID:  &coach.CoachID,
	})
}

// === Review ===

func (s *applicationService) Approve(ctx context.Context, admin domain.AdminPrincipal, id primitive.ObjectID) (*domain.Application, error) {
	app, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if app.IsArchived {
		return nil, ErrApplicationArchived
	}
	if !app.CanApprove() {
		return nil, ErrInvalidTransition
	}

	guard := repository.GuardOf(app)
	app.Status = domain.ApplicationApproved
	app.TrainingStatus = domain.TrainingActive
	s.markReviewed(app, admin)
	if err := s.transition(ctx, app, guard, ErrInvalidTransition); err != nil {
		return nil, fmt.Errorf("approve application: %w", err)
	}

	if err := s.coachRepo.IncrementClientCount(ctx, app.CoachID, 1); err != nil {
		s.logger.Warn("Failed to bump coach client count", zap.String("coach_id", app.CoachID.Hex()), zap.Error(err))
	}

	s.logger.Info("Application approved", zap.String("application_id", app.ID.Hex()), zap.String("reviewer", admin.Name))
	s.publish(ctx, events.SubjectApplicationApproved, app)
	return app, nil
}

// Decline rejects a pending application. The decision is stored first and
// a completed payment is refunded afterwards; if the refund request fails
// the stored decision is rolled back.
func (s *applicationService) Decline(ctx context.Context, admin domain.AdminPrincipal, id primitive.ObjectID, reason string) (*DecisionResult, error) {
	app, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if app.IsArchived {
		return nil, ErrApplicationArchived
	}
	if !app.CanDecline() {
		return nil, ErrInvalidTransition
	}

	before := *app
	needsRefund := app.NeedsRefund()
	app.Status = domain.ApplicationDeclined
	app.DeclineReason = strings.TrimSpace(reason)
	if needsRefund {
		app.PaymentStatus = domain.PaymentRefunded
	}
	s.markReviewed(app, admin)
	if err := s.transition(ctx, app, repository.GuardOf(&before), ErrInvalidTransition); err != nil {
		return nil, fmt.Errorf("decline application: %w", err)
	}

	if needsRefund {
		if err := s.requestRefund(ctx, app, "application declined"); err != nil {
			s.rollback(ctx, &before, app)
			return nil, err
		}
	}

	s.logger.Info("Application declined",
		zap.String("application_id", app.ID.Hex()),
		zap.Bool("refund_initiated", needsRefund))
	s.publish(ctx, events.SubjectApplicationDeclined, app)
	return &DecisionResult{Application: app, RefundInitiated: needsRefund}, nil
}

// maxArchiveAttempts bounds the reload-and-retry loop when another
// transition lands between load and write.
const maxArchiveAttempts = 3

// Archive removes an application from active views in any review state,
// ending its training engagement. Archiving never refunds. Scheduled
// bookings are cancelled before the call returns; if that fails the
// archive is rolled back.
func (s *applicationService) Archive(ctx context.Context, admin domain.AdminPrincipal, id primitive.ObjectID) (*ArchiveResult, error) {
	var (
		app    *domain.Application
		before domain.Application
	)
	for attempt := 1; ; attempt++ {
		loaded, err := s.load(ctx, id)
		if err != nil {
			return nil, err
		}
		if loaded.IsArchived {
			return nil, ErrAlreadyArchived
		}

		before = *loaded
		now := s.now()
		loaded.IsArchived = true
		loaded.ArchivedAt = &now
		if loaded.TrainingStatus == domain.TrainingActive {
			loaded.TrainingStatus = domain.TrainingCancelled
		}
		err = s.appRepo.ReplaceIf(ctx, loaded, repository.GuardOf(&before))
		if err == nil {
			app = loaded
			break
		}
		if !errors.Is(err, repository.ErrUpdateFailed) {
			return nil, fmt.Errorf("archive application: %w", translateNotFound(err))
		}
		if attempt == maxArchiveAttempts {
			return nil, ErrApplicationChanged
		}
	}

	n, err := s.bookingRepo.CancelScheduledForApplication(ctx, app.ID)
	if err != nil {
		s.logger.Error("Failed to cancel bookings of archived application", zap.String("application_id", app.ID.Hex()), zap.Error(err))
		s.rollback(ctx, &before, app)
		return nil, fmt.Errorf("cancel bookings: %w", err)
	}

	wasTraining := before.HasActiveTraining()
	if wasTraining {
		if err := s.coachRepo.IncrementClientCount(ctx, app.CoachID, -1); err != nil {
			s.logger.Warn("Failed to drop coach client count", zap.String("coach_id", app.CoachID.Hex()), zap.Error(err))
		}
	}

	s.logger.Info("Application archived",
		zap.String("application_id", app.ID.Hex()),
		zap.String("admin_id", admin.ID.Hex()),
		zap.Bool("training_cancelled", wasTraining),
		zap.Int64("bookings_cancelled", n))
	s.publish(ctx, events.SubjectApplicationArchived, app)
	return &ArchiveResult{Application: app, TrainingCancelled: wasTraining, BookingsCancelled: n}, nil
}

// Cancel is the applicant withdrawing a pending application. It archives
// the record so a new one can be submitted, then refunds a completed
// payment the same way Decline does.
func (s *applicationService) Cancel(ctx context.Context, member domain.MemberPrincipal, id primitive.ObjectID) (*DecisionResult, error) {
	app, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if app.ApplicantID != member.ID {
		return nil, ErrApplicationNotFound
	}
	if app.IsArchived {
		return nil, ErrApplicationArchived
	}
	if !app.CanCancel() {
		if app.Status == domain.ApplicationApproved {
			return nil, ErrCannotCancelApproved
		}
		return nil, ErrInvalidTransition
	}

	before := *app
	needsRefund := app.NeedsRefund()
	now := s.now()
	app.IsArchived = true
	app.ArchivedAt = &now
	if needsRefund {
		app.PaymentStatus = domain.PaymentRefunded
	}
	if err := s.transition(ctx, app, repository.GuardOf(&before), ErrInvalidTransition); err != nil {
		return nil, fmt.Errorf("cancel application: %w", err)
	}

	if needsRefund {
		if err := s.requestRefund(ctx, app, "application cancelled by applicant"); err != nil {
			s.rollback(ctx, &before, app)
			return nil, err
		}
	}

	s.logger.Info("Application cancelled by applicant", zap.String("application_id", app.ID.Hex()))
	s.publish(ctx, events.SubjectApplicationCancelled, app)
	return &DecisionResult{Application: app, RefundInitiated: needsRefund}, nil
}

// UpdatePaymentStatus touches only the payment fields, so it never
// overwrites a concurrent review decision.
func (s *applicationService) UpdatePaymentStatus(ctx context.Context, id primitive.ObjectID, status domain.PaymentStatus, reference string) (*domain.Application, error) {
	if !status.Valid() {
		return nil, validationErrorf("unknown payment status %q", status)
	}
	app, err := s.appRepo.SetPaymentStatus(ctx, id, status, reference)
	if err != nil {
		return nil, fmt.Errorf("update payment status: %w", translateNotFound(err))
	}
	s.logger.Info("Payment status updated", zap.String("application_id", app.ID.Hex()), zap.String("payment_status", string(status)))
	return app, nil
}

// === Hard delete (archive only) ===

func (s *applicationService) DeleteArchived(ctx context.Context, id primitive.ObjectID) error {
	app, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !app.IsArchived {
		return ErrNotArchived
	}
	n, err := s.purge(ctx, []primitive.ObjectID{id})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrApplicationNotFound
	}
	return nil
}

func (s *applicationService) DeleteArchivedSelected(ctx context.Context, ids []primitive.ObjectID) (int64, error) {
	if len(ids) == 0 {
		return 0, validationErrorf("no applications selected")
	}
	return s.purge(ctx, ids)
}

func (s *applicationService) DeleteAllArchived(ctx context.Context) (int64, error) {
	return s.purge(ctx, nil)
}

// purge deletes the archived applications among ids (all when nil)
// together with their sessions and bookings. The count is taken from the
// set resolved at call time.
func (s *applicationService) purge(ctx context.Context, ids []primitive.ObjectID) (int64, error) {
	archived, err := s.appRepo.ListArchivedIDs(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("list archived applications: %w", err)
	}
	if len(archived) == 0 {
		return 0, nil
	}

	if err := s.sessionRepo.DeleteByApplications(ctx, archived); err != nil {
		return 0, fmt.Errorf("delete training sessions: %w", err)
	}
	if err := s.bookingRepo.DeleteByApplications(ctx, archived); err != nil {
		return 0, fmt.Errorf("delete bookings: %w", err)
	}
	n, err := s.appRepo.DeleteArchived(ctx, archived)
	if err != nil {
		return 0, fmt.Errorf("delete archived applications: %w", err)
	}

	s.logger.Info("Archived applications deleted", zap.Int64("deleted_count", n))
	return n, nil
}

// === Helpers ===

func (s *applicationService) load(ctx context.Context, id primitive.ObjectID) (*domain.Application, error) {
	app, err := s.appRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrApplicationNotFound
		}
		return nil, err
	}
	return app, nil
}

func (s *applicationService) markReviewed(app *domain.Application, admin domain.AdminPrincipal) {
	now := s.now()
	reviewer := admin.ID
	app.ReviewedAt = &now
	app.ReviewerID = &reviewer
	app.ReviewerName = admin.Name
}

// transition stores app only if the stored copy still matches guard.
// Losing a race reports lost.
func (s *applicationService) transition(ctx context.Context, app *domain.Application, guard repository.ApplicationGuard, lost error) error {
	err := s.appRepo.ReplaceIf(ctx, app, guard)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrUpdateFailed):
		return lost
	default:
		return translateNotFound(err)
	}
}

// rollback restores before over the state written as current. A failed
// rollback is logged; the record then shows the decision without its
// side effect and needs an admin.
func (s *applicationService) rollback(ctx context.Context, before, current *domain.Application) {
	if err := s.appRepo.ReplaceIf(ctx, before, repository.GuardOf(current)); err != nil {
		s.logger.Error("Failed to roll back application",
			zap.String("application_id", before.ID.Hex()),
			zap.String("status", string(current.Status)),
			zap.Error(err))
	}
}

// requestRefund asks the gateway to refund the package price.
func (s *applicationService) requestRefund(ctx context.Context, app *domain.Application, reason string) error {
	var amount float64
	if pkg, err := s.packageRepo.GetByID(ctx, app.PackageID); err == nil {
		amount = pkg.Price
	} else {
		s.logger.Warn("Refund amount unknown, package missing", zap.String("package_id", app.PackageID.Hex()), zap.Error(err))
	}

	if err := s.payments.RequestRefund(ctx, app, amount, reason); err != nil {
		s.logger.Error("Refund request failed", zap.String("application_id", app.ID.Hex()), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrRefundFailed, err)
	}
	return nil
}

func translateNotFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrApplicationNotFound
	}
	return err
}

func (s *applicationService) publish(ctx context.Context, subject string, app *domain.Application) {
	err := s.publisher.Publish(ctx, subject, events.ApplicationEvent{
		EventType:     subject,
		ApplicationID: app.ID.Hex(),
		ApplicantID:   app.ApplicantID.Hex(),
		CoachID:       app.CoachID.Hex(),
		Status:        string(app.Status),
		PaymentStatus: string(app.PaymentStatus),
		OccurredAt:    s.now(),
	})
	if err != nil {
		s.logger.Warn("Failed to publish application event", zap.String("subject", subject), zap.Error(err))
	}
}
