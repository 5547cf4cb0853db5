package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"alcyxob/gym-app/internal/domain"
	"alcyxob/gym-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var (
	ErrSessionNotFound  = errors.New("training session not found")
	ErrTrainingInactive = errors.New("training is not active for this application")
)

// SessionInput is what a coach records after a session. An empty Date
// means today.
type SessionInput struct {
	Date     string
	WeightKg float64
	Notes    string
}

func (in SessionInput) validate() error {
	if in.WeightKg <= 0 || in.WeightKg > 500 {
		return validationErrorf("weight must be between 0 and 500 kg")
	}
	if in.Date != "" {
		if _, err := domain.ParseDate(in.Date); err != nil {
			return validationErrorf("date must be formatted as YYYY-MM-DD")
		}
	}
	return nil
}

type TrainingService interface {
	LogSession(ctx context.Context, coach domain.CoachPrincipal, applicationID primitive.ObjectID, in SessionInput) (*domain.TrainingSession, error)
	UpdateSession(ctx context.Context, coach domain.CoachPrincipal, sessionID primitive.ObjectID, in SessionInput) (*domain.TrainingSession, error)
	History(ctx context.Context, principal domain.Principal, applicationID primitive.ObjectID) ([]domain.TrainingSession, error)
	Progress(ctx context.Context, principal domain.Principal, applicationID primitive.ObjectID) ([]domain.ProgressPoint, error)
}

type trainingService struct {
	sessionRepo repository.TrainingSessionRepository
	appRepo     repository.ApplicationRepository
	logger      *zap.Logger
	now         func() time.Time
}

func NewTrainingService(sessionRepo repository.TrainingSessionRepository, appRepo repository.ApplicationRepository, logger *zap.Logger) TrainingService {
	return &trainingService{
		sessionRepo: sessionRepo,
		appRepo:     appRepo,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// LogSession records a session for one of the coach's active clients.
// Several sessions on the same day are allowed.
func (s *trainingService) LogSession(ctx context.Context, coach domain.CoachPrincipal, applicationID primitive.ObjectID, in SessionInput) (*domain.TrainingSession, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	app, err := s.readable(ctx, coach, applicationID)
	if err != nil {
		return nil, err
	}
	if !app.HasActiveTraining() {
		return nil, ErrTrainingInactive
	}

	date := in.Date
	if date == "" {
		date = s.now().Format(domain.DateLayout)
	}
	session := &domain.TrainingSession{
		ApplicationID: app.ID,
		CoachID:       coach.CoachID,
		Date:          date,
		WeightKg:      in.WeightKg,
		Notes:         strings.TrimSpace(in.Notes),
	}
	if _, err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create training session: %w", err)
	}

	s.logger.Info("Training session logged",
		zap.String("session_id", session.ID.Hex()),
		zap.String("application_id", app.ID.Hex()),
		zap.String("coach_id", coach.CoachID.Hex()))
	return session, nil
}

// UpdateSession edits a session in place. Only the coach who logged it
// may change it.
func (s *trainingService) UpdateSession(ctx context.Context, coach domain.CoachPrincipal, sessionID primitive.ObjectID, in SessionInput) (*domain.TrainingSession, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if session.CoachID != coach.CoachID {
		return nil, ErrSessionNotFound
	}

	if in.Date != "" {
		session.Date = in.Date
	}
	session.WeightKg = in.WeightKg
	session.Notes = strings.TrimSpace(in.Notes)
	if err := s.sessionRepo.Update(ctx, session); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("update training session: %w", err)
	}
	s.logger.Info("Training session updated", zap.String("session_id", session.ID.Hex()))
	return session, nil
}

func (s *trainingService) History(ctx context.Context, principal domain.Principal, applicationID primitive.ObjectID) ([]domain.TrainingSession, error) {
	if _, err := s.readable(ctx, principal, applicationID); err != nil {
		return nil, err
	}
	return s.sessionRepo.ListByApplication(ctx, applicationID)
}

func (s *trainingService) Progress(ctx context.Context, principal domain.Principal, applicationID primitive.ObjectID) ([]domain.ProgressPoint, error) {
	app, err := s.readable(ctx, principal, applicationID)
	if err != nil {
		return nil, err
	}
	sessions, err := s.sessionRepo.ListByApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	return domain.BuildProgress(app, sessions), nil
}

func (s *trainingService) readable(ctx context.Context, principal domain.Principal, id primitive.ObjectID) (*domain.Application, error) {
	app, err := s.appRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrApplicationNotFound
		}
		return nil, err
	}
	if !canRead(principal, app) {
		return nil, ErrApplicationNotFound
	}
	return app, nil
}
