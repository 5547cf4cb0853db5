package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"alcyxob/gym-app/internal/domain"
	"alcyxob/gym-app/internal/repository"
	"alcyxob/gym-app/internal/storage"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var ErrCoachHasActiveClients = errors.New("coach still has active clients")

// CoachInput carries the editable coach profile. A non-empty
// AccountPassword on create also provisions a coach login for Email.
type CoachInput struct {
	Name              string
	Email             string
	Bio               string
	Specialty         string
	Certifications    []string
	YearsOfExperience int
	Availability      string
	Rating            float64
	IsActive          bool
	PictureURL        string
	AccountPassword   string
}

func (in CoachInput) validate() error {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return validationErrorf("coach name is required")
	case in.YearsOfExperience < 0:
		return validationErrorf("years of experience cannot be negative")
	case in.Rating < 0 || in.Rating > 5:
		return validationErrorf("rating must be between 0 and 5")
	case in.AccountPassword != "" && strings.TrimSpace(in.Email) == "":
		return validationErrorf("an email is required to create a coach account")
	case in.AccountPassword != "" && len(in.AccountPassword) < minPasswordLength:
		return validationErrorf("password must be at least %d characters", minPasswordLength)
	}
	return nil
}

type PackageInput struct {
	Title       string
	Description string
	Price       float64
	PictureURL  string
}

func (in PackageInput) validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return validationErrorf("package title is required")
	}
	if in.Price < 0 {
		return validationErrorf("price cannot be negative")
	}
	return nil
}

type CatalogService interface {
	ListCoaches(ctx context.Context, activeOnly bool) ([]domain.Coach, error)
	GetCoach(ctx context.Context, id primitive.ObjectID) (*domain.Coach, error)
	CreateCoach(ctx context.Context, in CoachInput) (*domain.Coach, error)
	UpdateCoach(ctx context.Context, id primitive.ObjectID, in CoachInput) (*domain.Coach, error)
	DeleteCoach(ctx context.Context, id primitive.ObjectID) error

	ListPackages(ctx context.Context) ([]domain.Package, error)
	GetPackage(ctx context.Context, id primitive.ObjectID) (*domain.Package, error)
	CreatePackage(ctx context.Context, in PackageInput) (*domain.Package, error)
	UpdatePackage(ctx context.Context, id primitive.ObjectID, in PackageInput) (*domain.Package, error)
	DeletePackage(ctx context.Context, id primitive.ObjectID) error
}

type catalogService struct {
	coachRepo   repository.CoachRepository
	packageRepo repository.PackageRepository
	appRepo     repository.ApplicationRepository
	userRepo    repository.UserRepository
	files       storage.FileStorage
	logger      *zap.Logger
}

func NewCatalogService(
	coachRepo repository.CoachRepository,
	packageRepo repository.PackageRepository,
	appRepo repository.ApplicationRepository,
	userRepo repository.UserRepository,
	files storage.FileStorage,
	logger *zap.Logger,
) CatalogService {
	return &catalogService{
		coachRepo:   coachRepo,
		packageRepo: packageRepo,
		appRepo:     appRepo,
		userRepo:    userRepo,
		files:       files,
		logger:      logger,
	}
}

// --- Coaches ---

func (s *catalogService) ListCoaches(ctx context.Context, activeOnly bool) ([]domain.Coach, error) {
	return s.coachRepo.List(ctx, activeOnly)
}

func (s *catalogService) GetCoach(ctx context.Context, id primitive.ObjectID) (*domain.Coach, error) {
	coach, err := s.coachRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCoachNotFound
		}
		return nil, err
	}
	return coach, nil
}

func (s *catalogService) CreateCoach(ctx context.Context, in CoachInput) (*domain.Coach, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var passwordHash string
	if in.AccountPassword != "" {
		if _, err := s.userRepo.GetByEmail(ctx, in.Email); err == nil {
			return nil, ErrUserAlreadyExists
		} else if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		hashed, err := hashPassword(in.AccountPassword)
		if err != nil {
			return nil, err
		}
		passwordHash = hashed
	}

	coach := &domain.Coach{}
	applyCoachInput(coach, in)
	if _, err := s.coachRepo.Create(ctx, coach); err != nil {
		return nil, fmt.Errorf("create coach: %w", err)
	}

	if passwordHash != "" {
		coachID := coach.ID
		account := &domain.User{
			Name:         coach.Name,
			Email:        in.Email,
			PasswordHash: passwordHash,
			Role:         domain.RoleCoach,
			CoachID:      &coachID,
		}
		if _, err := s.userRepo.Create(ctx, account); err != nil {
			// Roll back the coach record so a retry starts clean.
			if delErr := s.coachRepo.Delete(ctx, coach.ID); delErr != nil {
				s.logger.Error("Failed to roll back coach after account error", zap.String("coach_id", coach.ID.Hex()), zap.Error(delErr))
			}
			if errors.Is(err, repository.ErrDuplicate) {
				return nil, ErrUserAlreadyExists
			}
			return nil, fmt.Errorf("create coach account: %w", err)
		}
	}

	s.logger.Info("Coach created", zap.String("coach_id", coach.ID.Hex()), zap.Bool("with_account", passwordHash != ""))
	return coach, nil
}

func (s *catalogService) UpdateCoach(ctx context.Context, id primitive.ObjectID, in CoachInput) (*domain.Coach, error) {
	in.AccountPassword = ""
	if err := in.validate(); err != nil {
		return nil, err
	}
	coach, err := s.GetCoach(ctx, id)
	if err != nil {
		return nil, err
	}
	applyCoachInput(coach, in)
	if err := s.coachRepo.Update(ctx, coach); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCoachNotFound
		}
		return nil, fmt.Errorf("update coach: %w", err)
	}
	return coach, nil
}

// DeleteCoach removes a coach and its login. Coaches with clients in
// active training cannot be removed.
func (s *catalogService) DeleteCoach(ctx context.Context, id primitive.ObjectID) error {
	coach, err := s.GetCoach(ctx, id)
	if err != nil {
		return err
	}
	active, err := s.appRepo.CountActiveTrainingByCoach(ctx, id)
	if err != nil {
		return err
	}
	if active > 0 {
		return ErrCoachHasActiveClients
	}

	if err := s.coachRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrCoachNotFound
		}
		return err
	}
	s.removePicture(ctx, coach.PictureURL)
	n, err := s.userRepo.DeleteByCoachID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to delete coach accounts", zap.String("coach_id", id.Hex()), zap.Error(err))
	}
	s.logger.Info("Coach deleted", zap.String("coach_id", id.Hex()), zap.Int64("accounts_removed", n))
	return nil
}

func applyCoachInput(coach *domain.Coach, in CoachInput) {
	coach.Name = strings.TrimSpace(in.Name)
	coach.Email = normalizeEmail(in.Email)
	coach.Bio = in.Bio
	coach.Specialty = in.Specialty
	coach.Certifications = in.Certifications
	coach.YearsOfExperience = in.YearsOfExperience
	coach.Availability = in.Availability
	coach.Rating = in.Rating
	coach.IsActive = in.IsActive
	coach.PictureURL = in.PictureURL
}

// --- Packages ---

func (s *catalogService) ListPackages(ctx context.Context) ([]domain.Package, error) {
	return s.packageRepo.List(ctx)
}

func (s *catalogService) GetPackage(ctx context.Context, id primitive.ObjectID) (*domain.Package, error) {
	pkg, err := s.packageRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPackageNotFound
		}
		return nil, err
	}
	return pkg, nil
}

func (s *catalogService) CreatePackage(ctx context.Context, in PackageInput) (*domain.Package, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	pkg := &domain.Package{
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Price:       in.Price,
		PictureURL:  in.PictureURL,
	}
	if _, err := s.packageRepo.Create(ctx, pkg); err != nil {
		return nil, fmt.Errorf("create package: %w", err)
	}
	s.logger.Info("Package created", zap.String("package_id", pkg.ID.Hex()))
	return pkg, nil
}

func (s *catalogService) UpdatePackage(ctx context.Context, id primitive.ObjectID, in PackageInput) (*domain.Package, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	pkg, err := s.GetPackage(ctx, id)
	if err != nil {
		return nil, err
	}
	pkg.Title = strings.TrimSpace(in.Title)
	pkg.Description = in.Description
	pkg.Price = in.Price
	pkg.PictureURL = in.PictureURL
	if err := s.packageRepo.Update(ctx, pkg); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPackageNotFound
		}
		return nil, fmt.Errorf("update package: %w", err)
	}
	return pkg, nil
}

func (s *catalogService) DeletePackage(ctx context.Context, id primitive.ObjectID) error {
	pkg, err := s.GetPackage(ctx, id)
	if err != nil {
		return err
	}
	if err := s.packageRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPackageNotFound
		}
		return err
	}
	s.removePicture(ctx, pkg.PictureURL)
	s.logger.Info("Package deleted", zap.String("package_id", id.Hex()))
	return nil
}

// removePicture deletes an image we host. External URLs are left alone.
func (s *catalogService) removePicture(ctx context.Context, url string) {
	base := s.files.PublicURL("")
	if url == "" || base == "" || !strings.HasPrefix(url, base) {
		return
	}
	key := strings.TrimPrefix(url, base)
	if err := s.files.DeleteObject(ctx, key); err != nil {
		s.logger.Warn("Failed to delete picture", zap.String("key", key), zap.Error(err))
	}
}
