package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"alcyxob/gym-app/internal/config"
	"alcyxob/gym-app/internal/domain"
	"alcyxob/gym-app/internal/mailer"
	"alcyxob/gym-app/internal/repository"

	"github.com/golang-jwt/jwt/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// --- Error Definitions ---
var (
	ErrUserAlreadyExists    = errors.New("user with this email already exists")
	ErrAuthenticationFailed = errors.New("authentication failed: invalid email or password")
	ErrHashingFailed        = errors.New("failed to hash password")
	ErrTokenGeneration      = errors.New("failed to generate authentication token")
	ErrInvalidToken         = errors.New("invalid or expired token")
	ErrInvalidOTP           = errors.New("invalid or expired verification code")
	ErrTooManyAttempts      = errors.New("too many attempts, request a new code")
	ErrOTPDelivery          = errors.New("could not send verification code")
	ErrUserNotFound         = errors.New("user not found")
	ErrCannotDeleteSelf     = errors.New("you cannot delete your own account")
)

const minPasswordLength = 8

type AuthService interface {
	Login(ctx context.Context, email, password string) (token string, user *domain.User, err error)

	RequestSignupOTP(ctx context.Context, name, email, password string) error
	VerifySignupOTP(ctx context.Context, email, code string) (token string, user *domain.User, err error)
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, email, code, newPassword string) error

	// ParseToken validates a session token and resolves its principal.
	ParseToken(token string) (domain.Principal, error)
	CurrentUser(ctx context.Context, principal domain.Principal) (*domain.User, error)
	TokenTTL() time.Duration

	// EnsureAdmin creates the configured admin unless one already exists.
	EnsureAdmin(ctx context.Context, cfg config.AdminConfig) error
	ListUsers(ctx context.Context, role domain.Role) ([]domain.User, error)
	DeleteUser(ctx context.Context, admin domain.AdminPrincipal, id primitive.ObjectID) error
}

// --- Service Implementation ---

// authService implements the AuthService interface.
type authService struct {
	userRepo      repository.UserRepository
	otpRepo       repository.OTPRepository
	mail          mailer.Mailer
	jwtSecret     string
	jwtExpiration time.Duration
	otpTTL        time.Duration
	otpAttempts   int
	logger        *zap.Logger
	now           func() time.Time
}

// NewAuthService creates a new instance of authService.
func NewAuthService(
	userRepo repository.UserRepository,
	otpRepo repository.OTPRepository,
	mail mailer.Mailer,
	jwtCfg config.JWTConfig,
	otpCfg config.OTPConfig,
	logger *zap.Logger,
) AuthService {
	if jwtCfg.Secret == "" {
		panic("JWT secret cannot be empty") // Critical configuration
	}
	if jwtCfg.Expiration <= 0 {
		jwtCfg.Expiration = 24 * time.Hour
	}
	if otpCfg.TTL <= 0 {
		otpCfg.TTL = 10 * time.Minute
	}
	if otpCfg.MaxAttempts <= 0 {
		otpCfg.MaxAttempts = 5
	}
	return &authService{
		userRepo:      userRepo,
		otpRepo:       otpRepo,
		mail:          mail,
		jwtSecret:     jwtCfg.Secret,
		jwtExpiration: jwtCfg.Expiration,
		otpTTL:        otpCfg.TTL,
		otpAttempts:   otpCfg.MaxAttempts,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Login handles user authentication and JWT generation.
func (s *authService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	if email == "" || password == "" {
		return "", nil, validationErrorf("email and password cannot be empty")
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil, ErrAuthenticationFailed
		}
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrAuthenticationFailed
	}

	token, err := s.generateJWT(user)
	if err != nil {
		return "", nil, ErrTokenGeneration
	}

	user.PasswordHash = ""
	return token, user, nil
}

// === Signup with emailed code ===

func (s *authService) RequestSignupOTP(ctx context.Context, name, email, password string) error {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" || email == "" {
		return validationErrorf("name and email are required")
	}
	if len(password) < minPasswordLength {
		return validationErrorf("password must be at least %d characters", minPasswordLength)
	}

	if _, err := s.userRepo.GetByEmail(ctx, email); err == nil {
		return ErrUserAlreadyExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	passwordHash, err := hashPassword(password)
	if err != nil {
		return err
	}

	code, err := s.issueOTP(ctx, &domain.OTP{
		Email:        email,
		Purpose:      domain.OTPSignup,
		Name:         name,
		PasswordHash: passwordHash,
	})
	if err != nil {
		return err
	}
	return s.sendCode(ctx, email, name, code, "Verify your email")
}

func (s *authService) VerifySignupOTP(ctx context.Context, email, code string) (string, *domain.User, error) {
	otp, err := s.checkOTP(ctx, normalizeEmail(email), domain.OTPSignup, code)
	if err != nil {
		return "", nil, err
	}

	user := &domain.User{
		Name:         otp.Name,
		Email:        otp.Email,
		PasswordHash: otp.PasswordHash,
		Role:         domain.RoleMember,
	}
	if _, err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return "", nil, ErrUserAlreadyExists
		}
		return "", nil, fmt.Errorf("create user: %w", err)
	}
	if err := s.otpRepo.Delete(ctx, otp.ID); err != nil {
		s.logger.Warn("Failed to delete used signup code", zap.Error(err))
	}

	token, err := s.generateJWT(user)
	if err != nil {
		return "", nil, ErrTokenGeneration
	}
	s.logger.Info("Member signed up", zap.String("user_id", user.ID.Hex()))

	user.PasswordHash = ""
	return token, user, nil
}

// === Password reset ===

// RequestPasswordReset mails a reset code. Unknown emails succeed silently
// so the endpoint cannot be used to probe for accounts.
func (s *authService) RequestPasswordReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return validationErrorf("email is required")
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.Debug("Password reset requested for unknown email")
			return nil
		}
		return err
	}

	code, err := s.issueOTP(ctx, &domain.OTP{Email: email, Purpose: domain.OTPPasswordReset})
	if err != nil {
		return err
	}
	return s.sendCode(ctx, email, user.Name, code, "Reset your password")
}

func (s *authService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return validationErrorf("password must be at least %d characters", minPasswordLength)
	}
	email = normalizeEmail(email)

	otp, err := s.checkOTP(ctx, email, domain.OTPPasswordReset, code)
	if err != nil {
		return err
	}
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidOTP
		}
		return err
	}

	passwordHash, err := hashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.userRepo.UpdatePassword(ctx, user.ID, passwordHash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if err := s.otpRepo.Delete(ctx, otp.ID); err != nil {
		s.logger.Warn("Failed to delete used reset code", zap.Error(err))
	}

	s.logger.Info("Password reset", zap.String("user_id", user.ID.Hex()))
	return nil
}

// issueOTP stores otp with a fresh code, replacing any pending code for
// the same email and purpose, and returns the plaintext code.
func (s *authService) issueOTP(ctx context.Context, otp *domain.OTP) (string, error) {
	code, err := generateCode()
	if err != nil {
		return "", err
	}
	codeHash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", ErrHashingFailed
	}

	now := s.now()
	otp.CodeHash = string(codeHash)
	otp.Attempts = 0
	otp.CreatedAt = now
	otp.ExpiresAt = now.Add(s.otpTTL)
	if err := s.otpRepo.Upsert(ctx, otp); err != nil {
		return "", fmt.Errorf("store verification code: %w", err)
	}
	return code, nil
}

// checkOTP validates code against the pending entry. Every wrong guess
// counts against the attempt budget.
func (s *authService) checkOTP(ctx context.Context, email string, purpose domain.OTPPurpose, code string) (*domain.OTP, error) {
	otp, err := s.otpRepo.Get(ctx, email, purpose)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidOTP
		}
		return nil, err
	}
	if !s.now().Before(otp.ExpiresAt) {
		return nil, ErrInvalidOTP
	}
	if otp.Attempts >= s.otpAttempts {
		return nil, ErrTooManyAttempts
	}

	if err := bcrypt.CompareHashAndPassword([]byte(otp.CodeHash), []byte(strings.TrimSpace(code))); err != nil {
		if incErr := s.otpRepo.IncrementAttempts(ctx, otp.ID); incErr != nil {
			s.logger.Warn("Failed to count verification attempt", zap.Error(incErr))
		}
		return nil, ErrInvalidOTP
	}
	return otp, nil
}

func (s *authService) sendCode(ctx context.Context, email, name, code, title string) error {
	msg, err := mailer.OTPMessage(email, name, code, title, int(s.otpTTL.Minutes()))
	if err != nil {
		return err
	}
	if err := s.mail.Send(ctx, msg); err != nil {
		s.logger.Error("Failed to send verification code", zap.Error(err))
		return fmt.Errorf("%w: %v", ErrOTPDelivery, err)
	}
	return nil
}

// generateCode returns a uniformly random 6-digit code.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// === Session ===

func (s *authService) CurrentUser(ctx context.Context, principal domain.Principal) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, principal.UserID())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *authService) TokenTTL() time.Duration {
	return s.jwtExpiration
}

// === Users (admin) ===

func (s *authService) EnsureAdmin(ctx context.Context, cfg config.AdminConfig) error {
	if cfg.Email == "" || cfg.Password == "" {
		s.logger.Info("No admin credentials configured, skipping admin seed")
		return nil
	}
	n, err := s.userRepo.CountByRole(ctx, domain.RoleAdmin)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	passwordHash, err := hashPassword(cfg.Password)
	if err != nil {
		return err
	}
	admin := &domain.User{Name: cfg.Name, Email: cfg.Email, PasswordHash: passwordHash, Role: domain.RoleAdmin}
	if _, err := s.userRepo.Create(ctx, admin); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	s.logger.Info("Seeded admin account", zap.String("email", admin.Email))
	return nil
}

func (s *authService) ListUsers(ctx context.Context, role domain.Role) ([]domain.User, error) {
	if role != "" && !role.Valid() {
		return nil, validationErrorf("unknown role %q", role)
	}
	users, err := s.userRepo.List(ctx, role)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i].PasswordHash = ""
	}
	return users, nil
}

func (s *authService) DeleteUser(ctx context.Context, admin domain.AdminPrincipal, id primitive.ObjectID) error {
	if admin.ID == id {
		return ErrCannotDeleteSelf
	}
	if err := s.userRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	s.logger.Info("User deleted", zap.String("user_id", id.Hex()), zap.String("admin_id", admin.ID.Hex()))
	return nil
}

// --- JWT Helper ---

// jwtClaims defines the structure of the JWT payload.
type jwtClaims struct {
	UserID  string      `json:"uid"`
	Role    domain.Role `json:"role"`
	Name    string      `json:"name,omitempty"`
	CoachID string      `json:"coachId,omitempty"`
	jwt.RegisteredClaims
}

// generateJWT creates a new JWT token for the given user.
func (s *authService) generateJWT(user *domain.User) (string, error) {
	now := time.Now()
	claims := &jwtClaims{
		UserID: user.ID.Hex(),
		Role:   user.Role,
		Name:   user.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.Hex(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtExpiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "gym-app",
		},
	}
	if user.CoachID != nil {
		claims.CoachID = user.CoachID.Hex()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

func (s *authService) ParseToken(tokenString string) (domain.Principal, error) {
	claims := &jwtClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil, ErrInvalidToken
	}
	var coachID *primitive.ObjectID
	if claims.CoachID != "" {
		id, err := primitive.ObjectIDFromHex(claims.CoachID)
		if err != nil {
			return nil, ErrInvalidToken
		}
		coachID = &id
	}

	principal, err := domain.NewPrincipal(claims.Role, userID, claims.Name, coachID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return principal, nil
}

// --- Helpers ---

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", ErrHashingFailed
	}
	return string(hashed), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
