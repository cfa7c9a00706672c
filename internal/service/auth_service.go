package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"study_dashboard/internal/model"
	"study_dashboard/internal/repository"
	"study_dashboard/internal/utils"
)

var (
	ErrValidation         = errors.New("invalid input")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// RegisterParams carries the registration input.
type RegisterParams struct {
	Username string `validate:"required"`
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
	Role     string `validate:"omitempty,oneof=student mentor admin"`
}

// AuthService provides authentication related services
type AuthService interface {
	Register(ctx context.Context, params RegisterParams) (*model.User, error)
	Login(ctx context.Context, email, password string) (*model.User, string, error)
	Profile(ctx context.Context, userID string) (*model.User, error)
}

type authService struct {
	userRepo          repository.UserRepository
	jwtUtil           *utils.JWTUtil
	validate          *validator.Validate
	initialAdminEmail string
	logger            *zerolog.Logger
}

// NewAuthService creates a new AuthService. A registration whose email equals
// initialAdminEmail is stored as admin.
func NewAuthService(userRepo repository.UserRepository, jwtUtil *utils.JWTUtil, initialAdminEmail string, logger *zerolog.Logger) AuthService {
	return &authService{
		userRepo:          userRepo,
		jwtUtil:           jwtUtil,
		validate:          validator.New(),
		initialAdminEmail: NormalizeEmail(initialAdminEmail),
		logger:            logger,
	}
}

// NormalizeEmail trims and lower-cases an email so that uniqueness and lookup
// are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a new user account
func (s *authService) Register(ctx context.Context, params RegisterParams) (*model.User, error) {
	params.Username = strings.TrimSpace(params.Username)
	params.Email = NormalizeEmail(params.Email)
	params.Role = strings.TrimSpace(params.Role)

	if err := s.validate.StructCtx(ctx, params); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidation, describeValidation(err))
	}
	// The validator counts runes; bcrypt limits bytes.
	if len(params.Password) > utils.MaxPasswordBytes {
		return nil, fmt.Errorf("%w: password must be at most %d bytes", ErrValidation, utils.MaxPasswordBytes)
	}

	hashedPassword, err := utils.HashPassword(params.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	role := params.Role
	if role == "" {
		role = model.DefaultRole
	}
	if s.initialAdminEmail != "" && params.Email == s.initialAdminEmail {
		role = model.RoleAdmin
		s.logger.Info().Str("email", params.Email).Msg("registering initial admin")
	}

	user := &model.User{
		Username:     params.Username,
		Email:        params.Email,
		PasswordHash: hashedPassword,
		Role:         role,
	}

	// Uniqueness is enforced by the store, not by a prior lookup.
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrUserAlreadyExists
		}
		return nil, fmt.Errorf("failed to create user in repository: %w", err)
	}

	s.logger.Info().Str("user_id", user.ID).Str("role", user.Role).Msg("user registered")
	return user, nil
}

// Login authenticates a user and returns a JWT token
func (s *authService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, "", fmt.Errorf("%w: email and password are required", ErrValidation)
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Burn a comparison so unknown emails cost the same as wrong passwords.
			utils.CheckPasswordHash(password, dummyHash)
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("error finding user by email: %w", err)
	}

	if !utils.CheckPasswordHash(password, user.PasswordHash) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.jwtUtil.GenerateToken(user.ID, user.Username, user.Role)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}

	return user, token, nil
}

// Profile loads the current state of a user for a protected request
func (s *authService) Profile(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("error finding user by ID: %w", err)
	}
	return user, nil
}

// dummyHash is compared against when the email is unknown.
var dummyHash, _ = utils.HashPassword("study-dashboard-timing-equalizer")

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "email":
			msgs = append(msgs, field+" must be a valid email address")
		case "oneof":
			msgs = append(msgs, field+" must be one of "+fe.Param())
		default:
			msgs = append(msgs, field+" is invalid")
		}
	}
	return strings.Join(msgs, ", ")
}
