package service

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/micocomia/5902Group5/internal/dto"
	"github.com/micocomia/5902Group5/internal/models"
	"github.com/micocomia/5902Group5/internal/repository"
	"github.com/micocomia/5902Group5/pkg/auth"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	MinUsernameLength = 3
	MinPasswordLength = 6
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserExists         = errors.New("username already exists")
	ErrUsernameTooShort   = fmt.Errorf("username must be at least %d characters", MinUsernameLength)
	ErrPasswordTooShort   = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
)

type AuthService struct {
	userRepo    repository.UserRepository
	learnerRepo repository.LearnerRepository
	jwtManager  *auth.JWTManager
	logger      *zap.Logger
}

func NewAuthService(userRepo repository.UserRepository, learnerRepo repository.LearnerRepository, jwtManager *auth.JWTManager, logger *zap.Logger) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		learnerRepo: learnerRepo,
		jwtManager:  jwtManager,
		logger:      logger,
	}
}

func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	if utf8.RuneCountInString(req.Username) < MinUsernameLength {
		return nil, ErrUsernameTooShort
	}
	if utf8.RuneCountInString(req.Password) < MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:        uuid.New(),
		Username:  req.Username,
		Password:  hashedPassword,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("User registered", zap.String("username", user.Username))
	return s.issue(user)
}

func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.userRepo.GetByUsername(ctx, req.Username)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !auth.CheckPasswordHash(req.Password, user.Password) {
		return nil, ErrInvalidCredentials
	}

	return s.issue(user)
}

// Me resolves a bearer token to the username it was issued for.
func (s *AuthService) Me(token string) (*dto.MeResponse, error) {
	claims, err := s.jwtManager.ValidateToken(token)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	return &dto.MeResponse{Username: claims.Username}, nil
}

// DeleteAccount removes the account and every piece of learner data stored
// under the username.
func (s *AuthService) DeleteAccount(ctx context.Context, username string) error {
	if err := s.learnerRepo.DeleteAllUserData(ctx, username); err != nil {
		return fmt.Errorf("failed to delete learner data: %w", err)
	}

	if err := s.userRepo.Delete(ctx, username); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}

	s.logger.Info("User account deleted", zap.String("username", username))
	return nil
}

func (s *AuthService) issue(user *models.User) (*dto.AuthResponse, error) {
	token, err := s.jwtManager.GenerateToken(user.ID.String(), user.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &dto.AuthResponse{
		Token:    token,
		Username: user.Username,
	}, nil
}
