package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/n0ll22/HouseholdRPG/internal/models"
	"github.com/n0ll22/HouseholdRPG/internal/repository"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

var validate = validator.New()

// RegisterInput is the body of POST /users/register.
type RegisterInput struct {
	Username string `json:"username" validate:"required,min=3,max=32"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Avatar   string `json:"avatar" validate:"omitempty,max=256"`
}

// UserService encapsulates the business logic for user operations.
type UserService struct {
	users UserStore
}

// NewUserService creates a new instance of UserService.
func NewUserService(users UserStore) *UserService {
	return &UserService{
		users: users,
	}
}

// RegisterUser creates an offline level 1 account with a hashed password.
func (s *UserService) RegisterUser(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Username = strings.TrimSpace(in.Username)

	if err := validate.Struct(in); err != nil {
		logrus.WithError(err).Warn("Invalid registration input")
		return nil, fmt.Errorf("%v: %w", err, ErrInvalidRequest)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		logrus.WithError(err).Error("Password hashing failed")
		return nil, fmt.Errorf("failed to hash password: %w: %v", ErrStoreFailure, err)
	}

	user, err := s.users.CreateUser(ctx, &models.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: string(hashed),
		Avatar:       in.Avatar,
		Lvl:          1,
		Status:       models.StatusOffline,
	})
	if errors.Is(err, repository.ErrDuplicate) {
		logrus.WithField("email", in.Email).Warn("Email already in use")
		return nil, fmt.Errorf("email already in use: %w", ErrAlreadyExists)
	}
	if err != nil {
		return nil, storeErr("create user", err)
	}

	logrus.WithField("userID", user.ID.Hex()).Info("User registered successfully")
	return user, nil
}

// AuthenticateUser verifies the email and password and returns the user if credentials are valid.
func (s *UserService) AuthenticateUser(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		logrus.WithField("email", email).Warn("User not found")
		return nil, fmt.Errorf("invalid credentials: %w", ErrUnauthorized)
	}
	if err != nil {
		return nil, storeErr("find user", err)
	}
	if user.Status == models.StatusDeleted {
		return nil, fmt.Errorf("account deleted: %w", ErrUnauthorized)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		logrus.WithField("email", email).Warn("Invalid credentials")
		return nil, fmt.Errorf("invalid credentials: %w", ErrUnauthorized)
	}

	logrus.WithField("userID", user.ID.Hex()).Info("User authenticated successfully")
	return user, nil
}

// GetUser retrieves a user by their ID.
func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	objID, err := parseID(id, "user id")
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByID(ctx, objID)
	if err != nil {
		logrus.WithError(err).WithField("userID", id).Debug("Failed to retrieve user")
		return nil, storeErr("get user", err)
	}
	return user, nil
}

// GetPublicUser returns the profile another player may see.
func (s *UserService) GetPublicUser(ctx context.Context, id string) (*models.PublicUser, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	public := user.Public()
	return &public, nil
}

// TouchLastActive records that the user just made an authenticated request.
func (s *UserService) TouchLastActive(ctx context.Context, id string) error {
	objID, err := parseID(id, "user id")
	if err != nil {
		return err
	}
	if err := s.users.TouchLastActive(ctx, objID); err != nil {
		return storeErr("touch last active", err)
	}
	return nil
}
