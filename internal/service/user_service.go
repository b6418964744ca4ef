package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/lexibox/internal/domain"
	"github.com/phrazzld/lexibox/internal/platform/logger"
	"github.com/phrazzld/lexibox/internal/service/auth"
	"github.com/phrazzld/lexibox/internal/store"
)

// DevCredentials is the single login accepted in development. An empty
// email or hash disables login.
type DevCredentials struct {
	Email        string
	PasswordHash string
}

// UserService provides user lookup, login and settings.
type UserService interface {
	// GetUser retrieves a user by their ID
	GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error)

	// Login checks the development credentials and returns the matching
	// user, creating it on first login.
	Login(ctx context.Context, email, password string, now time.Time) (*domain.User, error)

	// UpdateProficiency stores the level used to pitch generated proposals.
	UpdateProficiency(
		ctx context.Context,
		userID uuid.UUID,
		level domain.ProficiencyLevel,
		now time.Time,
	) (*domain.User, error)
}

// UserServiceImpl implements the UserService interface
type UserServiceImpl struct {
	userStore store.UserStore
	verifier  auth.PasswordVerifier
	dev       DevCredentials
	retry     store.RetryPolicy
	logger    *slog.Logger
}

// NewUserService creates a new UserService
func NewUserService(
	userStore store.UserStore,
	verifier auth.PasswordVerifier,
	dev DevCredentials,
	retry store.RetryPolicy,
	logger *slog.Logger,
) UserService {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserServiceImpl{
		userStore: userStore,
		verifier:  verifier,
		dev:       dev,
		retry:     retry,
		logger:    logger.With("component", "user_service"),
	}
}

// GetUser retrieves a user by their ID
func (s *UserServiceImpl) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	var user *domain.User
	err := store.WithRetry(ctx, s.retry, "get_user", func(ctx context.Context) error {
		var err error
		user, err = s.userStore.GetByID(ctx, userID)
		return err
	})
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, domain.ErrUserNotFound
		}
		s.logger.Error("failed to retrieve user",
			"error", err,
			"user_id", userID)
		return nil, NewServiceError("user", "get", "failed to retrieve user", err)
	}
	return user, nil
}

// Login checks the development credentials and returns the matching user.
func (s *UserServiceImpl) Login(ctx context.Context, email, password string, now time.Time) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if s.dev.Email == "" || s.dev.PasswordHash == "" || s.verifier == nil {
		return nil, auth.ErrLoginDisabled
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email != strings.ToLower(s.dev.Email) {
		log.Debug("login attempt for unknown email")
		return nil, auth.ErrInvalidCredentials
	}
	if err := s.verifier.Compare(s.dev.PasswordHash, password); err != nil {
		log.Debug("login attempt with wrong password")
		return nil, auth.ErrInvalidCredentials
	}

	user, err := s.ensureUser(ctx, email, now)
	if err != nil {
		log.Error("failed to load login user", "error", err)
		return nil, NewServiceError("user", "login", "failed to load user", err)
	}
	return user, nil
}

// ensureUser returns the user with the email, creating it when missing. A
// concurrent first login loses the insert race and re-reads the winner.
func (s *UserServiceImpl) ensureUser(ctx context.Context, email string, now time.Time) (*domain.User, error) {
	var user *domain.User
	err := store.WithRetry(ctx, s.retry, "ensure_user", func(ctx context.Context) error {
		var err error
		user, err = s.userStore.GetByEmail(ctx, email)
		if err == nil || !store.IsNotFoundError(err) {
			return err
		}

		user, err = domain.NewUser(email, s.dev.PasswordHash, now)
		if err != nil {
			return err
		}
		err = s.userStore.Create(ctx, user)
		if errors.Is(err, store.ErrEmailExists) {
			user, err = s.userStore.GetByEmail(ctx, email)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateProficiency stores the user's proficiency level.
func (s *UserServiceImpl) UpdateProficiency(
	ctx context.Context,
	userID uuid.UUID,
	level domain.ProficiencyLevel,
	now time.Time,
) (*domain.User, error) {
	if !level.Valid() {
		return nil, domain.ErrInvalidProficiency
	}

	var user *domain.User
	err := store.WithRetry(ctx, s.retry, "update_proficiency", func(ctx context.Context) error {
		var err error
		user, err = s.userStore.GetByID(ctx, userID)
		if err != nil {
			if store.IsNotFoundError(err) {
				return domain.ErrUserNotFound
			}
			return err
		}
		if err := user.SetProficiency(level, now); err != nil {
			return err
		}
		return s.userStore.UpdateProficiency(ctx, user)
	})
	if err != nil {
		return nil, NewServiceError("user", "update_proficiency", "failed to update proficiency", err)
	}

	s.logger.Info("proficiency updated",
		"user_id", userID,
		"level", level)
	return user, nil
}
