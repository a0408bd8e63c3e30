package user

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/aurora-backend/aurora/internal/apperrors"
	"github.com/aurora-backend/aurora/internal/logger"
	"github.com/aurora-backend/aurora/internal/models"
	"github.com/aurora-backend/aurora/internal/repository"
	"github.com/aurora-backend/aurora/internal/service/auth"
	"github.com/aurora-backend/aurora/internal/service/mailer"
)

const resetKeyTTL = time.Hour

// sessionInvalidator revokes every active session of a user. Wired to the
// session manager; password changes and account deletion go through it.
type sessionInvalidator interface {
	InvalidateUser(ctx context.Context, userID int64) error
}

type UserService struct {
	hasher   auth.PasswordHasher
	storage  repository.Storage
	sessions sessionInvalidator
	notifier mailer.Notifier
	logger   logger.Logger
}

func NewService(hasher auth.PasswordHasher, storage repository.Storage, sessions sessionInvalidator, notifier mailer.Notifier, l logger.Logger) *UserService {
	if hasher == nil {
		hasher = auth.DefaultHasher
	}
	if l == nil {
		l = logger.NewNoOpLogger()
	}

	return &UserService{
		hasher:   hasher,
		storage:  storage,
		sessions: sessions,
		notifier: notifier,
		logger:   l,
	}
}

// CreateUser registers a user and seeds its settings row in one transaction.
func (s *UserService) CreateUser(ctx context.Context, email string, password string) (models.User, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return models.User{}, fmt.Errorf("can't use this as password: %w", err)
	}

	var user models.User
	err = s.storage.InTx(ctx, func(st repository.Storage) error {
		user, err = st.User().CreateUser(ctx, email, hash)
		if err != nil {
			return err
		}

		_, err = st.Settings().Save(ctx, models.Settings{
			UserID:   user.ID,
			Currency: models.DefaultCurrency,
		})
		return err
	})
	if err != nil {
		return models.User{}, fmt.Errorf("can't create user: %w", err)
	}

	return user, nil
}

// VerifyCredentials returns the user when email and password match.
// Returns apperrors.ErrWrongCredentials otherwise, never revealing which
// part was off.
func (s *UserService) VerifyCredentials(ctx context.Context, email string, password string) (models.User, error) {
	user, err := s.storage.User().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return models.User{}, apperrors.ErrWrongCredentials
		}
		return models.User{}, fmt.Errorf("can't get user: %w", err)
	}

	if err := s.hasher.Compare(user.HashedPassword, password); err != nil {
		return models.User{}, apperrors.ErrWrongCredentials
	}

	return user, nil
}

func (s *UserService) GetUserByID(ctx context.Context, userID int64) (models.User, error) {
	return s.storage.User().GetUserByID(ctx, userID)
}

// ChangePassword replaces the password after verifying the current one and
// revokes every session of the user.
func (s *UserService) ChangePassword(ctx context.Context, userID int64, currentPassword string, newPassword string) error {
	user, err := s.storage.User().GetUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("can't get user: %w", err)
	}

	if err := s.hasher.Compare(user.HashedPassword, currentPassword); err != nil {
		return apperrors.ErrWrongCredentials
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("can't use this as password: %w", err)
	}

	if err := s.storage.User().UpdatePassword(ctx, userID, hash); err != nil {
		return fmt.Errorf("can't update password: %w", err)
	}

	if err := s.sessions.InvalidateUser(ctx, userID); err != nil {
		s.logger.Error("failed to invalidate sessions after password change", "user_id", userID, "error", err)
	}
	return nil
}

// DeleteUser removes the account and everything it owns, sessions included.
func (s *UserService) DeleteUser(ctx context.Context, userID int64) error {
	if err := s.storage.User().DeleteUser(ctx, userID); err != nil {
		return fmt.Errorf("can't delete user: %w", err)
	}

	if err := s.sessions.InvalidateUser(ctx, userID); err != nil {
		s.logger.Error("failed to invalidate sessions of deleted user", "user_id", userID, "error", err)
	}
	return nil
}

// RequestPasswordReset mails a single-use reset key to the address.
// Unknown addresses are reported as success so the endpoint can't be used
// to probe registered emails.
func (s *UserService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.storage.User().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			s.logger.Info("password reset requested for unknown email", "email", email)
			return nil
		}
		return fmt.Errorf("can't get user: %w", err)
	}

	key, err := generateResetKey()
	if err != nil {
		return fmt.Errorf("can't generate reset key: %w", err)
	}

	err = s.storage.ResetKey().Create(ctx, models.PasswordResetKey{
		UserID:    user.ID,
		Key:       key,
		ExpiresAt: time.Now().Add(resetKeyTTL),
	})
	if err != nil {
		return fmt.Errorf("can't store reset key: %w", err)
	}

	if err := s.notifier.SendPasswordReset(ctx, user.Email, key); err != nil {
		return fmt.Errorf("can't send reset key: %w", err)
	}
	return nil
}

// ResetPassword consumes a reset key and sets the new password. All the
// user's sessions are revoked: a reset means the old credentials can't be
// trusted anymore.
func (s *UserService) ResetPassword(ctx context.Context, key string, newPassword string) error {
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("can't use this as password: %w", err)
	}

	var userID int64
	err = s.storage.InTx(ctx, func(st repository.Storage) error {
		userID, err = st.ResetKey().Consume(ctx, key)
		if err != nil {
			return err
		}
		return st.User().UpdatePassword(ctx, userID, hash)
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrResetKeyInvalid) {
			return apperrors.ErrResetKeyInvalid
		}
		return fmt.Errorf("can't reset password: %w", err)
	}

	if err := s.sessions.InvalidateUser(ctx, userID); err != nil {
		s.logger.Error("failed to invalidate sessions after password reset", "user_id", userID, "error", err)
	}
	return nil
}

// generateResetKey returns 64 hex chars of crypto randomness.
func generateResetKey() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
