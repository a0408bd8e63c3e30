// Package mailer delivers password-reset keys. Delivery is a black box to
// the rest of the system: any Notifier works.
package mailer

import (
	"context"

	"github.com/aurora-backend/aurora/internal/logger"
)

type Notifier interface {
	SendPasswordReset(ctx context.Context, email string, key string) error
}

// LogNotifier writes the reset key to the log instead of sending mail.
// For development and tests only.
type LogNotifier struct {
	Logger logger.Logger
}

func (n LogNotifier) SendPasswordReset(ctx context.Context, email string, key string) error {
	n.Logger.Info("password reset requested", "email", email, "reset_key", key)
	return nil
}
