package mailer

import (
	"context"
	"fmt"

	"github.com/mrz1836/postmark"
)

type PostmarkNotifier struct {
	client *postmark.Client
	from   string
}

func NewPostmarkNotifier(serverToken string, from string) *PostmarkNotifier {
	return &PostmarkNotifier{
		client: postmark.NewClient(serverToken, ""),
		from:   from,
	}
}

func (n *PostmarkNotifier) SendPasswordReset(ctx context.Context, email string, key string) error {
	msg := postmark.Email{
		From:     n.from,
		To:       email,
		Subject:  "Password reset",
		TextBody: fmt.Sprintf("Use this key to reset your password: %s\nThe key expires in one hour.", key),
	}

	_, err := n.client.SendEmail(ctx, msg)
	if err != nil {
		return fmt.Errorf("postmark send: %w", err)
	}
	return nil
}
