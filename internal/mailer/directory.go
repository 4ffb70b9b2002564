package mailer

import (
	"context"

	"firebase.google.com/go/v4/auth"
)

// AuthDirectory resolves user emails through the Firebase auth client.
type AuthDirectory struct {
	client *auth.Client
}

func NewAuthDirectory(client *auth.Client) *AuthDirectory {
	return &AuthDirectory{client: client}
}

func (d *AuthDirectory) Email(ctx context.Context, uid string) (string, error) {
	u, err := d.client.GetUser(ctx, uid)
	if err != nil {
		return "", err
	}
	return u.Email, nil
}
