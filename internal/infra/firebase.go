// README: Firebase Admin SDK initialisation; token verification and user management.
package infra

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

// firebaseProvider is the production IdentityProvider backed by the Firebase Admin SDK.
type firebaseProvider struct {
	client *auth.Client
}

// NewFirebaseProvider creates an IdentityProvider using the Firebase Admin SDK.
// If credentialsFile is non-empty it is used as the service-account JSON path;
// otherwise application-default credentials / GOOGLE_APPLICATION_CREDENTIALS are used.
func NewFirebaseProvider(ctx context.Context, projectID, credentialsFile string) (IdentityProvider, error) {
	opts := []option.ClientOption{}
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase.NewApp: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase app.Auth: %w", err)
	}
	return &firebaseProvider{client: client}, nil
}

func (p *firebaseProvider) VerifyIDToken(ctx context.Context, idToken string) (*VerifiedToken, error) {
	token, err := p.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	email, _ := token.Claims["email"].(string)
	return &VerifiedToken{UID: token.UID, Email: email, Claims: token.Claims}, nil
}

func (p *firebaseProvider) CreateUser(ctx context.Context, u NewUser) (string, error) {
	params := (&auth.UserToCreate{}).
		Email(u.Email).
		Password(u.Password).
		EmailVerified(false)
	if u.DisplayName != "" {
		params = params.DisplayName(u.DisplayName)
	}
	rec, err := p.client.CreateUser(ctx, params)
	if err != nil {
		if auth.IsEmailAlreadyExists(err) {
			return "", ErrEmailExists
		}
		return "", fmt.Errorf("firebase CreateUser: %w", err)
	}
	return rec.UID, nil
}

func (p *firebaseProvider) DeleteUser(ctx context.Context, uid string) error {
	if err := p.client.DeleteUser(ctx, uid); err != nil && !auth.IsUserNotFound(err) {
		return fmt.Errorf("firebase DeleteUser: %w", err)
	}
	return nil
}
