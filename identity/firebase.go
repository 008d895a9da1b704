package identity

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go"
	"firebase.google.com/go/auth"
)

// VerifyIDToken checks the caller's ID token against the identity provider.
// Used on mutating endpoints; read endpoints accept the cheaper offline
// verification in jwt.go.
func VerifyIDToken(ctx context.Context, app *firebase.App, idToken string) (*auth.Token, error) {
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("verifyIDToken: error getting auth client: %w", err)
	}

	token, err := client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, fmt.Errorf("verifyIDToken: error verifying id token: %w", err)
	}

	return token, nil
}
