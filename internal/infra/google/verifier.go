package google

import (
	"context"
	"fmt"

	"google.golang.org/api/idtoken"

	"github.com/tixlabs/tix-server/config"
)

// Verifier checks Google ID tokens against the configured OAuth client ID.
type Verifier struct {
	clientID string
}

func NewVerifier(cfg config.GoogleConfig) *Verifier {
	return &Verifier{clientID: cfg.ClientID}
}

func (v *Verifier) Verify(ctx context.Context, idToken string) (string, string, error) {
	payload, err := idtoken.Validate(ctx, idToken, v.clientID)
	if err != nil {
		return "", "", fmt.Errorf("failed to validate id token: %w", err)
	}

	email, _ := payload.Claims["email"].(string)
	if email == "" {
		return "", "", fmt.Errorf("id token carries no email claim")
	}
	name, _ := payload.Claims["name"].(string)

	return email, name, nil
}
