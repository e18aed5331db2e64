package providers

import (
	"context"
	"fmt"
)

var _ AuthProvider = &InsecureAuthProvider{}

// InsecureAuthProvider treats the bearer token itself as the player UID.
// For local development and tests only.
type InsecureAuthProvider struct {
}

func NewInsecureAuthProvider() *InsecureAuthProvider {
	return &InsecureAuthProvider{}
}

func (p *InsecureAuthProvider) VerifyToken(ctx context.Context, idToken string) (*Identity, error) {
	if idToken == "" {
		return nil, fmt.Errorf("empty token")
	}
	return &Identity{
		UID: idToken,
	}, nil
}
