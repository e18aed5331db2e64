package providers

import "context"

// AuthProvider resolves a bearer token into the stable player identity it
// was issued for. Identity issuance itself happens elsewhere.
type AuthProvider interface {
	VerifyToken(ctx context.Context, idToken string) (*Identity, error)
}

// Identity is the authenticated player.
type Identity struct {
	UID string `json:"uid"`
}
