package auth

import (
	"context"
)

// Client verifies bearer tokens presented by API callers.
type Client interface {
	// RetrospectToken checks that the token is active.
	RetrospectToken(ctx context.Context, accessToken string) error
	// GetSubjectFromToken returns the subject the token was issued to.
	GetSubjectFromToken(ctx context.Context, accessToken string) (string, error)
}
