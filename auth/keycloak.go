package auth

import (
	"context"
	"errors"

	"github.com/Nerzal/gocloak/v13"
	"github.com/Nerzal/gocloak/v13/pkg/jwx"
	"github.com/dzahariev/respite-users/cfg"
)

var ErrInactiveToken = errors.New("token is not active")

type KeycloakClient struct {
	Client       *gocloak.GoCloak
	URL          string
	Realm        string
	ClientID     string
	ClientSecret string
}

// NewClient is used to init a client for Keycloak authentication
func NewClient(cfg cfg.Keycloak) Client {
	return &KeycloakClient{
		Client:       gocloak.NewClient(cfg.AuthURL),
		URL:          cfg.AuthURL,
		Realm:        cfg.AuthRealm,
		ClientID:     cfg.AuthClientID,
		ClientSecret: cfg.AuthClientSecret,
	}
}

func (authClient *KeycloakClient) RetrospectToken(ctx context.Context, accessToken string) error {
	rptResult, err := authClient.Client.RetrospectToken(ctx, accessToken, authClient.ClientID, authClient.ClientSecret, authClient.Realm)
	if err != nil {
		return err
	}
	if rptResult.Active == nil || !*rptResult.Active {
		return ErrInactiveToken
	}

	return nil
}

func (authClient *KeycloakClient) GetSubjectFromToken(ctx context.Context, accessToken string) (string, error) {
	jwxClaims := &jwx.Claims{}
	_, err := authClient.Client.DecodeAccessTokenCustomClaims(ctx, accessToken, authClient.Realm, jwxClaims)
	if err != nil {
		return "", err
	}
	return jwxClaims.Subject, nil
}
