package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dzahariev/respite-users/cfg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIntrospectionServer(t *testing.T, active bool) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || !strings.HasSuffix(r.URL.Path, "/realms/respite/protocol/openid-connect/token/introspect") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if active {
			_, _ = w.Write([]byte(`{"active":true}`))
			return
		}
		_, _ = w.Write([]byte(`{"active":false}`))
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestClient(url string) Client {
	return NewClient(cfg.Keycloak{
		AuthURL:          url,
		AuthRealm:        "respite",
		AuthClientID:     "respite-users",
		AuthClientSecret: "secret",
	})
}

func TestRetrospectTokenActive(t *testing.T) {
	server := newIntrospectionServer(t, true)
	client := newTestClient(server.URL)

	require.NoError(t, client.RetrospectToken(context.Background(), "token"))
}

func TestRetrospectTokenInactive(t *testing.T) {
	server := newIntrospectionServer(t, false)
	client := newTestClient(server.URL)

	err := client.RetrospectToken(context.Background(), "token")
	assert.ErrorIs(t, err, ErrInactiveToken)
}

func TestRetrospectTokenUnreachable(t *testing.T) {
	server := newIntrospectionServer(t, true)
	url := server.URL
	server.Close()

	err := newTestClient(url).RetrospectToken(context.Background(), "token")
	assert.Error(t, err)
}
