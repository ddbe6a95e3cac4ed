package poller

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lsmith090/CIPP-sub000/internal/authz"
)

func newTestClient(t *testing.T, platformHandler, appHandler http.HandlerFunc) *Client {
	t.Helper()
	mux := http.NewServeMux()
	if platformHandler != nil {
		mux.HandleFunc("/.auth/me", platformHandler)
	}
	if appHandler != nil {
		mux.HandleFunc("/api/me", appHandler)
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/.auth/me", srv.URL+"/api/me", 2*time.Second)
}

func jsonHandler(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func TestFetchPlatformPrincipal_SessionPresent(t *testing.T) {
	c := newTestClient(t,
		jsonHandler(http.StatusOK, `{
			"clientPrincipal": {
				"identityProvider": "aad",
				"userId": "u-1",
				"userDetails": "a@b.com",
				"userRoles": ["authenticated", "admin"]
			}
		}`),
		nil,
	)

	principal, err := c.FetchPlatformPrincipal(context.Background())
	require.NoError(t, err)
	require.NotNil(t, principal)
	assert.Equal(t, "aad", principal.IdentityProvider)
	assert.Equal(t, "a@b.com", principal.UserDetails)
	assert.Equal(t, []authz.Role{"authenticated", "admin"}, principal.Roles)
}

func TestFetchPlatformPrincipal_NullPrincipal(t *testing.T) {
	c := newTestClient(t, jsonHandler(http.StatusOK, `{"clientPrincipal": null}`), nil)

	principal, err := c.FetchPlatformPrincipal(context.Background())
	require.NoError(t, err)
	assert.Nil(t, principal)
}

func TestFetchPlatformPrincipal_UnauthorizedMeansNoPrincipal(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		c := newTestClient(t, jsonHandler(status, `{}`), nil)

		principal, err := c.FetchPlatformPrincipal(context.Background())
		require.NoError(t, err, "status %d", status)
		assert.Nil(t, principal, "status %d", status)
	}
}

func TestFetchPlatformPrincipal_BackendUnavailable(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusBadGateway} {
		c := newTestClient(t, jsonHandler(status, ``), nil)

		_, err := c.FetchPlatformPrincipal(context.Background())
		require.ErrorIs(t, err, ErrBackendUnavailable, "status %d", status)
	}
}

func TestFetchPlatformPrincipal_UnexpectedStatusIsTransport(t *testing.T) {
	c := newTestClient(t, jsonHandler(http.StatusInternalServerError, ``), nil)

	_, err := c.FetchPlatformPrincipal(context.Background())
	require.ErrorIs(t, err, ErrTransport)
}

func TestFetchPlatformPrincipal_ConnectionRefused(t *testing.T) {
	c := NewClient("http://127.0.0.1:1/.auth/me", "http://127.0.0.1:1/api/me", time.Second)

	_, err := c.FetchPlatformPrincipal(context.Background())
	require.ErrorIs(t, err, ErrTransport)
}

func TestFetchAppPrincipal_PrincipalWithPermissions(t *testing.T) {
	c := newTestClient(t, nil,
		jsonHandler(http.StatusOK, `{
			"clientPrincipal": {
				"userDetails": "a@b.com",
				"userRoles": ["authenticated", "admin"]
			},
			"permissions": ["CIPP.Core.*", "Identity.User.Read"]
		}`),
	)

	principal, err := c.FetchAppPrincipal(context.Background())
	require.NoError(t, err)
	require.NotNil(t, principal)
	assert.Equal(t, "a@b.com", principal.UserDetails)
	assert.Equal(t, []authz.Permission{"CIPP.Core.*", "Identity.User.Read"}, principal.Permissions)
}

func TestFetchAppPrincipal_EmptyBodyMeansNoPrincipal(t *testing.T) {
	c := newTestClient(t, nil, jsonHandler(http.StatusOK, `{"permissions": []}`))

	principal, err := c.FetchAppPrincipal(context.Background())
	require.NoError(t, err)
	assert.Nil(t, principal)
}

func TestFetchAppPrincipal_BackendUnavailable(t *testing.T) {
	c := newTestClient(t, nil, jsonHandler(http.StatusBadGateway, ``))

	_, err := c.FetchAppPrincipal(context.Background())
	require.ErrorIs(t, err, ErrBackendUnavailable)
}

func TestFetchAppPrincipal_MalformedJSONIsTransport(t *testing.T) {
	c := newTestClient(t, nil, jsonHandler(http.StatusOK, `{"clientPrincipal": {`))

	_, err := c.FetchAppPrincipal(context.Background())
	require.ErrorIs(t, err, ErrTransport)
}
