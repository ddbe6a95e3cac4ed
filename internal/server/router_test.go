package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lsmith090/CIPP-sub000/internal/authz"
	"github.com/lsmith090/CIPP-sub000/internal/navigation"
	"github.com/lsmith090/CIPP-sub000/internal/session"
)

func testMenu() *navigation.Menu {
	return &navigation.Menu{
		Version: 2,
		Items: []navigation.MenuNode{
			{
				ID:                  "users",
				Title:               "Users",
				Path:                "/identity/users",
				RequiredPermissions: []authz.Permission{"Identity.User.Read"},
			},
			{
				ID:            "admin",
				Title:         "Administration",
				Path:          "/admin",
				RequiredRoles: []authz.Role{"admin"},
			},
		},
	}
}

func readyStore(t *testing.T, roles []authz.Role, perms []authz.Permission) *session.Store {
	t.Helper()
	store := session.NewStore(false)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go store.Run(ctx)

	appRoles := append([]authz.Role{session.RoleAuthenticated}, roles...)
	store.ObservePlatform(session.PlatformObservation{
		Settled: true,
		Principal: &session.PlatformPrincipal{
			IdentityProvider: "aad",
			UserID:           "u-1",
			UserDetails:      "a@b.com",
			Roles:            appRoles,
		},
	})
	store.ObserveApp(session.AppObservation{
		Settled:     true,
		ForIdentity: "a@b.com",
		Principal: &session.AppPrincipal{
			UserDetails: "a@b.com",
			Roles:       appRoles,
			Permissions: perms,
		},
	})

	deadline := time.After(2 * time.Second)
	for store.Current().Phase != session.PhaseReady {
		select {
		case <-deadline:
			t.Fatalf("store never reached ready, at %s", store.Current().Phase)
		default:
			time.Sleep(time.Millisecond)
		}
	}
	return store
}

func TestHandleAuthState_Loading(t *testing.T) {
	store := session.NewStore(false)
	router := NewRouter(store, testMenu(), nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/authstate", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Phase       string   `json:"phase"`
		Roles       []string `json:"roles"`
		Permissions []string `json:"permissions"`
		IsAdmin     bool     `json:"isAdmin"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "loading", body.Phase)
	assert.NotNil(t, body.Roles)
	assert.Empty(t, body.Roles)
	assert.False(t, body.IsAdmin)
}

func TestHandleAuthState_Ready(t *testing.T) {
	store := readyStore(t,
		[]authz.Role{"admin"},
		[]authz.Permission{"CIPP.Core.*"},
	)
	router := NewRouter(store, testMenu(), nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/authstate", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Phase       string   `json:"phase"`
		Roles       []string `json:"roles"`
		Permissions []string `json:"permissions"`
		IsAdmin     bool     `json:"isAdmin"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ready", body.Phase)
	assert.Equal(t, []string{"admin"}, body.Roles)
	assert.Equal(t, []string{"CIPP.Core.*"}, body.Permissions)
	assert.True(t, body.IsAdmin)
}

func TestHandleNavigation_FiltersByState(t *testing.T) {
	// Holds the permission for "users" but not the "admin" role.
	store := readyStore(t,
		[]authz.Role{"editor"},
		[]authz.Permission{"Identity.User.Read"},
	)
	router := NewRouter(store, testMenu(), nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/navigation", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Version int                   `json:"version"`
		Phase   string                `json:"phase"`
		Items   []navigation.MenuNode `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Version)
	assert.Equal(t, "ready", body.Phase)
	require.Len(t, body.Items, 1)
	assert.Equal(t, "users", body.Items[0].ID)
}

func TestHandleNavigation_EmptyWhileLoading(t *testing.T) {
	store := session.NewStore(false)
	router := NewRouter(store, testMenu(), nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/navigation", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Phase string                `json:"phase"`
		Items []navigation.MenuNode `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "loading", body.Phase)
	assert.Empty(t, body.Items)
}

func TestHealthz(t *testing.T) {
	router := NewRouter(session.NewStore(false), testMenu(), nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCORSHeadersApplied(t *testing.T) {
	router := NewRouter(session.NewStore(false), testMenu(), []string{"https://portal.example.com"})

	req := httptest.NewRequest(http.MethodGet, "/api/authstate", nil)
	req.Header.Set("Origin", "https://portal.example.com")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "https://portal.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}
