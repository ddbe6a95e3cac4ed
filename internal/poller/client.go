package poller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/lsmith090/CIPP-sub000/internal/authz"
	"github.com/lsmith090/CIPP-sub000/internal/session"
)

// Error classes for settled fetches. The poller maps these onto
// observation fields; nothing rawer ever reaches the reconciler.
var (
	// ErrBackendUnavailable: the endpoint is missing (404) or its
	// upstream is down (502). Not retryable; classified terminally.
	ErrBackendUnavailable = errors.New("backend unavailable")

	// ErrTransport: network failure, timeout, or an unexpected status.
	// Retryable up to the poller's budget, after which it exhausts into
	// a terminal unavailable classification.
	ErrTransport = errors.New("transport failure")
)

// platformEnvelope is the wire shape of the platform session endpoint.
type platformEnvelope struct {
	ClientPrincipal *struct {
		IdentityProvider string   `json:"identityProvider"`
		UserID           string   `json:"userId"`
		UserDetails      string   `json:"userDetails"`
		UserRoles        []string `json:"userRoles"`
	} `json:"clientPrincipal"`
}

// appEnvelope is the wire shape of the application permission endpoint.
// Permissions ride at the top level, beside the principal.
type appEnvelope struct {
	ClientPrincipal *struct {
		UserDetails string   `json:"userDetails"`
		UserRoles   []string `json:"userRoles"`
	} `json:"clientPrincipal"`
	Permissions []string `json:"permissions"`
}

// Client fetches the two identity endpoints and classifies their
// responses.
type Client struct {
	http          *http.Client
	platformURL   string
	permissionURL string
}

// NewClient builds a client with a per-request timeout.
func NewClient(platformURL, permissionURL string, timeout time.Duration) *Client {
	return &Client{
		http:          &http.Client{Timeout: timeout},
		platformURL:   platformURL,
		permissionURL: permissionURL,
	}
}

// FetchPlatformPrincipal performs one platform session fetch.
//
// Returns:
//   - (principal, nil): session present
//   - (nil, nil): endpoint answered but reports no session
//     (null clientPrincipal, or 401/403)
//   - (nil, ErrBackendUnavailable): 404/502
//   - (nil, ErrTransport-wrapped): network failure or unexpected status
func (c *Client) FetchPlatformPrincipal(ctx context.Context) (*session.PlatformPrincipal, error) {
	body, err := c.get(ctx, c.platformURL)
	if err != nil {
		return nil, err
	}
	if body == nil {
		// 401/403: treat as absence of a principal.
		return nil, nil
	}

	var envelope platformEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: decode platform response: %v", ErrTransport, err)
	}
	if envelope.ClientPrincipal == nil {
		return nil, nil
	}

	cp := envelope.ClientPrincipal
	return &session.PlatformPrincipal{
		IdentityProvider: cp.IdentityProvider,
		UserID:           cp.UserID,
		UserDetails:      cp.UserDetails,
		Roles:            toRoles(cp.UserRoles),
	}, nil
}

// FetchAppPrincipal performs one application permission fetch.
//
// Returns:
//   - (principal, nil): usable principal with permissions
//   - (nil, nil): endpoint answered 2xx but carried no principal body,
//     or answered 401/403
//   - (nil, ErrBackendUnavailable): 404/502
//   - (nil, ErrTransport-wrapped): network failure or unexpected status
func (c *Client) FetchAppPrincipal(ctx context.Context) (*session.AppPrincipal, error) {
	body, err := c.get(ctx, c.permissionURL)
	if err != nil {
		return nil, err
	}
	if body == nil {
		return nil, nil
	}

	var envelope appEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: decode permission response: %v", ErrTransport, err)
	}
	if envelope.ClientPrincipal == nil {
		return nil, nil
	}

	perms := make([]authz.Permission, 0, len(envelope.Permissions))
	for _, p := range envelope.Permissions {
		perms = append(perms, authz.Permission(p))
	}
	return &session.AppPrincipal{
		UserDetails: envelope.ClientPrincipal.UserDetails,
		Roles:       toRoles(envelope.ClientPrincipal.UserRoles),
		Permissions: perms,
	}, nil
}

// get performs the request and applies the shared status classification.
// A nil body with nil error signals 401/403 (no principal).
func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrTransport, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, nil
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusBadGateway:
		return nil, fmt.Errorf("%w: %s returned %d", ErrBackendUnavailable, url, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("%w: %s returned %d", ErrTransport, url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrTransport, err)
	}
	return body, nil
}

func toRoles(names []string) []authz.Role {
	roles := make([]authz.Role, 0, len(names))
	for _, n := range names {
		roles = append(roles, authz.Role(n))
	}
	return roles
}
