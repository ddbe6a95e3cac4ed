package session

import "github.com/lsmith090/CIPP-sub000/internal/authz"

// PlatformPrincipal is the outer authentication source: the identity the
// hosting platform reports for the browser session. A nil
// *PlatformPrincipal means the platform sees no session (unauthenticated).
//
// This struct is IMMUTABLE after construction. It is created when the
// platform session endpoint settles, replaced wholesale on every poll, and
// never patched in place.
type PlatformPrincipal struct {
	// IdentityProvider names the upstream IdP ("aad", "github", ...).
	IdentityProvider string

	// UserID is the platform's opaque identifier for the user.
	UserID string

	// UserDetails is the stable user identifier string (an email address
	// in practice). This is the field the reconciler compares across the
	// two sources to detect identity rotation.
	UserDetails string

	// Roles are the platform-level roles attached to the session.
	Roles []authz.Role
}

// AppPrincipal is the inner, permission-aware source: the application
// backend's view of the same user, including resolved permissions. A nil
// *AppPrincipal means the backend returned no usable principal.
//
// The application source is only consulted after the platform source has
// settled with a non-nil principal.
type AppPrincipal struct {
	// UserDetails must agree with PlatformPrincipal.UserDetails for the
	// reconciliation to reach Ready.
	UserDetails string

	// Roles as resolved by the application backend. May contain the
	// synthetic roles "anonymous" and "authenticated", which carry no
	// authorization weight and are filtered during reconciliation.
	Roles []authz.Role

	// Permissions resolved for this user.
	Permissions []authz.Permission
}

// PlatformObservation is the settled outcome of one platform poll cycle,
// after the poller has exhausted its retry budget. The reconciler only
// ever sees settled observations, never individual retry attempts.
type PlatformObservation struct {
	// Settled is false while the poll is still pending (fresh load or
	// explicit reset). All other fields are meaningless until it is true.
	Settled bool

	// Principal is the session identity, or nil when the platform reports
	// no session (including 401/403 responses, which are classified as
	// absence of a principal).
	Principal *PlatformPrincipal

	// Unavailable is true when the endpoint was unreachable after the
	// retry budget, or answered 404/502.
	Unavailable bool
}

// AppObservation is the settled outcome of one application-permission
// fetch.
type AppObservation struct {
	Settled bool

	// ForIdentity is the platform UserDetails the fetch was issued for.
	// A settlement whose ForIdentity no longer matches the current
	// platform principal is stale and must be discarded (the platform
	// session rotated while the fetch was in flight).
	ForIdentity string

	// Principal is the backend's identity view, or nil when the response
	// carried no usable principal.
	Principal *AppPrincipal

	// Unavailable is true for 404/502, exhausted transport retries, and
	// 2xx responses without a principal body.
	Unavailable bool
}
