package session

import "github.com/lsmith090/CIPP-sub000/internal/authz"

// Synthetic roles the platform attaches to every session. They assert the
// mere existence of a session, not any authorization, and are stripped
// before an AuthState is produced. A principal carrying only synthetic
// roles is treated as unauthenticated: the platform falsely reports a
// session that grants nothing.
const (
	RoleAnonymous     authz.Role = "anonymous"
	RoleAuthenticated authz.Role = "authenticated"
)

// Admin-tier roles that set AuthState.IsAdmin.
const (
	RoleAdmin      authz.Role = "admin"
	RoleSuperadmin authz.Role = "superadmin"
)

// Refetch is a directive emitted by the reconciler when it needs the
// application-permission source fetched again for a specific identity
// (the user-detail mismatch case). The reconciler performs no I/O itself;
// whoever drives it executes the directive.
type Refetch struct {
	// Identity is the platform UserDetails the new fetch must be issued
	// for. Any in-flight fetch for a different identity is superseded and
	// its settlement must be discarded.
	Identity string
}

// Outcome pairs the reconciled state with an optional refetch directive.
type Outcome struct {
	State   AuthState
	Refetch *Refetch
}

// Reconciler folds the two latest principal observations into one
// AuthState. It is a state machine over pure data: no I/O, no clocks, no
// goroutines. The only retained state beyond the two observations is the
// forced-refetch bookkeeping, which guarantees an identity mismatch
// triggers exactly one refetch rather than a loop.
//
// Transition rules, evaluated on every settled observation:
//  1. Platform pending, or platform OK but the app source not yet settled
//     → Loading.
//  2. Platform settled with no principal → Unauthenticated.
//  3. App source unavailable (404/502/transport-exhausted), or settled
//     without a usable principal while a platform principal exists
//     → BackendOffline.
//  4. Both principals present but UserDetails differ → issue one forced
//     refetch for the platform identity and stay Loading; if the refetch
//     already ran for this identity and the mismatch persists
//     → BackendOffline (never loop).
//  5. Otherwise filter synthetic roles; empty result → Unauthenticated,
//     else → Ready.
//
// The Reconciler is not goroutine-safe on its own; the Store serializes
// all access through a single event loop.
type Reconciler struct {
	platform PlatformObservation
	app      AppObservation

	// refetchFor is the identity a forced refetch is currently in flight
	// for; empty when none.
	refetchFor string

	// refetchSpentFor records the identity whose forced refetch has
	// already settled once. A second mismatch for the same identity is
	// classified as BackendOffline.
	refetchSpentFor string
}

// NewReconciler returns a reconciler in the fresh-load state: both
// observations pending, so the first Outcome is Loading.
func NewReconciler() *Reconciler {
	return &Reconciler{}
}

// Reset returns the machine to the fresh-load state. Called on an explicit
// login event; Unauthenticated is terminal until then.
func (r *Reconciler) Reset() {
	*r = Reconciler{}
}

// ObservePlatform ingests a settled platform poll result.
//
// If the platform identity changed since the previous observation (session
// rotated to a different user, or a first login), any application data for
// the old identity is stale: the app observation reverts to pending and
// the refetch bookkeeping is cleared, so the machine reports Loading until
// fresh application data arrives. Stale permissions are never surfaced for
// the new identity.
func (r *Reconciler) ObservePlatform(o PlatformObservation) Outcome {
	prev := r.platformIdentity()
	r.platform = o
	if next := r.platformIdentity(); next != prev {
		r.app = AppObservation{}
		r.refetchFor = ""
		r.refetchSpentFor = ""
	}
	return r.commit(r.reconcile())
}

// ObserveApp ingests a settled application-permission fetch result.
//
// Settlements issued for an identity other than the current platform
// principal's are discarded outright (superseded fetch); the retained
// state is untouched and the outcome reflects the existing observations.
func (r *Reconciler) ObserveApp(o AppObservation) Outcome {
	if o.Settled && o.ForIdentity != r.platformIdentity() {
		return r.reconcile()
	}
	if o.Settled && r.refetchFor != "" && o.ForIdentity == r.refetchFor {
		// The one forced refetch has resolved, successfully or not.
		r.refetchSpentFor = r.refetchFor
		r.refetchFor = ""
	}
	r.app = o
	if o.Settled && o.Principal != nil && o.Principal.UserDetails == r.platformIdentity() {
		// The sources agree again; a future mismatch is a fresh race and
		// earns its own refetch.
		r.refetchSpentFor = ""
	}
	return r.commit(r.reconcile())
}

// commit records an emitted refetch directive as in flight. Only the
// Observe methods commit; Current never does, so read-only recomputation
// cannot consume the one-refetch budget.
func (r *Reconciler) commit(out Outcome) Outcome {
	if out.Refetch != nil {
		r.refetchFor = out.Refetch.Identity
	}
	return out
}

// Current recomputes the outcome from the retained observations without
// ingesting anything new. Feeding the same observation pair twice yields
// identical AuthState values.
func (r *Reconciler) Current() AuthState {
	return r.reconcile().State
}

func (r *Reconciler) platformIdentity() string {
	if !r.platform.Settled || r.platform.Principal == nil {
		return ""
	}
	return r.platform.Principal.UserDetails
}

func (r *Reconciler) reconcile() Outcome {
	// Rule 1: nothing usable from the platform yet. This also covers the
	// ordering hazard where the app fetch settles before the platform
	// fetch on a fresh load: without a platform verdict the state stays
	// Loading, never Unauthenticated.
	if !r.platform.Settled {
		return Outcome{State: AuthState{Phase: PhaseLoading}}
	}

	if r.platform.Unavailable {
		return Outcome{State: AuthState{Phase: PhaseBackendOffline}}
	}

	// Rule 2: platform answered and there is no session.
	if r.platform.Principal == nil {
		return Outcome{State: AuthState{Phase: PhaseUnauthenticated}}
	}

	// Rule 1 again: platform OK, app still pending (or reset by an
	// identity change, or awaiting a forced refetch).
	if !r.app.Settled {
		return Outcome{State: AuthState{Phase: PhaseLoading}}
	}

	// Rule 3: permission backend missing, unreachable, or silent.
	if r.app.Unavailable || r.app.Principal == nil {
		return Outcome{State: AuthState{Phase: PhaseBackendOffline}}
	}

	// Rule 4: the two sources disagree about who the user is.
	identity := r.platform.Principal.UserDetails
	if r.app.Principal.UserDetails != identity {
		if r.refetchSpentFor == identity {
			// The refetch already ran and the mismatch recurred. Surface
			// as offline rather than looping.
			return Outcome{State: AuthState{Phase: PhaseBackendOffline}}
		}
		if r.refetchFor == identity {
			// Refetch already in flight, keep waiting.
			return Outcome{State: AuthState{Phase: PhaseLoading}}
		}
		return Outcome{
			State:   AuthState{Phase: PhaseLoading},
			Refetch: &Refetch{Identity: identity},
		}
	}

	// Rule 5: strip synthetic roles; a session with nothing left grants
	// nothing and is reported as unauthenticated.
	roles := filterSynthetic(r.app.Principal.Roles)
	if len(roles) == 0 {
		return Outcome{State: AuthState{Phase: PhaseUnauthenticated}}
	}

	perms := r.app.Principal.Permissions
	if perms == nil {
		perms = []authz.Permission{}
	}

	return Outcome{State: AuthState{
		Phase:       PhaseReady,
		Roles:       roles,
		Permissions: perms,
		IsAdmin:     isAdmin(roles),
	}}
}

func filterSynthetic(roles []authz.Role) []authz.Role {
	out := make([]authz.Role, 0, len(roles))
	for _, role := range roles {
		if role == RoleAnonymous || role == RoleAuthenticated {
			continue
		}
		out = append(out, role)
	}
	return out
}

func isAdmin(roles []authz.Role) bool {
	for _, role := range roles {
		if role == RoleAdmin || role == RoleSuperadmin {
			return true
		}
	}
	return false
}
