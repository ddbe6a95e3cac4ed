package session

import (
	"fmt"

	"github.com/lsmith090/CIPP-sub000/internal/authz"
)

// Phase is the reconciled lifecycle state of the authentication system.
// Exactly one phase is authoritative at any time; no raw transport or HTTP
// error ever crosses the reconciler boundary.
type Phase int

const (
	// PhaseLoading: at least one source has not settled with usable data
	// yet, or a forced refetch is in flight.
	PhaseLoading Phase = iota

	// PhaseUnauthenticated: the platform reports no session, or the
	// session carries no real (non-synthetic) authorization. Remediation
	// is logging in.
	PhaseUnauthenticated

	// PhaseBackendOffline: the permission backend is missing or
	// unavailable. Remediation is NOT logging in; the two conditions must
	// never be conflated in user-visible behavior.
	PhaseBackendOffline

	// PhaseReady: both sources agree and authorization data is usable.
	PhaseReady
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseUnauthenticated:
		return "unauthenticated"
	case PhaseBackendOffline:
		return "backend_offline"
	case PhaseReady:
		return "ready"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// MarshalJSON encodes the phase as its string form for the HTTP surface.
func (p Phase) MarshalJSON() ([]byte, error) {
	return []byte(`"` + p.String() + `"`), nil
}

// AuthState is the single authoritative view consumers see. It is produced
// exclusively by the Reconciler (via the Store); everyone else receives it
// by value and must not mutate it.
//
// Invariant: Roles and Permissions are populated only when Phase is
// PhaseReady. Every reconciliation produces a fresh value; consumers never
// observe partial updates.
type AuthState struct {
	Phase       Phase
	Roles       []authz.Role
	Permissions []authz.Permission

	// IsAdmin is a convenience flag: true iff the reconciled roles
	// include "admin" or "superadmin".
	IsAdmin bool
}
