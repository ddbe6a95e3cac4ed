package authz

import "strings"

// HasPermission decides whether a held permission set satisfies a required
// permission set.
//
// Rules, in order:
//   - nil held or nil required → false (an unloaded set never grants)
//   - empty required → true (no requirement means no restriction)
//   - otherwise → true iff ANY held permission satisfies ANY required
//     permission, by exact equality or wildcard match.
//
// The search is OR-across-required and OR-across-held. Callers that want
// AND-across-required must invoke HasPermission once per requirement and
// combine the results themselves; this function's contract is OR.
//
// Complexity is O(|held| × |required|) matcher evaluations. The compiled
// matcher cache in Compile amortizes the regexp cost across calls.
func HasPermission(held []Permission, required []Permission) bool {
	if held == nil || required == nil {
		return false
	}
	if len(required) == 0 {
		return true
	}
	for _, r := range required {
		if strings.Contains(string(r), "*") {
			m := Compile(r)
			for _, h := range held {
				if m.Matches(h) {
					return true
				}
			}
			continue
		}
		for _, h := range held {
			if h == r {
				return true
			}
		}
	}
	return false
}

// HasRole decides whether a held role set satisfies a required role set.
// Same nil/vacuous rules as HasPermission; matching is always exact, roles
// have no wildcard form. Any required role present among the held roles
// suffices.
func HasRole(held []Role, required []Role) bool {
	if held == nil || required == nil {
		return false
	}
	if len(required) == 0 {
		return true
	}
	for _, r := range required {
		for _, h := range held {
			if h == r {
				return true
			}
		}
	}
	return false
}

// Allow composes the role and permission evaluators into a single access
// decision.
//
// Roles act as a gate: if requiredRoles is non-empty, HasRole must pass or
// the decision is false regardless of permissions. If requiredPermissions
// is non-empty, HasPermission must also pass. Both requirement lists empty
// means unrestricted → true.
//
// This is AND between the two categories and OR within each: roles
// restrict broad access tiers, permissions grant fine-grained capability
// inside a tier.
func Allow(heldRoles []Role, heldPermissions []Permission, requiredPermissions []Permission, requiredRoles []Role) bool {
	if len(requiredRoles) > 0 && !HasRole(heldRoles, requiredRoles) {
		return false
	}
	if len(requiredPermissions) > 0 && !HasPermission(heldPermissions, requiredPermissions) {
		return false
	}
	return true
}
