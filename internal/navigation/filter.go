package navigation

import (
	"github.com/lsmith090/CIPP-sub000/internal/authz"
	"github.com/lsmith090/CIPP-sub000/internal/session"
)

// Filter prunes a menu tree down to the entries the given state may see.
//
// An entry is retained iff:
//   - it declares at least one requirement (entries with neither
//     requiredPermissions nor requiredRoles are fail-closed and dropped
//     unconditionally, superadmin included), and
//   - the access decision passes for the state, and
//   - it keeps at least one child after recursive filtering, OR it has no
//     children to begin with, OR it carries a direct navigable Path (leaf
//     semantics override parent pruning).
//
// A pruned parent removes its whole subtree; children are not re-parented.
// The input tree is never mutated; retained nodes are copied with fresh
// child slices.
func Filter(tree []MenuNode, state session.AuthState) []MenuNode {
	out := make([]MenuNode, 0, len(tree))
	for _, node := range tree {
		if len(node.RequiredPermissions) == 0 && len(node.RequiredRoles) == 0 {
			continue
		}
		if !authz.Allow(state.Roles, state.Permissions, node.RequiredPermissions, node.RequiredRoles) {
			continue
		}
		kept := Filter(node.Children, state)
		if len(node.Children) > 0 && len(kept) == 0 && node.Path == "" {
			continue
		}
		copied := node
		copied.Children = kept
		out = append(out, copied)
	}
	return out
}
