package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lsmith090/CIPP-sub000/internal/authz"
)

var (
	checkHeldPermissions []string
	checkHeldRoles       []string
	checkPermissions     []string
	checkRoles           []string
)

// checkCmd evaluates an access decision offline, which is handy for
// debugging menu definitions and permission assignments without a running
// gateway. Exit code 0 means allow, 1 means deny.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Evaluate an access decision offline",
	Example: `  portalgate check \
    --held-role admin --held-permission 'CIPP.Core.*' \
    --role admin --permission CIPP.Core.Read`,
	Run: func(cmd *cobra.Command, args []string) {
		heldPerms := toPermissions(checkHeldPermissions)
		requiredPerms := toPermissions(checkPermissions)
		heldRoles := toRoles(checkHeldRoles)
		requiredRoles := toRoles(checkRoles)

		if authz.Allow(heldRoles, heldPerms, requiredPerms, requiredRoles) {
			fmt.Println("ALLOW")
			return
		}
		fmt.Println("DENY")
		os.Exit(1)
	},
}

func toPermissions(raw []string) []authz.Permission {
	out := make([]authz.Permission, 0, len(raw))
	for _, r := range raw {
		out = append(out, authz.Permission(r))
	}
	return out
}

func toRoles(raw []string) []authz.Role {
	out := make([]authz.Role, 0, len(raw))
	for _, r := range raw {
		out = append(out, authz.Role(r))
	}
	return out
}

func init() {
	checkCmd.Flags().StringArrayVar(&checkHeldPermissions, "held-permission", nil, "Permission held by the principal (repeatable)")
	checkCmd.Flags().StringArrayVar(&checkHeldRoles, "held-role", nil, "Role held by the principal (repeatable)")
	checkCmd.Flags().StringArrayVar(&checkPermissions, "permission", nil, "Required permission, may contain wildcards (repeatable)")
	checkCmd.Flags().StringArrayVar(&checkRoles, "role", nil, "Required role (repeatable)")
	rootCmd.AddCommand(checkCmd)
}
