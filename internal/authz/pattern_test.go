package authz

import "testing"

// TestCompile_WildcardSubstringSemantics verifies that "*" matches any
// run of characters, including dots and the empty string.
func TestCompile_WildcardSubstringSemantics(t *testing.T) {
	cases := []struct {
		pattern   Permission
		candidate Permission
		want      bool
	}{
		{"Identity.User.*", "Identity.User.Read", true},
		{"Identity.User.*", "Identity.User.ReadWrite.All", true},
		{"Identity.User.*", "Identity.Group.Read", false},
		{"*.Admin.*", "CIPP.Admin.Settings", true},
		{"*.Admin.*", "CIPP.Core.Settings", false},
		// Zero-width wildcard: "*" may match nothing at all.
		{"Exchange.*.Read", "Exchange.Read", true},
		{"Exchange.*.Read", "Exchange.Mailbox.SubFolder.Read", true},
		{"Exchange.*.Read", "Exchange.Mailbox.Write", false},
		// Anchoring: no partial matches.
		{"Identity.User", "Identity.User.Read", false},
		{"User.Read", "Identity.User.Read", false},
		// Literal dots must not behave as regex wildcards.
		{"Identity.User.Read", "IdentityXUserXRead", false},
	}

	for _, tc := range cases {
		m := Compile(tc.pattern)
		if got := m.Matches(tc.candidate); got != tc.want {
			t.Errorf("Compile(%q).Matches(%q) = %v, want %v", tc.pattern, tc.candidate, got, tc.want)
		}
	}
}

// TestCompile_ExactFastPath verifies patterns without wildcards use plain
// equality.
func TestCompile_ExactFastPath(t *testing.T) {
	m := Compile("Identity.User.Read")

	if _, ok := m.(exactMatcher); !ok {
		t.Fatalf("expected exactMatcher for wildcard-free pattern, got %T", m)
	}
	if !m.Matches("Identity.User.Read") {
		t.Error("exact matcher rejected identical candidate")
	}
	if m.Matches("Identity.User.ReadWrite") {
		t.Error("exact matcher accepted different candidate")
	}
}

// TestCompile_CachesByPattern verifies compiled matchers are memoized.
func TestCompile_CachesByPattern(t *testing.T) {
	first := Compile("Tenant.*.Admin")
	second := Compile("Tenant.*.Admin")

	if first != second {
		t.Error("expected the same cached matcher instance for repeated pattern")
	}
}
