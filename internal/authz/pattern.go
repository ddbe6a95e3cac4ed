package authz

import (
	"regexp"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Permission is a dot-separated capability string such as
// "Identity.User.Read". A segment may be the wildcard character "*";
// wildcards are substring-level, not segment-level (see Compile).
type Permission string

// Role is an opaque platform role token such as "admin" or "editor".
// Roles carry no hierarchy of their own; any hierarchy is expressed
// through which permissions a role assignment grants.
type Role string

// Matcher reports whether a concrete held permission satisfies a
// required-permission pattern.
type Matcher interface {
	Matches(candidate Permission) bool
}

// exactMatcher handles patterns without wildcards. No regexp engine is
// involved on this path.
type exactMatcher string

func (m exactMatcher) Matches(candidate Permission) bool {
	return string(candidate) == string(m)
}

// wildcardMatcher wraps an anchored regexp built from a wildcard pattern.
type wildcardMatcher struct {
	re *regexp.Regexp
}

func (m *wildcardMatcher) Matches(candidate Permission) bool {
	return m.re.MatchString(string(candidate))
}

// matcherCache memoizes compiled matchers by pattern string. The same
// required-permission patterns are evaluated repeatedly across many held
// permissions, so compilation cost is paid once per pattern. The cache is
// goroutine-safe; entries are only ever added, never updated.
var matcherCache *lru.Cache[string, Matcher]

const matcherCacheSize = 1024

func init() {
	cache, err := lru.New[string, Matcher](matcherCacheSize)
	if err != nil {
		// lru.New only fails on a non-positive size.
		panic(err)
	}
	matcherCache = cache
}

// Compile turns a permission pattern into a Matcher.
//
// Wildcard semantics are substring-level: every "*" in the pattern matches
// any run of characters, including the empty string and across dot
// boundaries. "Exchange.*.Read" therefore matches both
// "Exchange.Mailbox.SubFolder.Read" and "Exchange.Read". This looseness is
// inherited from the portal's permission model and must not be tightened
// to whole-segment matching.
//
// A pattern without any "*" compiles to a plain equality check.
func Compile(pattern Permission) Matcher {
	key := string(pattern)
	if m, ok := matcherCache.Get(key); ok {
		return m
	}

	var m Matcher
	if !strings.Contains(key, "*") {
		m = exactMatcher(key)
	} else {
		// Quote the literal runs so dots stay literal, then splice the
		// wildcards back in as ".*". Anchoring prevents partial matches.
		parts := strings.Split(key, "*")
		for i, p := range parts {
			parts[i] = regexp.QuoteMeta(p)
		}
		expr := "^" + strings.Join(parts, ".*") + "$"
		m = &wildcardMatcher{re: regexp.MustCompile(expr)}
	}

	matcherCache.Add(key, m)
	return m
}
