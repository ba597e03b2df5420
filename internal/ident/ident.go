// Package ident derives site identifiers, database names and domains from
// branch names. All functions are pure.
package ident

import "strings"

// Resolve maps a branch name to a site identifier that is safe to use as a
// directory name and as a domain label. Every character outside
// [A-Za-z0-9_] is replaced with a hyphen, so "feature/login-fix" becomes
// "feature-login-fix". The mapping is total and deterministic; two branches
// may collide on the same identifier, in which case the first-created site
// owns the directory.
func Resolve(branch string) string {
	var b strings.Builder
	b.Grow(len(branch))
	for _, r := range branch {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	return b.String()
}

// DatabaseName builds the MySQL database name for a site: the configured
// prefix followed by the site identifier with hyphens folded to underscores.
// The result contains no path separators or other characters MySQL rejects
// in an unquoted identifier.
func DatabaseName(prefix, siteID string) string {
	return prefix + strings.ReplaceAll(siteID, "-", "_")
}

// Domains returns one fully-qualified domain per base domain, each of the
// form "<siteID>.<base>". Order follows the base domain configuration.
func Domains(siteID string, baseDomains []string) []string {
	domains := make([]string, 0, len(baseDomains))
	for _, base := range baseDomains {
		domains = append(domains, siteID+"."+base)
	}
	return domains
}
