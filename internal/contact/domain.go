package contact

import (
	"strings"
)

// NormalizeDomain lowercases d and strips any scheme, "www." prefix, port,
// path and trailing dot. "https://www.Club.com/staff" becomes "club.com".
func NormalizeDomain(d string) string {
	d = strings.ToLower(strings.TrimSpace(d))
	if i := strings.Index(d, "://"); i >= 0 {
		d = d[i+3:]
	}
	if i := strings.IndexAny(d, "/?#"); i >= 0 {
		d = d[:i]
	}
	if i := strings.LastIndex(d, "@"); i >= 0 {
		d = d[i+1:]
	}
	if i := strings.Index(d, ":"); i >= 0 {
		d = d[:i]
	}
	d = strings.TrimSuffix(d, ".")
	return strings.TrimPrefix(d, "www.")
}

// EmailDomain returns the normalized domain of email, or "" when email has
// no domain part.
func EmailDomain(email string) string {
	email = strings.TrimSpace(email)
	i := strings.LastIndex(email, "@")
	if i < 0 || i == len(email)-1 {
		return ""
	}
	return NormalizeDomain(email[i+1:])
}

// DomainMatches reports whether emailDomain belongs to courseDomain: equal,
// a subdomain, a parent domain, or sharing the last two labels.
func DomainMatches(emailDomain, courseDomain string) bool {
	a, b := NormalizeDomain(emailDomain), NormalizeDomain(courseDomain)
	if a == "" || b == "" {
		return false
	}
	if a == b || strings.HasSuffix(a, "."+b) || strings.HasSuffix(b, "."+a) {
		return true
	}
	ra, rb := registered(a), registered(b)
	return ra != "" && ra == rb
}

// registered returns the last two labels of d.
func registered(d string) string {
	labels := strings.Split(d, ".")
	if len(labels) < 2 {
		return ""
	}
	return strings.Join(labels[len(labels)-2:], ".")
}
