package guard

import "strings"

// Roles known to the platform.
const (
	RoleDonor = "DONOR"
	RoleAdmin = "ADMIN"
)

// routeRule binds a route pattern to its access requirement. Pattern
// segments starting with ':' match any single path segment.
type routeRule struct {
	pattern      string
	requiredRole string // "" means any authenticated user
}

// routeTable mirrors the application's navigation map. Routes not listed
// here are public.
var routeTable = []routeRule{
	{pattern: "/donor/dashboard", requiredRole: RoleDonor},
	{pattern: "/book-appointment", requiredRole: RoleDonor},
	{pattern: "/appointments", requiredRole: RoleDonor},
	{pattern: "/chatwithcenter", requiredRole: RoleDonor},
	{pattern: "/feedback/:appointmentId", requiredRole: RoleDonor},
	{pattern: "/admin/dashboard", requiredRole: RoleAdmin},
	{pattern: "/manage-appointments", requiredRole: RoleAdmin},
	{pattern: "/adminchat", requiredRole: RoleAdmin},
	{pattern: "/profile", requiredRole: ""},
	{pattern: "/eligibility", requiredRole: ""},
}

// RouteRequirement returns the role a path demands and whether the path
// is guarded at all.
func RouteRequirement(path string) (requiredRole string, guarded bool) {
	for _, rule := range routeTable {
		if matchPattern(rule.pattern, path) {
			return rule.requiredRole, true
		}
	}
	return "", false
}

// matchPattern compares a path against a pattern segment by segment.
func matchPattern(pattern, path string) bool {
	p := strings.Split(strings.Trim(pattern, "/"), "/")
	s := strings.Split(strings.Trim(path, "/"), "/")
	if len(p) != len(s) {
		return false
	}
	for i := range p {
		if strings.HasPrefix(p[i], ":") {
			if s[i] == "" {
				return false
			}
			continue
		}
		if p[i] != s[i] {
			return false
		}
	}
	return true
}
