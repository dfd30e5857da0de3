package middleware

import "strings"

type requirementKind uint8

const (
	kindOpen requirementKind = iota
	kindAuthenticated
	kindRole
)

// Requirement is what a route group demands of a request: nothing, an
// authenticated caller, or an authenticated caller holding a specific role.
type Requirement struct {
	kind requirementKind
	role string
}

// Open requires nothing; the request passes through unauthenticated.
func Open() Requirement {
	return Requirement{kind: kindOpen}
}

// Authenticated requires a valid session but no particular role.
func Authenticated() Requirement {
	return Requirement{kind: kindAuthenticated}
}

// Role requires a valid session whose role snapshot contains name.
func Role(name string) Requirement {
	return Requirement{kind: kindRole, role: name}
}

// IsOpen reports whether the requirement demands nothing.
func (r Requirement) IsOpen() bool {
	return r.kind == kindOpen
}

// RoleName returns the required role, or "" when any authenticated caller
// qualifies.
func (r Requirement) RoleName() string {
	return r.role
}

// Rule binds a URL-path prefix to a requirement.
type Rule struct {
	Prefix  string
	Require Requirement
}

// Table is the ordered authorization dispatch table. It is immutable after
// construction and independent of any transport framework.
type Table struct {
	rules []Rule
}

// NewTable builds a table from rules in the given order.
func NewTable(rules ...Rule) *Table {
	return &Table{rules: append([]Rule(nil), rules...)}
}

// Match returns the requirement of the first rule whose prefix matches path.
// Paths matching no rule pass through unauthenticated: route groups opt in
// to protection by appearing in the table, and the catch-all is deliberately
// open so that new unlisted endpoints fail safe for availability, not
// confidentiality. List a "/" rule last to invert that policy.
func (t *Table) Match(path string) Requirement {
	for _, rule := range t.rules {
		if strings.HasPrefix(path, rule.Prefix) {
			return rule.Require
		}
	}
	return Open()
}
