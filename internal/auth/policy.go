package auth

import (
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

// Roles.
const (
	RoleFaculty = "faculty"
	RoleSupport = "support"
	RoleMentor  = "mentor"
	RoleAdmin   = "admin"
)

// roleRoutes is the frontend landing page per role.
var roleRoutes = map[string]string{
	RoleFaculty: "/logger",
	RoleSupport: "/support",
	RoleMentor:  "/mentor",
	RoleAdmin:   "/admin",
}

// RouteFor returns the landing page for role.
func RouteFor(role string) (string, bool) {
	r, ok := roleRoutes[role]
	return r, ok
}

const policyModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && keyMatch(r.obj, p.obj) && (p.act == "*" || r.act == p.act)
`

// defaultPolicies map roles to route templates.
var defaultPolicies = [][]string{
	{RoleAdmin, "/*", "*"},

	{RoleFaculty, "/api/log-entry", "POST"},
	{RoleFaculty, "/api/reason", "POST"},
	{RoleFaculty, "/api/revoked", "GET"},
	{RoleFaculty, "/api/revoked/*", "PUT"},
	{RoleFaculty, "/api/complaints/*", "GET"},
	{RoleFaculty, "/complaints/*", "*"},
	{RoleFaculty, "/students", "GET"},
	{RoleFaculty, "/api/students", "GET"},
	{RoleFaculty, "/api/student-pdfs/*", "GET"},

	{RoleSupport, "/api/support-logs", "GET"},
	{RoleSupport, "/api/support/send", "POST"},
	{RoleSupport, "/uploads/*", "GET"},
	{RoleSupport, "/uploads/*", "HEAD"},
	{RoleSupport, "/students", "GET"},
	{RoleSupport, "/api/students", "GET"},

	{RoleMentor, "/api/mentor-queue", "GET"},
	{RoleMentor, "/api/mentor/submit", "POST"},
	{RoleMentor, "/send-to-admin", "POST"},
	{RoleMentor, "/api/meeting-details", "*"},
	{RoleMentor, "/api/update-attendance", "POST"},
	{RoleMentor, "/uploads/*", "GET"},
	{RoleMentor, "/uploads/*", "HEAD"},
	{RoleMentor, "/students", "GET"},
	{RoleMentor, "/api/students", "GET"},
	{RoleMentor, "/api/student-pdfs/*", "GET"},
}

// Policy decides which roles may call which routes.
type Policy struct {
	enforcer *casbin.Enforcer
}

// NewPolicy builds the role policy.
func NewPolicy() (*Policy, error) {
	m, err := model.NewModelFromString(policyModel)
	if err != nil {
		return nil, fmt.Errorf("policy model: %w", err)
	}
	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("policy enforcer: %w", err)
	}
	if _, err := e.AddPolicies(defaultPolicies); err != nil {
		return nil, fmt.Errorf("load policies: %w", err)
	}
	return &Policy{enforcer: e}, nil
}

// Allowed reports whether role may call method on route.
func (p *Policy) Allowed(role, route, method string) (bool, error) {
	return p.enforcer.Enforce(role, route, method)
}
