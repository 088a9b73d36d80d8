// Package authz decides which stored role may perform which action.
package authz

import (
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"

	"github.com/Irvanev/hvala-dvisor-sub000/entity"
)

// Objects and actions used in the policy.
const (
	ObjRestaurants = "restaurants"
	ObjReviews     = "reviews"
	ObjUsers       = "users"

	ActSubmit     = "submit"
	ActModerate   = "moderate"
	ActDelete     = "delete"
	ActDeleteAny  = "delete_any"
	ActHide       = "hide"
	ActWrite      = "write"
	ActAssignRole = "assign_role"
	ActList       = "list"
)

const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj && r.act == p.act
`

var defaultPolicy = [][]string{
	{"registered", ObjRestaurants, ActSubmit},
	{"registered", ObjReviews, ActWrite},
	{"moderator", ObjRestaurants, ActModerate},
	{"moderator", ObjReviews, ActDeleteAny},
	{"moderator", ObjReviews, ActHide},
	{"admin", ObjRestaurants, ActDelete},
	{"admin", ObjUsers, ActAssignRole},
	{"admin", ObjUsers, ActList},
}

// role inheritance: child inherits everything its parent may do
var defaultGrouping = [][]string{
	{"owner", "registered"},
	{"moderator", "registered"},
	{"admin", "moderator"},
}

type Enforcer struct {
	e *casbin.SyncedEnforcer
}

func NewEnforcer() (*Enforcer, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("load casbin model: %w", err)
	}
	e, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("create casbin enforcer: %w", err)
	}
	if _, err := e.AddPolicies(defaultPolicy); err != nil {
		return nil, fmt.Errorf("load policy: %w", err)
	}
	if _, err := e.AddGroupingPolicies(defaultGrouping); err != nil {
		return nil, fmt.Errorf("load role grouping: %w", err)
	}
	return &Enforcer{e: e}, nil
}

// Allowed reports whether role may perform act on obj. Evaluation errors deny.
func (a *Enforcer) Allowed(role entity.Role, obj, act string) bool {
	ok, err := a.e.Enforce(string(role), obj, act)
	return err == nil && ok
}
