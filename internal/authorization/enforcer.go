package authorization

import (
	"github.com/casbin/casbin/v2"
	casbinmodel "github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"gorm.io/gorm"
)

// Subjects are roles, not users. A user maps to exactly one role
// (superuser or member) at request time; superuser short-circuits in
// the matcher so the policy table only needs member grants.
const modelText = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == "superuser" || (r.sub == p.sub && r.obj == p.obj && r.act == p.act)
`

const (
	RoleSuperuser = "superuser"
	RoleMember    = "member"
)

// memberGrants is the baseline member policy, loaded into the
// casbin_rule table on startup when absent.
var memberGrants = [][]string{
	{RoleMember, ObjectProduct, ActionRead},
	{RoleMember, ObjectOrder, ActionRead},
	{RoleMember, ObjectOrder, ActionWrite},
	{RoleMember, ObjectCredit, ActionRead},
}

// NewEnforcer builds a casbin enforcer persisted in the casbin_rule
// table and seeds the member grants.
func NewEnforcer(db *gorm.DB) (*casbin.Enforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}

	m, err := casbinmodel.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}

	enforcer, err := casbin.NewEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}

	for _, grant := range memberGrants {
		if _, err := enforcer.AddPolicy(grant[0], grant[1], grant[2]); err != nil {
			return nil, err
		}
	}
	return enforcer, nil
}
