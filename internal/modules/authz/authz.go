package authz

import (
	"learnport.com/app/internal/modules/identity"
	"learnport.com/app/internal/shared/apperr"
)

type Action string

const (
	PurchaseRead   Action = "purchase.read"
	PurchaseManage Action = "purchase.manage"
)

// rolePermissions lists the actions each role may perform unconditionally.
// Ownership-scoped access (a student reading their own purchase) is handled
// by policy checks, not by the role table.
var rolePermissions = map[string][]Action{
	identity.RoleAdmin: {PurchaseRead, PurchaseManage},
}

// Subject carries the ownership attributes a policy check may consult.
type Subject struct {
	OwnerUserID string
}

// IsAllowed reports whether the user may perform action on subject.
func IsAllowed(u identity.User, action Action, subject Subject) bool {
	for _, a := range rolePermissions[u.Role] {
		if a == action {
			return true
		}
	}
	if check, ok := policies[action]; ok {
		return check(u, subject) == nil
	}
	return false
}

// PolicyCheck is a plain predicate; it replaces subclassed policy handlers
// with registered functions keyed by action.
type PolicyCheck func(u identity.User, subject Subject) error

var policies = map[Action]PolicyCheck{}

func RegisterPolicy(action Action, check PolicyCheck) {
	policies[action] = check
}

func init() {
	RegisterPolicy(PurchaseRead, func(u identity.User, s Subject) error {
		if s.OwnerUserID != "" && s.OwnerUserID == u.ID {
			return nil
		}
		return apperr.ForbiddenErr("not the owner of this purchase")
	})
}
