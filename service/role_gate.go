// service/role_gate.go
package service

import (
	"sort"
	"strings"

	echo_errors "github.com/dev-mohitbeniwal/dataeng/api/errors"
	"github.com/dev-mohitbeniwal/dataeng/api/model"
)

// RoleSet is an immutable set of roles allowed through a gate.
type RoleSet struct {
	roles map[model.Role]struct{}
}

func NewRoleSet(roles ...model.Role) RoleSet {
	set := RoleSet{roles: make(map[model.Role]struct{}, len(roles))}
	for _, r := range roles {
		set.roles[r] = struct{}{}
	}
	return set
}

var (
	AdminOnly           = NewRoleSet(model.RoleAdmin)
	AdminOrDataEngineer = NewRoleSet(model.RoleAdmin, model.RoleDataEngineer)
)

func (s RoleSet) Contains(role model.Role) bool {
	_, ok := s.roles[role]
	return ok
}

func (s RoleSet) String() string {
	names := make([]string, 0, len(s.roles))
	for r := range s.roles {
		names = append(names, string(r))
	}
	sort.Strings(names)
	return strings.Join(names, ",")
}

// Require passes principal through unchanged when its role is allowed.
func Require(principal *model.Principal, allowed RoleSet) (*model.Principal, error) {
	if principal == nil || !allowed.Contains(principal.Role) {
		return nil, echo_errors.Forbidden(ReasonInsufficientRole, echo_errors.ErrRoleDenied)
	}
	return principal, nil
}
