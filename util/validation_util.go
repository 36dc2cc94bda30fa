// util/validation_util.go

package util

import (
	"fmt"
	"strings"

	"github.com/dev-mohitbeniwal/dataeng/api/model"
)

type ValidationUtil struct{}

func NewValidationUtil() *ValidationUtil {
	return &ValidationUtil{}
}

// ValidateCreatePrincipal checks the rules binding tags cannot express.
func (v *ValidationUtil) ValidateCreatePrincipal(req model.CreatePrincipalRequest) error {
	if strings.TrimSpace(req.Name) != req.Name || req.Name == "" {
		return fmt.Errorf("username cannot be empty or padded with whitespace")
	}
	if strings.ContainsAny(req.Name, "*?[]\\") {
		return fmt.Errorf("username contains reserved characters")
	}
	if req.Role != "" && !req.Role.Valid() {
		return fmt.Errorf("unknown role %q, expected one of %s", req.Role, roleNames())
	}
	if len(req.Password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}
	return nil
}

// ValidatePrincipal checks a record before it is written to the store.
func (v *ValidationUtil) ValidatePrincipal(principal model.Principal) error {
	if principal.Name == "" {
		return fmt.Errorf("principal name cannot be empty")
	}
	if principal.Email == "" {
		return fmt.Errorf("principal email cannot be empty")
	}
	if principal.CredentialHash == "" {
		return fmt.Errorf("principal credential hash cannot be empty")
	}
	if !principal.Role.Valid() {
		return fmt.Errorf("principal role %q is not one of %s", principal.Role, roleNames())
	}
	return nil
}

func roleNames() string {
	roles := model.Roles()
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return strings.Join(names, ", ")
}
