package model

import "time"

// Role is the closed set of roles a principal can hold.
type Role string

const (
	RoleAdmin        Role = "admin"
	RoleDataEngineer Role = "data_engineer"
	RoleUser         Role = "user"
)

// Roles lists every known role.
func Roles() []Role {
	return []Role{RoleAdmin, RoleDataEngineer, RoleUser}
}

// ParseRole returns the Role named by s; unknown names are rejected.
func ParseRole(s string) (Role, bool) {
	switch r := Role(s); r {
	case RoleAdmin, RoleDataEngineer, RoleUser:
		return r, true
	default:
		return "", false
	}
}

func (r Role) Valid() bool {
	_, ok := ParseRole(string(r))
	return ok
}

// Principal is the durable identity record. The json shape is also the
// cache value format.
type Principal struct {
	ID             int64     `json:"id" gorm:"primaryKey"`
	Name           string    `json:"name" gorm:"column:username;size:100;uniqueIndex;not null"`
	Email          string    `json:"email" gorm:"size:255;uniqueIndex;not null"`
	CredentialHash string    `json:"credential_hash" gorm:"column:hashed_password;size:255;not null"`
	Role           Role      `json:"role" gorm:"size:50;not null"`
	Active         bool      `json:"active" gorm:"column:is_active;not null"`
	CreatedAt      time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (Principal) TableName() string {
	return "users"
}

// PrincipalResponse is the public view of a principal.
type PrincipalResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"username"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	Active    bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func (p *Principal) Response() PrincipalResponse {
	return PrincipalResponse{
		ID:        p.ID,
		Name:      p.Name,
		Email:     p.Email,
		Role:      p.Role,
		Active:    p.Active,
		CreatedAt: p.CreatedAt,
	}
}

type CreatePrincipalRequest struct {
	Name     string `json:"username" binding:"required,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Role     Role   `json:"role"`
}

type BulkCreatePrincipalsRequest struct {
	Principals []CreatePrincipalRequest `json:"principals" binding:"required,min=1,max=100,dive"`
}

type SetActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}
