package model

import "time"

// Claims is the verified content of a bearer credential.
type Claims struct {
	Subject   string
	Role      Role
	ExpiresAt time.Time
}

type LoginRequest struct {
	Username string `json:"username" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}
