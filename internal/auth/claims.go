package auth

import "github.com/golang-jwt/jwt/v5"

// Claims are carried by admin tokens.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
	Role     string `json:"role"`
}

// RoleAdmin is the only role this service issues.
const RoleAdmin = "admin"
