package model

import "github.com/golang-jwt/jwt/v5"

// Claims are the JWT claims carried by both teacher and student tokens.
type Claims struct {
	Role  Role   `json:"role"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// UserID is the subject of the token.
func (c *Claims) UserID() string {
	return c.Subject
}
