package types

import "github.com/golang-jwt/jwt/v4"

type Claims struct {
	Email string `json:"email"`
	Role  Role   `json:"role"`
	jwt.RegisteredClaims
}
