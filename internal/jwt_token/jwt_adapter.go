package jwttoken

import (
	"time"

	authmw "relief/pkg/platform/middleware/auth"
)

// ToMiddlewareClaims projects token claims onto what the auth middleware
// consumes.
func ToMiddlewareClaims(claims *Claims) *authmw.Claims {
	return &authmw.Claims{
		UserID:           claims.UserID,
		Admin:            claims.Admin,
		AccountCreatedAt: time.Unix(claims.AccountCreatedAt, 0),
	}
}

// JWTServiceAdapter adapts JWTService to the middleware's Validator.
type JWTServiceAdapter struct {
	service *JWTService
}

func NewJWTServiceAdapter(service *JWTService) *JWTServiceAdapter {
	return &JWTServiceAdapter{service: service}
}

func (a *JWTServiceAdapter) ValidateToken(tokenString string) (*authmw.Claims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return ToMiddlewareClaims(claims), nil
}
