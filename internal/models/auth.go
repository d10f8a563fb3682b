package models

import "github.com/golang-jwt/jwt/v5"

// ProviderClaims are the access-token claims issued by the identity
// service. The subject is the provider id every caseload query is scoped
// by.
type ProviderClaims struct {
	ProviderID string `json:"provider_id"`
	Email      string `json:"email"`
	FullName   string `json:"full_name"`
	jwt.RegisteredClaims
}
