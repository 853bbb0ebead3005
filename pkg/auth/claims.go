package auth

import (
	"github.com/calebmoran/printworks-backend/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID     uuid.UUID
	CustomerID *uuid.UUID
	Role       enums.MemberRole
	JTI        string
}

// AccessTokenClaims represents the typed JWT issued to clients. Staff and
// admin tokens carry no customer id.
type AccessTokenClaims struct {
	UserID     uuid.UUID        `json:"user_id"`
	CustomerID *uuid.UUID       `json:"customer_id,omitempty"`
	Role       enums.MemberRole `json:"role"`
	jwt.RegisteredClaims
}
