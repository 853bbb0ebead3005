package auth

import (
	"github.com/google/uuid"

	"github.com/calebmoran/printworks-backend/internal/users"
	"github.com/calebmoran/printworks-backend/pkg/types"
)

// LoginRequest captures the credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse contains the tokens and identity produced by a successful
// login. CustomerID is nil for staff and admin users.
type LoginResponse struct {
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	User         *users.UserDTO `json:"user"`
	CustomerID   *uuid.UUID     `json:"customer_id,omitempty"`
}

// AdminLoginResponse mirrors LoginResponse for the back-office surface.
type AdminLoginResponse struct {
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	User         *users.UserDTO `json:"user"`
}

// RegisterRequest contains the payload for onboarding a customer account.
type RegisterRequest struct {
	FirstName   string         `json:"first_name" validate:"required"`
	LastName    string         `json:"last_name" validate:"required"`
	Email       string         `json:"email" validate:"required,email"`
	Password    string         `json:"password" validate:"required,min=8"`
	Phone       *string        `json:"phone,omitempty"`
	CompanyName *string        `json:"company_name,omitempty"`
	Address     *types.Address `json:"address,omitempty"`
	AcceptTOS   bool           `json:"accept_tos"`
}
