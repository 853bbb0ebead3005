package auth

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/calebmoran/printworks-backend/internal/customers"
	"github.com/calebmoran/printworks-backend/internal/users"
	"github.com/calebmoran/printworks-backend/pkg/config"
	"github.com/calebmoran/printworks-backend/pkg/db/models"
	"github.com/calebmoran/printworks-backend/pkg/enums"
	pkgerrors "github.com/calebmoran/printworks-backend/pkg/errors"
	"github.com/calebmoran/printworks-backend/pkg/security"
)

// RegisterService handles the customer onboarding transaction.
type RegisterService interface {
	Register(ctx context.Context, req RegisterRequest) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type registerUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
}

type registerCustomerRepository interface {
	Create(ctx context.Context, customer *models.Customer) (*models.Customer, error)
}

// RegisterServiceParams packages the dependencies for the registration flow.
// The repo factories default to the real repositories bound to the
// transaction when left nil.
type RegisterServiceParams struct {
	TxRunner            txRunner
	UserRepoFactory     func(tx *gorm.DB) registerUserRepository
	CustomerRepoFactory func(tx *gorm.DB) registerCustomerRepository
	PasswordConfig      config.PasswordConfig
}

type registerService struct {
	tx           txRunner
	userRepo     func(tx *gorm.DB) registerUserRepository
	customerRepo func(tx *gorm.DB) registerCustomerRepository
	passwordCfg  config.PasswordConfig
}

// NewRegisterService builds a registration service with the provided dependencies.
func NewRegisterService(params RegisterServiceParams) (RegisterService, error) {
	if params.TxRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	if params.UserRepoFactory == nil {
		params.UserRepoFactory = func(tx *gorm.DB) registerUserRepository {
			return users.NewRepository(tx)
		}
	}
	if params.CustomerRepoFactory == nil {
		params.CustomerRepoFactory = func(tx *gorm.DB) registerCustomerRepository {
			return customers.NewRepository(tx)
		}
	}
	return &registerService{
		tx:           params.TxRunner,
		userRepo:     params.UserRepoFactory,
		customerRepo: params.CustomerRepoFactory,
		passwordCfg:  params.PasswordConfig,
	}, nil
}

// Register creates the user identity and its customer account atomically.
// New accounts always start on the retail tier.
func (s *registerService) Register(ctx context.Context, req RegisterRequest) error {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if !req.AcceptTOS {
		return pkgerrors.New(pkgerrors.CodeValidation, "accept_tos must be true")
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		userRepo := s.userRepo(tx)
		customerRepo := s.customerRepo(tx)

		if _, err := userRepo.FindByEmail(ctx, email); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user email")
		}

		user, err := userRepo.Create(ctx, users.CreateUserDTO{
			Email:        email,
			PasswordHash: passwordHash,
			FirstName:    strings.TrimSpace(req.FirstName),
			LastName:     strings.TrimSpace(req.LastName),
			Phone:        req.Phone,
			Role:         enums.MemberRoleCustomer,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
		}

		userID := user.ID
		if _, err := customerRepo.Create(ctx, &models.Customer{
			UserID:          &userID,
			CompanyName:     req.CompanyName,
			ContactName:     strings.TrimSpace(req.FirstName + " " + req.LastName),
			Email:           email,
			Phone:           req.Phone,
			Tier:            enums.CustomerTierRetail,
			ShippingAddress: req.Address,
			IsActive:        true,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create customer account")
		}
		return nil
	})
}
