package auth

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgAuth "github.com/calebmoran/printworks-backend/pkg/auth"
	"github.com/calebmoran/printworks-backend/pkg/config"
	"github.com/calebmoran/printworks-backend/pkg/db/models"
	"github.com/calebmoran/printworks-backend/pkg/enums"
	pkgerrors "github.com/calebmoran/printworks-backend/pkg/errors"
	"github.com/calebmoran/printworks-backend/pkg/security"
)

type fakeUserRepo struct {
	users     map[string]*models.User
	lastLogin map[uuid.UUID]time.Time
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	repo := &fakeUserRepo{
		users:     map[string]*models.User{},
		lastLogin: map[uuid.UUID]time.Time{},
	}
	for _, u := range users {
		repo.users[u.Email] = u
	}
	return repo
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if u, ok := f.users[email]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	f.lastLogin[id] = at
	return nil
}

type fakeCustomerRepo struct {
	byUserID map[uuid.UUID]*models.Customer
}

func (f *fakeCustomerRepo) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Customer, error) {
	if c, ok := f.byUserID[userID]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type fakeSessionManager struct {
	generated []string
	err       error
}

func (f *fakeSessionManager) Generate(ctx context.Context, accessID string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.generated = append(f.generated, accessID)
	return "refresh-" + accessID, nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "secret",
		Issuer:            "printworks",
		ExpirationMinutes: 30,
	}
}

func mustHashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := security.HashPassword(password, config.PasswordConfig{})
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return hash
}

func testUser(t *testing.T, email, password string, role enums.MemberRole) *models.User {
	t.Helper()
	return &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: mustHashPassword(t, password),
		FirstName:    "Test",
		LastName:     "User",
		Role:         role,
		IsActive:     true,
	}
}

func buildTestService(t *testing.T, userRepo *fakeUserRepo, customerRepo *fakeCustomerRepo) (Service, *fakeSessionManager) {
	t.Helper()
	if customerRepo == nil {
		customerRepo = &fakeCustomerRepo{byUserID: map[uuid.UUID]*models.Customer{}}
	}
	sessions := &fakeSessionManager{}
	svc, err := NewService(ServiceParams{
		UserRepo:       userRepo,
		CustomerRepo:   customerRepo,
		SessionManager: sessions,
		JWTConfig:      testJWTConfig(),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, sessions
}

func TestServiceLoginCustomerCarriesCustomerClaim(t *testing.T) {
	password := "customer-secret"
	user := testUser(t, "buyer@example.com", password, enums.MemberRoleCustomer)
	customer := &models.Customer{ID: uuid.New(), Email: user.Email}
	customerRepo := &fakeCustomerRepo{byUserID: map[uuid.UUID]*models.Customer{user.ID: customer}}
	userRepo := newFakeUserRepo(user)

	svc, sessions := buildTestService(t, userRepo, customerRepo)

	resp, err := svc.Login(context.Background(), LoginRequest{Email: "Buyer@Example.com", Password: password})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	claims, err := pkgAuth.ParseAccessToken(testJWTConfig(), resp.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.Role != enums.MemberRoleCustomer {
		t.Fatalf("expected customer role claim, got %s", claims.Role)
	}
	if claims.CustomerID == nil || *claims.CustomerID != customer.ID {
		t.Fatalf("expected customer id claim %s, got %v", customer.ID, claims.CustomerID)
	}
	if resp.CustomerID == nil || *resp.CustomerID != customer.ID {
		t.Fatalf("expected customer id in response")
	}
	if resp.RefreshToken == "" || len(sessions.generated) != 1 {
		t.Fatalf("expected one refresh session, got %d", len(sessions.generated))
	}
	if _, ok := userRepo.lastLogin[user.ID]; !ok {
		t.Fatalf("expected last login to be recorded")
	}
}

func TestServiceLoginCustomerWithoutAccount(t *testing.T) {
	password := "orphan-secret"
	user := testUser(t, "orphan@example.com", password, enums.MemberRoleCustomer)
	svc, _ := buildTestService(t, newFakeUserRepo(user), nil)

	resp, err := svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: password})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.CustomerID != nil {
		t.Fatalf("expected nil customer id, got %v", resp.CustomerID)
	}
}

func TestServiceLoginRejectsBadPassword(t *testing.T) {
	user := testUser(t, "buyer@example.com", "right-password", enums.MemberRoleCustomer)
	svc, _ := buildTestService(t, newFakeUserRepo(user), nil)

	_, err := svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: "wrong-password"})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestServiceLoginRejectsInactiveUser(t *testing.T) {
	password := "inactive-secret"
	user := testUser(t, "inactive@example.com", password, enums.MemberRoleCustomer)
	user.IsActive = false
	svc, _ := buildTestService(t, newFakeUserRepo(user), nil)

	_, err := svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: password})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestServiceAdminLoginStaffHasNoCustomerClaim(t *testing.T) {
	password := "staff-secret"
	user := testUser(t, "staff@example.com", password, enums.MemberRoleStaff)
	svc, _ := buildTestService(t, newFakeUserRepo(user), nil)

	resp, err := svc.AdminLogin(context.Background(), LoginRequest{Email: user.Email, Password: password})
	if err != nil {
		t.Fatalf("admin login: %v", err)
	}

	claims, err := pkgAuth.ParseAccessToken(testJWTConfig(), resp.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.Role != enums.MemberRoleStaff {
		t.Fatalf("expected staff role claim, got %s", claims.Role)
	}
	if claims.CustomerID != nil {
		t.Fatalf("expected no customer id claim for staff")
	}
}

func TestServiceAdminLoginRejectsCustomerRole(t *testing.T) {
	password := "customer-secret"
	user := testUser(t, "buyer@example.com", password, enums.MemberRoleCustomer)
	svc, _ := buildTestService(t, newFakeUserRepo(user), nil)

	_, err := svc.AdminLogin(context.Background(), LoginRequest{Email: user.Email, Password: password})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestServiceLoginSessionFailureSurfaces(t *testing.T) {
	password := "session-secret"
	user := testUser(t, "buyer@example.com", password, enums.MemberRoleCustomer)
	customerRepo := &fakeCustomerRepo{byUserID: map[uuid.UUID]*models.Customer{}}
	sessions := &fakeSessionManager{err: fmt.Errorf("redis down")}
	svc, err := NewService(ServiceParams{
		UserRepo:       newFakeUserRepo(user),
		CustomerRepo:   customerRepo,
		SessionManager: sessions,
		JWTConfig:      testJWTConfig(),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, err = svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: password})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeInternal {
		t.Fatalf("expected internal error, got %v", err)
	}
}
