package identity

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/jssolutionshub/welltrack/internal/platform/auth"
	"github.com/jssolutionshub/welltrack/internal/platform/notification"
	"github.com/rs/zerolog"
)

// -- Mock Repository --

type mockUserRepo struct {
	users map[uuid.UUID]*User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[uuid.UUID]*User)}
}

func (m *mockUserRepo) Create(_ context.Context, u *User) error {
	u.ID = uuid.New()
	u.CreatedAt = time.Now()
	u.UpdatedAt = time.Now()
	m.users[u.ID] = u
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id uuid.UUID) (*User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return u, nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	for _, u := range m.users {
		if u.Email == strings.ToLower(email) {
			return u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockUserRepo) Update(_ context.Context, u *User) error {
	if _, ok := m.users[u.ID]; !ok {
		return ErrNotFound
	}
	m.users[u.ID] = u
	return nil
}

func (m *mockUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.users[id]; !ok {
		return ErrNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *mockUserRepo) List(_ context.Context, role string, limit, offset int) ([]*User, int, error) {
	var result []*User
	for _, u := range m.users {
		if role == "" || u.Role == role {
			result = append(result, u)
		}
	}
	return result, len(result), nil
}

func (m *mockUserRepo) CountByRole(_ context.Context, role string) (int, error) {
	count := 0
	for _, u := range m.users {
		if u.Role == role {
			count++
		}
	}
	return count, nil
}

func newTestService(repo Repository) (*Service, *notification.MockEmailSender) {
	sender := &notification.MockEmailSender{}
	notifier := notification.NewManager(sender, notification.NewTemplateEngine(), zerolog.Nop())
	tokens := auth.NewTokenIssuer("test-secret", time.Hour)
	return NewService(repo, tokens, notifier), sender
}

// -- Tests --

func TestBootstrapRegister_FirstAdmin(t *testing.T) {
	repo := newMockUserRepo()
	svc, _ := newTestService(repo)

	u, token, err := svc.BootstrapRegister(context.Background(), "Chief Admin", "admin@precinct.gov", "secret123")
	if err != nil {
		t.Fatalf("BootstrapRegister() error: %v", err)
	}
	if u.Role != auth.RoleAdmin {
		t.Errorf("role = %q, want admin", u.Role)
	}
	if token == "" {
		t.Error("expected a session token")
	}
	if u.PasswordHash == "" || u.PasswordHash == "secret123" {
		t.Error("password must be stored hashed")
	}
}

func TestBootstrapRegister_ClosedAfterFirstAdmin(t *testing.T) {
	repo := newMockUserRepo()
	svc, _ := newTestService(repo)

	if _, _, err := svc.BootstrapRegister(context.Background(), "First", "first@precinct.gov", "secret123"); err != nil {
		t.Fatalf("first registration failed: %v", err)
	}

	_, _, err := svc.BootstrapRegister(context.Background(), "Second", "second@precinct.gov", "secret123")
	if !errors.Is(err, ErrBootstrapClosed) {
		t.Errorf("expected ErrBootstrapClosed, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	repo := newMockUserRepo()
	svc, _ := newTestService(repo)

	if _, _, err := svc.BootstrapRegister(context.Background(), "Admin", "admin@precinct.gov", "secret123"); err != nil {
		t.Fatalf("setup: %v", err)
	}

	u, token, err := svc.Login(context.Background(), "admin@precinct.gov", "secret123")
	if err != nil {
		t.Fatalf("Login() error: %v", err)
	}
	if u.Email != "admin@precinct.gov" {
		t.Errorf("email = %q", u.Email)
	}
	if token == "" {
		t.Error("expected a session token")
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	repo := newMockUserRepo()
	svc, _ := newTestService(repo)

	if _, _, err := svc.BootstrapRegister(context.Background(), "Admin", "admin@precinct.gov", "secret123"); err != nil {
		t.Fatalf("setup: %v", err)
	}

	_, _, err := svc.Login(context.Background(), "admin@precinct.gov", "wrong-password")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLogin_UnknownEmail(t *testing.T) {
	svc, _ := newTestService(newMockUserRepo())
	_, _, err := svc.Login(context.Background(), "nobody@precinct.gov", "secret123")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLogin_InactiveAccount(t *testing.T) {
	repo := newMockUserRepo()
	svc, _ := newTestService(repo)

	u, _, err := svc.BootstrapRegister(context.Background(), "Admin", "admin@precinct.gov", "secret123")
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	u.Active = false

	_, _, err = svc.Login(context.Background(), "admin@precinct.gov", "secret123")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials for inactive account, got %v", err)
	}
}

func TestCreateUser(t *testing.T) {
	repo := newMockUserRepo()
	svc, sender := newTestService(repo)

	badge := "4411"
	u := &User{
		Name:        "Officer Reyes",
		Email:       "Reyes@Precinct.GOV",
		Role:        auth.RoleOfficer,
		BadgeNumber: &badge,
	}
	if err := svc.CreateUser(context.Background(), u, "secret123"); err != nil {
		t.Fatalf("CreateUser() error: %v", err)
	}

	if u.Email != "reyes@precinct.gov" {
		t.Errorf("email should be lowercased, got %q", u.Email)
	}
	if !u.Active {
		t.Error("new users should be active")
	}

	// Welcome email fires best-effort.
	calls := sender.Calls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 welcome email, got %d", len(calls))
	}
	if calls[0].To != "reyes@precinct.gov" {
		t.Errorf("welcome email sent to %q", calls[0].To)
	}
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	repo := newMockUserRepo()
	svc, _ := newTestService(repo)

	first := &User{Name: "A", Email: "dup@precinct.gov", Role: auth.RoleOfficer}
	if err := svc.CreateUser(context.Background(), first, "secret123"); err != nil {
		t.Fatalf("setup: %v", err)
	}

	second := &User{Name: "B", Email: "dup@precinct.gov", Role: auth.RoleCounselor}
	err := svc.CreateUser(context.Background(), second, "secret123")
	if !errors.Is(err, ErrEmailTaken) {
		t.Errorf("expected ErrEmailTaken, got %v", err)
	}
}

func TestCreateUser_InvalidRole(t *testing.T) {
	svc, _ := newTestService(newMockUserRepo())
	u := &User{Name: "X", Email: "x@y.z", Role: "superuser"}
	if err := svc.CreateUser(context.Background(), u, "secret123"); err == nil {
		t.Error("expected error for invalid role")
	}
}

func TestCreateUser_ShortPassword(t *testing.T) {
	svc, _ := newTestService(newMockUserRepo())
	u := &User{Name: "X", Email: "x@y.z", Role: auth.RoleOfficer}
	if err := svc.CreateUser(context.Background(), u, "abc"); err == nil {
		t.Error("expected error for short password")
	}
}

func TestCreateUser_FailedEmailDoesNotBlock(t *testing.T) {
	repo := newMockUserRepo()
	svc, sender := newTestService(repo)
	sender.ShouldFail = true
	sender.FailError = "relay down"

	u := &User{Name: "Officer Kim", Email: "kim@precinct.gov", Role: auth.RoleOfficer}
	if err := svc.CreateUser(context.Background(), u, "secret123"); err != nil {
		t.Fatalf("account creation must not fail on email errors, got: %v", err)
	}
}

func TestUpdateProfile(t *testing.T) {
	repo := newMockUserRepo()
	svc, _ := newTestService(repo)

	u := &User{Name: "Officer Reyes", Email: "reyes@precinct.gov", Role: auth.RoleOfficer}
	if err := svc.CreateUser(context.Background(), u, "secret123"); err != nil {
		t.Fatalf("setup: %v", err)
	}

	phone := "555-0101"
	updated, err := svc.UpdateProfile(context.Background(), u.ID, "Sgt. Reyes", &phone, nil, "newsecret")
	if err != nil {
		t.Fatalf("UpdateProfile() error: %v", err)
	}
	if updated.Name != "Sgt. Reyes" {
		t.Errorf("name = %q", updated.Name)
	}
	if updated.Phone == nil || *updated.Phone != "555-0101" {
		t.Error("phone not updated")
	}

	// New password works for login.
	if _, _, err := svc.Login(context.Background(), "reyes@precinct.gov", "newsecret"); err != nil {
		t.Errorf("login with new password failed: %v", err)
	}
	if _, _, err := svc.Login(context.Background(), "reyes@precinct.gov", "secret123"); err == nil {
		t.Error("old password should no longer work")
	}
}

func TestUpdateUser_PreservesPasswordHash(t *testing.T) {
	repo := newMockUserRepo()
	svc, _ := newTestService(repo)

	u := &User{Name: "Officer Reyes", Email: "reyes@precinct.gov", Role: auth.RoleOfficer}
	if err := svc.CreateUser(context.Background(), u, "secret123"); err != nil {
		t.Fatalf("setup: %v", err)
	}

	if _, err := svc.UpdateUser(context.Background(), u.ID, UserUpdate{Name: "Det. Reyes"}); err != nil {
		t.Fatalf("UpdateUser() error: %v", err)
	}

	if _, _, err := svc.Login(context.Background(), "reyes@precinct.gov", "secret123"); err != nil {
		t.Errorf("login after admin edit failed: %v", err)
	}
}

func TestUpdateUser_RenameKeepsAccountActive(t *testing.T) {
	repo := newMockUserRepo()
	svc, _ := newTestService(repo)

	badge := "4417"
	u := &User{Name: "Officer Vale", Email: "vale@precinct.gov", Role: auth.RoleOfficer, BadgeNumber: &badge}
	if err := svc.CreateUser(context.Background(), u, "secret123"); err != nil {
		t.Fatalf("setup: %v", err)
	}

	updated, err := svc.UpdateUser(context.Background(), u.ID, UserUpdate{Name: "Sgt. Vale"})
	if err != nil {
		t.Fatalf("UpdateUser() error: %v", err)
	}
	if !updated.Active {
		t.Error("rename must not deactivate the account")
	}
	if updated.BadgeNumber == nil || *updated.BadgeNumber != "4417" {
		t.Error("rename must not blank the badge number")
	}
	if _, _, err := svc.Login(context.Background(), "vale@precinct.gov", "secret123"); err != nil {
		t.Errorf("login after rename failed: %v", err)
	}
}

func TestUpdateUser_DeactivateBlocksLogin(t *testing.T) {
	repo := newMockUserRepo()
	svc, _ := newTestService(repo)

	u := &User{Name: "Officer Vale", Email: "vale@precinct.gov", Role: auth.RoleOfficer}
	if err := svc.CreateUser(context.Background(), u, "secret123"); err != nil {
		t.Fatalf("setup: %v", err)
	}

	inactive := false
	if _, err := svc.UpdateUser(context.Background(), u.ID, UserUpdate{Active: &inactive}); err != nil {
		t.Fatalf("UpdateUser() error: %v", err)
	}
	if _, _, err := svc.Login(context.Background(), "vale@precinct.gov", "secret123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("deactivated account should fail login, got: %v", err)
	}
}

func TestUpdateUser_InvalidRole(t *testing.T) {
	repo := newMockUserRepo()
	svc, _ := newTestService(repo)

	u := &User{Name: "Officer Vale", Email: "vale@precinct.gov", Role: auth.RoleOfficer}
	if err := svc.CreateUser(context.Background(), u, "secret123"); err != nil {
		t.Fatalf("setup: %v", err)
	}

	if _, err := svc.UpdateUser(context.Background(), u.ID, UserUpdate{Role: "wizard"}); err == nil {
		t.Error("expected error for invalid role")
	}
}

func TestListCounselors(t *testing.T) {
	repo := newMockUserRepo()
	svc, _ := newTestService(repo)

	spec := "trauma"
	users := []*User{
		{Name: "Dr. Okafor", Email: "okafor@precinct.gov", Role: auth.RoleCounselor, Specialization: &spec},
		{Name: "Dr. Lindqvist", Email: "lindqvist@precinct.gov", Role: auth.RoleCounselor},
		{Name: "Officer Reyes", Email: "reyes@precinct.gov", Role: auth.RoleOfficer},
	}
	for _, u := range users {
		if err := svc.CreateUser(context.Background(), u, "secret123"); err != nil {
			t.Fatalf("setup: %v", err)
		}
	}

	items, total, err := svc.ListCounselors(context.Background(), 20, 0)
	if err != nil {
		t.Fatalf("ListCounselors() error: %v", err)
	}
	if total != 2 || len(items) != 2 {
		t.Errorf("expected 2 counselors, got total=%d len=%d", total, len(items))
	}
	for _, c := range items {
		if c.Role != auth.RoleCounselor {
			t.Errorf("non-counselor in listing: %s", c.Role)
		}
	}
}

func TestListUsers_InvalidRoleFilter(t *testing.T) {
	svc, _ := newTestService(newMockUserRepo())
	if _, _, err := svc.ListUsers(context.Background(), "wizard", 20, 0); err == nil {
		t.Error("expected error for invalid role filter")
	}
}
