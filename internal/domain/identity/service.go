package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jssolutionshub/welltrack/internal/platform/auth"
	"github.com/jssolutionshub/welltrack/internal/platform/notification"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrBootstrapClosed    = errors.New("registration is closed")
)

const minPasswordLen = 6

type Service struct {
	users    Repository
	tokens   *auth.TokenIssuer
	notifier *notification.Manager
}

func NewService(users Repository, tokens *auth.TokenIssuer, notifier *notification.Manager) *Service {
	return &Service{users: users, tokens: tokens, notifier: notifier}
}

// Login verifies credentials and returns the user with a signed session token.
func (s *Service) Login(ctx context.Context, email, password string) (*User, string, error) {
	if email == "" || password == "" {
		return nil, "", fmt.Errorf("email and password are required")
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if !u.Active {
		return nil, "", ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(u.ID.String(), u.Email, u.Role)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}
	return u, token, nil
}

// BootstrapRegister creates the first administrator account. Once any admin
// exists the endpoint is closed; all further accounts come from admin CRUD.
func (s *Service) BootstrapRegister(ctx context.Context, name, email, password string) (*User, string, error) {
	admins, err := s.users.CountByRole(ctx, auth.RoleAdmin)
	if err != nil {
		return nil, "", err
	}
	if admins > 0 {
		return nil, "", ErrBootstrapClosed
	}

	u := &User{
		Name:   name,
		Email:  email,
		Role:   auth.RoleAdmin,
		Active: true,
	}
	if err := s.create(ctx, u, password); err != nil {
		return nil, "", err
	}

	token, err := s.tokens.Issue(u.ID.String(), u.Email, u.Role)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}
	return u, token, nil
}

// CreateUser registers a new account on behalf of an administrator. A welcome
// email is sent best-effort.
func (s *Service) CreateUser(ctx context.Context, u *User, password string) error {
	if !auth.ValidRole(u.Role) {
		return fmt.Errorf("invalid role: %s", u.Role)
	}
	u.Active = true
	if err := s.create(ctx, u, password); err != nil {
		return err
	}

	s.notifier.Notify(ctx, notification.TemplateAccountCreated, map[string]string{
		"name": u.Name,
		"role": u.Role,
	}, u.Email)
	return nil
}

func (s *Service) create(ctx context.Context, u *User, password string) error {
	if u.Name == "" {
		return fmt.Errorf("name is required")
	}
	if !strings.Contains(u.Email, "@") {
		return fmt.Errorf("valid email is required")
	}
	if len(password) < minPasswordLen {
		return fmt.Errorf("password must be at least %d characters", minPasswordLen)
	}

	if existing, err := s.users.GetByEmail(ctx, u.Email); err == nil && existing != nil {
		return ErrEmailTaken
	} else if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	u.PasswordHash = string(hash)
	u.Email = strings.ToLower(u.Email)

	return s.users.Create(ctx, u)
}

func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.users.GetByID(ctx, id)
}

// UpdateProfile lets a signed-in user change their own contact details and,
// optionally, their password. Role and active flag are not touchable here.
func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, name string, phone, department *string, newPassword string) (*User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if name != "" {
		u.Name = name
	}
	if phone != nil {
		u.Phone = phone
	}
	if department != nil {
		u.Department = department
	}
	if newPassword != "" {
		if len(newPassword) < minPasswordLen {
			return nil, fmt.Errorf("password must be at least %d characters", minPasswordLen)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		u.PasswordHash = string(hash)
	}

	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// UserUpdate carries admin edits to an account. Nil fields keep the stored
// value, so an edit that only renames someone cannot flip their active flag
// or blank their contact details.
type UserUpdate struct {
	Name           string
	Email          string
	Role           string
	Active         *bool
	BadgeNumber    *string
	Department     *string
	Specialization *string
	Phone          *string
}

// UpdateUser applies admin edits to an account.
func (s *Service) UpdateUser(ctx context.Context, id uuid.UUID, upd UserUpdate) (*User, error) {
	if upd.Role != "" && !auth.ValidRole(upd.Role) {
		return nil, fmt.Errorf("invalid role: %s", upd.Role)
	}

	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if upd.Name != "" {
		u.Name = upd.Name
	}
	if upd.Email != "" {
		if !strings.Contains(upd.Email, "@") {
			return nil, fmt.Errorf("valid email is required")
		}
		u.Email = strings.ToLower(upd.Email)
	}
	if upd.Role != "" {
		u.Role = upd.Role
	}
	if upd.Active != nil {
		u.Active = *upd.Active
	}
	if upd.BadgeNumber != nil {
		u.BadgeNumber = upd.BadgeNumber
	}
	if upd.Department != nil {
		u.Department = upd.Department
	}
	if upd.Specialization != nil {
		u.Specialization = upd.Specialization
	}
	if upd.Phone != nil {
		u.Phone = upd.Phone
	}

	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) DeleteUser(ctx context.Context, id uuid.UUID) error {
	return s.users.Delete(ctx, id)
}

func (s *Service) ListUsers(ctx context.Context, role string, limit, offset int) ([]*User, int, error) {
	if role != "" && !auth.ValidRole(role) {
		return nil, 0, fmt.Errorf("invalid role: %s", role)
	}
	return s.users.List(ctx, role, limit, offset)
}

// ListCounselors returns the counselor directory shown to officers when
// booking a session.
func (s *Service) ListCounselors(ctx context.Context, limit, offset int) ([]*User, int, error) {
	return s.users.List(ctx, auth.RoleCounselor, limit, offset)
}
