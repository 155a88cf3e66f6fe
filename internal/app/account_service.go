package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"bankprep-service/internal/auth"
	"bankprep-service/internal/domain"
)

// AccountService covers registration and login. Passwords are stored as
// bcrypt hashes only.
type AccountService struct {
	users UserRepository
	now   func() time.Time
}

func NewAccountService(users UserRepository) *AccountService {
	return &AccountService{users: users, now: time.Now}
}

// Register creates a new account with the given role.
func (s *AccountService) Register(ctx context.Context, name, email, password, role string) (domain.User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" || len(password) < 6 {
		return domain.User{}, domain.ErrInvalidCredentials
	}
	if role != domain.RoleAdmin {
		role = domain.RoleStudent
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return domain.User{}, err
	}
	user := domain.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		Role:         role,
		PasswordHash: hash,
		CreatedAt:    s.now(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// Login verifies credentials and returns the account.
func (s *AccountService) Login(ctx context.Context, email, password string) (domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.User{}, domain.ErrInvalidCredentials
		}
		return domain.User{}, err
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return domain.User{}, domain.ErrInvalidCredentials
	}
	return user, nil
}

// GetProfile returns the account with its derived stats.
func (s *AccountService) GetProfile(ctx context.Context, userID string) (domain.User, error) {
	return s.users.GetUser(ctx, userID)
}
