package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/example/rolo/internal/models"
	"github.com/example/rolo/internal/storage"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidInput       = errors.New("invalid sign-up details")
)

const minPasswordLen = 6

// Accounts is the part of the data service auth needs.
type Accounts interface {
	CreateUser(ctx context.Context, u storage.User) (storage.User, error)
	GetUserByEmail(ctx context.Context, email string) (storage.User, error)
	CreateProfile(ctx context.Context, userID, fullName, phone string) (models.Profile, error)
}

type Service struct {
	accounts Accounts
	cost     int
}

func NewService(accounts Accounts) *Service {
	return &Service{accounts: accounts, cost: bcrypt.DefaultCost}
}

// SetCost overrides the bcrypt cost.
func (s *Service) SetCost(cost int) { s.cost = cost }

func (s *Service) SignUp(ctx context.Context, email, password, name string) (models.Session, error) {
	email = strings.TrimSpace(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return models.Session{}, fmt.Errorf("%w: email", ErrInvalidInput)
	}
	if len(password) < minPasswordLen {
		return models.Session{}, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLen)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return models.Session{}, err
	}
	u, err := s.accounts.CreateUser(ctx, storage.User{Email: email, PasswordHash: string(hash), FullName: strings.TrimSpace(name)})
	if errors.Is(err, storage.ErrConflict) {
		return models.Session{}, ErrEmailTaken
	}
	if err != nil {
		return models.Session{}, fmt.Errorf("create user: %w", err)
	}
	if _, err := s.accounts.CreateProfile(ctx, u.ID, u.FullName, ""); err != nil && !errors.Is(err, storage.ErrConflict) {
		return models.Session{}, fmt.Errorf("create profile: %w", err)
	}
	return sessionOf(u), nil
}

func (s *Service) SignIn(ctx context.Context, email, password string) (models.Session, error) {
	u, err := s.accounts.GetUserByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, storage.ErrNotFound) {
		return models.Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.Session{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return models.Session{}, ErrInvalidCredentials
	}
	return sessionOf(u), nil
}

func sessionOf(u storage.User) models.Session {
	name := u.FullName
	if name == "" {
		name, _, _ = strings.Cut(u.Email, "@")
	}
	return models.Session{UserID: u.ID, DisplayName: name, Contact: u.Email}
}
