package services

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"artventure/internal/domain"
	"artventure/internal/repos"
	"artventure/internal/validate"
)

var (
	ErrBadCreds   = errors.New("invalid email or password")
	ErrEmailTaken = errors.New("an account with that email already exists")
)

type AuthService struct {
	Users *repos.UserRepo
}

func NewAuthService(users *repos.UserRepo) *AuthService {
	return &AuthService{Users: users}
}

func (s *AuthService) Login(sid, email, password string) (*domain.User, error) {
	u, err := s.Users.ByEmail(email)
	if err != nil {
		return nil, ErrBadCreds
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) != nil {
		return nil, ErrBadCreds
	}
	if err := s.Users.BindSession(sid, u.ID); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *AuthService) Register(sid, email, name, password string) (*domain.User, error) {
	email, ok := validate.Email(email)
	if !ok {
		return nil, badRequest("A valid email is required")
	}
	name, ok = validate.Name(name)
	if !ok {
		return nil, badRequest("A name is required")
	}
	if !validate.Password(password) {
		return nil, badRequest("Password must be 8-64 characters with upper, lower, digit and symbol")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &domain.User{
		ID:    uuid.NewString(),
		Email: strings.ToLower(email),
		Name:  name,
		Hash:  string(hash),
		Role:  "USER",
	}
	if err := s.Users.Create(u); err != nil {
		if strings.Contains(err.Error(), "users.email") || strings.Contains(err.Error(), "idx_users_email") {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	if err := s.Users.BindSession(sid, u.ID); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *AuthService) Logout(sid string) error {
	return s.Users.UnbindSession(sid)
}

func (s *AuthService) CurrentUser(sid string) (*domain.User, error) {
	return s.Users.SessionUser(sid)
}
