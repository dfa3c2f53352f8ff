package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const defaultRole = "staff"

// Session is returned by sign-up and sign-in.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Profile   *Profile  `json:"profile"`
}

// SignUpRequest is the body of POST /auth/signup.
type SignUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

// Validate checks the sign-up request.
func (r SignUpRequest) Validate() error {
	if !strings.Contains(r.Email, "@") {
		return errors.New("a valid email is required")
	}
	if len(r.Password) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	if strings.TrimSpace(r.FullName) == "" {
		return errors.New("full name is required")
	}
	return nil
}

// Service implements sign-up, sign-in and session lookup.
type Service struct {
	profiles ProfileStore
	tokens   *TokenIssuer
	cost     int
}

// NewService wires the profile store and token issuer.
func NewService(profiles ProfileStore, tokens *TokenIssuer) *Service {
	return &Service{profiles: profiles, tokens: tokens, cost: bcrypt.DefaultCost}
}

// Tokens exposes the issuer so middleware can verify requests.
func (s *Service) Tokens() *TokenIssuer {
	return s.tokens
}

// SignUp creates a profile and returns a session for it.
func (s *Service) SignUp(ctx context.Context, req SignUpRequest) (*Session, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("auth: hash password: %w", err)
	}
	p := &Profile{
		Email:        normalizeEmail(req.Email),
		FullName:     strings.TrimSpace(req.FullName),
		Role:         defaultRole,
		PasswordHash: string(hash),
	}
	if err := s.profiles.Create(ctx, p); err != nil {
		return nil, err
	}
	return s.session(p)
}

// SignIn verifies the password and returns a fresh session.
func (s *Service) SignIn(ctx context.Context, email, password string) (*Session, error) {
	p, err := s.profiles.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.session(p)
}

// Profile returns the profile behind an authenticated identity.
func (s *Service) Profile(ctx context.Context, id Identity) (*Profile, error) {
	return s.profiles.GetByID(ctx, id.UserID)
}

func (s *Service) session(p *Profile) (*Session, error) {
	token, expires, err := s.tokens.Issue(p)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, ExpiresAt: expires, Profile: p}, nil
}
