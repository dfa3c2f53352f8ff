package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Profile is a staff account.
type Profile struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// ProfileStore persists staff profiles.
type ProfileStore interface {
	Create(ctx context.Context, p *Profile) error
	GetByEmail(ctx context.Context, email string) (*Profile, error)
	GetByID(ctx context.Context, id string) (*Profile, error)
}

// MemoryProfileStore keeps profiles in memory.
type MemoryProfileStore struct {
	mu      sync.RWMutex
	byID    map[string]*Profile
	byEmail map[string]string
}

// NewMemoryProfileStore creates an empty in-memory store.
func NewMemoryProfileStore() *MemoryProfileStore {
	return &MemoryProfileStore{
		byID:    make(map[string]*Profile),
		byEmail: make(map[string]string),
	}
}

func (s *MemoryProfileStore) Create(ctx context.Context, p *Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := normalizeEmail(p.Email)
	if _, exists := s.byEmail[key]; exists {
		return ErrEmailTaken
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	cp := *p
	s.byID[p.ID] = &cp
	s.byEmail[key] = p.ID
	return nil
}

func (s *MemoryProfileStore) GetByEmail(ctx context.Context, email string) (*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[normalizeEmail(email)]
	if !ok {
		return nil, ErrProfileNotFound
	}
	cp := *s.byID[id]
	return &cp, nil
}

func (s *MemoryProfileStore) GetByID(ctx context.Context, id string) (*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.byID[id]
	if !ok {
		return nil, ErrProfileNotFound
	}
	cp := *p
	return &cp, nil
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresProfileStore stores profiles in the profiles table.
type PostgresProfileStore struct {
	db rowQuerier
}

// NewPostgresProfileStore initializes a store backed by pgxpool.
func NewPostgresProfileStore(pool *pgxpool.Pool) *PostgresProfileStore {
	if pool == nil {
		panic("auth: pgx pool required")
	}
	return &PostgresProfileStore{db: pool}
}

func (s *PostgresProfileStore) Create(ctx context.Context, p *Profile) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	query := `
		INSERT INTO profiles (id, email, full_name, role, password_hash)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`
	err := s.db.QueryRow(ctx, query, p.ID, normalizeEmail(p.Email), p.FullName, p.Role, p.PasswordHash).Scan(&p.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrEmailTaken
		}
		return fmt.Errorf("auth: insert profile: %w", err)
	}
	return nil
}

func (s *PostgresProfileStore) GetByEmail(ctx context.Context, email string) (*Profile, error) {
	return s.get(ctx, `WHERE email = $1`, normalizeEmail(email))
}

func (s *PostgresProfileStore) GetByID(ctx context.Context, id string) (*Profile, error) {
	return s.get(ctx, `WHERE id = $1`, id)
}

func (s *PostgresProfileStore) get(ctx context.Context, where string, arg string) (*Profile, error) {
	query := `SELECT id, email, full_name, role, password_hash, created_at FROM profiles ` + where
	var p Profile
	if err := s.db.QueryRow(ctx, query, arg).Scan(&p.ID, &p.Email, &p.FullName, &p.Role, &p.PasswordHash, &p.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("auth: select profile: %w", err)
	}
	return &p, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
