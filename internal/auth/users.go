package auth

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"go.uber.org/zap"

	"campuslog/internal/apperr"
)

// User is a staff login account.
type User struct {
	Username     string
	PasswordHash string
	Role         string
}

// UserRepository persists login accounts.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a repo.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Upsert creates or replaces an account.
func (r *UserRepository) Upsert(ctx context.Context, u User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (username, password_hash, role) VALUES ($1, $2, $3)
		ON CONFLICT (username) DO UPDATE SET password_hash = excluded.password_hash, role = excluded.role
	`, u.Username, u.PasswordHash, u.Role)
	return err
}

// Get returns an account, or nil when it does not exist.
func (r *UserRepository) Get(ctx context.Context, username string) (*User, error) {
	var u User
	err := r.db.QueryRowContext(ctx, `SELECT username, password_hash, role FROM users WHERE username = $1`, username).
		Scan(&u.Username, &u.PasswordHash, &u.Role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// LoginResult is returned to the frontend after a successful login.
type LoginResult struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	Route    string `json:"route"`
	TokenPair
}

// Service authenticates staff accounts.
type Service struct {
	users  *UserRepository
	tokens *Tokens
	logger *zap.Logger
}

// NewService creates a login service.
func NewService(users *UserRepository, tokens *Tokens, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{users: users, tokens: tokens, logger: logger}
}

// CreateUser hashes password and stores the account.
func (s *Service) CreateUser(ctx context.Context, username, role, password string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return apperr.Validation("username required")
	}
	if _, ok := RouteFor(role); !ok {
		return apperr.Validation("unknown role %q", role)
	}
	hash, err := HashPassword(password)
	if err != nil {
		return apperr.Validation("%s", err.Error())
	}
	if err := s.users.Upsert(ctx, User{Username: username, PasswordHash: hash, Role: role}); err != nil {
		return apperr.Storage("failed to save user", err)
	}
	return nil
}

// Login verifies credentials and issues tokens with the role's landing route.
func (s *Service) Login(ctx context.Context, username, password string) (LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return LoginResult{}, apperr.Validation("username and password are required")
	}
	u, err := s.users.Get(ctx, username)
	if err != nil {
		return LoginResult{}, apperr.Storage("login failed", err)
	}
	if u == nil || !CheckPassword(u.PasswordHash, password) {
		s.logger.Info("login rejected", zap.String("username", username))
		return LoginResult{}, apperr.Unauthorized("invalid credentials")
	}
	route, ok := RouteFor(u.Role)
	if !ok {
		return LoginResult{}, apperr.Forbidden("role has no access")
	}
	pair, err := s.tokens.Issue(u.Username, u.Role)
	if err != nil {
		return LoginResult{}, apperr.Storage("login failed", err)
	}
	return LoginResult{Username: u.Username, Role: u.Role, Route: route, TokenPair: pair}, nil
}

// Refresh exchanges a refresh token for a new pair.
func (s *Service) Refresh(refreshToken string) (TokenPair, error) {
	pair, err := s.tokens.Refresh(refreshToken)
	if err != nil {
		return TokenPair{}, apperr.Unauthorized("invalid refresh token")
	}
	return pair, nil
}
