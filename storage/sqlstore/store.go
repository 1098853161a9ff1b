package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/MrEthical07/goGrant/entity"
	"github.com/MrEthical07/goGrant/password"
	"golang.org/x/crypto/bcrypt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS oauth_clients (
		id          VARCHAR(128)  NOT NULL PRIMARY KEY,
		secret_hash VARCHAR(255)  NOT NULL,
		name        VARCHAR(255)  NOT NULL DEFAULT '',
		grant_types VARCHAR(512)  NOT NULL DEFAULT '',
		scopes      VARCHAR(2048) NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS oauth_scopes (
		id          VARCHAR(128)  NOT NULL PRIMARY KEY,
		description VARCHAR(1024) NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS oauth_users (
		id            VARCHAR(128) NOT NULL PRIMARY KEY,
		username      VARCHAR(255) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL
	)`,
}

// Config tunes the store.
type Config struct {
	// BcryptCost for client secrets. Zero means bcrypt.DefaultCost.
	BcryptCost int
}

// Store implements entity.ClientStore, entity.ScopeStore and password.UserLookup.
type Store struct {
	db   *sql.DB
	cost int
}

func New(db *sql.DB, cfg Config) *Store {
	cost := cfg.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Store{db: db, cost: cost}
}

// Migrate creates the tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// CreateClient stores c with its secret hashed.
func (s *Store) CreateClient(ctx context.Context, c entity.Client) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(c.Secret), s.cost)
	if err != nil {
		return fmt.Errorf("hash client secret: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO oauth_clients (id, secret_hash, name, grant_types, scopes) VALUES (?, ?, ?, ?, ?)`,
		c.ID, string(hash), c.Name, strings.Join(c.GrantTypes, " "), strings.Join(c.Scopes, " "),
	)
	if err != nil {
		return fmt.Errorf("insert client %s: %w", c.ID, err)
	}
	return nil
}

// GetClient authenticates the client. A wrong secret or a grant the client may not
// use is reported as entity.ErrNotFound, same as an unknown id.
func (s *Store) GetClient(ctx context.Context, clientID, clientSecret, grantType string) (*entity.Client, error) {
	var (
		c                    entity.Client
		hash, grants, scopes string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, secret_hash, name, grant_types, scopes FROM oauth_clients WHERE id = ?`, clientID,
	).Scan(&c.ID, &hash, &c.Name, &grants, &scopes)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select client: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(clientSecret)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, entity.ErrNotFound
		}
		return nil, fmt.Errorf("client %s: %w", clientID, err)
	}

	c.GrantTypes = strings.Fields(grants)
	c.Scopes = strings.Fields(scopes)
	if !c.AllowsGrant(grantType) {
		return nil, entity.ErrNotFound
	}
	return &c, nil
}

func (s *Store) CreateScope(ctx context.Context, sc entity.Scope) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO oauth_scopes (id, description) VALUES (?, ?)`, sc.ID, sc.Description)
	if err != nil {
		return fmt.Errorf("insert scope %s: %w", sc.ID, err)
	}
	return nil
}

// GetScope resolves a scope id. Scopes are global; grant type and client are not
// consulted.
func (s *Store) GetScope(ctx context.Context, scopeID, _, _ string) (*entity.Scope, error) {
	var sc entity.Scope
	err := s.db.QueryRowContext(ctx,
		`SELECT id, description FROM oauth_scopes WHERE id = ?`, scopeID,
	).Scan(&sc.ID, &sc.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select scope: %w", err)
	}
	return &sc, nil
}

// CreateUser stores a resource owner with an already computed password hash.
func (s *Store) CreateUser(ctx context.Context, userID, username, passwordHash string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO oauth_users (id, username, password_hash) VALUES (?, ?, ?)`,
		userID, username, passwordHash,
	)
	if err != nil {
		return fmt.Errorf("insert user %s: %w", username, err)
	}
	return nil
}

func (s *Store) FindByUsername(ctx context.Context, username string) (string, string, error) {
	var id, hash string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, password_hash FROM oauth_users WHERE username = ?`, username,
	).Scan(&id, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", password.ErrUserNotFound
	}
	if err != nil {
		return "", "", fmt.Errorf("select user: %w", err)
	}
	return id, hash, nil
}

var (
	_ entity.ClientStore  = (*Store)(nil)
	_ entity.ScopeStore   = (*Store)(nil)
	_ password.UserLookup = (*Store)(nil)
)
