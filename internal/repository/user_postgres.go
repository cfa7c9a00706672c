package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"study_dashboard/internal/model"
)

// pgUniqueViolation is the SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

// PgxPool is the subset of *pgxpool.Pool used by the repository.
type PgxPool interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

type userPostgresRepository struct {
	db PgxPool
}

// NewUserPostgresRepository creates a PostgreSQL backed UserRepository
func NewUserPostgresRepository(db PgxPool) UserRepository {
	return &userPostgresRepository{db: db}
}

// Create inserts a new user into the database
func (r *userPostgresRepository) Create(ctx context.Context, user *model.User) error {
	id := uuid.NewString()
	sql := `INSERT INTO users (id, username, email, password_hash, role)
            VALUES ($1, $2, $3, $4, $5) RETURNING created_at, updated_at`
	err := r.db.QueryRow(ctx, sql, id, user.Username, user.Email, user.PasswordHash, user.Role).
		Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return fmt.Errorf("%w: %s", ErrDuplicateEmail, pgErr.ConstraintName)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	user.ID = id
	return nil
}

// FindByEmail retrieves a user by their email
func (r *userPostgresRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	sql := `SELECT id, username, email, password_hash, role, created_at, updated_at FROM users WHERE email = $1`
	return r.scanUser(r.db.QueryRow(ctx, sql, email), "email")
}

// FindByID retrieves a user by their ID
func (r *userPostgresRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	sql := `SELECT id, username, email, password_hash, role, created_at, updated_at FROM users WHERE id = $1`
	return r.scanUser(r.db.QueryRow(ctx, sql, id), "ID")
}

func (r *userPostgresRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

func (r *userPostgresRepository) scanUser(row pgx.Row, by string) (*model.User, error) {
	user := &model.User{}
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.Role, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user by %s: %w", by, err)
	}
	return user, nil
}
