package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"solace/internal/domain"
)

// UserRepository is adapted from the teacher's UserRepository: same
// uuid.New()/time.Now() idiom, but passwords are bcrypt-hashed before
// insert rather than stored as given, and status is domain.UserRole-typed
// rather than the teacher's bare int.
type UserRepository struct {
	conn pgxIface
}

func NewUserRepository(conn pgxIface) *UserRepository {
	return &UserRepository{conn: conn}
}

const userColumns = `
	id, email, username, hashed_password, display_name, role, is_active,
	must_change_password, last_login_at, created_at, updated_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.HashedPassword, &u.DisplayName, &u.Role, &u.IsActive,
		&u.MustChangePassword, &u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create hashes the plaintext password with bcrypt before persisting it.
func (r *UserRepository) Create(ctx context.Context, user *domain.User, plaintextPassword string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintextPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user.ID = uuid.New().String()
	user.HashedPassword = string(hashed)
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt
	if !user.IsActive {
		user.IsActive = true
	}

	_, err = r.conn.Exec(ctx, `
		INSERT INTO users (id, email, username, hashed_password, display_name, role, is_active,
			must_change_password, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, user.ID, user.Email, user.Username, user.HashedPassword, user.DisplayName, user.Role, user.IsActive,
		user.MustChangePassword, user.CreatedAt, user.UpdatedAt)
	return err
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return u, err
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	u, err := scanUser(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return u, err
}

func (r *UserRepository) List(ctx context.Context) ([]domain.User, error) {
	rows, err := r.conn.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY username ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, nil
}

// VerifyPassword reports whether plaintextPassword matches the user's
// stored bcrypt hash.
func VerifyPassword(user *domain.User, plaintextPassword string) bool {
	return bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(plaintextPassword)) == nil
}

func (r *UserRepository) UpdateLastLogin(ctx context.Context, id string) error {
	now := time.Now().UTC()
	_, err := r.conn.Exec(ctx, `UPDATE users SET last_login_at = $1, updated_at = $1 WHERE id = $2`, now, id)
	return err
}

// UpdatePassword re-hashes and stores a new password, clearing
// must_change_password.
func (r *UserRepository) UpdatePassword(ctx context.Context, id, plaintextPassword string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintextPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	_, err = r.conn.Exec(ctx, `
		UPDATE users SET hashed_password = $1, must_change_password = false, updated_at = $2 WHERE id = $3
	`, string(hashed), time.Now().UTC(), id)
	return err
}

func (r *UserRepository) SetActive(ctx context.Context, id string, active bool) error {
	_, err := r.conn.Exec(ctx, `UPDATE users SET is_active = $1, updated_at = $2 WHERE id = $3`,
		active, time.Now().UTC(), id)
	return err
}
