package storage

import (
	"context"
	"strings"

	"github.com/utiibeauty/parlour/libs/db"
	"golang.org/x/crypto/bcrypt"
)

type Admin struct {
	ID           string
	Email        string
	PasswordHash string
}

type AdminRepository struct {
	pool *db.Pool
}

func NewAdminRepository(pool *db.Pool) *AdminRepository {
	return &AdminRepository{pool: pool}
}

func (r *AdminRepository) GetByEmail(ctx context.Context, email string) (Admin, error) {
	var a Admin
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, email, password_hash
		FROM admin_users
		WHERE lower(email) = lower($1)
	`, strings.TrimSpace(email)).Scan(&a.ID, &a.Email, &a.PasswordHash)
	if err != nil {
		return Admin{}, err
	}
	return a, nil
}

func (r *AdminRepository) GetByID(ctx context.Context, id string) (Admin, error) {
	var a Admin
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, email, password_hash
		FROM admin_users
		WHERE id = $1
	`, id).Scan(&a.ID, &a.Email, &a.PasswordHash)
	if err != nil {
		return Admin{}, err
	}
	return a, nil
}

// Upsert creates the bootstrap admin or resets its password.
func (r *AdminRepository) Upsert(ctx context.Context, email, password string) (Admin, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Admin{}, err
	}
	a := Admin{Email: strings.TrimSpace(email), PasswordHash: string(hash)}
	err = r.pool.QueryRow(ctx, `
		INSERT INTO admin_users (email, password_hash)
		VALUES ($1, $2)
		ON CONFLICT (email) DO UPDATE SET password_hash = EXCLUDED.password_hash
		RETURNING id::text
	`, a.Email, a.PasswordHash).Scan(&a.ID)
	if err != nil {
		return Admin{}, err
	}
	return a, nil
}

// CheckPassword compares password against the stored bcrypt hash.
func (a Admin) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)) == nil
}
