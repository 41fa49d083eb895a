package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// EnsureAdmin creates the admin account if no admin with email exists yet and
// returns its id. An existing account is left untouched.
func EnsureAdmin(ctx context.Context, db *sql.DB, email, password, name string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return "", errors.New("admin email and password are required")
	}

	var id string
	err := db.QueryRowContext(ctx, `SELECT id FROM admins WHERE email = ?`, email).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("lookup admin: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash admin password: %w", err)
	}

	id = uuid.NewString()
	_, err = db.ExecContext(ctx,
		`INSERT INTO admins (id, email, password_hash, name, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, email, string(hash), name, FormatTime(time.Now()))
	if err != nil {
		return "", fmt.Errorf("insert admin: %w", err)
	}

	log.Println("[DB] [INFO] admin account created:", email)
	return id, nil
}
