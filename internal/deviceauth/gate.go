// Package deviceauth guards admin actions with a session credential bound to a
// registered device. Every request re-checks that the device is still active,
// so revoking a device ends its sessions at once.
package deviceauth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/UDANA333/joy-cookies-cupcakes-sub000/internal/database"
	"github.com/UDANA333/joy-cookies-cupcakes-sub000/internal/models"
	"github.com/UDANA333/joy-cookies-cupcakes-sub000/internal/refcode"
)

type Config struct {
	JWTSecret     string
	AccessTTL     time.Duration
	BootstrapCode string
	CodeTTL       time.Duration
	// AllowLegacy accepts session credentials issued without a device binding.
	AllowLegacy bool
}

type Gate struct {
	db      *sql.DB
	cfg     Config
	now     func() time.Time
	newCode func() (string, error)
}

type Option func(*Gate)

func WithClock(now func() time.Time) Option {
	return func(g *Gate) { g.now = now }
}

func WithCodes(fn func() (string, error)) Option {
	return func(g *Gate) { g.newCode = fn }
}

func NewGate(db *sql.DB, cfg Config, opts ...Option) *Gate {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 2 * time.Hour
	}
	if cfg.CodeTTL <= 0 {
		cfg.CodeTTL = 15 * time.Minute
	}
	g := &Gate{db: db, cfg: cfg, now: time.Now, newCode: refcode.New}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Session is the result of a successful login. DeviceToken replaces the token
// the client held before.
type Session struct {
	Token       string       `json:"token"`
	ExpiresAt   time.Time    `json:"expiresAt"`
	Admin       models.Admin `json:"admin"`
	DeviceToken string       `json:"newDeviceToken"`
}

// Principal is the authorized caller of an admin request.
type Principal struct {
	AdminID  string
	Email    string
	DeviceID string
	// Legacy marks credentials that predate device binding.
	Legacy bool
}

// Login checks the device before the password so an unregistered browser
// learns nothing about the credentials. A successful login rotates the device token.
func (g *Gate) Login(ctx context.Context, email, password, deviceToken string) (Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	deviceToken = strings.TrimSpace(deviceToken)
	if deviceToken == "" {
		return Session{}, ErrDeviceNotRegistered
	}

	device, err := scanDevice(g.db.QueryRowContext(ctx,
		`SELECT `+deviceColumns+` FROM registered_devices WHERE token_hash = ?`, hashToken(deviceToken)))
	if errors.Is(err, sql.ErrNoRows) {
		log.Println("[AUTH] [ERROR] login from unregistered device")
		return Session{}, ErrDeviceNotRegistered
	}
	if err != nil {
		return Session{}, fmt.Errorf("load device: %w", err)
	}
	if !device.IsActive {
		log.Println("[AUTH] [ERROR] login from revoked device:", device.ID)
		return Session{}, ErrDeviceRevoked
	}

	admin, err := g.adminBy(ctx, "email", email)
	if errors.Is(err, ErrAdminNotFound) {
		log.Println("[AUTH] [ERROR] login invalid credentials")
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		log.Println("[AUTH] [ERROR] login invalid credentials")
		return Session{}, ErrInvalidCredentials
	}

	newToken, err := g.RotateToken(ctx, device.ID)
	if err != nil {
		return Session{}, err
	}

	now := g.now()
	expires := now.Add(g.cfg.AccessTTL)
	claims := jwt.MapClaims{
		"sub":     admin.ID,
		"adminId": admin.ID,
		"email":   admin.Email,
		"did":     device.ID,
		"dth":     hashToken(newToken),
		"iat":     now.Unix(),
		"exp":     expires.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(g.cfg.JWTSecret))
	if err != nil {
		return Session{}, fmt.Errorf("sign session: %w", err)
	}

	log.Println("[AUTH] [INFO] admin login succeeded:", admin.Email)
	return Session{Token: signed, ExpiresAt: expires, Admin: admin, DeviceToken: newToken}, nil
}

// Authorize verifies a bearer credential and the device it is bound to. The
// device lookup is not cached.
func (g *Gate) Authorize(ctx context.Context, raw string) (Principal, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		return []byte(g.cfg.JWTSecret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(g.now),
	)
	if err != nil || !token.Valid {
		return Principal{}, ErrSessionInvalid
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Principal{}, ErrSessionInvalid
	}
	p := Principal{}
	p.AdminID, _ = claims["sub"].(string)
	if p.AdminID == "" {
		p.AdminID, _ = claims["adminId"].(string)
	}
	p.Email, _ = claims["email"].(string)
	if p.AdminID == "" {
		return Principal{}, ErrSessionInvalid
	}

	tokenHash, _ := claims["dth"].(string)
	if tokenHash == "" {
		if !g.cfg.AllowLegacy {
			return Principal{}, ErrSessionInvalid
		}
		log.Println("[AUTH] [WARN] accepted legacy session without device binding for admin", p.AdminID)
		p.Legacy = true
		return p, nil
	}

	var (
		deviceID string
		active   int
	)
	err = g.db.QueryRowContext(ctx, `SELECT id, is_active FROM registered_devices WHERE token_hash = ?`, tokenHash).
		Scan(&deviceID, &active)
	if errors.Is(err, sql.ErrNoRows) {
		return Principal{}, ErrDeviceRevoked
	}
	if err != nil {
		return Principal{}, fmt.Errorf("load session device: %w", err)
	}
	if active != 1 {
		return Principal{}, ErrDeviceRevoked
	}
	if did, _ := claims["did"].(string); did != "" && did != deviceID {
		return Principal{}, ErrDeviceRevoked
	}

	p.DeviceID = deviceID
	return p, nil
}

func (g *Gate) Admin(ctx context.Context, id string) (models.Admin, error) {
	return g.adminBy(ctx, "id", id)
}

func (g *Gate) adminBy(ctx context.Context, column, value string) (models.Admin, error) {
	var (
		a       models.Admin
		created string
	)
	err := g.db.QueryRowContext(ctx, `SELECT id, email, password_hash, name, created_at FROM admins WHERE `+column+` = ?`, value).
		Scan(&a.ID, &a.Email, &a.PasswordHash, &a.Name, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Admin{}, ErrAdminNotFound
	}
	if err != nil {
		return models.Admin{}, fmt.Errorf("load admin: %w", err)
	}
	if a.CreatedAt, err = database.ParseTime(created); err != nil {
		return models.Admin{}, err
	}
	return a, nil
}
