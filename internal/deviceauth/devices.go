package deviceauth

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/UDANA333/joy-cookies-cupcakes-sub000/internal/database"
	"github.com/UDANA333/joy-cookies-cupcakes-sub000/internal/models"
)

const deviceColumns = `id, token_hash, name, browser_info, is_active, last_used, registered_via, revoked_at, created_at`

const maxCodeAttempts = 10

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDevice(row rowScanner) (models.RegisteredDevice, error) {
	var (
		d                   models.RegisteredDevice
		active              int
		lastUsed, revokedAt sql.NullString
		created             string
	)
	if err := row.Scan(&d.ID, &d.TokenHash, &d.Name, &d.BrowserInfo, &active, &lastUsed, &d.RegisteredVia, &revokedAt, &created); err != nil {
		return models.RegisteredDevice{}, err
	}
	d.IsActive = active == 1
	d.LastUsed = database.NullableTime(lastUsed)
	d.RevokedAt = database.NullableTime(revokedAt)
	t, err := database.ParseTime(created)
	if err != nil {
		return models.RegisteredDevice{}, err
	}
	d.CreatedAt = t
	return d, nil
}

// Registration is a freshly enrolled device and its plaintext token. The token
// is shown once and cannot be recovered later.
type Registration struct {
	Device models.RegisteredDevice `json:"device"`
	Token  string                  `json:"deviceToken"`
}

// RegisterDevice enrolls a browser. The configured bootstrap code only works
// while no device row exists; any other code must be an unused, unexpired
// one-time code.
func (g *Gate) RegisterDevice(ctx context.Context, code, name, browserInfo string) (Registration, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	name = strings.TrimSpace(name)
	if name == "" {
		return Registration{}, ErrDeviceNameRequired
	}
	if code == "" {
		return Registration{}, ErrInvalidCode
	}

	device, token, err := g.newDevice(name, browserInfo)
	if err != nil {
		return Registration{}, err
	}
	now := *device.LastUsed

	bootstrap := g.cfg.BootstrapCode != "" &&
		subtle.ConstantTimeCompare([]byte(code), []byte(strings.ToUpper(g.cfg.BootstrapCode))) == 1

	err = database.WithTx(ctx, g.db, func(tx *sql.Tx) error {
		if bootstrap {
			var count int
			if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM registered_devices`).Scan(&count); err != nil {
				return fmt.Errorf("count devices: %w", err)
			}
			if count > 0 {
				return ErrBootstrapClosed
			}
			device.RegisteredVia = models.RegisteredViaBootstrap
			return insertDevice(ctx, tx, device)
		}

		var (
			codeID, expires string
			used            int
		)
		err := tx.QueryRowContext(ctx, `SELECT id, is_used, expires_at FROM device_codes WHERE code = ?`, code).
			Scan(&codeID, &used, &expires)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrInvalidCode
		}
		if err != nil {
			return fmt.Errorf("load device code: %w", err)
		}
		if used == 1 {
			return ErrCodeUsed
		}
		expiresAt, err := database.ParseTime(expires)
		if err != nil {
			return err
		}
		if !now.Before(expiresAt) {
			return ErrCodeExpired
		}

		device.RegisteredVia = models.RegisteredViaCode
		if err := insertDevice(ctx, tx, device); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `UPDATE device_codes SET is_used = 1, used_by_device_id = ? WHERE id = ? AND is_used = 0`,
			device.ID, codeID)
		if err != nil {
			return fmt.Errorf("consume device code: %w", err)
		}
		if n, _ := res.RowsAffected(); n != 1 {
			return ErrCodeUsed
		}
		return nil
	})
	if err != nil {
		log.Printf("[DEVICE] [ERROR] registration of %q refused: %v", name, err)
		return Registration{}, err
	}

	log.Printf("[DEVICE] [INFO] device %s (%s) registered via %s", device.ID, device.Name, device.RegisteredVia)
	return Registration{Device: device, Token: token}, nil
}

func (g *Gate) newDevice(name, browserInfo string) (models.RegisteredDevice, string, error) {
	token, err := newDeviceToken()
	if err != nil {
		return models.RegisteredDevice{}, "", err
	}
	now := g.now().UTC()
	return models.RegisteredDevice{
		ID:          uuid.NewString(),
		TokenHash:   hashToken(token),
		Name:        name,
		BrowserInfo: strings.TrimSpace(browserInfo),
		IsActive:    true,
		LastUsed:    &now,
		CreatedAt:   now,
	}, token, nil
}

// EnrollLocal registers a device without any code. It is meant for the
// operator console, which already has direct access to the database, and is
// the way back in once every browser has been revoked or lost.
func (g *Gate) EnrollLocal(ctx context.Context, name, browserInfo string) (Registration, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Registration{}, ErrDeviceNameRequired
	}
	device, token, err := g.newDevice(name, browserInfo)
	if err != nil {
		return Registration{}, err
	}
	device.RegisteredVia = models.RegisteredViaCLI

	err = database.WithTx(ctx, g.db, func(tx *sql.Tx) error {
		return insertDevice(ctx, tx, device)
	})
	if err != nil {
		return Registration{}, err
	}
	log.Printf("[DEVICE] [INFO] device %s (%s) registered via %s", device.ID, device.Name, device.RegisteredVia)
	return Registration{Device: device, Token: token}, nil
}

func insertDevice(ctx context.Context, tx *sql.Tx, d models.RegisteredDevice) error {
	var lastUsed any
	if d.LastUsed != nil {
		lastUsed = database.FormatTime(*d.LastUsed)
	}
	_, err := tx.ExecContext(ctx, `INSERT INTO registered_devices
		(id, token_hash, name, browser_info, is_active, last_used, registered_via, created_at)
		VALUES (?, ?, ?, ?, 1, ?, ?, ?)`,
		d.ID, d.TokenHash, d.Name, d.BrowserInfo, lastUsed, d.RegisteredVia, database.FormatTime(d.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert device: %w", err)
	}
	return nil
}

// GenerateCode issues a one-time registration code valid for the configured TTL.
func (g *Gate) GenerateCode(ctx context.Context) (models.DeviceCode, error) {
	now := g.now().UTC()
	dc := models.DeviceCode{
		ID:        uuid.NewString(),
		ExpiresAt: now.Add(g.cfg.CodeTTL),
		CreatedAt: now,
	}

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := g.newCode()
		if err != nil {
			return models.DeviceCode{}, fmt.Errorf("generate device code: %w", err)
		}
		_, err = g.db.ExecContext(ctx, `INSERT INTO device_codes (id, code, is_used, expires_at, created_at) VALUES (?, ?, 0, ?, ?)`,
			dc.ID, code, database.FormatTime(dc.ExpiresAt), database.FormatTime(dc.CreatedAt))
		if database.IsUniqueViolation(err) {
			continue
		}
		if err != nil {
			return models.DeviceCode{}, fmt.Errorf("insert device code: %w", err)
		}
		dc.Code = code
		log.Println("[DEVICE] [INFO] registration code issued, expires", dc.ExpiresAt.Format(time.RFC3339))
		return dc, nil
	}
	return models.DeviceCode{}, errors.New("could not allocate a unique device code")
}

// RotateToken invalidates the device's current token and returns a new one.
// Sessions bound to the old token stop authorizing immediately.
func (g *Gate) RotateToken(ctx context.Context, deviceID string) (string, error) {
	token, err := newDeviceToken()
	if err != nil {
		return "", err
	}

	res, err := g.db.ExecContext(ctx, `UPDATE registered_devices SET token_hash = ?, last_used = ? WHERE id = ? AND is_active = 1`,
		hashToken(token), database.FormatTime(g.now()), deviceID)
	if err != nil {
		return "", fmt.Errorf("rotate device token: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 1 {
		return token, nil
	}

	if _, err := g.device(ctx, deviceID); err != nil {
		return "", err
	}
	return "", ErrDeviceRevoked
}

func (g *Gate) device(ctx context.Context, id string) (models.RegisteredDevice, error) {
	d, err := scanDevice(g.db.QueryRowContext(ctx, `SELECT `+deviceColumns+` FROM registered_devices WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.RegisteredDevice{}, ErrDeviceNotFound
	}
	if err != nil {
		return models.RegisteredDevice{}, fmt.Errorf("load device: %w", err)
	}
	return d, nil
}

func (g *Gate) ListDevices(ctx context.Context) ([]models.RegisteredDevice, error) {
	rows, err := g.db.QueryContext(ctx, `SELECT `+deviceColumns+` FROM registered_devices ORDER BY is_active DESC, created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	defer rows.Close()

	devices := []models.RegisteredDevice{}
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan device: %w", err)
		}
		devices = append(devices, d)
	}
	return devices, rows.Err()
}

// RevokeDevice deactivates a device for good. At least one active device must remain.
func (g *Gate) RevokeDevice(ctx context.Context, id string) error {
	err := database.WithTx(ctx, g.db, func(tx *sql.Tx) error {
		var active int
		err := tx.QueryRowContext(ctx, `SELECT is_active FROM registered_devices WHERE id = ?`, id).Scan(&active)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrDeviceNotFound
		}
		if err != nil {
			return fmt.Errorf("load device: %w", err)
		}
		if active == 0 {
			return ErrDeviceRevoked
		}

		var remaining int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM registered_devices WHERE is_active = 1`).Scan(&remaining); err != nil {
			return fmt.Errorf("count active devices: %w", err)
		}
		if remaining <= 1 {
			return ErrLastDevice
		}

		_, err = tx.ExecContext(ctx, `UPDATE registered_devices SET is_active = 0, revoked_at = ? WHERE id = ?`,
			database.FormatTime(g.now()), id)
		if err != nil {
			return fmt.Errorf("revoke device: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Println("[DEVICE] [INFO] device revoked:", id)
	return nil
}
