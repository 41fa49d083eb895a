package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"
)

type migration struct {
	version int
	name    string
	stmts   []string
}

var migrations = []migration{
	{
		version: 1,
		name:    "core schema",
		stmts: []string{
			`CREATE TABLE IF NOT EXISTS admins (
				id            TEXT PRIMARY KEY,
				email         TEXT NOT NULL UNIQUE,
				password_hash TEXT NOT NULL,
				name          TEXT NOT NULL DEFAULT '',
				created_at    TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS registered_devices (
				id             TEXT PRIMARY KEY,
				token_hash     TEXT NOT NULL UNIQUE,
				name           TEXT NOT NULL,
				browser_info   TEXT NOT NULL DEFAULT '',
				is_active      INTEGER NOT NULL DEFAULT 1,
				last_used      TEXT,
				registered_via TEXT NOT NULL,
				revoked_at     TEXT,
				created_at     TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS device_codes (
				id                TEXT PRIMARY KEY,
				code              TEXT NOT NULL UNIQUE,
				is_used           INTEGER NOT NULL DEFAULT 0,
				used_by_device_id TEXT REFERENCES registered_devices(id) ON DELETE SET NULL,
				expires_at        TEXT NOT NULL,
				created_at        TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS categories (
				slug          TEXT PRIMARY KEY,
				name          TEXT NOT NULL UNIQUE,
				display_order INTEGER NOT NULL DEFAULT 0,
				is_active     INTEGER NOT NULL DEFAULT 1,
				created_at    TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS seasonal_themes (
				category_slug TEXT PRIMARY KEY REFERENCES categories(slug) ON DELETE CASCADE,
				title         TEXT NOT NULL,
				description   TEXT NOT NULL DEFAULT '',
				accent_color  TEXT NOT NULL DEFAULT '',
				starts_on     TEXT NOT NULL DEFAULT '',
				ends_on       TEXT NOT NULL DEFAULT '',
				is_active     INTEGER NOT NULL DEFAULT 1,
				updated_at    TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS products (
				id            TEXT PRIMARY KEY,
				name          TEXT NOT NULL UNIQUE,
				price         REAL NOT NULL,
				sale_enabled  INTEGER NOT NULL DEFAULT 0,
				sale_price    REAL NOT NULL DEFAULT 0,
				category_slug TEXT REFERENCES categories(slug) ON DELETE SET NULL,
				description   TEXT NOT NULL DEFAULT '',
				image_path    TEXT NOT NULL DEFAULT '',
				is_active     INTEGER NOT NULL DEFAULT 1,
				created_at    TEXT NOT NULL,
				updated_at    TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS orders (
				id                     TEXT PRIMARY KEY,
				order_number           TEXT NOT NULL UNIQUE,
				customer_name          TEXT NOT NULL DEFAULT '',
				customer_email         TEXT NOT NULL,
				customer_phone         TEXT NOT NULL DEFAULT '',
				pickup_date            TEXT NOT NULL,
				pickup_time            TEXT NOT NULL,
				subtotal               REAL NOT NULL,
				total                  REAL NOT NULL,
				deposit_amount         REAL NOT NULL DEFAULT 0,
				remaining_balance      REAL NOT NULL DEFAULT 0,
				order_status           TEXT NOT NULL DEFAULT 'pending'
					CHECK (order_status IN ('pending','ready','picked_up','cancelled','confirmed','completed')),
				payment_status         TEXT NOT NULL DEFAULT 'pending'
					CHECK (payment_status IN ('pending','deposit_paid','paid')),
				payment_method         TEXT NOT NULL DEFAULT 'pending',
				deposit_method         TEXT NOT NULL DEFAULT '',
				balance_method         TEXT NOT NULL DEFAULT '',
				payment_transaction_id TEXT NOT NULL DEFAULT '',
				payer_email            TEXT NOT NULL DEFAULT '',
				created_at             TEXT NOT NULL,
				updated_at             TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at)`,
			`CREATE INDEX IF NOT EXISTS idx_orders_order_status ON orders(order_status)`,
			`CREATE TABLE IF NOT EXISTS order_items (
				id         INTEGER PRIMARY KEY AUTOINCREMENT,
				order_id   TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
				position   INTEGER NOT NULL,
				item_id    TEXT NOT NULL,
				name       TEXT NOT NULL,
				price      REAL NOT NULL,
				quantity   INTEGER NOT NULL,
				category   TEXT NOT NULL DEFAULT '',
				UNIQUE (order_id, position)
			)`,
			`CREATE TABLE IF NOT EXISTS order_box_contents (
				order_item_id INTEGER NOT NULL REFERENCES order_items(id) ON DELETE CASCADE,
				position      INTEGER NOT NULL,
				content_id    TEXT NOT NULL DEFAULT '',
				name          TEXT NOT NULL,
				PRIMARY KEY (order_item_id, position)
			)`,
			`CREATE TABLE IF NOT EXISTS order_analytics (
				id                  TEXT PRIMARY KEY,
				period_type         TEXT NOT NULL,
				period_start        TEXT NOT NULL,
				period_end          TEXT NOT NULL,
				total_orders        INTEGER NOT NULL,
				total_revenue       REAL NOT NULL,
				total_items_sold    INTEGER NOT NULL,
				orders_by_status    TEXT NOT NULL,
				revenue_by_category TEXT NOT NULL,
				top_products        TEXT NOT NULL,
				created_at          TEXT NOT NULL,
				UNIQUE (period_type, period_start)
			)`,
			`CREATE TABLE IF NOT EXISTS contact_messages (
				id         TEXT PRIMARY KEY,
				name       TEXT NOT NULL,
				email      TEXT NOT NULL,
				phone      TEXT NOT NULL DEFAULT '',
				subject    TEXT NOT NULL DEFAULT '',
				message    TEXT NOT NULL,
				is_read    INTEGER NOT NULL DEFAULT 0,
				created_at TEXT NOT NULL
			)`,
		},
	},
	{
		version: 2,
		name:    "normalize naive timestamps to UTC",
		stmts: normalizeTimestamps(map[string][]string{
			"orders":             {"created_at", "updated_at"},
			"registered_devices": {"created_at", "last_used", "revoked_at"},
			"device_codes":       {"created_at", "expires_at"},
			"contact_messages":   {"created_at"},
			"order_analytics":    {"created_at"},
		}),
	},
	{
		version: 3,
		name:    "keep deposit transaction id",
		stmts: []string{
			`ALTER TABLE orders ADD COLUMN deposit_transaction_id TEXT NOT NULL DEFAULT ''`,
			`UPDATE orders SET deposit_transaction_id = payment_transaction_id
			 WHERE payment_status = 'deposit_paid'`,
		},
	},
}

// normalizeTimestamps rewrites values stored as "YYYY-MM-DD HH:MM:SS" (implicitly
// UTC) into the zoned layout used everywhere else.
func normalizeTimestamps(columns map[string][]string) []string {
	var stmts []string
	for _, table := range []string{"orders", "registered_devices", "device_codes", "contact_messages", "order_analytics"} {
		for _, col := range columns[table] {
			stmts = append(stmts, fmt.Sprintf(
				`UPDATE %[1]s SET %[2]s = strftime('%%Y-%%m-%%dT%%H:%%M:%%fZ', %[2]s)
				 WHERE %[2]s IS NOT NULL AND %[2]s <> '' AND %[2]s NOT LIKE '%%Z'`,
				table, col))
		}
	}
	return stmts
}

// Migrate applies every migration that schema_migrations has not recorded yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		name       TEXT NOT NULL,
		applied_at TEXT NOT NULL
	)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	applied := map[int]bool{}
	rows, err := db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return fmt.Errorf("read schema_migrations: %w", err)
	}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			rows.Close()
			return err
		}
		applied[v] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, m := range migrations {
		if applied[m.version] {
			continue
		}
		err := WithTx(ctx, db, func(tx *sql.Tx) error {
			for _, stmt := range m.stmts {
				if _, err := tx.ExecContext(ctx, stmt); err != nil {
					return err
				}
			}
			_, err := tx.ExecContext(ctx,
				`INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, ?)`,
				m.version, m.name, FormatTime(time.Now()))
			return err
		})
		if err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
		}
		log.Printf("[DB] [INFO] applied migration %d: %s", m.version, m.name)
	}
	return nil
}
