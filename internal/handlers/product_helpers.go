package handlers

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"unicode"

	"github.com/UDANA333/joy-cookies-cupcakes-sub000/internal/database"
	"github.com/UDANA333/joy-cookies-cupcakes-sub000/internal/models"
)

const productColumns = `id, name, price, sale_enabled, sale_price, COALESCE(category_slug, ''),
	description, image_path, is_active, created_at, updated_at`

var errCategoryNotFound = errors.New("category not found")

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (models.Product, error) {
	var (
		p                models.Product
		saleEnabled      int
		isActive         int
		created, updated string
	)
	err := row.Scan(&p.ID, &p.Name, &p.Price, &saleEnabled, &p.SalePrice, &p.CategorySlug,
		&p.Description, &p.ImagePath, &isActive, &created, &updated)
	if err != nil {
		return models.Product{}, err
	}
	p.SaleEnabled = saleEnabled == 1
	p.IsActive = isActive == 1
	pricing := salePricing{Price: p.Price, Enabled: p.SaleEnabled, SalePrice: p.SalePrice}
	p.IsOnSale = pricing.onSale()
	p.EffectivePrice = pricing.effective()
	if p.CreatedAt, err = database.ParseTime(created); err != nil {
		return models.Product{}, err
	}
	if p.UpdatedAt, err = database.ParseTime(updated); err != nil {
		return models.Product{}, err
	}
	return p, nil
}

func queryProducts(ctx context.Context, db *sql.DB, query string, args ...any) ([]models.Product, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]models.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// resolveCategorySlug checks that slug names an existing category. An empty slug
// leaves the product uncategorised.
func resolveCategorySlug(ctx context.Context, db *sql.DB, slug string) (sql.NullString, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return sql.NullString{}, nil
	}
	var found string
	err := db.QueryRowContext(ctx, `SELECT slug FROM categories WHERE slug = ?`, slug).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return sql.NullString{}, errCategoryNotFound
	}
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: found, Valid: true}, nil
}

// slugify lowercases name and joins its letter and digit runs with hyphens.
func slugify(name string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			pendingDash = false
			continue
		}
		pendingDash = true
	}
	return b.String()
}

func likePattern(search string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + replacer.Replace(strings.TrimSpace(search)) + "%"
}
