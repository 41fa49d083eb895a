package handlers

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/UDANA333/joy-cookies-cupcakes-sub000/internal/database"
	"github.com/UDANA333/joy-cookies-cupcakes-sub000/internal/models"
)

/* =======================
   REQUEST MODELS
======================= */

type ProductCreateRequest struct {
	Name         string   `json:"name" binding:"required"`
	Price        *float64 `json:"price" binding:"required,gt=0"`
	SaleEnabled  *bool    `json:"saleEnabled"`
	SalePrice    *float64 `json:"salePrice"`
	CategorySlug string   `json:"categorySlug"`
	Description  string   `json:"description"`
	ImagePath    string   `json:"imagePath"`
	IsActive     *bool    `json:"isActive"`
}

type ProductUpdateRequest struct {
	Name         *string  `json:"name"`
	Price        *float64 `json:"price"`
	SaleEnabled  *bool    `json:"saleEnabled"`
	SalePrice    *float64 `json:"salePrice"`
	CategorySlug *string  `json:"categorySlug"`
	Description  *string  `json:"description"`
	ImagePath    *string  `json:"imagePath"`
	IsActive     *bool    `json:"isActive"`
}

func loadProduct(ctx context.Context, db *sql.DB, id string) (models.Product, error) {
	return scanProduct(db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = ?`, id))
}

/* =======================
   GET (ADMIN) – LIST
======================= */

func GetAllProducts(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/products"
		defer handlePanic(c, route)

		page, err := pageFrom(c)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		where := []string{"1 = 1"}
		var args []any
		if category := strings.TrimSpace(c.Query("category")); category != "" {
			where = append(where, "category_slug = ?")
			args = append(args, category)
		}
		if search := strings.TrimSpace(c.Query("search")); search != "" {
			where = append(where, `(name LIKE ? ESCAPE '\' OR description LIKE ? ESCAPE '\')`)
			args = append(args, likePattern(search), likePattern(search))
		}
		if isActive := strings.TrimSpace(c.Query("isActive")); isActive != "" {
			where = append(where, "is_active = ?")
			args = append(args, database.BoolToInt(strings.EqualFold(isActive, "true")))
		}
		clause := strings.Join(where, " AND ")

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		var total int64
		if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products WHERE `+clause, args...).Scan(&total); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		totalPages := 0
		if total > 0 {
			totalPages = int(math.Ceil(float64(total) / float64(page.Limit)))
		}

		products, err := queryProducts(ctx, db,
			`SELECT `+productColumns+` FROM products WHERE `+clause+` ORDER BY created_at DESC LIMIT ? OFFSET ?`,
			append(args, page.Limit, page.offset())...)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"data": products,
			"pagination": gin.H{
				"page":       page.Page,
				"limit":      page.Limit,
				"total":      total,
				"totalPages": totalPages,
			},
		})
	}
}

/* =======================
   CREATE
======================= */

func CreateProduct(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /admin/products"
		defer handlePanic(c, route)

		var req ProductCreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		name := strings.TrimSpace(req.Name)
		if name == "" {
			respondWithError(c, http.StatusBadRequest, route, "name required")
			return
		}

		pricing := salePricing{Price: *req.Price, Enabled: req.SaleEnabled != nil && *req.SaleEnabled}
		if req.SalePrice != nil {
			pricing.SalePrice = *req.SalePrice
		}
		if err := pricing.validate(req.SalePrice != nil); err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		category, err := resolveCategorySlug(ctx, db, req.CategorySlug)
		if errors.Is(err, errCategoryNotFound) {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		isActive := true
		if req.IsActive != nil {
			isActive = *req.IsActive
		}

		now := time.Now().UTC()
		product := models.Product{
			ID:             uuid.NewString(),
			Name:           name,
			Price:          pricing.Price,
			SaleEnabled:    pricing.Enabled,
			SalePrice:      pricing.SalePrice,
			IsOnSale:       pricing.onSale(),
			EffectivePrice: pricing.effective(),
			CategorySlug:   category.String,
			Description:    strings.TrimSpace(req.Description),
			ImagePath:      strings.TrimSpace(req.ImagePath),
			IsActive:       isActive,
			CreatedAt:      now,
			UpdatedAt:      now,
		}

		_, err = db.ExecContext(ctx, `
			INSERT INTO products (id, name, price, sale_enabled, sale_price, category_slug,
				description, image_path, is_active, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			product.ID, product.Name, product.Price, database.BoolToInt(product.SaleEnabled), product.SalePrice,
			category, product.Description, product.ImagePath, database.BoolToInt(product.IsActive),
			database.FormatTime(now), database.FormatTime(now))
		if database.IsUniqueViolation(err) {
			respondWithError(c, http.StatusConflict, route, "product already exists")
			return
		}
		if err != nil {
			log.Printf("[%s] [ERROR] insert: %v", route, err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		log.Printf("[%s] product created: %s", route, product.ID)
		c.JSON(http.StatusCreated, product)
	}
}

/* =======================
   UPDATE
======================= */

func UpdateProduct(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /admin/products/:id"
		defer handlePanic(c, route)

		var req ProductUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		existing, err := loadProduct(ctx, db, c.Param("id"))
		if errors.Is(err, sql.ErrNoRows) {
			respondWithError(c, http.StatusNotFound, route, "product not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		var (
			sets []string
			args []any
		)
		set := func(column string, value any) {
			sets = append(sets, column+" = ?")
			args = append(args, value)
		}

		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				respondWithError(c, http.StatusBadRequest, route, "name required")
				return
			}
			set("name", name)
		}
		if req.Price != nil {
			if *req.Price <= 0 {
				respondWithError(c, http.StatusBadRequest, route, "invalid price")
				return
			}
			set("price", *req.Price)
		}

		current := salePricing{Price: existing.Price, Enabled: existing.SaleEnabled, SalePrice: existing.SalePrice}
		change, err := current.apply(salePatch{Price: req.Price, Enabled: req.SaleEnabled, SalePrice: req.SalePrice})
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}
		if change.WriteEnabled {
			set("sale_enabled", database.BoolToInt(change.Enabled))
		}
		if change.WriteSalePrice {
			set("sale_price", change.SalePrice)
		}

		if req.CategorySlug != nil {
			category, err := resolveCategorySlug(ctx, db, *req.CategorySlug)
			if errors.Is(err, errCategoryNotFound) {
				respondWithError(c, http.StatusBadRequest, route, err.Error())
				return
			}
			if err != nil {
				respondWithError(c, http.StatusInternalServerError, route, "db error")
				return
			}
			set("category_slug", category)
		}
		if req.Description != nil {
			set("description", strings.TrimSpace(*req.Description))
		}
		if req.ImagePath != nil {
			set("image_path", strings.TrimSpace(*req.ImagePath))
		}
		if req.IsActive != nil {
			set("is_active", database.BoolToInt(*req.IsActive))
		}

		if len(sets) == 0 {
			respondWithError(c, http.StatusBadRequest, route, "no fields to update")
			return
		}
		set("updated_at", database.FormatTime(time.Now()))

		_, err = db.ExecContext(ctx,
			`UPDATE products SET `+strings.Join(sets, ", ")+` WHERE id = ?`,
			append(args, existing.ID)...)
		if database.IsUniqueViolation(err) {
			respondWithError(c, http.StatusConflict, route, "product already exists")
			return
		}
		if err != nil {
			log.Printf("[%s] [ERROR] update: %v", route, err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		updated, err := loadProduct(ctx, db, existing.ID)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		c.JSON(http.StatusOK, updated)
	}
}

/* =======================
   DELETE
======================= */

// DeleteProduct removes a product from the catalog. Past orders keep their own
// copy of name and price so they are unaffected.
func DeleteProduct(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /admin/products/:id"
		defer handlePanic(c, route)

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		res, err := db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if n, _ := res.RowsAffected(); n == 0 {
			respondWithError(c, http.StatusNotFound, route, "product not found")
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "product deleted"})
	}
}
