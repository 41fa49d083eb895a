package handlers

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/UDANA333/joy-cookies-cupcakes-sub000/internal/database"
	"github.com/UDANA333/joy-cookies-cupcakes-sub000/internal/models"
)

type CategoryCreateRequest struct {
	Name         string `json:"name" binding:"required"`
	DisplayOrder int    `json:"displayOrder"`
	IsActive     *bool  `json:"isActive"`
}

type CategoryUpdateRequest struct {
	Name         *string `json:"name"`
	DisplayOrder *int    `json:"displayOrder"`
	IsActive     *bool   `json:"isActive"`
}

const categoryColumns = `slug, name, display_order, is_active, created_at`

func scanCategory(row rowScanner) (models.Category, error) {
	var (
		cat      models.Category
		isActive int
		created  string
	)
	if err := row.Scan(&cat.Slug, &cat.Name, &cat.DisplayOrder, &isActive, &created); err != nil {
		return models.Category{}, err
	}
	cat.IsActive = isActive == 1
	var err error
	cat.CreatedAt, err = database.ParseTime(created)
	return cat, err
}

func queryCategories(ctx context.Context, db *sql.DB, query string, args ...any) ([]models.Category, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := make([]models.Category, 0)
	for rows.Next() {
		cat, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, cat)
	}
	return categories, rows.Err()
}

/*
GET /admin/categories
- every category, active or not
*/
func GetAllCategories(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/categories"
		defer handlePanic(c, route)

		query := `SELECT ` + categoryColumns + ` FROM categories`
		var args []any
		// ?isActive=true/false
		if v := strings.TrimSpace(c.Query("isActive")); v != "" {
			query += ` WHERE is_active = ?`
			args = append(args, database.BoolToInt(v == "true"))
		}
		query += ` ORDER BY display_order, name`

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		categories, err := queryCategories(ctx, db, query, args...)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"data": categories})
	}
}

/*
POST /admin/categories
- the slug is derived from the name; names and slugs are unique
*/
func CreateCategory(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /admin/categories"
		defer handlePanic(c, route)

		var req CategoryCreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		name := strings.TrimSpace(req.Name)
		slug := slugify(name)
		if slug == "" {
			respondWithError(c, http.StatusBadRequest, route, "name required")
			return
		}

		isActive := true
		if req.IsActive != nil {
			isActive = *req.IsActive
		}

		category := models.Category{
			Slug:         slug,
			Name:         name,
			DisplayOrder: req.DisplayOrder,
			IsActive:     isActive,
			CreatedAt:    time.Now().UTC(),
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		_, err := db.ExecContext(ctx,
			`INSERT INTO categories (`+categoryColumns+`) VALUES (?, ?, ?, ?, ?)`,
			category.Slug, category.Name, category.DisplayOrder, database.BoolToInt(category.IsActive),
			database.FormatTime(category.CreatedAt))
		if database.IsUniqueViolation(err) {
			respondWithError(c, http.StatusConflict, route, "category already exists")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusCreated, category)
	}
}

/*
PUT /admin/categories/:slug
- the slug stays fixed so product and theme references survive a rename
*/
func UpdateCategory(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /admin/categories/:slug"
		defer handlePanic(c, route)

		var req CategoryUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		var (
			sets []string
			args []any
		)
		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				respondWithError(c, http.StatusBadRequest, route, "name cannot be empty")
				return
			}
			sets = append(sets, "name = ?")
			args = append(args, name)
		}
		if req.DisplayOrder != nil {
			sets = append(sets, "display_order = ?")
			args = append(args, *req.DisplayOrder)
		}
		if req.IsActive != nil {
			sets = append(sets, "is_active = ?")
			args = append(args, database.BoolToInt(*req.IsActive))
		}
		if len(sets) == 0 {
			respondWithError(c, http.StatusBadRequest, route, "no fields to update")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		slug := c.Param("slug")
		res, err := db.ExecContext(ctx,
			`UPDATE categories SET `+strings.Join(sets, ", ")+` WHERE slug = ?`,
			append(args, slug)...)
		if database.IsUniqueViolation(err) {
			respondWithError(c, http.StatusConflict, route, "category already exists")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if n, _ := res.RowsAffected(); n == 0 {
			respondWithError(c, http.StatusNotFound, route, "category not found")
			return
		}

		updated, err := scanCategory(db.QueryRowContext(ctx,
			`SELECT `+categoryColumns+` FROM categories WHERE slug = ?`, slug))
		if errors.Is(err, sql.ErrNoRows) {
			respondWithError(c, http.StatusNotFound, route, "category not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, updated)
	}
}

/*
DELETE /admin/categories/:slug
- products keep existing with no category, the seasonal theme goes with it
*/
func DeleteCategory(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /admin/categories/:slug"
		defer handlePanic(c, route)

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		res, err := db.ExecContext(ctx, `DELETE FROM categories WHERE slug = ?`, c.Param("slug"))
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if n, _ := res.RowsAffected(); n == 0 {
			respondWithError(c, http.StatusNotFound, route, "category not found")
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "category deleted"})
	}
}
