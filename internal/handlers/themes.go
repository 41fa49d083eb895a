package handlers

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/UDANA333/joy-cookies-cupcakes-sub000/internal/database"
	"github.com/UDANA333/joy-cookies-cupcakes-sub000/internal/models"
)

const themeColumns = `category_slug, title, description, accent_color, starts_on, ends_on, is_active, updated_at`

var accentColorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

type ThemeRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	AccentColor string `json:"accentColor"`
	StartsOn    string `json:"startsOn" binding:"omitempty,datetime=2006-01-02"`
	EndsOn      string `json:"endsOn" binding:"omitempty,datetime=2006-01-02"`
	IsActive    *bool  `json:"isActive"`
}

func scanTheme(row rowScanner) (models.SeasonalTheme, error) {
	var (
		t        models.SeasonalTheme
		isActive int
		updated  string
	)
	if err := row.Scan(&t.CategorySlug, &t.Title, &t.Description, &t.AccentColor,
		&t.StartsOn, &t.EndsOn, &isActive, &updated); err != nil {
		return models.SeasonalTheme{}, err
	}
	t.IsActive = isActive == 1
	var err error
	t.UpdatedAt, err = database.ParseTime(updated)
	return t, err
}

func queryThemes(ctx context.Context, db *sql.DB, query string, args ...any) ([]models.SeasonalTheme, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	themes := make([]models.SeasonalTheme, 0)
	for rows.Next() {
		t, err := scanTheme(rows)
		if err != nil {
			return nil, err
		}
		themes = append(themes, t)
	}
	return themes, rows.Err()
}

// GetActiveThemes returns active themes whose date window contains today.
// An empty bound is open.
func GetActiveThemes(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /themes/active"
		defer handlePanic(c, route)

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		today := time.Now().UTC().Format("2006-01-02")
		themes, err := queryThemes(ctx, db, `
			SELECT `+themeColumns+` FROM seasonal_themes
			WHERE is_active = 1
			  AND (starts_on = '' OR starts_on <= ?)
			  AND (ends_on = '' OR ends_on >= ?)
			ORDER BY category_slug`, today, today)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, themes)
	}
}

func GetAllThemes(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/themes"
		defer handlePanic(c, route)

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		themes, err := queryThemes(ctx, db, `SELECT `+themeColumns+` FROM seasonal_themes ORDER BY category_slug`)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"data": themes})
	}
}

// UpsertTheme sets the seasonal theme of the category named by :slug.
func UpsertTheme(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /admin/themes/:slug"
		defer handlePanic(c, route)

		var req ThemeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}
		if req.AccentColor != "" && !accentColorPattern.MatchString(req.AccentColor) {
			respondWithError(c, http.StatusBadRequest, route, "accentColor must look like #RRGGBB")
			return
		}
		if req.StartsOn != "" && req.EndsOn != "" && req.EndsOn < req.StartsOn {
			respondWithError(c, http.StatusBadRequest, route, "endsOn must not be before startsOn")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		category, err := resolveCategorySlug(ctx, db, c.Param("slug"))
		if errors.Is(err, errCategoryNotFound) || (err == nil && !category.Valid) {
			respondWithError(c, http.StatusNotFound, route, "category not found")
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
		theme := models.SeasonalTheme{
			CategorySlug: category.String,
			Title:        strings.TrimSpace(req.Title),
			Description:  strings.TrimSpace(req.Description),
			AccentColor:  req.AccentColor,
			StartsOn:     req.StartsOn,
			EndsOn:       req.EndsOn,
			IsActive:     isActive,
			UpdatedAt:    time.Now().UTC(),
		}

		_, err = db.ExecContext(ctx, `
			INSERT INTO seasonal_themes (`+themeColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (category_slug) DO UPDATE SET
				title = excluded.title,
				description = excluded.description,
				accent_color = excluded.accent_color,
				starts_on = excluded.starts_on,
				ends_on = excluded.ends_on,
				is_active = excluded.is_active,
				updated_at = excluded.updated_at`,
			theme.CategorySlug, theme.Title, theme.Description, theme.AccentColor,
			theme.StartsOn, theme.EndsOn, database.BoolToInt(theme.IsActive), database.FormatTime(theme.UpdatedAt))
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, theme)
	}
}

func DeleteTheme(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /admin/themes/:slug"
		defer handlePanic(c, route)

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		res, err := db.ExecContext(ctx, `DELETE FROM seasonal_themes WHERE category_slug = ?`, c.Param("slug"))
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if n, _ := res.RowsAffected(); n == 0 {
			respondWithError(c, http.StatusNotFound, route, "theme not found")
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "theme deleted"})
	}
}
