package handlers

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

/*
GET /products
- only active products
- page + limit are optional; without both every product is returned
*/
func GetProducts(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /products"
		defer handlePanic(c, route)

		log.Printf("[%s] hit page=%s limit=%s category=%s search=%s",
			route, c.Query("page"), c.Query("limit"), c.Query("category"), c.Query("search"))

		if err := ensureDBConnection(c.Request.Context(), db); err != nil {
			respondWithError(c, http.StatusServiceUnavailable, route, "database unavailable")
			return
		}

		where := []string{"is_active = 1"}
		var args []any

		if category := strings.TrimSpace(c.Query("category")); category != "" {
			where = append(where, "category_slug = ?")
			args = append(args, category)
		}
		if search := strings.TrimSpace(c.Query("search")); search != "" {
			where = append(where, `name LIKE ? ESCAPE '\'`)
			args = append(args, likePattern(search))
		}
		if c.Query("onSale") == "true" {
			where = append(where, "sale_enabled = 1 AND sale_price > 0 AND sale_price < price")
		}

		query := `SELECT ` + productColumns + ` FROM products WHERE ` +
			strings.Join(where, " AND ") + ` ORDER BY created_at DESC`

		if hasPage(c) {
			page, err := pageFrom(c)
			if err != nil {
				respondWithError(c, http.StatusBadRequest, route, err.Error())
				return
			}
			query += ` LIMIT ? OFFSET ?`
			args = append(args, page.Limit, page.offset())
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		products, err := queryProducts(ctx, db, query, args...)
		if err != nil {
			log.Printf("[%s] [ERROR] %v", route, err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		log.Printf("[%s] returning %d products", route, len(products))
		c.JSON(http.StatusOK, products)
	}
}
