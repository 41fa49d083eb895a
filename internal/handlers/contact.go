package handlers

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/UDANA333/joy-cookies-cupcakes-sub000/internal/database"
	"github.com/UDANA333/joy-cookies-cupcakes-sub000/internal/models"
	"github.com/UDANA333/joy-cookies-cupcakes-sub000/internal/notify"
)

type contactRequest struct {
	Name    string `json:"name" binding:"required,max=120"`
	Email   string `json:"email" binding:"required,email"`
	Phone   string `json:"phone" binding:"omitempty,usphone"`
	Subject string `json:"subject" binding:"max=200"`
	Message string `json:"message" binding:"required,max=5000"`
}

// SubmitContact stores a storefront contact message and forwards it to the
// business inbox.
func SubmitContact(db *sql.DB, dispatcher *notify.Dispatcher, businessEmail string) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /contact"
		defer handlePanic(c, route)

		var req contactRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		msg := models.ContactMessage{
			ID:        uuid.NewString(),
			Name:      strings.TrimSpace(req.Name),
			Email:     strings.ToLower(strings.TrimSpace(req.Email)),
			Phone:     strings.TrimSpace(req.Phone),
			Subject:   strings.TrimSpace(req.Subject),
			Message:   strings.TrimSpace(req.Message),
			CreatedAt: time.Now().UTC(),
		}
		if msg.Name == "" || msg.Message == "" {
			respondWithError(c, http.StatusBadRequest, route, "name and message are required")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		_, err := db.ExecContext(ctx, `
			INSERT INTO contact_messages (id, name, email, phone, subject, message, is_read, created_at)
			VALUES (?, ?, ?, ?, ?, ?, 0, ?)`,
			msg.ID, msg.Name, msg.Email, msg.Phone, msg.Subject, msg.Message, database.FormatTime(msg.CreatedAt))
		if err != nil {
			log.Printf("[%s] [ERROR] insert: %v", route, err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		if dispatcher != nil {
			dispatcher.Dispatch(notify.ContactReceived(msg, businessEmail))
		}

		c.JSON(http.StatusCreated, gin.H{"id": msg.ID, "message": "message received"})
	}
}

func ListContactMessages(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/contact"
		defer handlePanic(c, route)

		query := `SELECT id, name, email, phone, subject, message, is_read, created_at FROM contact_messages`
		if c.Query("unread") == "true" {
			query += ` WHERE is_read = 0`
		}
		query += ` ORDER BY created_at DESC`

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		rows, err := db.QueryContext(ctx, query)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer rows.Close()

		messages := make([]models.ContactMessage, 0)
		for rows.Next() {
			var (
				m       models.ContactMessage
				isRead  int
				created string
			)
			if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Phone, &m.Subject, &m.Message, &isRead, &created); err != nil {
				respondWithError(c, http.StatusInternalServerError, route, "decode error")
				return
			}
			m.IsRead = isRead == 1
			if m.CreatedAt, err = database.ParseTime(created); err != nil {
				respondWithError(c, http.StatusInternalServerError, route, "decode error")
				return
			}
			messages = append(messages, m)
		}
		if err := rows.Err(); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"data": messages})
	}
}

func MarkContactRead(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PATCH /admin/contact/:id/read"
		defer handlePanic(c, route)

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		res, err := db.ExecContext(ctx, `UPDATE contact_messages SET is_read = 1 WHERE id = ?`, c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if n, _ := res.RowsAffected(); n == 0 {
			respondWithError(c, http.StatusNotFound, route, "message not found")
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "marked as read"})
	}
}
