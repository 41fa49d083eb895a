package models

import "time"

type Category struct {
	Slug         string    `json:"slug"`
	Name         string    `json:"name"`
	DisplayOrder int       `json:"displayOrder"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
}

// SeasonalTheme decorates a category for a season. Deleting the category deletes its theme.
type SeasonalTheme struct {
	CategorySlug string    `json:"categorySlug"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	AccentColor  string    `json:"accentColor,omitempty"`
	StartsOn     string    `json:"startsOn,omitempty"`
	EndsOn       string    `json:"endsOn,omitempty"`
	IsActive     bool      `json:"isActive"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type ContactMessage struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Subject   string    `json:"subject,omitempty"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
}
