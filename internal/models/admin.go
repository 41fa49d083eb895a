package models

import "time"

type Admin struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Ways a device can be enrolled.
const (
	RegisteredViaBootstrap = "bootstrap"
	RegisteredViaCode      = "code"
	RegisteredViaCLI       = "cli"
)

// RegisteredDevice is a browser allowed to perform admin actions. Only the hash
// of its token is stored.
type RegisteredDevice struct {
	ID            string     `json:"id"`
	TokenHash     string     `json:"-"`
	Name          string     `json:"name"`
	BrowserInfo   string     `json:"browserInfo"`
	IsActive      bool       `json:"isActive"`
	LastUsed      *time.Time `json:"lastUsed,omitempty"`
	RegisteredVia string     `json:"registeredVia"`
	RevokedAt     *time.Time `json:"revokedAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// DeviceCode is a single-use registration code.
type DeviceCode struct {
	ID             string    `json:"id"`
	Code           string    `json:"code"`
	IsUsed         bool      `json:"isUsed"`
	UsedByDeviceID string    `json:"usedByDeviceId,omitempty"`
	ExpiresAt      time.Time `json:"expiresAt"`
	CreatedAt      time.Time `json:"createdAt"`
}
