package deviceauth

import "errors"

var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrDeviceNotRegistered = errors.New("device not registered")
	ErrDeviceRevoked       = errors.New("device revoked")
	ErrDeviceNotFound      = errors.New("device not found")
	ErrLastDevice          = errors.New("cannot revoke the last active device")
	ErrSessionInvalid      = errors.New("invalid session")
	ErrBootstrapClosed     = errors.New("bootstrap registration is closed")
	ErrInvalidCode         = errors.New("invalid registration code")
	ErrCodeUsed            = errors.New("registration code already used")
	ErrCodeExpired         = errors.New("registration code expired")
	ErrDeviceNameRequired  = errors.New("device name is required")
	ErrAdminNotFound       = errors.New("admin not found")
)
