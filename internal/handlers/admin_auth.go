package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/UDANA333/joy-cookies-cupcakes-sub000/internal/deviceauth"
	"github.com/UDANA333/joy-cookies-cupcakes-sub000/internal/middleware"
)

type AdminLoginRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required"`
	DeviceToken string `json:"deviceToken"`
}

type RegisterDeviceRequest struct {
	Code        string `json:"code" binding:"required"`
	DeviceName  string `json:"deviceName" binding:"required"`
	BrowserInfo string `json:"browserInfo"`
}

func respondGateError(c *gin.Context, route string, err error) {
	switch {
	case errors.Is(err, deviceauth.ErrInvalidCredentials):
		respondWithError(c, http.StatusUnauthorized, route, "invalid credentials")
	case errors.Is(err, deviceauth.ErrSessionInvalid):
		respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
	case errors.Is(err, deviceauth.ErrDeviceNotRegistered):
		respondWithError(c, http.StatusForbidden, route, "this device is not registered")
	case errors.Is(err, deviceauth.ErrDeviceRevoked):
		respondWithError(c, http.StatusForbidden, route, "device has been revoked")
	case errors.Is(err, deviceauth.ErrDeviceNameRequired):
		respondWithError(c, http.StatusBadRequest, route, "device name is required")
	case errors.Is(err, deviceauth.ErrInvalidCode):
		respondWithError(c, http.StatusNotFound, route, "invalid registration code")
	case errors.Is(err, deviceauth.ErrCodeUsed):
		respondWithError(c, http.StatusConflict, route, "registration code already used")
	case errors.Is(err, deviceauth.ErrCodeExpired):
		respondWithError(c, http.StatusConflict, route, "registration code expired")
	case errors.Is(err, deviceauth.ErrBootstrapClosed):
		respondWithError(c, http.StatusConflict, route, "bootstrap registration is closed")
	case errors.Is(err, deviceauth.ErrLastDevice):
		respondWithError(c, http.StatusConflict, route, "cannot revoke the last active device")
	case errors.Is(err, deviceauth.ErrDeviceNotFound):
		respondWithError(c, http.StatusNotFound, route, "device not found")
	case errors.Is(err, deviceauth.ErrAdminNotFound):
		respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
	default:
		log.Printf("[%s] [ERROR] %v", route, err)
		respondWithError(c, http.StatusInternalServerError, route, "internal server error")
	}
}

func AdminLogin(gate *deviceauth.Gate) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /auth/login"
		defer handlePanic(c, route)

		var req AdminLoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		session, err := gate.Login(ctx, req.Email, req.Password, req.DeviceToken)
		switch {
		case errors.Is(err, deviceauth.ErrDeviceNotRegistered):
			respondWithError(c, http.StatusUnauthorized, route, "this device is not registered")
			return
		case errors.Is(err, deviceauth.ErrDeviceRevoked):
			respondWithError(c, http.StatusUnauthorized, route, "device has been revoked")
			return
		case err != nil:
			respondGateError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"token":          session.Token,
			"expiresAt":      session.ExpiresAt,
			"admin":          session.Admin,
			"newDeviceToken": session.DeviceToken,
		})
	}
}

func RegisterDevice(gate *deviceauth.Gate) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /auth/register-device"
		defer handlePanic(c, route)

		var req RegisterDeviceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		browser := req.BrowserInfo
		if browser == "" {
			browser = c.GetHeader("User-Agent")
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		reg, err := gate.RegisterDevice(ctx, req.Code, req.DeviceName, browser)
		if err != nil {
			respondGateError(c, route, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"deviceToken": reg.Token,
			"device":      reg.Device,
		})
	}
}

func VerifySession(gate *deviceauth.Gate) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /auth/verify"
		defer handlePanic(c, route)

		principal, ok := middleware.PrincipalFrom(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		admin, err := gate.Admin(ctx, principal.AdminID)
		if err != nil {
			respondGateError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"valid":    true,
			"admin":    admin,
			"deviceId": principal.DeviceID,
			"legacy":   principal.Legacy,
		})
	}
}

func ListDevices(gate *deviceauth.Gate) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /auth/devices"
		defer handlePanic(c, route)

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		devices, err := gate.ListDevices(ctx)
		if err != nil {
			respondGateError(c, route, err)
			return
		}

		principal, _ := middleware.PrincipalFrom(c)
		c.JSON(http.StatusOK, gin.H{
			"devices":         devices,
			"currentDeviceId": principal.DeviceID,
		})
	}
}

func GenerateDeviceCode(gate *deviceauth.Gate) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /auth/devices/generate-code"
		defer handlePanic(c, route)

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		code, err := gate.GenerateCode(ctx)
		if err != nil {
			respondGateError(c, route, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"code":      code.Code,
			"expiresAt": code.ExpiresAt,
		})
	}
}

func RevokeDevice(gate *deviceauth.Gate) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /auth/devices/:id"
		defer handlePanic(c, route)

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		err := gate.RevokeDevice(ctx, c.Param("id"))
		if errors.Is(err, deviceauth.ErrDeviceRevoked) {
			respondWithError(c, http.StatusConflict, route, "device already revoked")
			return
		}
		if err != nil {
			respondGateError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "device revoked"})
	}
}
