// Package httpapi is the reference backend's HTTP and websocket transport.
package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/arbdesk/arbdesk/backend/engines"
	"github.com/arbdesk/arbdesk/backend/service"
	"github.com/arbdesk/arbdesk/core"
)

// Handlers contains the HTTP handlers for the auth and engine endpoints.
type Handlers struct {
	auth *service.AuthService
	sup  *engines.Supervisor
	log  zerolog.Logger
}

// NewHandlers creates the handler set.
func NewHandlers(auth *service.AuthService, sup *engines.Supervisor, log zerolog.Logger) *Handlers {
	return &Handlers{
		auth: auth,
		sup:  sup,
		log:  log.With().Str("component", "httpapi").Logger(),
	}
}

// Nonce issues a fresh single-use challenge nonce.
func (h *Handlers) Nonce(c *gin.Context) {
	nonce, err := h.auth.IssueNonce(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to issue nonce")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue nonce"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"nonce": nonce})
}

// Verify checks a signed message and returns a session token.
func (h *Handlers) Verify(c *gin.Context) {
	var req struct {
		Message   string `json:"message" binding:"required"`
		Signature string `json:"signature" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	token, identity, err := h.auth.VerifyLogin(c.Request.Context(), req.Message, req.Signature)
	if err != nil {
		status := http.StatusUnauthorized
		msg := "signature verification failed"
		switch {
		case errors.Is(err, service.ErrInvalidMessage):
			status = http.StatusBadRequest
			msg = "invalid sign-in message"
		case errors.Is(err, core.ErrInvalidNonce):
			msg = "unknown or already used nonce"
		}
		h.log.Info().Err(err).Msg("login rejected")
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":   token,
		"address": identity.Address,
		"role":    identity.Role,
	})
}

// Session reports the identity behind a valid bearer token.
func (h *Handlers) Session(c *gin.Context) {
	identity := identityFrom(c)
	c.JSON(http.StatusOK, identity)
}

// Logout revokes the presented token.
func (h *Handlers) Logout(c *gin.Context) {
	token := rawTokenFrom(c)
	if err := h.auth.Logout(c.Request.Context(), token); err != nil {
		h.log.Warn().Err(err).Msg("failed to revoke token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to logout"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// Engines returns the per-engine reports.
func (h *Handlers) Engines(c *gin.Context) {
	c.JSON(http.StatusOK, h.sup.Reports())
}

// StartEngine starts the named engine.
func (h *Handlers) StartEngine(c *gin.Context) {
	h.toggleEngine(c, h.sup.Start)
}

// StopEngine stops the named engine.
func (h *Handlers) StopEngine(c *gin.Context) {
	h.toggleEngine(c, h.sup.Stop)
}

func (h *Handlers) toggleEngine(c *gin.Context, op func(string) error) {
	name := c.Param("name")
	if err := op(name); err != nil {
		if errors.Is(err, engines.ErrUnknownEngine) {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown engine"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "engine operation failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": h.sup.Snapshot()})
}
