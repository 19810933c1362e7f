package handler

import (
	"errors"
	"net/http"

	"daily-meals/internal/logger"
	"daily-meals/internal/middleware"
	"daily-meals/internal/model"
	"daily-meals/internal/service"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	auth   *service.AuthService
	tokens *middleware.Tokens
}

func NewAuthHandler(auth *service.AuthService, tokens *middleware.Tokens) *AuthHandler {
	return &AuthHandler{auth: auth, tokens: tokens}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	u, err := h.auth.Login(c.Request.Context(), req.Email)
	if errors.Is(err, service.ErrNotAllowed) {
		logger.Warn("login.denied", "email", req.Email)
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		logger.Error("login.failed", "email", req.Email, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	token, err := h.tokens.Issue(u)
	if err != nil {
		logger.Error("login.token", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}
	logger.Info("login.ok", "email", u.Email, "center", u.Center, "admin", u.Admin)
	c.JSON(http.StatusOK, model.LoginResponse{Token: token, User: *u})
}

// Me re-reads the directory so a token never outlives its allow-list entry.
func (h *AuthHandler) Me(c *gin.Context) {
	u, err := h.auth.Login(c.Request.Context(), middleware.Email(c))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, u)
}
