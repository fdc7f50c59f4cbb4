package handler

import (
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/medisync/medisync-backend/pkg/auth"
	"github.com/medisync/medisync-backend/pkg/config"
	"github.com/medisync/medisync-backend/pkg/errors"
	"github.com/medisync/medisync-backend/pkg/httputil"
	"github.com/medisync/medisync-backend/pkg/logger"
)

// AuthHandler handles the shared nurse account login
type AuthHandler struct {
	cfg     *config.AuthConfig
	manager *auth.Manager
	logger  *logger.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(cfg *config.AuthConfig, manager *auth.Manager, log *logger.Logger) *AuthHandler {
	return &AuthHandler{
		cfg:     cfg,
		manager: manager,
		logger:  log,
	}
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Login verifies the nurse credentials and issues an access token
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	if req.Username != h.cfg.Username {
		h.logger.Warn().Str("username", req.Username).Msg("login with unknown username")
		httputil.Error(w, errors.InvalidCredentials())
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(h.cfg.PasswordHash), []byte(req.Password)); err != nil {
		h.logger.Warn().Str("username", req.Username).Msg("login with wrong password")
		httputil.Error(w, errors.InvalidCredentials())
		return
	}

	token, err := h.manager.Generate(req.Username)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	h.logger.Info().Str("username", req.Username).Msg("login succeeded")

	httputil.JSON(w, http.StatusOK, token)
}
