package http

import (
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/numberdesk/numberdesk/internal/number_service/app"
)

// AuthConfig carries the admin credential and token settings for the API
// surface. The password is configured as a bcrypt hash.
type AuthConfig struct {
	AdminUsername     string
	AdminPasswordHash string
	JWTAccessSecret   string
	JWTAccessExpiry   time.Duration
}

// AuthHandler handles admin login and session teardown.
type AuthHandler struct {
	config   AuthConfig
	sessions *app.SessionManager
	logger   *slog.Logger
	validate *validator.Validate
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(config AuthConfig, sessions *app.SessionManager, logger *slog.Logger, validate *validator.Validate) *AuthHandler {
	return &AuthHandler{
		config:   config,
		sessions: sessions,
		logger:   logger.With("handler", "auth"),
		validate: validate,
	}
}

// RegisterRoutes registers the unauthenticated auth routes.
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/login", h.handleLogin)
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if err := h.validate.StructCtx(r.Context(), req); err != nil {
		h.jsonError(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	if h.config.AdminUsername == "" || h.config.AdminPasswordHash == "" {
		h.logger.ErrorContext(r.Context(), "Admin credentials not configured")
		h.jsonError(w, "Admin login is not configured on this deployment", http.StatusServiceUnavailable)
		return
	}

	usernameMatch := subtle.ConstantTimeCompare([]byte(req.Username), []byte(h.config.AdminUsername)) == 1
	passwordErr := bcrypt.CompareHashAndPassword([]byte(h.config.AdminPasswordHash), []byte(req.Password))
	if !usernameMatch || passwordErr != nil {
		h.logger.WarnContext(r.Context(), "Login rejected", "username", req.Username)
		h.jsonError(w, "Invalid username or password", http.StatusUnauthorized)
		return
	}

	session := h.sessions.Create()
	expiresAt := time.Now().Add(h.config.JWTAccessExpiry)
	claims := jwt.RegisteredClaims{
		Subject:   session.ID,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(h.config.JWTAccessSecret))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to sign session token", "error", err)
		h.sessions.End(session.ID)
		h.jsonError(w, "Login failed", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(r.Context(), "Admin logged in", "session_id", session.ID)
	response := LoginResponse{
		AccessToken: signed,
		SessionID:   session.ID,
		ExpiresAt:   expiresAt.UTC().Format(time.RFC3339),
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// jsonError is a helper to write JSON error responses.
func (h *AuthHandler) jsonError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(GenericErrorResponse{Error: message})
}
