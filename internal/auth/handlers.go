package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/seacable/atlas-backend/internal/apperr"
	"github.com/seacable/atlas-backend/internal/utils"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type Handler struct {
	store  Store
	ttl    time.Duration
	secure bool
	log    *zap.Logger
	now    func() time.Time
}

// NewHandler serves the auth routes. secure marks the session cookie
// Secure/SameSite=None for cross-site deployments.
func NewHandler(store Store, ttl time.Duration, secure bool, log *zap.Logger) *Handler {
	return &Handler{store: store, ttl: ttl, secure: secure, log: log, now: time.Now}
}

func (h *Handler) sessionCookie(value string, maxAge int) *http.Cookie {
	c := &http.Cookie{
		Name:     "session_id",
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if h.secure {
		c.Secure = true
		c.SameSite = http.SameSiteNoneMode
	}
	return c
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperr.WriteMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		apperr.WriteMessage(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	user, err := h.store.FindUserByEmail(r.Context(), req.Email)
	if errors.Is(err, ErrUserNotFound) {
		apperr.WriteMessage(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	if err != nil {
		apperr.Write(w, h.log, err)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(req.Password)); err != nil {
		apperr.WriteMessage(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	session := Session{
		SessionID: utils.GenerateUUID(),
		UserID:    user.UserID,
		ExpiresAt: h.now().Add(h.ttl),
	}
	if err := h.store.SaveSession(r.Context(), session); err != nil {
		apperr.Write(w, h.log, err)
		return
	}

	http.SetCookie(w, h.sessionCookie(session.SessionID, int(h.ttl.Seconds())))
	h.log.Info("user logged in", zap.String("user_id", user.UserID))
	utils.WriteJSON(w, http.StatusOK, user.Profile())
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie("session_id")
	if err != nil {
		apperr.WriteMessage(w, http.StatusUnauthorized, "Couldn't find cookie")
		return
	}

	if err := h.store.DeleteSession(r.Context(), cookie.Value); err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			apperr.WriteMessage(w, http.StatusUnauthorized, "Couldn't find session")
			return
		}
		apperr.Write(w, h.log, err)
		return
	}

	http.SetCookie(w, h.sessionCookie("", -1))
	utils.WriteJSON(w, http.StatusOK, map[string]string{"message": "Logout successful"})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		apperr.WriteMessage(w, http.StatusUnauthorized, "Unauthorized: missing user ID in context")
		return
	}

	user, err := h.store.FindUserByID(r.Context(), userID)
	if errors.Is(err, ErrUserNotFound) {
		apperr.WriteMessage(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		apperr.Write(w, h.log, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, user.Profile())
}

type passwordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		apperr.WriteMessage(w, http.StatusUnauthorized, "Unauthorized: missing user ID in context")
		return
	}

	var req passwordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperr.WriteMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.CurrentPassword == "" || req.NewPassword == "" || req.ConfirmPassword == "" {
		apperr.WriteMessage(w, http.StatusBadRequest, "All password fields are required")
		return
	}

	user, err := h.store.FindUserByID(r.Context(), userID)
	if errors.Is(err, ErrUserNotFound) {
		apperr.WriteMessage(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		apperr.Write(w, h.log, err)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(req.CurrentPassword)); err != nil {
		apperr.WriteMessage(w, http.StatusBadRequest, "Current password is incorrect")
		return
	}
	if req.NewPassword != req.ConfirmPassword {
		apperr.WriteMessage(w, http.StatusBadRequest, "New password and confirmation do not match")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		apperr.Write(w, h.log, err)
		return
	}
	if err := h.store.UpdatePassword(r.Context(), userID, string(hashed)); err != nil {
		apperr.Write(w, h.log, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]string{"success": "Password updated successfully"})
}
