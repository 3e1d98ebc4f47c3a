package api

import (
	"net/http"
	"strings"
	"time"

	"meditrack/m/domain"
	"meditrack/m/internal/logger"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      domain.User `json:"user"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	user, err := h.store.Users.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		respondErr(w, r, err, "unable to authenticate")
		return
	}
	token, expires, err := h.generateToken(user.ID, user.Role)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to generate token")
		return
	}

	entry := domain.AuditLogEntry{
		UserID:      &user.ID,
		ActionType:  domain.ActionLogin,
		ModuleName:  domain.ModuleAuth,
		Description: "User " + user.Username + " logged in",
	}
	if err := h.store.AuditLogs.Log(r.Context(), &entry); err != nil {
		logger.Warn(r.Context()).Err(err).Msg("audit log not written")
	}

	respondJSON(w, http.StatusOK, authResponse{Token: token, ExpiresAt: expires, User: *user})
}

// User management

type createUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, domain.RoleAdmin) {
		return
	}
	users, err := h.store.Users.FindAll(r.Context())
	if err != nil {
		respondErr(w, r, err, "unable to list users")
		return
	}
	respondJSON(w, http.StatusOK, users)
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, domain.RoleAdmin) {
		return
	}
	var req createUserRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	user, err := h.store.Users.Create(r.Context(), req.Username, req.Password, req.FullName, strings.ToLower(strings.TrimSpace(req.Role)))
	if err != nil {
		respondErr(w, r, err, "unable to create user")
		return
	}
	h.audit(r, domain.ActionUserCreate, domain.ModuleUsers, "Created user "+user.Username)
	respondJSON(w, http.StatusCreated, user)
}
