package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// bearerToken extracts the token from the Authorization header. The
// "Bearer " prefix is optional; a bare token is accepted too.
func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	return strings.TrimPrefix(auth, "Bearer ")
}

// Login handles POST /auth/login.
func (a *API) Login(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[LoginRequest](w, r, maxBodySize)
	if !ok {
		return
	}

	session, err := a.svc.Login(req.Username, req.Password)
	if err != nil {
		a.audit.logFailure(AuditLoginFailure, r, err.Error(),
			slog.String("username", req.Username))
		mapError(w, err)
		return
	}

	a.audit.logEvent(AuditLoginSuccess, r, session.Username)
	writeJSON(w, http.StatusOK, LoginResponse{
		Success:   true,
		Token:     session.Token,
		Username:  session.Username,
		ExpiresAt: session.ExpiresAt,
	})
}

// Verify handles GET /auth/verify. The token comes from the
// Authorization header.
func (a *API) Verify(w http.ResponseWriter, r *http.Request) {
	session, err := a.svc.Verify(bearerToken(r))
	if err != nil {
		a.audit.logFailure(AuditVerifyFailure, r, err.Error())
		mapError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, VerifyResponse{
		Success:   true,
		Username:  session.Username,
		ExpiresAt: session.ExpiresAt,
	})
}

// Logout handles POST /auth/logout. It always reports success, even
// for unknown or absent tokens.
func (a *API) Logout(w http.ResponseWriter, r *http.Request) {
	if err := a.svc.Logout(bearerToken(r)); err != nil {
		mapError(w, err)
		return
	}

	a.audit.log(AuditLogout, r)
	writeJSON(w, http.StatusOK, StatusResponse{Success: true, Message: "logged out"})
}

// CreateUser handles POST /auth/users.
func (a *API) CreateUser(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[CreateUserRequest](w, r, maxBodySize)
	if !ok {
		return
	}

	if err := a.svc.AddUser(req.Username, req.Password); err != nil {
		mapError(w, err)
		return
	}

	a.audit.logEvent(AuditUserCreated, r, req.Username)
	writeJSON(w, http.StatusOK, StatusResponse{Success: true, Message: "user created"})
}

// ListUsers handles GET /auth/users.
func (a *API) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := a.svc.ListUsers()
	if err != nil {
		mapError(w, err)
		return
	}

	summaries := make([]UserSummary, 0, len(users))
	for _, u := range users {
		summaries = append(summaries, UserSummary{
			Username:  u.Username,
			CreatedAt: u.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, ListUsersResponse{Success: true, Users: summaries})
}

// DeleteUser handles DELETE /auth/users/{username}. Deleting an absent
// user succeeds; the outcome is the same either way.
func (a *API) DeleteUser(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	if err := a.svc.RemoveUser(username); err != nil {
		mapError(w, err)
		return
	}

	a.audit.logEvent(AuditUserDeleted, r, username)
	writeJSON(w, http.StatusOK, StatusResponse{Success: true, Message: "user deleted"})
}
