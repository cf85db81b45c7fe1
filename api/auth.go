package api

import (
	"errors"
	"net/http"

	"github.com/golang-jwt/jwt/v5"

	"github.com/garnizeh/fieldops/pkg/models"
)

func (h *Handler) issueToken(u models.User) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email": u.Email,
		"role":  u.Role.String(),
		"exp":   h.now().Add(h.tokenDuration).Unix(),
	})
	return token.SignedString([]byte(h.jwtSecret))
}

// CheckUser signs a user in. Bad credentials answer 400, not 401, so
// clients do not treat a failed login as an expired session.
func (h *Handler) CheckUser(w http.ResponseWriter, r *http.Request) {
	var req models.Credentials
	if !h.decode(w, r, "credentials", &req) {
		return
	}

	u, err := h.store.Authenticate(req.Email, req.Password, req.Role)
	if errors.Is(err, ErrBadCredential) {
		writeError(w, http.StatusBadRequest, "Invalid credentials")
		return
	}
	if err != nil {
		storeError(w, err, "user")
		return
	}

	tokenStr, err := h.issueToken(u)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error signing token")
		return
	}
	writeJSON(w, models.LoginResult{Token: tokenStr, Email: u.Email, Role: u.Role, Name: u.Name}, http.StatusOK)
}

func (h *Handler) NewUser(w http.ResponseWriter, r *http.Request) {
	var req models.Signup
	if !h.decode(w, r, "signup", &req) {
		return
	}
	if _, err := h.store.Register(req); err != nil {
		storeError(w, err, "user")
		return
	}
	msg := "Registration successful"
	if req.Role == models.RoleEngineer {
		msg = "Registration successful, awaiting admin approval"
	}
	writeJSON(w, models.Message{Message: msg}, http.StatusCreated)
}

func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	var req models.PasswordReset
	if !h.decode(w, r, "reset", &req) {
		return
	}
	if err := h.store.ResetPassword(req.Email, req.NewPassword); err != nil {
		storeError(w, err, "user")
		return
	}
	writeJSON(w, models.Message{Message: "Password updated"}, http.StatusOK)
}
