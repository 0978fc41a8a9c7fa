package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/jo-2640/firstmyapp/internal/config"
	"github.com/jo-2640/firstmyapp/internal/services"
	jwtutil "github.com/jo-2640/firstmyapp/pkg/jwt"
	"github.com/jo-2640/firstmyapp/pkg/middleware"
	log "github.com/sirupsen/logrus"
)

// AuthHandler handles signup, login and logout.
type AuthHandler struct {
	Accounts *services.AccountService
	Users    *services.UserService
	Config   *config.Config
}

func NewAuthHandler(accounts *services.AccountService, users *services.UserService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		Accounts: accounts,
		Users:    users,
		Config:   cfg,
	}
}

// CreateUserHandler performs the first signup step: it reserves the
// credential record and returns the new uid. The profile itself is
// written by the finalize step once the client has uploaded the
// profile image.
func (h *AuthHandler) CreateUserHandler(w http.ResponseWriter, r *http.Request) {
	log.Info("CreateUserHandler called")
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Nickname string `json:"nickname"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.WithError(err).Warn("Failed to decode signup request")
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	uid, err := h.Accounts.CreateAccount(r.Context(), req.Email, req.Password, req.Nickname)
	if err != nil {
		log.WithField("email", req.Email).WithError(err).Warn("Failed to create account")
		writeServiceError(w, err)
		return
	}

	log.WithField("uid", uid).Info("Account created")
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"uid":     uid,
	})
}

// FinalizeSignupHandler performs the second signup step: it persists
// the profile record with the attributes picked during signup.
func (h *AuthHandler) FinalizeSignupHandler(w http.ResponseWriter, r *http.Request) {
	log.Info("FinalizeSignupHandler called")
	var in services.FinalizeSignupInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		log.WithError(err).Warn("Failed to decode finalize request")
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	user, err := h.Users.FinalizeSignup(r.Context(), in)
	if err != nil {
		log.WithField("uid", in.UID).WithError(err).Warn("Failed to finalize signup")
		writeServiceError(w, err)
		return
	}

	log.WithField("uid", user.UID).Info("Signup completed")
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"user":    user,
	})
}

// LoginHandler authenticates credentials, waits briefly for the
// profile record if signup just happened, marks the user online and
// issues a JWT.
func (h *AuthHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	log.Info("LoginHandler called")
	var credentials struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&credentials); err != nil {
		log.WithError(err).Warn("Failed to decode login request")
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	account, err := h.Accounts.Authenticate(r.Context(), credentials.Email, credentials.Password)
	if err != nil {
		log.WithFields(log.Fields{
			"email": credentials.Email,
			"error": err,
		}).Warn("Authentication failed")
		http.Error(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}

	user, err := h.Users.GetUserWithWait(r.Context(), account.UID)
	if err != nil {
		log.WithField("uid", account.UID).WithError(err).Warn("Profile not available at login")
		writeServiceError(w, err)
		return
	}

	token, err := jwtutil.GenerateToken(user.UID, account.Email, user.Role, h.Config.JWTSecret, h.Config.TokenExpiry)
	if err != nil {
		log.WithError(err).Error("Failed to generate JWT token")
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	if err := h.Users.SetPresence(r.Context(), user.UID, true); err != nil {
		log.WithField("uid", user.UID).WithError(err).Warn("Failed to mark user online")
	}

	log.WithField("uid", user.UID).Info("User logged in")
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

// LogoutHandler marks the caller offline. Token invalidation is up to
// the client; the server only flips presence.
func (h *AuthHandler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := h.Users.SetPresence(r.Context(), claims.UserID, false); err != nil {
		log.WithField("uid", claims.UserID).WithError(err).Warn("Failed to mark user offline")
	}

	log.WithField("uid", claims.UserID).Info("User logged out")
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// BirthYearRangeHandler reports the selectable birth year window for
// the signup form.
func (h *AuthHandler) BirthYearRangeHandler(w http.ResponseWriter, r *http.Request) {
	min, max := h.Users.BirthYearRange()
	writeJSON(w, http.StatusOK, map[string]int{
		"minBirthYear": min,
		"maxBirthYear": max,
	})
}
