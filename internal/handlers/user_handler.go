package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/jo-2640/firstmyapp/internal/services"
	"github.com/jo-2640/firstmyapp/pkg/middleware"
	log "github.com/sirupsen/logrus"
)

// UserHandler handles HTTP requests related to member profiles.
type UserHandler struct {
	Service *services.UserService
}

// NewUserHandler creates a new instance of UserHandler.
func NewUserHandler(service *services.UserService) *UserHandler {
	return &UserHandler{Service: service}
}

// GetMeHandler returns the caller's own profile.
func (h *UserHandler) GetMeHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	user, err := h.Service.GetUser(r.Context(), claims.UserID)
	if err != nil {
		log.WithField("uid", claims.UserID).WithError(err).Warn("Own profile not found")
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// GetUserHandler fetches a profile by uid.
func (h *UserHandler) GetUserHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	uid := mux.Vars(r)["id"]
	user, err := h.Service.GetUser(r.Context(), uid)
	if err != nil {
		log.WithField("uid", uid).WithError(err).Warn("User not found")
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// UpdateUserHandler applies a partial profile update. Callers may only
// edit their own profile.
func (h *UserHandler) UpdateUserHandler(w http.ResponseWriter, r *http.Request) {
	log.Info("UpdateUserHandler called")
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	uid := mux.Vars(r)["id"]
	if uid != claims.UserID {
		log.WithFields(log.Fields{
			"requestedUID": uid,
			"loggedInUID":  claims.UserID,
		}).Warn("Forbidden update attempt")
		http.Error(w, "Forbidden: You can only update your own profile", http.StatusForbidden)
		return
	}

	var changes map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&changes); err != nil {
		log.WithError(err).Warn("Failed to decode update request")
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	updated, err := h.Service.UpdateProfile(r.Context(), uid, changes)
	if err != nil {
		log.WithField("uid", uid).WithError(err).Warn("Failed to update profile")
		writeServiceError(w, err)
		return
	}

	log.WithField("uid", updated.UID).Info("Profile updated")
	writeJSON(w, http.StatusOK, updated)
}

// AdminGetAllUsersHandler lists every profile. Admin only.
func (h *UserHandler) AdminGetAllUsersHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if claims.Role != "admin" {
		log.Warnf("User %s attempted to access admin-only user list", claims.UserID)
		http.Error(w, "Forbidden: Admins only", http.StatusForbidden)
		return
	}

	users, err := h.Service.GetAllUsers(r.Context())
	if err != nil {
		log.WithError(err).Errorf("Admin %s failed to fetch users", claims.UserID)
		http.Error(w, "Failed to retrieve users", http.StatusInternalServerError)
		return
	}

	log.Infof("Admin %s fetched %d users", claims.UserID, len(users))
	writeJSON(w, http.StatusOK, users)
}
