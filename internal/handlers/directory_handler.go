package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/jo-2640/firstmyapp/internal/services"
	"github.com/jo-2640/firstmyapp/pkg/middleware"
	log "github.com/sirupsen/logrus"
)

// DirectoryHandler exposes the cyclic member browser over HTTP.
type DirectoryHandler struct {
	Service *services.DirectoryService
}

func NewDirectoryHandler(service *services.DirectoryService) *DirectoryHandler {
	return &DirectoryHandler{Service: service}
}

// OpenSessionHandler starts a browse session with the given filters
// and returns the first page.
func (h *DirectoryHandler) OpenSessionHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var filter services.BrowseFilter
	if err := json.NewDecoder(r.Body).Decode(&filter); err != nil {
		log.WithError(err).Warn("Failed to decode browse filter")
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	page, err := h.Service.OpenSession(r.Context(), claims.UserID, filter)
	if err != nil {
		log.WithField("uid", claims.UserID).WithError(err).Warn("Failed to open browse session")
		writeServiceError(w, err)
		return
	}

	log.WithFields(log.Fields{
		"uid":     claims.UserID,
		"session": page.SessionID,
	}).Info("Browse session opened")
	writeJSON(w, http.StatusOK, page)
}

// NextPageHandler returns the next page of an open browse session.
func (h *DirectoryHandler) NextPageHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	sessionID := mux.Vars(r)["id"]

	page, err := h.Service.NextPage(r.Context(), claims.UserID, sessionID)
	if err != nil {
		log.WithFields(log.Fields{
			"uid":     claims.UserID,
			"session": sessionID,
		}).WithError(err).Warn("Failed to fetch next page")
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// CloseSessionHandler discards an open browse session.
func (h *DirectoryHandler) CloseSessionHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	sessionID := mux.Vars(r)["id"]

	h.Service.CloseSession(claims.UserID, sessionID)
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}
