package handlers

import (
	"net/http"

	"github.com/jo-2640/firstmyapp/internal/services"
	"github.com/jo-2640/firstmyapp/pkg/middleware"
	log "github.com/sirupsen/logrus"
)

// AdminHandler exposes destructive maintenance endpoints.
type AdminHandler struct {
	Service *services.AdminService
}

func NewAdminHandler(service *services.AdminService) *AdminHandler {
	return &AdminHandler{Service: service}
}

// DeleteAllDataHandler wipes every collection. Admin only; intended
// for dev and test environments.
func (h *AdminHandler) DeleteAllDataHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if claims.Role != "admin" {
		log.Warnf("User %s attempted a full data wipe", claims.UserID)
		http.Error(w, "Forbidden: Admins only", http.StatusForbidden)
		return
	}

	report, err := h.Service.DeleteAllData(r.Context())
	if err != nil {
		log.WithError(err).Error("Full data wipe failed")
		http.Error(w, "Failed to delete data", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"deleted": report,
	})
}
