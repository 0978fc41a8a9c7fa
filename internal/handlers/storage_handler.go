package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/jo-2640/firstmyapp/internal/services"
	"github.com/jo-2640/firstmyapp/internal/storage"
	"github.com/jo-2640/firstmyapp/pkg/middleware"
	log "github.com/sirupsen/logrus"
)

const (
	readTokenExpiry  = 5 * time.Minute
	writeTokenExpiry = 10 * time.Minute
)

// StorageHandler issues SAS tokens and resolves profile image URLs.
type StorageHandler struct {
	Signer *storage.Signer
	Images *services.ImageService
	Users  *services.UserService
}

func NewStorageHandler(signer *storage.Signer, images *services.ImageService, users *services.UserService) *StorageHandler {
	return &StorageHandler{
		Signer: signer,
		Images: images,
		Users:  users,
	}
}

// ProfileSasTokenHandler issues a write token for the profile image
// upload during signup, plus a read token so the client can preview
// the blob right away.
func (h *StorageHandler) ProfileSasTokenHandler(w http.ResponseWriter, r *http.Request) {
	log.Info("ProfileSasTokenHandler called")
	var req struct {
		UID      string `json:"uid"`
		FileName string `json:"fileName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UID == "" || req.FileName == "" {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	blobName := "users/" + req.UID + "/" + req.FileName

	writeToken, err := h.Signer.WriteSAS(blobName, "", writeTokenExpiry)
	if err != nil {
		log.WithField("blob", blobName).WithError(err).Error("Failed to sign write SAS")
		http.Error(w, "Failed to issue upload token", http.StatusInternalServerError)
		return
	}
	readToken, err := h.Signer.ReadSAS(blobName, readTokenExpiry)
	if err != nil {
		log.WithField("blob", blobName).WithError(err).Error("Failed to sign read SAS")
		http.Error(w, "Failed to issue read token", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"blobUrl":       h.Signer.BlobURL(blobName),
		"writeSasToken": writeToken,
		"readSasToken":  readToken,
	})
}

// BlobSasTokenHandler issues an upload token for an arbitrary blob in
// the container. Authenticated callers only.
func (h *StorageHandler) BlobSasTokenHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		FileName    string `json:"fileName"`
		ContentType string `json:"contentType"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.FileName == "" {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	token, err := h.Signer.WriteSAS(req.FileName, req.ContentType, writeTokenExpiry)
	if err != nil {
		log.WithField("blob", req.FileName).WithError(err).Error("Failed to sign write SAS")
		http.Error(w, "Failed to issue upload token", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"sasToken": token,
		"blobUrl":  h.Signer.BlobURL(req.FileName),
	})
}

// ProfileImageURLHandler resolves a user's display image. Missing or
// unsignable references fall back to the gender default rather than
// erroring.
func (h *StorageHandler) ProfileImageURLHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		UserID string `json:"userId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if req.UserID == "" {
		req.UserID = claims.UserID
	}

	user, err := h.Users.GetUser(r.Context(), req.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"imageUrl": h.Images.ResolveProfileImageURL(user.ProfileImageRef, user.Gender),
	})
}
