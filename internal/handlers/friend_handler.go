package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/jo-2640/firstmyapp/internal/services"
	"github.com/jo-2640/firstmyapp/pkg/middleware"
	log "github.com/sirupsen/logrus"
)

// FriendHandler exposes the friend request lifecycle over HTTP.
type FriendHandler struct {
	Service *services.RelationshipService
}

func NewFriendHandler(service *services.RelationshipService) *FriendHandler {
	return &FriendHandler{Service: service}
}

// SendRequestHandler sends a friend request to the user in the path.
func (h *FriendHandler) SendRequestHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	receiverID := mux.Vars(r)["id"]

	if err := h.Service.SendRequest(r.Context(), claims.UserID, receiverID); err != nil {
		log.WithFields(log.Fields{
			"sender":   claims.UserID,
			"receiver": receiverID,
		}).WithError(err).Warn("Failed to send friend request")
		writeServiceError(w, err)
		return
	}

	log.WithFields(log.Fields{
		"sender":   claims.UserID,
		"receiver": receiverID,
	}).Info("Friend request sent")
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// CancelRequestHandler withdraws a previously sent request. Cancelling
// a request that no longer exists still succeeds.
func (h *FriendHandler) CancelRequestHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	receiverID := mux.Vars(r)["id"]

	if err := h.Service.CancelRequest(r.Context(), claims.UserID, receiverID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// AcceptRequestHandler accepts a pending request from the user in the
// path, making the two users friends.
func (h *FriendHandler) AcceptRequestHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	senderID := mux.Vars(r)["id"]

	if err := h.Service.AcceptRequest(r.Context(), claims.UserID, senderID); err != nil {
		log.WithFields(log.Fields{
			"accepter": claims.UserID,
			"sender":   senderID,
		}).WithError(err).Warn("Failed to accept friend request")
		writeServiceError(w, err)
		return
	}

	log.WithFields(log.Fields{
		"accepter": claims.UserID,
		"sender":   senderID,
	}).Info("Friend request accepted")
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// RejectRequestHandler declines a pending request. Rejecting an absent
// request still succeeds.
func (h *FriendHandler) RejectRequestHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	senderID := mux.Vars(r)["id"]

	if err := h.Service.RejectRequest(r.Context(), claims.UserID, senderID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// RemoveFriendHandler dissolves an existing friendship.
func (h *FriendHandler) RemoveFriendHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	friendID := mux.Vars(r)["id"]

	if err := h.Service.RemoveFriend(r.Context(), claims.UserID, friendID); err != nil {
		log.WithFields(log.Fields{
			"user":   claims.UserID,
			"friend": friendID,
		}).WithError(err).Warn("Failed to remove friend")
		writeServiceError(w, err)
		return
	}

	log.WithFields(log.Fields{
		"user":   claims.UserID,
		"friend": friendID,
	}).Info("Friend removed")
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// ListFriendsHandler returns the caller's friends as public profiles.
func (h *FriendHandler) ListFriendsHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	friends, err := h.Service.Friends(r.Context(), claims.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, friends)
}

// ListRequestsHandler returns the pending incoming requests as public
// profiles.
func (h *FriendHandler) ListRequestsHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	requests, err := h.Service.PendingRequests(r.Context(), claims.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, requests)
}

// RequestCountHandler returns the badge count of actionable incoming
// requests.
func (h *FriendHandler) RequestCountHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	count, err := h.Service.PendingCount(r.Context(), claims.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": count})
}
