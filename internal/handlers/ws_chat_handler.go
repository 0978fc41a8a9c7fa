package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/jo-2640/firstmyapp/internal/services"
	jwtutil "github.com/jo-2640/firstmyapp/pkg/jwt"
	"github.com/jo-2640/firstmyapp/pkg/middleware"
	log "github.com/sirupsen/logrus"
)

// WSMessage is the frame exchanged over the chat socket.
type WSMessage struct {
	Type       string `json:"type"` // "text", "typing", "badge", "status", "error"
	ReceiverID string `json:"receiver_id,omitempty"`
	SenderID   string `json:"sender_id,omitempty"`
	Text       string `json:"text,omitempty"`
	Typing     bool   `json:"typing,omitempty"`
	Count      int    `json:"count,omitempty"`
	Status     string `json:"status,omitempty"`
	Error      string `json:"error,omitempty"`
	CreatedAt  string `json:"created_at,omitempty"`
}

// ChatHandler serves the websocket endpoint and chat history.
type ChatHandler struct {
	Service   *services.ChatService
	Users     *services.UserService
	Watcher   *services.WatchService
	JWTSecret string
}

func NewChatHandler(service *services.ChatService, users *services.UserService, watcher *services.WatchService, jwtSecret string) *ChatHandler {
	return &ChatHandler{
		Service:   service,
		Users:     users,
		Watcher:   watcher,
		JWTSecret: jwtSecret,
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

var (
	clients   = make(map[string]*websocket.Conn)
	clientsMu sync.Mutex
)

func broadcastStatus(userID, status string) {
	clientsMu.Lock()
	defer clientsMu.Unlock()
	for _, conn := range clients {
		_ = conn.WriteJSON(WSMessage{
			Type:     "status",
			SenderID: userID,
			Status:   status,
		})
	}
}

func sendTo(userID string, msg WSMessage) {
	clientsMu.Lock()
	defer clientsMu.Unlock()
	if conn, ok := clients[userID]; ok {
		_ = conn.WriteJSON(msg)
	}
}

// ChatWebSocketHandler upgrades the connection, relays text messages
// between friends and pushes live badge counts. Browsers cannot set an
// Authorization header on websocket requests, so the JWT arrives as a
// query parameter.
func (h *ChatHandler) ChatWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "Missing token", http.StatusUnauthorized)
		return
	}
	claims, err := jwtutil.ValidateToken(token, h.JWTSecret)
	if err != nil {
		log.WithError(err).Warn("WebSocket auth failed")
		http.Error(w, "Invalid token", http.StatusUnauthorized)
		return
	}
	userID := claims.UserID

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	log.WithField("uid", userID).Info("WebSocket connected")

	clientsMu.Lock()
	clients[userID] = conn
	clientsMu.Unlock()

	if err := h.Users.SetPresence(r.Context(), userID, true); err != nil {
		log.WithField("uid", userID).WithError(err).Warn("Failed to mark user online")
	}
	broadcastStatus(userID, "online")

	// Live badge updates: watch the caller's own record and push the
	// pending count whenever it changes.
	sub, err := h.Watcher.Subscribe(r.Context(), "badge", userID)
	if err != nil {
		log.WithField("uid", userID).WithError(err).Warn("Badge subscription unavailable")
	} else {
		go func() {
			for user := range sub.C {
				u := user
				sendTo(userID, WSMessage{
					Type:  "badge",
					Count: services.PendingCountOf(&u),
				})
			}
		}()
	}

	defer func() {
		if sub != nil {
			sub.Close()
		}
		clientsMu.Lock()
		delete(clients, userID)
		clientsMu.Unlock()
		if err := h.Users.SetPresence(r.Context(), userID, false); err != nil {
			log.WithField("uid", userID).WithError(err).Warn("Failed to mark user offline")
		}
		broadcastStatus(userID, "offline")
		conn.Close()
		log.WithField("uid", userID).Info("WebSocket disconnected")
	}()

	for {
		var msg WSMessage
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}

		switch msg.Type {
		case "typing":
			sendTo(msg.ReceiverID, WSMessage{
				Type:     "typing",
				SenderID: userID,
				Typing:   msg.Typing,
			})

		case "", "text":
			saved, err := h.Service.SendDirectMessage(r.Context(), userID, msg.ReceiverID, msg.Text)
			if err != nil {
				_ = conn.WriteJSON(WSMessage{Type: "error", Error: err.Error()})
				continue
			}
			out := WSMessage{
				Type:       "text",
				SenderID:   userID,
				ReceiverID: msg.ReceiverID,
				Text:       saved.Text,
				CreatedAt:  saved.CreatedAt.Format(time.RFC3339),
			}
			sendTo(msg.ReceiverID, out)
			_ = conn.WriteJSON(out)
		}
	}
}

// GetChatHistoryHandler returns the recent conversation with a friend.
func (h *ChatHandler) GetChatHistoryHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	friendID := mux.Vars(r)["friendId"]

	messages, err := h.Service.GetHistory(r.Context(), claims.UserID, friendID)
	if err != nil {
		log.WithFields(log.Fields{
			"uid":    claims.UserID,
			"friend": friendID,
		}).WithError(err).Warn("Failed to fetch chat history")
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messages)
}
