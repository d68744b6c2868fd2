package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/truthlens/truthlens-api/api"
	"github.com/truthlens/truthlens-api/config"
	"github.com/truthlens/truthlens-api/databases"
	"github.com/truthlens/truthlens-api/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The API is consumed from mobile and desktop apps, not browsers
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ChatHub fans support messages out to every connection in a user's room.
// A room holds the user's own connections plus any support agents viewing
// the conversation.
type ChatHub struct {
	mu    sync.RWMutex
	rooms map[string]map[*websocket.Conn]bool
}

// NewChatHub returns an empty hub
func NewChatHub() *ChatHub {
	return &ChatHub{rooms: make(map[string]map[*websocket.Conn]bool)}
}

func (h *ChatHub) join(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[userID] == nil {
		h.rooms[userID] = make(map[*websocket.Conn]bool)
	}
	h.rooms[userID][conn] = true
}

func (h *ChatHub) leave(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.rooms[userID], conn)
	if len(h.rooms[userID]) == 0 {
		delete(h.rooms, userID)
	}
}

// broadcast sends msg to every connection in the room. Dead connections are
// dropped on write failure.
func (h *ChatHub) broadcast(userID string, msg models.SupportMessage) {
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.rooms[userID]))
	for conn := range h.rooms[userID] {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		if err := conn.WriteJSON(msg); err != nil {
			zap.S().Debugw("dropping dead chat connection", "userId", userID, "error", err)
			h.leave(userID, conn)
			conn.Close()
		}
	}
}

// SupportChat exported for testing purposes
type SupportChat struct {
	DB  databases.SupportMessageDatabase
	Hub *ChatHub
}

type inboundChatMessage struct {
	Sender string `json:"sender"`
	Body   string `json:"body"`
}

// ServeWS upgrades the connection and joins the caller's support room.
// Every inbound message is persisted and then broadcast to the room.
func (s SupportChat) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.S().Errorw("websocket upgrade failed", "error", err)
		return
	}

	s.Hub.join(userID, conn)
	defer func() {
		s.Hub.leave(userID, conn)
		conn.Close()
	}()

	for {
		var inbound inboundChatMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				zap.S().Debugw("chat connection closed unexpectedly", "userId", userID, "error", err)
			}
			return
		}
		if inbound.Body == "" {
			continue
		}
		if inbound.Sender != "agent" {
			inbound.Sender = "user"
		}

		msg := models.SupportMessage{
			UserID:    userID,
			Sender:    inbound.Sender,
			Body:      inbound.Body,
			CreatedAt: time.Now(),
		}

		ctx, cancel := context.WithTimeout(context.Background(), api.QueryTimeout)
		if _, err := s.DB.InsertOne(ctx, msg); err != nil {
			zap.S().Errorw("failed to persist support message", "userId", userID, "error", err)
		}
		cancel()

		s.Hub.broadcast(userID, msg)
	}
}

// ChatHistoryHandler returns the caller's own persisted conversation
func (s SupportChat) ChatHistoryHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	msgs, err := s.DB.Find(ctx, bson.M{"userId": userID},
		options.Find().SetSort(bson.M{"createdAt": 1}).SetLimit(500))
	if err != nil {
		config.ErrorStatus("failed to fetch chat history", http.StatusInternalServerError, w, err)
		return
	}
	if msgs == nil {
		msgs = []models.SupportMessage{}
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(msgs)
}
