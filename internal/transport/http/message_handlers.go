package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/kstepanov/dmbridge-server/internal/store"
)

// MessageHandlers provides HTTP handlers for message history.
type MessageHandlers struct {
	store store.MessageStore
	log   *zerolog.Logger
}

// NewMessageHandlers creates a new message handlers instance.
func NewMessageHandlers(st store.MessageStore, logger *zerolog.Logger) *MessageHandlers {
	return &MessageHandlers{
		store: st,
		log:   logger,
	}
}

// MessageResponse represents a persisted message in API responses.
type MessageResponse struct {
	ID        int64  `json:"_id"`
	Sender    int64  `json:"sender"`
	Receiver  int64  `json:"receiver"`
	Text      string `json:"text"`
	File      string `json:"file,omitempty"`
	CreatedAt int64  `json:"createdAt"`
}

// Conversation returns all messages between the caller and the path user,
// ordered by creation time ascending.
// GET /api/messages/:userId
func (h *MessageHandlers) Conversation(c *gin.Context) {
	ourID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	otherID, err := strconv.ParseInt(c.Param("userId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid user id"})
		return
	}

	messages, err := h.store.ListConversation(c.Request.Context(), ourID, otherID)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", ourID).Int64("other_id", otherID).Msg("failed to list conversation")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]MessageResponse, 0, len(messages))
	for _, msg := range messages {
		response = append(response, MessageResponse{
			ID:        msg.ID,
			Sender:    msg.SenderID,
			Receiver:  msg.ReceiverID,
			Text:      msg.Text,
			File:      msg.FileKey,
			CreatedAt: msg.CreatedAt.Unix(),
		})
	}

	c.JSON(http.StatusOK, response)
}
