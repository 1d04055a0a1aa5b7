package ginserver

import (
	"errors"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"skoropad/internal/app/dto"
	"skoropad/internal/app/services/messenger"
	"skoropad/internal/domain/messaging"

	domainuser "skoropad/internal/domain/user"
)

type ChatHTTP interface {
	ListConversations(c *gin.Context)
	ListMessages(c *gin.Context)
	SendMessage(c *gin.Context)
	MarkRead(c *gin.Context)
	Notifications(c *gin.Context)
}

// ChatHandler exposes the per-user chat session over HTTP. Every request
// resolves the caller's session from the hub; the session keeps the realtime
// subscription and the synchronized snapshots between requests.
type ChatHandler struct {
	Hub    *messenger.Hub
	Logger *slog.Logger
}

type sendMessageRequest struct {
	ReceiverID      string `json:"receiver_id"`
	Content         string `json:"content"`
	AdvertisementID string `json:"advertisement_id"`
}

// ListConversations refreshes and returns the caller's conversation list with
// counterpart profiles and the global unread badge.
func (h ChatHandler) ListConversations(c *gin.Context) {
	p, session, ok := h.session(c)
	if !ok {
		return
	}
	if err := session.FetchConversations(c.Request.Context()); err != nil {
		h.respondChatError(c, err)
		return
	}
	overview := dto.MapChatOverview(session.Conversations(), string(p.ID()), session.UnreadCount())
	c.JSON(http.StatusOK, overview)
}

// ListMessages opens a conversation: it becomes the active one, its messages
// are fetched in full and the caller's unread counter is zeroed.
func (h ChatHandler) ListMessages(c *gin.Context) {
	_, session, ok := h.session(c)
	if !ok {
		return
	}
	conversationID := c.Param("id")
	if conversationID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "conversation id is required"})
		return
	}

	session.SetActiveConversation(conversationID)
	if err := session.FetchMessages(c.Request.Context(), conversationID); err != nil {
		h.respondChatError(c, err)
		return
	}
	if err := session.MarkAsRead(c.Request.Context(), conversationID); err != nil {
		h.respondChatError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": dto.MapChatMessages(session.Messages())})
}

func (h ChatHandler) SendMessage(c *gin.Context) {
	_, session, ok := h.session(c)
	if !ok {
		return
	}
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	msg, err := session.SendMessage(c.Request.Context(), domainuser.ID(req.ReceiverID), req.Content, req.AdvertisementID)
	if err != nil {
		h.respondChatError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.MapChatMessage(msg))
}

func (h ChatHandler) MarkRead(c *gin.Context) {
	_, session, ok := h.session(c)
	if !ok {
		return
	}
	conversationID := c.Param("id")
	if conversationID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "conversation id is required"})
		return
	}
	if err := session.MarkAsRead(c.Request.Context(), conversationID); err != nil {
		h.respondChatError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Notifications drains pending new-message toasts for the caller.
func (h ChatHandler) Notifications(c *gin.Context) {
	_, session, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": dto.MapChatNotifications(session.Notifications())})
}

func (h ChatHandler) session(c *gin.Context) (principal, *messenger.Session, bool) {
	p, ok := requireSignIn(c)
	if !ok {
		return principal{}, nil, false
	}
	if h.Hub == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "chat unavailable"})
		return principal{}, nil, false
	}
	session, err := h.Hub.Session(c.Request.Context(), p.ID())
	if err != nil {
		h.respondChatError(c, err)
		return principal{}, nil, false
	}
	return p, session, true
}

func (h ChatHandler) respondChatError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, messaging.ErrConversationNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
	case errors.Is(err, messaging.ErrNotParticipant):
		c.JSON(http.StatusForbidden, gin.H{"error": "not a chat participant"})
	case errors.Is(err, messaging.ErrSenderRequired),
		errors.Is(err, messaging.ErrReceiverRequired),
		errors.Is(err, messaging.ErrSelfConversation),
		errors.Is(err, messaging.ErrContentRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, messenger.ErrNotSignedIn), errors.Is(err, messenger.ErrClosed):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "auth required"})
	default:
		if h.Logger != nil {
			h.Logger.Error("chat operation failed", "error", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

var _ ChatHTTP = (*ChatHandler)(nil)
