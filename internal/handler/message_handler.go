package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/mamoonayoob/Quick-Mart-Server/internal/model"
	"github.com/mamoonayoob/Quick-Mart-Server/internal/service"

	"github.com/gin-gonic/gin"
)

type MessageHandler interface {
	SendMessage(c *gin.Context)
	GetConversations(c *gin.Context)
	GetHistory(c *gin.Context)
	GetMessagesByOrder(c *gin.Context)
	GetUnreadCount(c *gin.Context)
	MarkRead(c *gin.Context)
	GetDirectory(c *gin.Context)
	GetVendorByOrder(c *gin.Context)
}

type messageHandler struct {
	service *service.MessageService
}

func NewMessageHandler(service *service.MessageService) MessageHandler {
	return &messageHandler{
		service: service,
	}
}

type sendMessageRequest struct {
	ReceiverID string `json:"receiverId"`
	ToAdmins   bool   `json:"toAdmins"`
	Content    string `json:"content"`
	OrderID    string `json:"orderId"`
}

// SendMessage stores a message over REST. The websocket gateway is the
// preferred path; this exists for clients without a live socket.
func (h *messageHandler) SendMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "malformed request body",
		})
		return
	}

	msg, err := h.service.SendMessage(c.Request.Context(), callerID(c), service.SendInput{
		ReceiverID: req.ReceiverID,
		ToAdmins:   req.ToAdmins,
		Content:    req.Content,
		OrderID:    req.OrderID,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": msg,
	})
}

func (h *messageHandler) GetConversations(c *gin.Context) {
	conversations, err := h.service.Conversations(c.Request.Context(), callerID(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"conversations": conversations,
	})
}

func (h *messageHandler) GetHistory(c *gin.Context) {
	partnerID := c.Param("partnerId")
	orderID := c.Query("orderId")

	if page := c.Query("page"); page != "" {
		pageNumber, err := strconv.ParseInt(page, 10, 64)
		if err != nil || pageNumber < 1 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid page number",
			})
			return
		}

		result, err := h.service.HistoryPage(c.Request.Context(), callerID(c), partnerID, orderID, pageNumber)
		if err != nil {
			writeError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"messages":   result.Data,
			"total":      result.Total,
			"page":       result.Page,
			"totalPages": result.TotalPages,
		})
		return
	}

	msgs, err := h.service.History(c.Request.Context(), callerID(c), partnerID, orderID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"messages": msgs,
	})
}

func (h *messageHandler) GetMessagesByOrder(c *gin.Context) {
	orderID := c.Param("orderId")

	msgs, err := h.service.MessagesByOrder(c.Request.Context(), orderID, callerID(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"messages": msgs,
	})
}

func (h *messageHandler) GetUnreadCount(c *gin.Context) {
	count, err := h.service.UnreadCount(c.Request.Context(), callerID(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count": count,
	})
}

func (h *messageHandler) MarkRead(c *gin.Context) {
	messageID := c.Param("messageId")

	msg, err := h.service.MarkRead(c.Request.Context(), messageID, callerID(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": msg,
	})
}

func (h *messageHandler) GetDirectory(c *gin.Context) {
	role := c.Param("role")

	users, err := h.service.Directory(c.Request.Context(), role, callerID(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users": users,
	})
}

func (h *messageHandler) GetVendorByOrder(c *gin.Context) {
	orderID := c.Param("orderId")

	vendor, err := h.service.VendorByOrder(c.Request.Context(), orderID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"vendor": vendor,
	})
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, model.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, model.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, model.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
