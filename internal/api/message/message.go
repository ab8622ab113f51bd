package message

import (
	"strconv"

	"socialapp-backend/internal/errors"
	"socialapp-backend/internal/middleware"
	"socialapp-backend/internal/service"
	"socialapp-backend/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MessageHandler 处理私信和会话相关的HTTP请求
type MessageHandler struct {
	messageService service.MessageServiceInterface
}

// NewMessageHandler 创建一个新的 MessageHandler 实例
func NewMessageHandler(messageService service.MessageServiceInterface) *MessageHandler {
	return &MessageHandler{messageService}
}

// ListConversations 获取当前用户的会话列表
func (h *MessageHandler) ListConversations(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)

	conversations, err := h.messageService.ListConversations(c.Request.Context(), userID)
	if err != nil {
		util.Logger.Error("获取会话列表失败", zap.Error(err))
		errors.HandleError(c, err)
		return
	}

	errors.HandleSuccess(c, gin.H{
		"conversations": conversations,
	}, "")
}

// ListMessages 获取指定会话中的消息
func (h *MessageHandler) ListMessages(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)

	conversationID, err := strconv.Atoi(c.Param("conversationId"))
	if err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "无效的会话ID", err))
		return
	}

	messages, err := h.messageService.ListMessages(c.Request.Context(), conversationID, userID)
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	errors.HandleSuccess(c, gin.H{
		"messages": messages,
	}, "")
}

// SendMessage 发送私信
func (h *MessageHandler) SendMessage(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)

	var messageData struct {
		ReceiverID int    `json:"receiverId" binding:"required"`
		Text       string `json:"text" binding:"required"`
	}

	if err := c.ShouldBindJSON(&messageData); err != nil {
		util.Logger.Warn("发送消息失败，无效的请求数据", zap.Error(err))
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "无效的请求数据", err))
		return
	}

	message, err := h.messageService.SendMessage(c.Request.Context(), userID, messageData.ReceiverID, messageData.Text)
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	errors.HandleSuccess(c, gin.H{
		"message": message,
	}, "消息发送成功")
}
