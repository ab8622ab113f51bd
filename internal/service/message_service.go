package service

import (
	"context"
	"strings"

	"socialapp-backend/internal/errors"
	"socialapp-backend/internal/model"
	"socialapp-backend/internal/repository/interfaces"
	"socialapp-backend/internal/util"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

// MessageService 处理私信和会话相关的业务逻辑
type MessageService struct {
	messageRepo interfaces.MessageRepository
	userRepo    interfaces.UserRepository
}

// NewMessageService 创建一个新的 MessageService 实例
func NewMessageService(messageRepo interfaces.MessageRepository, userRepo interfaces.UserRepository) *MessageService {
	return &MessageService{messageRepo: messageRepo, userRepo: userRepo}
}

// ListConversations 返回用户参与的全部会话，按最后更新时间降序。
// 每个会话以对方用户的名称和头像展示，并附带最后一条消息的摘要。
// 对方用户记录缺失时跳过该会话并记录警告，而不是让整个请求失败
func (s *MessageService) ListConversations(ctx context.Context, userID int) ([]*model.ConversationSummary, error) {
	conversations, err := s.messageRepo.ListConversations(ctx, userID)
	if err != nil {
		return nil, errors.WrapDB("查询会话列表失败", err)
	}

	// 批量解析对方用户信息
	otherIDs := lo.Map(conversations, func(c *model.Conversation, _ int) int {
		return c.OtherParticipant(userID)
	})
	summaries, err := s.userRepo.FindSummaries(ctx, lo.Uniq(otherIDs))
	if err != nil {
		return nil, errors.WrapDB("查询用户信息失败", err)
	}

	// 一次查出全部会话的最后一条消息，避免逐条查询
	lastIDs := []int{}
	for _, conv := range conversations {
		if conv.LastMessageID != 0 {
			lastIDs = append(lastIDs, conv.LastMessageID)
		}
	}
	lastMessages, err := s.messageRepo.GetMessagesByIDs(ctx, lo.Uniq(lastIDs))
	if err != nil {
		return nil, errors.WrapDB("查询最后消息失败", err)
	}

	result := []*model.ConversationSummary{}
	for _, conv := range conversations {
		otherID := conv.OtherParticipant(userID)
		other, ok := summaries[otherID]
		if !ok {
			util.Logger.Warn("会话参与者不存在，跳过该会话",
				zap.Int("conversation_id", conv.ID),
				zap.Int("user_id", otherID))
			continue
		}

		summary := &model.ConversationSummary{
			ID:        conv.ID,
			Name:      other.Username,
			AvatarURL: other.AvatarURL,
			UserID:    other.ID,
			UpdatedAt: conv.UpdatedAt,
		}

		if last, ok := lastMessages[conv.LastMessageID]; ok {
			summary.LastMessage = &model.MessageSummary{
				Text:      last.Text,
				CreatedAt: last.CreatedAt,
			}
		}

		result = append(result, summary)
	}

	return result, nil
}

// ListMessages 返回会话中的全部消息，按创建时间升序。
// 调用者必须是会话参与者，否则返回 Forbidden
func (s *MessageService) ListMessages(ctx context.Context, conversationID, userID int) ([]*model.Message, error) {
	conv, err := s.messageRepo.GetConversationByID(ctx, conversationID)
	if err != nil {
		return nil, errors.WrapDB("查询会话失败", err)
	}
	if conv == nil {
		return nil, errors.New(errors.ErrConversationNotFound, "会话不存在")
	}

	if !conv.HasParticipant(userID) {
		return nil, errors.New(errors.ErrForbidden, "无权查看该会话")
	}

	messages, err := s.messageRepo.ListMessagesBetween(ctx, conv.UserLowID, conv.UserHighID)
	if err != nil {
		return nil, errors.WrapDB("查询消息失败", err)
	}

	if err := s.resolveParticipants(ctx, messages); err != nil {
		return nil, err
	}

	return messages, nil
}

// SendMessage 发送私信：先持久化消息，再原子地创建或刷新这对用户的会话。
// 会话更新由存储层的唯一索引串行化，并发发送不会产生重复会话
func (s *MessageService) SendMessage(ctx context.Context, senderID, receiverID int, text string) (*model.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New(errors.ErrValidation, "消息内容不能为空")
	}
	if senderID == receiverID {
		return nil, errors.New(errors.ErrSelfMessage, "不能给自己发送消息")
	}

	receiver, err := s.userRepo.FindByID(ctx, receiverID)
	if err != nil {
		return nil, errors.WrapDB("查询接收者失败", err)
	}
	if receiver == nil {
		return nil, errors.New(errors.ErrReceiverNotFound, "接收者不存在")
	}

	message := &model.Message{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Text:       text,
	}
	if err := s.messageRepo.CreateMessage(ctx, message); err != nil {
		return nil, errors.WrapDB("创建消息失败", err)
	}

	if err := s.messageRepo.UpsertConversation(ctx, senderID, receiverID, message.ID); err != nil {
		return nil, errors.WrapDB("更新会话失败", err)
	}

	if err := s.resolveParticipants(ctx, []*model.Message{message}); err != nil {
		return nil, err
	}

	util.Logger.Info("消息发送成功",
		zap.Int("message_id", message.ID),
		zap.Int("sender_id", senderID),
		zap.Int("receiver_id", receiverID))
	return message, nil
}

// resolveParticipants 为消息批量填充发送者和接收者的摘要信息
func (s *MessageService) resolveParticipants(ctx context.Context, messages []*model.Message) error {
	if len(messages) == 0 {
		return nil
	}

	userIDs := []int{}
	for _, m := range messages {
		userIDs = append(userIDs, m.SenderID, m.ReceiverID)
	}

	summaries, err := s.userRepo.FindSummaries(ctx, lo.Uniq(userIDs))
	if err != nil {
		return errors.WrapDB("查询用户信息失败", err)
	}

	for _, m := range messages {
		m.Sender = summaries[m.SenderID]
		m.Receiver = summaries[m.ReceiverID]
	}
	return nil
}

// MessageServiceInterface 定义消息服务接口，方便在测试中模拟
type MessageServiceInterface interface {
	ListConversations(ctx context.Context, userID int) ([]*model.ConversationSummary, error)
	ListMessages(ctx context.Context, conversationID, userID int) ([]*model.Message, error)
	SendMessage(ctx context.Context, senderID, receiverID int, text string) (*model.Message, error)
}

// 确保 MessageService 实现了 MessageServiceInterface
var _ MessageServiceInterface = (*MessageService)(nil)
