package interfaces

import (
	"context"

	"socialapp-backend/internal/model"
)

// MessageRepository 定义了私信和会话相关的数据库操作接口
type MessageRepository interface {
	CreateMessage(ctx context.Context, message *model.Message) error
	// UpsertConversation 为一对用户原子地创建或更新会话记录，
	// 依赖排序用户对上的唯一索引保证每对至多一个会话
	UpsertConversation(ctx context.Context, userA, userB, lastMessageID int) error
	GetConversationByID(ctx context.Context, id int) (*model.Conversation, error)
	ListConversations(ctx context.Context, userID int) ([]*model.Conversation, error)
	// GetMessagesByIDs 批量查询消息，按ID索引返回
	GetMessagesByIDs(ctx context.Context, ids []int) (map[int]*model.Message, error)
	// ListMessagesBetween 返回两个用户之间的全部消息，按创建时间升序
	ListMessagesBetween(ctx context.Context, userA, userB int) ([]*model.Message, error)
}
