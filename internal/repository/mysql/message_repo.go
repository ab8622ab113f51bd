package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"socialapp-backend/internal/model"
	"socialapp-backend/internal/util"

	"go.uber.org/zap"
)

type messageRepository struct {
	db *sql.DB
}

func NewMessageRepository(db *sql.DB) *messageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) CreateMessage(ctx context.Context, message *model.Message) error {
	query := `INSERT INTO messages (sender_id, receiver_id, text, created_at)
              VALUES (?, ?, ?, NOW())`
	result, err := r.db.ExecContext(ctx, query,
		message.SenderID, message.ReceiverID, message.Text)
	if err != nil {
		util.Logger.Error("创建消息失败", zap.Error(err))
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	message.ID = int(id)

	err = r.db.QueryRowContext(ctx, `SELECT created_at FROM messages WHERE id = ?`, message.ID).
		Scan(&message.CreatedAt)
	if err != nil {
		return err
	}

	util.Logger.Info("消息创建成功",
		zap.Int("message_id", message.ID),
		zap.Int("sender_id", message.SenderID),
		zap.Int("receiver_id", message.ReceiverID))
	return nil
}

// UpsertConversation 用单条语句完成会话的查找或创建。
// 用户对先排序再写入，ON DUPLICATE KEY UPDATE 命中 uk_conversations_pair
// 唯一索引时原子地刷新最新消息引用。消息ID随创建顺序单调递增，
// GREATEST 保证乱序到达的并发更新不会把引用回退到更早的消息。
// updated_at 的赋值必须写在 last_message_id 之前，才能读到旧值做比较
func (r *messageRepository) UpsertConversation(ctx context.Context, userA, userB, lastMessageID int) error {
	low, high := model.SortPair(userA, userB)

	query := `INSERT INTO conversations (user_low_id, user_high_id, last_message_id, updated_at)
              VALUES (?, ?, ?, NOW())
              ON DUPLICATE KEY UPDATE
                  updated_at = IF(VALUES(last_message_id) > last_message_id, NOW(), updated_at),
                  last_message_id = GREATEST(last_message_id, VALUES(last_message_id))`
	_, err := r.db.ExecContext(ctx, query, low, high, lastMessageID)
	if err != nil {
		util.Logger.Error("更新会话失败", zap.Error(err),
			zap.Int("user_low_id", low), zap.Int("user_high_id", high))
		return err
	}
	return nil
}

func (r *messageRepository) GetConversationByID(ctx context.Context, id int) (*model.Conversation, error) {
	query := `SELECT id, user_low_id, user_high_id, last_message_id, updated_at
              FROM conversations WHERE id = ?`

	var conv model.Conversation
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&conv.ID, &conv.UserLowID, &conv.UserHighID, &conv.LastMessageID, &conv.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &conv, nil
}

func (r *messageRepository) ListConversations(ctx context.Context, userID int) ([]*model.Conversation, error) {
	query := `SELECT id, user_low_id, user_high_id, last_message_id, updated_at
              FROM conversations
              WHERE user_low_id = ? OR user_high_id = ?
              ORDER BY updated_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, userID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	conversations := []*model.Conversation{}
	for rows.Next() {
		var conv model.Conversation
		err := rows.Scan(&conv.ID, &conv.UserLowID, &conv.UserHighID,
			&conv.LastMessageID, &conv.UpdatedAt)
		if err != nil {
			return nil, err
		}
		conversations = append(conversations, &conv)
	}

	return conversations, rows.Err()
}

// GetMessagesByIDs 批量查询消息，用于一次解析全部会话的最后一条消息
func (r *messageRepository) GetMessagesByIDs(ctx context.Context, ids []int) (map[int]*model.Message, error) {
	messages := make(map[int]*model.Message)
	if len(ids) == 0 {
		return messages, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}

	query := fmt.Sprintf(`SELECT id, sender_id, receiver_id, text, created_at
              FROM messages WHERE id IN (%s)`, strings.Join(placeholders, ","))
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var msg model.Message
		err := rows.Scan(&msg.ID, &msg.SenderID, &msg.ReceiverID, &msg.Text, &msg.CreatedAt)
		if err != nil {
			return nil, err
		}
		messages[msg.ID] = &msg
	}

	return messages, rows.Err()
}

// ListMessagesBetween 返回恰好发生在这两个用户之间的全部消息。
// 时间戳相同的消息用ID作为次序补充，保证顺序确定
func (r *messageRepository) ListMessagesBetween(ctx context.Context, userA, userB int) ([]*model.Message, error) {
	query := `SELECT id, sender_id, receiver_id, text, created_at
              FROM messages
              WHERE (sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)
              ORDER BY created_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, userA, userB, userB, userA)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []*model.Message{}
	for rows.Next() {
		var msg model.Message
		err := rows.Scan(&msg.ID, &msg.SenderID, &msg.ReceiverID, &msg.Text, &msg.CreatedAt)
		if err != nil {
			return nil, err
		}
		messages = append(messages, &msg)
	}

	return messages, rows.Err()
}
