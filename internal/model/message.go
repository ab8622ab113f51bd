package model

import "time"

// Message 表示一条私信，创建后不可修改
type Message struct {
	ID         int          `json:"id"`
	SenderID   int          `json:"sender_id"`
	ReceiverID int          `json:"receiver_id"`
	Text       string       `json:"text"`
	CreatedAt  time.Time    `json:"created_at"`
	Sender     *UserSummary `json:"sender,omitempty"`
	Receiver   *UserSummary `json:"receiver,omitempty"`
}

// Conversation 是一对用户之间最新消息的派生索引。
// 参与者按 UserLowID < UserHighID 排序存储，配合唯一索引保证
// 每对用户至多存在一个会话。
type Conversation struct {
	ID            int       `json:"id"`
	UserLowID     int       `json:"-"`
	UserHighID    int       `json:"-"`
	LastMessageID int       `json:"-"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// OtherParticipant 返回会话中除指定用户外的另一方ID
func (c *Conversation) OtherParticipant(userID int) int {
	if c.UserLowID == userID {
		return c.UserHighID
	}
	return c.UserLowID
}

// HasParticipant 判断指定用户是否为会话参与者
func (c *Conversation) HasParticipant(userID int) bool {
	return c.UserLowID == userID || c.UserHighID == userID
}

// ConversationSummary 是会话列表接口返回的展示结构，
// 以对方用户的名称和头像命名会话
type ConversationSummary struct {
	ID          int             `json:"id"`
	Name        string          `json:"name"`
	AvatarURL   string          `json:"avatar_url"`
	UserID      int             `json:"user_id"`
	LastMessage *MessageSummary `json:"last_message"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// MessageSummary 是会话列表中最后一条消息的摘要
type MessageSummary struct {
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// SortPair 将一对用户ID按升序返回，用于会话的规范化存储
func SortPair(a, b int) (int, int) {
	if a > b {
		return b, a
	}
	return a, b
}
