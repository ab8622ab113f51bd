package service

import (
	"context"
	"testing"
	"time"

	"socialapp-backend/internal/errors"
	"socialapp-backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockMessageRepository 是 MessageRepository 接口的模拟实现
type MockMessageRepository struct {
	mock.Mock
}

func (m *MockMessageRepository) CreateMessage(ctx context.Context, message *model.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MockMessageRepository) UpsertConversation(ctx context.Context, userA, userB, lastMessageID int) error {
	args := m.Called(ctx, userA, userB, lastMessageID)
	return args.Error(0)
}

func (m *MockMessageRepository) GetConversationByID(ctx context.Context, id int) (*model.Conversation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Conversation), args.Error(1)
}

func (m *MockMessageRepository) ListConversations(ctx context.Context, userID int) ([]*model.Conversation, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Conversation), args.Error(1)
}

func (m *MockMessageRepository) GetMessagesByIDs(ctx context.Context, ids []int) (map[int]*model.Message, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int]*model.Message), args.Error(1)
}

func (m *MockMessageRepository) ListMessagesBetween(ctx context.Context, userA, userB int) ([]*model.Message, error) {
	args := m.Called(ctx, userA, userB)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Message), args.Error(1)
}

// TestSendMessage 测试发送私信功能
func TestSendMessage(t *testing.T) {
	mockMsgRepo := new(MockMessageRepository)
	mockUserRepo := new(MockUserRepository)
	service := NewMessageService(mockMsgRepo, mockUserRepo)
	ctx := context.Background()

	// 测试消息内容为空
	_, err := service.SendMessage(ctx, 1, 2, "   ")
	assert.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrValidation))

	// 测试不能给自己发消息
	_, err = service.SendMessage(ctx, 1, 1, "hi")
	assert.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrSelfMessage))

	// 测试接收者不存在
	mockUserRepo.On("FindByID", ctx, 999).Return(nil, nil)
	_, err = service.SendMessage(ctx, 1, 999, "hi")
	assert.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrReceiverNotFound))

	// 测试成功发送：消息持久化后，会话引用这条新消息
	mockUserRepo.On("FindByID", ctx, 2).Return(&model.User{ID: 2, Username: "bob"}, nil)
	mockMsgRepo.On("CreateMessage", ctx, mock.AnythingOfType("*model.Message")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*model.Message).ID = 42
		}).Return(nil)
	mockMsgRepo.On("UpsertConversation", ctx, 1, 2, 42).Return(nil)
	mockUserRepo.On("FindSummaries", ctx, []int{1, 2}).Return(map[int]*model.UserSummary{
		1: {ID: 1, Username: "alice"},
		2: {ID: 2, Username: "bob"},
	}, nil)

	message, err := service.SendMessage(ctx, 1, 2, "hi")
	assert.NoError(t, err)
	assert.Equal(t, 42, message.ID)
	assert.Equal(t, "alice", message.Sender.Username)
	assert.Equal(t, "bob", message.Receiver.Username)
	mockMsgRepo.AssertExpectations(t)
}

// TestListMessages 测试会话消息查询与访问控制
func TestListMessages(t *testing.T) {
	mockMsgRepo := new(MockMessageRepository)
	mockUserRepo := new(MockUserRepository)
	service := NewMessageService(mockMsgRepo, mockUserRepo)
	ctx := context.Background()

	// 测试会话不存在
	mockMsgRepo.On("GetConversationByID", ctx, 999).Return(nil, nil)
	_, err := service.ListMessages(ctx, 999, 1)
	assert.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConversationNotFound))

	conv := &model.Conversation{ID: 7, UserLowID: 1, UserHighID: 2}
	mockMsgRepo.On("GetConversationByID", ctx, 7).Return(conv, nil)

	// 测试非参与者被拒绝
	_, err = service.ListMessages(ctx, 7, 3)
	assert.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrForbidden))

	// 测试参与者可以查看，消息按时间升序返回且双方信息被解析
	now := time.Now()
	messages := []*model.Message{
		{ID: 1, SenderID: 1, ReceiverID: 2, Text: "hi", CreatedAt: now.Add(-time.Minute)},
		{ID: 2, SenderID: 2, ReceiverID: 1, Text: "hello", CreatedAt: now},
	}
	mockMsgRepo.On("ListMessagesBetween", ctx, 1, 2).Return(messages, nil)
	mockUserRepo.On("FindSummaries", ctx, []int{1, 2}).Return(map[int]*model.UserSummary{
		1: {ID: 1, Username: "alice"},
		2: {ID: 2, Username: "bob"},
	}, nil)

	result, err := service.ListMessages(ctx, 7, 2)
	assert.NoError(t, err)
	assert.Len(t, result, 2)
	assert.True(t, !result[0].CreatedAt.After(result[1].CreatedAt))
	assert.Equal(t, "alice", result[0].Sender.Username)
	assert.Equal(t, "bob", result[0].Receiver.Username)
}

// TestListConversations 测试会话列表的格式化
func TestListConversations(t *testing.T) {
	mockMsgRepo := new(MockMessageRepository)
	mockUserRepo := new(MockUserRepository)
	service := NewMessageService(mockMsgRepo, mockUserRepo)
	ctx := context.Background()

	now := time.Now()
	conversations := []*model.Conversation{
		{ID: 1, UserLowID: 1, UserHighID: 2, LastMessageID: 10, UpdatedAt: now},
		{ID: 2, UserLowID: 1, UserHighID: 3, LastMessageID: 11, UpdatedAt: now.Add(-time.Hour)},
	}

	mockMsgRepo.On("ListConversations", ctx, 1).Return(conversations, nil)
	// 用户3的记录缺失，对应会话应被跳过而不是导致失败
	mockUserRepo.On("FindSummaries", ctx, []int{2, 3}).Return(map[int]*model.UserSummary{
		2: {ID: 2, Username: "bob", AvatarURL: "b.png"},
	}, nil)
	// 全部会话的最后消息应在一次批量查询中解析
	mockMsgRepo.On("GetMessagesByIDs", ctx, []int{10, 11}).Return(map[int]*model.Message{
		10: {ID: 10, SenderID: 1, ReceiverID: 2, Text: "hi", CreatedAt: now},
	}, nil)

	result, err := service.ListConversations(ctx, 1)
	assert.NoError(t, err)
	assert.Len(t, result, 1)
	assert.Equal(t, "bob", result[0].Name)
	assert.Equal(t, "b.png", result[0].AvatarURL)
	assert.Equal(t, "hi", result[0].LastMessage.Text)
	mockMsgRepo.AssertExpectations(t)
}

// TestListConversationsTimeout 测试存储层超时映射为 Timeout 错误码
func TestListConversationsTimeout(t *testing.T) {
	mockMsgRepo := new(MockMessageRepository)
	mockUserRepo := new(MockUserRepository)
	service := NewMessageService(mockMsgRepo, mockUserRepo)
	ctx := context.Background()

	mockMsgRepo.On("ListConversations", ctx, 1).Return(nil, context.DeadlineExceeded)

	_, err := service.ListConversations(ctx, 1)
	assert.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrTimeout))
	assert.False(t, errors.Is(err, errors.ErrDatabase))
}
