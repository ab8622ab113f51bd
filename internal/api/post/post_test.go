package post

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"socialapp-backend/internal/errors"
	"socialapp-backend/internal/model"
	"socialapp-backend/internal/service"
	"socialapp-backend/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockPostService 是 PostServiceInterface 的模拟实现
type MockPostService struct {
	mock.Mock
}

func (m *MockPostService) ListPosts(ctx context.Context, page, pageSize, viewerID int) ([]*model.Post, error) {
	args := m.Called(ctx, page, pageSize, viewerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Post), args.Error(1)
}

func (m *MockPostService) GetPost(ctx context.Context, id, viewerID int) (*model.Post, error) {
	args := m.Called(ctx, id, viewerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Post), args.Error(1)
}

func (m *MockPostService) CreatePost(ctx context.Context, userID int, content, imageURL string) (*model.Post, error) {
	args := m.Called(ctx, userID, content, imageURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Post), args.Error(1)
}

func (m *MockPostService) ToggleLike(ctx context.Context, postID, userID int) (*model.LikeResult, error) {
	args := m.Called(ctx, postID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.LikeResult), args.Error(1)
}

func (m *MockPostService) AddComment(ctx context.Context, postID, userID int, text string) (*model.Comment, error) {
	args := m.Called(ctx, postID, userID, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Comment), args.Error(1)
}

// 确保 MockPostService 实现了 PostServiceInterface
var _ service.PostServiceInterface = (*MockPostService)(nil)

func TestMain(m *testing.M) {
	util.InitLogger("error")
	os.Exit(m.Run())
}

// setupPostRouter 构建测试路由，模拟认证中间件写入固定的用户身份
func setupPostRouter(mockService *MockPostService, userID int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Next()
	})
	handler := NewPostHandler(mockService)
	r.GET("/api/posts", handler.ListPosts)
	r.POST("/api/posts", handler.CreatePost)
	r.POST("/api/posts/:id/like", handler.ToggleLike)
	r.POST("/api/posts/:id/comment", handler.AddComment)
	return r
}

// TestToggleLikeHandler 测试点赞接口返回 {likes, liked}
func TestToggleLikeHandler(t *testing.T) {
	mockService := new(MockPostService)
	r := setupPostRouter(mockService, 2)

	mockService.On("ToggleLike", mock.Anything, 5, 2).
		Return(&model.LikeResult{Likes: 1, Liked: true}, nil).Once()
	mockService.On("ToggleLike", mock.Anything, 5, 2).
		Return(&model.LikeResult{Likes: 0, Liked: false}, nil).Once()

	// 第一次点赞
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/posts/5/like", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data struct {
			Likes int  `json:"likes"`
			Liked bool `json:"liked"`
		} `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Data.Likes)
	assert.True(t, resp.Data.Liked)

	// 再次点赞即取消
	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodPost, "/api/posts/5/like", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Data.Likes)
	assert.False(t, resp.Data.Liked)

	// 帖子不存在返回404
	mockService.On("ToggleLike", mock.Anything, 999, 2).
		Return(nil, errors.New(errors.ErrPostNotFound, "帖子不存在"))
	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodPost, "/api/posts/999/like", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

// TestCreatePostHandler 测试创建帖子接口
func TestCreatePostHandler(t *testing.T) {
	mockService := new(MockPostService)
	r := setupPostRouter(mockService, 1)

	mockService.On("CreatePost", mock.Anything, 1, "hello", "").
		Return(&model.Post{ID: 1, UserID: 1, Content: "hello"}, nil)

	body, _ := json.Marshal(gin.H{"content": "hello"})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/posts", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	// 缺少内容字段时拒绝
	body, _ = json.Marshal(gin.H{"image": "x.png"})
	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodPost, "/api/posts", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// TestListPostsHandler 测试分页参数解析
func TestListPostsHandler(t *testing.T) {
	mockService := new(MockPostService)
	r := setupPostRouter(mockService, 1)

	mockService.On("ListPosts", mock.Anything, 2, 5, 1).Return([]*model.Post{}, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/posts?page=2&limit=5", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)

	// 非法分页参数回退到默认值
	mockService.On("ListPosts", mock.Anything, 1, 10, 1).Return([]*model.Post{}, nil)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/api/posts?page=abc&limit=-1", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

// TestAddCommentHandler 测试评论接口
func TestAddCommentHandler(t *testing.T) {
	mockService := new(MockPostService)
	r := setupPostRouter(mockService, 3)

	mockService.On("AddComment", mock.Anything, 5, 3, "nice").
		Return(&model.Comment{ID: 9, PostID: 5, UserID: 3, Text: "nice",
			User: &model.UserSummary{ID: 3, Username: "carol"}}, nil)

	body, _ := json.Marshal(gin.H{"text": "nice"})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/posts/5/comment", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			Comment *model.Comment `json:"comment"`
		} `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 9, resp.Data.Comment.ID)
	assert.Equal(t, "carol", resp.Data.Comment.User.Username)
}
