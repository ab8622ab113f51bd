package post

import (
	"strconv"

	"socialapp-backend/internal/errors"
	"socialapp-backend/internal/middleware"
	"socialapp-backend/internal/service"
	"socialapp-backend/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PostHandler 处理帖子、评论和点赞相关的HTTP请求
type PostHandler struct {
	postService service.PostServiceInterface
}

// NewPostHandler 创建一个新的 PostHandler 实例
func NewPostHandler(postService service.PostServiceInterface) *PostHandler {
	return &PostHandler{postService}
}

// ListPosts 分页获取帖子列表
func (h *PostHandler) ListPosts(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)

	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = service.DefaultPage
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit < 1 {
		limit = service.DefaultPageSize
	}

	posts, err := h.postService.ListPosts(c.Request.Context(), page, limit, userID)
	if err != nil {
		util.Logger.Error("获取帖子列表失败", zap.Error(err))
		errors.HandleError(c, err)
		return
	}

	errors.HandleSuccess(c, gin.H{
		"posts": posts,
		"page":  page,
		"limit": limit,
	}, "")
}

// GetPost 获取单个帖子
func (h *PostHandler) GetPost(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)

	postID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "无效的帖子ID", err))
		return
	}

	post, err := h.postService.GetPost(c.Request.Context(), postID, userID)
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	errors.HandleSuccess(c, gin.H{
		"post": post,
	}, "")
}

// CreatePost 创建新帖子
func (h *PostHandler) CreatePost(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)

	var postData struct {
		Content string `json:"content" binding:"required"`
		Image   string `json:"image"`
	}

	if err := c.ShouldBindJSON(&postData); err != nil {
		util.Logger.Warn("创建帖子失败，无效的请求数据", zap.Error(err))
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "无效的请求数据", err))
		return
	}

	post, err := h.postService.CreatePost(c.Request.Context(), userID, postData.Content, postData.Image)
	if err != nil {
		util.Logger.Error("创建帖子失败", zap.Error(err))
		errors.HandleError(c, err)
		return
	}

	errors.HandleSuccess(c, gin.H{
		"post": post,
	}, "帖子创建成功")
}

// ToggleLike 切换帖子的点赞状态
func (h *PostHandler) ToggleLike(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)

	postID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "无效的帖子ID", err))
		return
	}

	result, err := h.postService.ToggleLike(c.Request.Context(), postID, userID)
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	errors.HandleSuccess(c, gin.H{
		"likes": result.Likes,
		"liked": result.Liked,
	}, "")
}

// AddComment 向帖子追加评论
func (h *PostHandler) AddComment(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)

	postID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "无效的帖子ID", err))
		return
	}

	var commentData struct {
		Text string `json:"text" binding:"required"`
	}

	if err := c.ShouldBindJSON(&commentData); err != nil {
		util.Logger.Warn("创建评论失败，无效的请求数据", zap.Error(err))
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "无效的请求数据", err))
		return
	}

	comment, err := h.postService.AddComment(c.Request.Context(), postID, userID, commentData.Text)
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	errors.HandleSuccess(c, gin.H{
		"comment": comment,
	}, "评论创建成功")
}
