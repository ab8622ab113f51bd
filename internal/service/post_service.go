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

const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// PostService 处理帖子、评论和点赞相关的业务逻辑
type PostService struct {
	postRepo interfaces.PostRepository
	userRepo interfaces.UserRepository
}

// NewPostService 创建一个新的 PostService 实例
func NewPostService(postRepo interfaces.PostRepository, userRepo interfaces.UserRepository) *PostService {
	return &PostService{postRepo: postRepo, userRepo: userRepo}
}

// ListPosts 按创建时间降序分页返回帖子，并解析帖子作者与评论作者。
// 页码超出范围时返回空列表而不是错误。
// 偏移分页在并发插入下可能跳过或重复条目，这是已知并接受的限制
func (s *PostService) ListPosts(ctx context.Context, page, pageSize, viewerID int) ([]*model.Post, error) {
	if page < 1 {
		page = DefaultPage
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	posts, err := s.postRepo.ListPosts(ctx, page, pageSize)
	if err != nil {
		return nil, errors.WrapDB("查询帖子列表失败", err)
	}
	if len(posts) == 0 {
		return posts, nil
	}

	postIDs := lo.Map(posts, func(p *model.Post, _ int) int { return p.ID })

	comments, err := s.postRepo.GetCommentsByPostIDs(ctx, postIDs)
	if err != nil {
		return nil, errors.WrapDB("查询评论失败", err)
	}

	liked, err := s.postRepo.GetLikedPostIDs(ctx, viewerID, postIDs)
	if err != nil {
		return nil, errors.WrapDB("查询点赞状态失败", err)
	}

	// 收集所有需要解析的用户ID：帖子作者和评论作者
	userIDs := lo.Map(posts, func(p *model.Post, _ int) int { return p.UserID })
	for _, cs := range comments {
		for _, c := range cs {
			userIDs = append(userIDs, c.UserID)
		}
	}

	summaries, err := s.userRepo.FindSummaries(ctx, lo.Uniq(userIDs))
	if err != nil {
		return nil, errors.WrapDB("查询用户信息失败", err)
	}

	for _, post := range posts {
		post.User = summaries[post.UserID]
		post.IsLiked = liked[post.ID]
		post.Comments = comments[post.ID]
		if post.Comments == nil {
			post.Comments = []*model.Comment{}
		}
		for _, c := range post.Comments {
			c.User = summaries[c.UserID]
		}
	}

	return posts, nil
}

// GetPost 返回单个帖子及其评论，作者信息已解析
func (s *PostService) GetPost(ctx context.Context, id, viewerID int) (*model.Post, error) {
	post, err := s.postRepo.GetPostByID(ctx, id)
	if err != nil {
		return nil, errors.WrapDB("查询帖子失败", err)
	}
	if post == nil {
		return nil, errors.New(errors.ErrPostNotFound, "帖子不存在")
	}

	count, err := s.postRepo.GetLikeCount(ctx, id)
	if err != nil {
		return nil, errors.WrapDB("查询点赞数失败", err)
	}
	post.LikeCount = count

	liked, err := s.postRepo.GetLikedPostIDs(ctx, viewerID, []int{id})
	if err != nil {
		return nil, errors.WrapDB("查询点赞状态失败", err)
	}
	post.IsLiked = liked[id]

	comments, err := s.postRepo.GetCommentsByPostIDs(ctx, []int{id})
	if err != nil {
		return nil, errors.WrapDB("查询评论失败", err)
	}
	post.Comments = comments[id]
	if post.Comments == nil {
		post.Comments = []*model.Comment{}
	}

	userIDs := []int{post.UserID}
	for _, c := range post.Comments {
		userIDs = append(userIDs, c.UserID)
	}
	summaries, err := s.userRepo.FindSummaries(ctx, lo.Uniq(userIDs))
	if err != nil {
		return nil, errors.WrapDB("查询用户信息失败", err)
	}
	post.User = summaries[post.UserID]
	for _, c := range post.Comments {
		c.User = summaries[c.UserID]
	}

	return post, nil
}

// CreatePost 创建新帖子，内容去除首尾空白后不能为空
func (s *PostService) CreatePost(ctx context.Context, userID int, content, imageURL string) (*model.Post, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, errors.New(errors.ErrValidation, "帖子内容不能为空")
	}

	post := &model.Post{
		UserID:   userID,
		Content:  content,
		ImageURL: imageURL,
		Comments: []*model.Comment{},
	}
	if err := s.postRepo.CreatePost(ctx, post); err != nil {
		return nil, errors.WrapDB("创建帖子失败", err)
	}

	summaries, err := s.userRepo.FindSummaries(ctx, []int{userID})
	if err != nil {
		return nil, errors.WrapDB("查询用户信息失败", err)
	}
	post.User = summaries[userID]

	return post, nil
}

// ToggleLike 切换用户对帖子的点赞状态，返回最新点赞数和当前状态
func (s *PostService) ToggleLike(ctx context.Context, postID, userID int) (*model.LikeResult, error) {
	post, err := s.postRepo.GetPostByID(ctx, postID)
	if err != nil {
		return nil, errors.WrapDB("查询帖子失败", err)
	}
	if post == nil {
		return nil, errors.New(errors.ErrPostNotFound, "帖子不存在")
	}

	result, err := s.postRepo.ToggleLike(ctx, postID, userID)
	if err != nil {
		return nil, errors.WrapDB("切换点赞状态失败", err)
	}

	util.Logger.Info("点赞状态已切换",
		zap.Int("post_id", postID),
		zap.Int("user_id", userID),
		zap.Bool("liked", result.Liked))
	return result, nil
}

// AddComment 向帖子追加评论，返回已解析作者信息的评论
func (s *PostService) AddComment(ctx context.Context, postID, userID int, text string) (*model.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New(errors.ErrValidation, "评论内容不能为空")
	}

	post, err := s.postRepo.GetPostByID(ctx, postID)
	if err != nil {
		return nil, errors.WrapDB("查询帖子失败", err)
	}
	if post == nil {
		return nil, errors.New(errors.ErrPostNotFound, "帖子不存在")
	}

	comment := &model.Comment{
		PostID: postID,
		UserID: userID,
		Text:   text,
	}
	if err := s.postRepo.CreateComment(ctx, comment); err != nil {
		return nil, errors.WrapDB("创建评论失败", err)
	}

	summaries, err := s.userRepo.FindSummaries(ctx, []int{userID})
	if err != nil {
		return nil, errors.WrapDB("查询用户信息失败", err)
	}
	comment.User = summaries[userID]

	return comment, nil
}

// PostServiceInterface 定义帖子服务接口，方便在测试中模拟
type PostServiceInterface interface {
	ListPosts(ctx context.Context, page, pageSize, viewerID int) ([]*model.Post, error)
	GetPost(ctx context.Context, id, viewerID int) (*model.Post, error)
	CreatePost(ctx context.Context, userID int, content, imageURL string) (*model.Post, error)
	ToggleLike(ctx context.Context, postID, userID int) (*model.LikeResult, error)
	AddComment(ctx context.Context, postID, userID int, text string) (*model.Comment, error)
}

// 确保 PostService 实现了 PostServiceInterface
var _ PostServiceInterface = (*PostService)(nil)
