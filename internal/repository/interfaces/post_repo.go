package interfaces

import (
	"context"

	"socialapp-backend/internal/model"
)

// PostRepository 定义了帖子相关的数据库操作接口
type PostRepository interface {
	CreatePost(ctx context.Context, post *model.Post) error
	GetPostByID(ctx context.Context, id int) (*model.Post, error)
	ListPosts(ctx context.Context, page, pageSize int) ([]*model.Post, error)
	CreateComment(ctx context.Context, comment *model.Comment) error
	GetCommentsByPostIDs(ctx context.Context, postIDs []int) (map[int][]*model.Comment, error)
	// ToggleLike 原子地切换用户对帖子的点赞状态，
	// 返回切换后的点赞数和当前状态
	ToggleLike(ctx context.Context, postID, userID int) (*model.LikeResult, error)
	GetLikeCount(ctx context.Context, postID int) (int, error)
	GetLikedPostIDs(ctx context.Context, userID int, postIDs []int) (map[int]bool, error)
}
