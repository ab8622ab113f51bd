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

type postRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) *postRepository {
	return &postRepository{db: db}
}

func (r *postRepository) CreatePost(ctx context.Context, post *model.Post) error {
	query := `INSERT INTO posts (user_id, content, image_url, created_at)
              VALUES (?, ?, ?, NOW())`
	result, err := r.db.ExecContext(ctx, query, post.UserID, post.Content, post.ImageURL)
	if err != nil {
		util.Logger.Error("创建帖子失败", zap.Error(err))
		return err
	}

	postID, err := result.LastInsertId()
	if err != nil {
		util.Logger.Error("获取新帖子ID失败", zap.Error(err))
		return err
	}
	post.ID = int(postID)

	// 回读创建时间，保持与数据库一致
	err = r.db.QueryRowContext(ctx, `SELECT created_at FROM posts WHERE id = ?`, post.ID).
		Scan(&post.CreatedAt)
	if err != nil {
		return err
	}

	util.Logger.Info("帖子创建成功", zap.Int("post_id", post.ID))
	return nil
}

func (r *postRepository) GetPostByID(ctx context.Context, id int) (*model.Post, error) {
	query := `SELECT id, user_id, content, image_url, created_at FROM posts WHERE id = ?`

	var post model.Post
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&post.ID, &post.UserID, &post.Content, &post.ImageURL, &post.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &post, nil
}

// ListPosts 按创建时间降序分页返回帖子，点赞数在同一查询中通过子查询派生，
// 保证返回的计数始终等于点赞表中的行数
func (r *postRepository) ListPosts(ctx context.Context, page, pageSize int) ([]*model.Post, error) {
	offset := (page - 1) * pageSize
	query := `SELECT p.id, p.user_id, p.content, p.image_url, p.created_at,
                     (SELECT COUNT(*) FROM likes l WHERE l.post_id = p.id) AS like_count
              FROM posts p
              ORDER BY p.created_at DESC, p.id DESC
              LIMIT ? OFFSET ?`

	rows, err := r.db.QueryContext(ctx, query, pageSize, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := []*model.Post{}
	for rows.Next() {
		var post model.Post
		err := rows.Scan(&post.ID, &post.UserID, &post.Content, &post.ImageURL,
			&post.CreatedAt, &post.LikeCount)
		if err != nil {
			return nil, err
		}
		posts = append(posts, &post)
	}

	return posts, rows.Err()
}

func (r *postRepository) CreateComment(ctx context.Context, comment *model.Comment) error {
	query := `INSERT INTO comments (post_id, user_id, text, created_at)
              VALUES (?, ?, ?, NOW())`
	result, err := r.db.ExecContext(ctx, query, comment.PostID, comment.UserID, comment.Text)
	if err != nil {
		util.Logger.Error("创建评论失败", zap.Error(err), zap.Int("post_id", comment.PostID))
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	comment.ID = int(id)

	err = r.db.QueryRowContext(ctx, `SELECT created_at FROM comments WHERE id = ?`, comment.ID).
		Scan(&comment.CreatedAt)
	if err != nil {
		return err
	}

	util.Logger.Info("评论创建成功",
		zap.Int("comment_id", comment.ID),
		zap.Int("post_id", comment.PostID))
	return nil
}

// GetCommentsByPostIDs 批量查询多个帖子的评论，按帖子分组，插入顺序即展示顺序
func (r *postRepository) GetCommentsByPostIDs(ctx context.Context, postIDs []int) (map[int][]*model.Comment, error) {
	result := make(map[int][]*model.Comment)
	if len(postIDs) == 0 {
		return result, nil
	}

	placeholders := make([]string, len(postIDs))
	args := make([]interface{}, len(postIDs))
	for i, id := range postIDs {
		placeholders[i] = "?"
		args[i] = id
	}

	query := fmt.Sprintf(`SELECT id, post_id, user_id, text, created_at
              FROM comments WHERE post_id IN (%s) ORDER BY id ASC`,
		strings.Join(placeholders, ","))
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var c model.Comment
		if err := rows.Scan(&c.ID, &c.PostID, &c.UserID, &c.Text, &c.CreatedAt); err != nil {
			return nil, err
		}
		result[c.PostID] = append(result[c.PostID], &c)
	}

	return result, rows.Err()
}

// ToggleLike 在单个事务中切换点赞状态：先尝试删除，删除无效则插入。
// 唯一索引 uk_likes_post_user 保证同一用户的并发切换不会产生重复记录，
// 也避免了先读后写导致的更新丢失
func (r *postRepository) ToggleLike(ctx context.Context, postID, userID int) (*model.LikeResult, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`DELETE FROM likes WHERE post_id = ? AND user_id = ?`, postID, userID)
	if err != nil {
		util.Logger.Error("取消点赞失败", zap.Error(err), zap.Int("post_id", postID))
		return nil, err
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}

	liked := deleted == 0
	if liked {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO likes (post_id, user_id, created_at) VALUES (?, ?, NOW())`,
			postID, userID)
		if err != nil {
			util.Logger.Error("点赞失败", zap.Error(err), zap.Int("post_id", postID))
			return nil, err
		}
	}

	var count int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM likes WHERE post_id = ?`, postID).Scan(&count)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		util.Logger.Error("提交事务失败", zap.Error(err))
		return nil, err
	}

	return &model.LikeResult{Likes: count, Liked: liked}, nil
}

func (r *postRepository) GetLikeCount(ctx context.Context, postID int) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM likes WHERE post_id = ?`, postID).Scan(&count)
	return count, err
}

// GetLikedPostIDs 返回指定用户在给定帖子集合中点赞过的帖子
func (r *postRepository) GetLikedPostIDs(ctx context.Context, userID int, postIDs []int) (map[int]bool, error) {
	liked := make(map[int]bool)
	if len(postIDs) == 0 {
		return liked, nil
	}

	placeholders := make([]string, len(postIDs))
	args := make([]interface{}, 0, len(postIDs)+1)
	args = append(args, userID)
	for i, id := range postIDs {
		placeholders[i] = "?"
		args = append(args, id)
	}

	query := fmt.Sprintf(`SELECT post_id FROM likes WHERE user_id = ? AND post_id IN (%s)`,
		strings.Join(placeholders, ","))
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var postID int
		if err := rows.Scan(&postID); err != nil {
			return nil, err
		}
		liked[postID] = true
	}

	return liked, rows.Err()
}
