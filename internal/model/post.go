package model

import "time"

type Post struct {
	ID        int          `json:"id"`
	UserID    int          `json:"user_id"`
	Content   string       `json:"content"`
	ImageURL  string       `json:"image_url,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	User      *UserSummary `json:"user,omitempty"`
	LikeCount int          `json:"likes"`
	IsLiked   bool         `json:"is_liked"`
	Comments  []*Comment   `json:"comments"`
}

type Comment struct {
	ID        int          `json:"id"`
	PostID    int          `json:"post_id"`
	UserID    int          `json:"user_id"`
	Text      string       `json:"text"`
	CreatedAt time.Time    `json:"created_at"`
	User      *UserSummary `json:"user,omitempty"`
}

type Like struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	PostID    int       `json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}

// LikeResult 是点赞切换操作的结果
type LikeResult struct {
	Likes int  `json:"likes"`
	Liked bool `json:"liked"`
}
