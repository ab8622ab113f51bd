package mysql

import (
	"context"
	"os"
	"regexp"
	"testing"
	"time"

	"socialapp-backend/internal/util"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func TestMain(m *testing.M) {
	util.InitLogger("error")
	os.Exit(m.Run())
}

// TestToggleLikeInvolution 测试点赞切换的两个分支：
// 首次切换删除无效转而插入，再次切换删除生效，状态回到原点
func TestToggleLikeInvolution(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := NewPostRepository(db)
	ctx := context.Background()

	// 第一次切换：没有可删的行，走插入分支，计数为1
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM likes WHERE post_id = ? AND user_id = ?")).
		WithArgs(5, 1).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO likes")).
		WithArgs(5, 1).WillReturnResult(sqlmock.NewResult(9, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM likes WHERE post_id = ?")).
		WithArgs(5).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectCommit()

	result, err := repo.ToggleLike(ctx, 5, 1)
	assert.NoError(t, err)
	assert.True(t, result.Liked)
	assert.Equal(t, 1, result.Likes)

	// 第二次切换：删除命中，不再插入，计数回到0
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM likes WHERE post_id = ? AND user_id = ?")).
		WithArgs(5, 1).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM likes WHERE post_id = ?")).
		WithArgs(5).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectCommit()

	result, err = repo.ToggleLike(ctx, 5, 1)
	assert.NoError(t, err)
	assert.False(t, result.Liked)
	assert.Equal(t, 0, result.Likes)

	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestListPostsPagination 测试偏移分页：15条数据取第2页（每页10条）应返回剩余5条，
// 点赞数来自同一查询的派生列
func TestListPostsPagination(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := NewPostRepository(db)
	ctx := context.Background()

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "user_id", "content", "image_url", "created_at", "like_count"})
	for i := 5; i >= 1; i-- {
		rows.AddRow(i, 1, "内容", "", now.Add(-time.Duration(15-i)*time.Minute), i)
	}

	mock.ExpectQuery(regexp.QuoteMeta("LIMIT ? OFFSET ?")).
		WithArgs(10, 10).WillReturnRows(rows)

	posts, err := repo.ListPosts(ctx, 2, 10)
	assert.NoError(t, err)
	assert.Len(t, posts, 5)
	assert.Equal(t, 5, posts[0].ID)
	assert.Equal(t, 5, posts[0].LikeCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestListPostsPastEnd 测试超出末尾的页码返回空列表
func TestListPostsPastEnd(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := NewPostRepository(db)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta("LIMIT ? OFFSET ?")).
		WithArgs(10, 90).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "content", "image_url", "created_at", "like_count"}))

	posts, err := repo.ListPosts(ctx, 10, 10)
	assert.NoError(t, err)
	assert.Empty(t, posts)
	assert.NoError(t, mock.ExpectationsWereMet())
}
