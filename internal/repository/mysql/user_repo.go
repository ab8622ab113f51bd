package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"socialapp-backend/internal/model"
	"socialapp-backend/internal/repository/interfaces"
	"socialapp-backend/internal/util"

	driver "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

// isDuplicateEntry 判断是否为唯一索引冲突（MySQL 错误码 1062）
func isDuplicateEntry(err error) bool {
	var mysqlErr *driver.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *userRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	query := `INSERT INTO users (username, email, password_hash, avatar_url, bio, created_at)
              VALUES (?, ?, ?, ?, ?, NOW())`
	result, err := r.db.ExecContext(ctx, query,
		user.Username, user.Email, user.PasswordHash, user.AvatarURL, user.Bio)
	if err != nil {
		// 并发注册可能越过服务层的预检直接命中唯一索引
		if isDuplicateEntry(err) {
			return interfaces.ErrDuplicate
		}
		util.Logger.Error("创建用户失败", zap.Error(err))
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	user.ID = int(id)

	util.Logger.Info("用户创建成功", zap.Int("user_id", user.ID))
	return nil
}

func (r *userRepository) FindByID(ctx context.Context, id int) (*model.User, error) {
	query := `SELECT id, username, email, password_hash, avatar_url, bio, created_at
              FROM users WHERE id = ?`
	return r.scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT id, username, email, password_hash, avatar_url, bio, created_at
              FROM users WHERE email = ?`
	return r.scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	query := `SELECT id, username, email, password_hash, avatar_url, bio, created_at
              FROM users WHERE username = ?`
	return r.scanUser(r.db.QueryRowContext(ctx, query, username))
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	query := `UPDATE users SET username = ?, avatar_url = ?, bio = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, user.Username, user.AvatarURL, user.Bio, user.ID)
	if err != nil {
		if isDuplicateEntry(err) {
			return interfaces.ErrDuplicate
		}
		util.Logger.Error("更新用户失败", zap.Error(err), zap.Int("user_id", user.ID))
		return err
	}
	return nil
}

// FindSummaries 批量查询用户摘要，用于在帖子和消息中解析作者信息
func (r *userRepository) FindSummaries(ctx context.Context, ids []int) (map[int]*model.UserSummary, error) {
	summaries := make(map[int]*model.UserSummary)
	if len(ids) == 0 {
		return summaries, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}

	query := fmt.Sprintf(`SELECT id, username, avatar_url FROM users WHERE id IN (%s)`,
		strings.Join(placeholders, ","))
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var s model.UserSummary
		if err := rows.Scan(&s.ID, &s.Username, &s.AvatarURL); err != nil {
			return nil, err
		}
		summaries[s.ID] = &s
	}

	return summaries, rows.Err()
}

func (r *userRepository) scanUser(row *sql.Row) (*model.User, error) {
	var user model.User
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&user.AvatarURL, &user.Bio, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}
