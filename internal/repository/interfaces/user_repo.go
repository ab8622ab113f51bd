package interfaces

import (
	"context"
	"errors"

	"socialapp-backend/internal/model"
)

// ErrDuplicate 表示写入违反了唯一索引，由存储实现翻译后返回
var ErrDuplicate = errors.New("唯一索引冲突")

// UserRepository 接口定义了用户仓库应该实现的方法
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id int) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	FindSummaries(ctx context.Context, ids []int) (map[int]*model.UserSummary, error)
}
