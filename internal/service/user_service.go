package service

import (
	"context"
	stderrors "errors"
	"strings"

	"socialapp-backend/internal/errors"
	"socialapp-backend/internal/model"
	"socialapp-backend/internal/repository/interfaces"
	"socialapp-backend/internal/util"

	"go.uber.org/zap"

	"golang.org/x/crypto/bcrypt"
)

// UserService 处理与用户相关的业务逻辑
type UserService struct {
	userRepo interfaces.UserRepository
}

// NewUserService 创建一个新的 UserService 实例
func NewUserService(userRepo interfaces.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// Register 注册新用户。邮箱统一转为小写存储，保证大小写不敏感的唯一性
func (s *UserService) Register(ctx context.Context, user *model.User, password string) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))

	existing, err := s.userRepo.FindByEmail(ctx, user.Email)
	if err != nil {
		return errors.WrapDB("查询用户失败", err)
	}
	if existing != nil {
		return errors.New(errors.ErrUserExists, "邮箱已被注册")
	}

	existing, err = s.userRepo.FindByUsername(ctx, user.Username)
	if err != nil {
		return errors.WrapDB("查询用户失败", err)
	}
	if existing != nil {
		return errors.New(errors.ErrUserExists, "用户名已存在")
	}

	// 生成密码哈希
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(errors.ErrInternal, "生成密码哈希失败", err)
	}
	user.PasswordHash = string(hashedPassword)

	if err := s.userRepo.Create(ctx, user); err != nil {
		// 预检之后仍可能有并发注册抢先写入，唯一索引是最终裁决
		if stderrors.Is(err, interfaces.ErrDuplicate) {
			return errors.New(errors.ErrUserExists, "邮箱或用户名已被注册")
		}
		return errors.WrapDB("创建用户失败", err)
	}

	return nil
}

// Login 用户登录
func (s *UserService) Login(ctx context.Context, email, password string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, errors.WrapDB("查询用户失败", err)
	}
	if user == nil {
		util.Logger.Warn("登录失败，用户不存在", zap.String("email", email))
		return nil, errors.New(errors.ErrInvalidCredentials, "邮箱或密码错误")
	}

	// 验证密码
	err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password))
	if err != nil {
		util.Logger.Warn("登录失败，密码不正确", zap.Int("user_id", user.ID))
		return nil, errors.New(errors.ErrInvalidCredentials, "邮箱或密码错误")
	}

	util.Logger.Info("用户登录成功", zap.Int("user_id", user.ID))
	return user, nil
}

// GetUserByID 通过ID获取用户信息
func (s *UserService) GetUserByID(ctx context.Context, id int) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.WrapDB("查询用户失败", err)
	}
	if user == nil {
		return nil, errors.New(errors.ErrUserNotFound, "用户不存在")
	}
	return user, nil
}

// UpdateProfile 更新用户资料，只允许修改用户名和简介
func (s *UserService) UpdateProfile(ctx context.Context, userID int, username, bio string) (*model.User, error) {
	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if username != "" && username != user.Username {
		existing, err := s.userRepo.FindByUsername(ctx, username)
		if err != nil {
			return nil, errors.WrapDB("查询用户失败", err)
		}
		if existing != nil {
			return nil, errors.New(errors.ErrUserExists, "用户名已存在")
		}
		user.Username = username
	}
	user.Bio = bio

	if err := s.userRepo.Update(ctx, user); err != nil {
		if stderrors.Is(err, interfaces.ErrDuplicate) {
			return nil, errors.New(errors.ErrUserExists, "用户名已存在")
		}
		return nil, errors.WrapDB("更新用户失败", err)
	}
	return user, nil
}

// UpdateAvatar 更新用户头像地址
func (s *UserService) UpdateAvatar(ctx context.Context, userID int, avatarURL string) (*model.User, error) {
	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.AvatarURL = avatarURL
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, errors.WrapDB("更新头像失败", err)
	}
	return user, nil
}

// UserServiceInterface 定义用户服务接口，方便在测试中模拟
type UserServiceInterface interface {
	Register(ctx context.Context, user *model.User, password string) error
	Login(ctx context.Context, email, password string) (*model.User, error)
	GetUserByID(ctx context.Context, id int) (*model.User, error)
	UpdateProfile(ctx context.Context, userID int, username, bio string) (*model.User, error)
	UpdateAvatar(ctx context.Context, userID int, avatarURL string) (*model.User, error)
}

// 确保 UserService 实现了 UserServiceInterface
var _ UserServiceInterface = (*UserService)(nil)
