package middleware

import (
	"context"
	"strings"
	"time"

	"socialapp-backend/config"
	"socialapp-backend/internal/errors"
	"socialapp-backend/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const userIDKey = "user_id"

// AuthMiddleware 验证请求的 Bearer 令牌，并将调用者身份写入请求上下文。
// 同时为整个请求设置超时时间，存储层调用会在超时后被取消
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		timeout := time.Duration(config.AppConfig.RequestTimeout) * time.Second
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			errors.HandleError(c, errors.New(errors.ErrUnauthorized, "需要认证"))
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer") {
			errors.HandleError(c, errors.New(errors.ErrUnauthorized, "无效的认证格式"))
			c.Abort()
			return
		}

		userID, err := util.ValidateToken(parts[1])
		if err != nil {
			util.Logger.Warn("令牌验证失败",
				zap.Error(err),
				zap.String("path", c.Request.URL.Path))
			errors.HandleError(c, errors.Wrap(errors.ErrInvalidToken, "无效或过期的令牌", err))
			c.Abort()
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

// CurrentUserID 返回认证中间件写入的调用者身份。
// 只应在经过 AuthMiddleware 保护的路由中调用
func CurrentUserID(c *gin.Context) (int, bool) {
	value, exists := c.Get(userIDKey)
	if !exists {
		return 0, false
	}
	userID, ok := value.(int)
	return userID, ok
}
