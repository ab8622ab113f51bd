package realtime

import (
	"net/http"

	"socialapp-backend/config"
	"socialapp-backend/internal/errors"
	"socialapp-backend/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || origin == config.AppConfig.FrontendURL
	},
}

// ServeWS 处理websocket升级请求。加入个人频道需要与REST层相同的
// Bearer 身份：令牌通过 token 查询参数传递（浏览器无法为websocket
// 设置请求头），连接只会绑定到令牌对应的用户，无法冒用他人频道
func ServeWS(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := util.ValidateToken(c.Query("token"))
		if err != nil {
			util.Logger.Warn("websocket认证失败", zap.Error(err))
			errors.HandleError(c, errors.Wrap(errors.ErrInvalidToken, "无效或过期的令牌", err))
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			util.Logger.Error("websocket升级失败", zap.Error(err))
			return
		}

		client := &Client{
			id:     uuid.NewString(),
			userID: userID,
			hub:    hub,
			conn:   conn,
			send:   make(chan []byte, sendBufferSize),
		}

		hub.register <- client

		go client.writePump()
		go client.readPump()
	}
}
