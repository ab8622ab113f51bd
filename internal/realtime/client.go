package realtime

import (
	"encoding/json"
	"time"

	"socialapp-backend/internal/util"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBufferSize = 32
)

// Client 表示一条已认证的websocket连接
type Client struct {
	id     string
	userID int
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
}

// trySend 非阻塞投递。缓冲已满说明客户端消费过慢，
// 返回 false 由中心断开该连接
func (c *Client) trySend(frame []byte) bool {
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// readPump 从连接读取事件并交给中心分发。
// 格式错误的帧被静默丢弃，读取出错即注销连接
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				util.Logger.Warn("websocket读取异常", zap.Error(err),
					zap.String("conn_id", c.id))
			}
			return
		}

		var event Event
		if err := json.Unmarshal(raw, &event); err != nil {
			util.Logger.Debug("丢弃无法解析的事件帧", zap.Error(err),
				zap.String("conn_id", c.id))
			continue
		}

		c.hub.inbound <- inbound{client: c, event: event}
	}
}

// writePump 将下行帧写入连接，并周期性发送ping保持连接
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// 中心已关闭该连接
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
