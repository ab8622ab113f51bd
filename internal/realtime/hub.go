// Package realtime 实现尽力而为的实时事件转发层。
// 它与 REST 写入路径完全解耦：事件只作为界面刷新提示，
// 不承载任何持久化或送达保证。
package realtime

import (
	"encoding/json"

	"socialapp-backend/internal/util"

	"go.uber.org/zap"
)

// 客户端上行与下行事件名
const (
	EventSendMessage  = "sendMessage"
	EventLikePost     = "likePost"
	EventNewComment   = "newComment"
	EventNewMessage   = "newMessage"
	EventPostLiked    = "postLiked"
	EventCommentAdded = "commentAdded"
)

// Event 是中继层的统一事件帧
type Event struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type inbound struct {
	client *Client
	event  Event
}

// Hub 维护全部在线连接。每个连接归属于其认证用户的个人频道，
// 所有状态只由 Run 协程访问，注册、注销和事件分发都通过通道完成
type Hub struct {
	clients map[*Client]bool
	// 个人频道：同一用户的多个连接共享一个频道
	byUser map[int]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	inbound    chan inbound
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		byUser:     make(map[int]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan inbound, 64),
	}
}

// Run 是中心的事件循环，必须在独立协程中启动
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			if h.byUser[client.userID] == nil {
				h.byUser[client.userID] = make(map[*Client]bool)
			}
			h.byUser[client.userID][client] = true
			util.Logger.Info("客户端已连接",
				zap.String("conn_id", client.id),
				zap.Int("user_id", client.userID))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				delete(h.byUser[client.userID], client)
				if len(h.byUser[client.userID]) == 0 {
					delete(h.byUser, client.userID)
				}
				close(client.send)
				util.Logger.Info("客户端已断开",
					zap.String("conn_id", client.id),
					zap.Int("user_id", client.userID))
			}

		case msg := <-h.inbound:
			h.dispatch(msg.client, msg.event)
		}
	}
}

// dispatch 处理客户端上行事件。未知事件名直接丢弃，
// 中继层没有错误反馈通道
func (h *Hub) dispatch(sender *Client, event Event) {
	switch event.Event {
	case EventSendMessage:
		var payload struct {
			ReceiverID int `json:"receiverId"`
		}
		if err := json.Unmarshal(event.Data, &payload); err != nil || payload.ReceiverID == 0 {
			util.Logger.Debug("丢弃格式错误的消息事件", zap.Error(err))
			return
		}
		// 仅投递到接收者的个人频道
		h.sendToUser(payload.ReceiverID, Event{Event: EventNewMessage, Data: event.Data})

	case EventLikePost:
		// 全局广播（发送者除外），保持原始中继的通知范围
		h.broadcast(sender, Event{Event: EventPostLiked, Data: event.Data})

	case EventNewComment:
		h.broadcast(sender, Event{Event: EventCommentAdded, Data: event.Data})

	default:
		util.Logger.Debug("丢弃未知事件", zap.String("event", event.Event))
	}
}

// sendToUser 将事件投递到指定用户的全部连接
func (h *Hub) sendToUser(userID int, event Event) {
	frame, err := json.Marshal(event)
	if err != nil {
		return
	}
	for client := range h.byUser[userID] {
		if !client.trySend(frame) {
			h.drop(client)
		}
	}
}

// broadcast 将事件投递到除来源连接外的全部连接
func (h *Hub) broadcast(sender *Client, event Event) {
	frame, err := json.Marshal(event)
	if err != nil {
		return
	}
	for client := range h.clients {
		if client == sender {
			continue
		}
		if !client.trySend(frame) {
			h.drop(client)
		}
	}
}

// drop 移除消费过慢的连接，只能在 Run 协程内调用
func (h *Hub) drop(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	delete(h.byUser[client.userID], client)
	if len(h.byUser[client.userID]) == 0 {
		delete(h.byUser, client.userID)
	}
	close(client.send)
	util.Logger.Warn("客户端消费过慢，已断开",
		zap.String("conn_id", client.id),
		zap.Int("user_id", client.userID))
}
