// Package realtime 把 Kafka 上的会话事件实时推送给在线的 WebSocket 连接。
package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/Xenonn21/voitzu/pkg/events"
	"github.com/Xenonn21/voitzu/pkg/log"
)

// Hub 按用户 ID 维护在线连接，并把该用户的会话事件扇出到其全部连接。
// 实现了 kafka.EventHandler，可直接挂到消费者上。
type Hub struct {
	mu    sync.RWMutex
	conns map[uint]map[*websocket.Conn]struct{}
}

// NewHub 创建一个空的 Hub。
func NewHub() *Hub {
	return &Hub{conns: make(map[uint]map[*websocket.Conn]struct{})}
}

// Register 登记一条用户连接。
func (h *Hub) Register(userID uint, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conns[userID] == nil {
		h.conns[userID] = make(map[*websocket.Conn]struct{})
	}
	h.conns[userID][conn] = struct{}{}
	log.Infof("[Hub] 用户 %d 的连接已登记，当前连接数: %d", userID, len(h.conns[userID]))
}

// Unregister 注销一条用户连接。重复注销不报错。
func (h *Hub) Unregister(userID uint, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.conns[userID]; ok {
		delete(set, conn)
		if len(set) == 0 {
			delete(h.conns, userID)
		}
	}
}

// ConnCount 返回用户当前的在线连接数。
func (h *Hub) ConnCount(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[userID])
}

// Handle 把事件推送给所属用户的每条连接。写失败的连接就地清理。
func (h *Hub) Handle(ctx context.Context, event events.SessionEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Errorf("[Hub] 序列化会话事件失败: %v", err)
		return
	}

	h.mu.RLock()
	targets := make([]*websocket.Conn, 0, len(h.conns[event.UserID]))
	for conn := range h.conns[event.UserID] {
		targets = append(targets, conn)
	}
	h.mu.RUnlock()

	for _, conn := range targets {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Warnf("[Hub] 向用户 %d 推送事件失败: %v", event.UserID, err)
			h.Unregister(event.UserID, conn)
			_ = conn.Close()
		}
	}
}
