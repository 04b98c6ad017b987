package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/Xenonn21/voitzu/internal/realtime"
	"github.com/Xenonn21/voitzu/pkg/log"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // 允许所有来源
	},
}

// FeedHandler 负责处理会话动态的 WebSocket 连接。
// 连接建立后服务端单向推送会话事件，客户端收到后重新拉取列表。
type FeedHandler struct {
	hub *realtime.Hub
}

// NewFeedHandler 创建一个新的 FeedHandler 实例。
func NewFeedHandler(hub *realtime.Hub) *FeedHandler {
	return &FeedHandler{hub: hub}
}

// Handle 把请求升级为 WebSocket 连接并登记到 Hub。
// 认证由 AuthMiddleware 完成（token 通过 query 参数传入）。
func (h *FeedHandler) Handle(c *gin.Context) {
	user := currentUser(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("WebSocket 升级失败", err)
		return
	}

	h.hub.Register(user.ID, conn)
	log.Infof("WebSocket 连接已建立，用户: %d", user.ID)

	defer func() {
		h.hub.Unregister(user.ID, conn)
		_ = conn.Close()
	}()

	// 推送是单向的，这里只消费控制帧并感知断连。
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			log.Infof("WebSocket 连接断开，用户: %d, err: %v", user.ID, err)
			return
		}
	}
}
