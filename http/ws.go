package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"fauxpas/logger"
	"fauxpas/monitoring"
	"fauxpas/pipeline"
	"fauxpas/vocab"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// MessageType 消息类型
type MessageType string

const (
	PredictionMessage MessageType = "prediction"
	ErrorMessage      MessageType = "error"
	MetricsMessage    MessageType = "metrics"
)

// Message WebSocket消息结构
type Message struct {
	Type       MessageType          `json:"type"`
	Timestamp  time.Time            `json:"timestamp"`
	Prediction *pipeline.Prediction `json:"prediction,omitempty"`
	Metrics    *monitoring.Snapshot `json:"metrics,omitempty"`
	Error      *errorBody           `json:"error,omitempty"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// 浏览器同源页面以外的客户端（CLI、测试）不带Origin头
	CheckOrigin: func(r *http.Request) bool { return true },
}

// RegisterWebSocketHandlers 注册WebSocket路由
func RegisterWebSocketHandlers(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/ws/predict", handlePredictSocket)
	mux.HandleFunc("GET /api/ws/metrics", handleMetricsSocket)
}

// wsClient WebSocket客户端
type wsClient struct {
	conn *websocket.Conn
	send chan Message

	// done 读取泵退出时关闭，writerDone 写入泵退出时关闭
	done       chan struct{}
	writerDone chan struct{}
}

func newClient(conn *websocket.Conn) *wsClient {
	return &wsClient{
		conn:       conn,
		send:       make(chan Message, 16),
		done:       make(chan struct{}),
		writerDone: make(chan struct{}),
	}
}

// writePump WebSocket写入泵
func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		close(c.writerDone)
	}()

	for {
		select {
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				logger.Named("ws").Debugw("write failed", logger.FieldError, err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// readPump WebSocket读取泵，每条文本消息交给handle处理
func (c *wsClient) readPump(handle func([]byte)) {
	defer close(c.done)

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				logger.Named("ws").Warnw("websocket closed", logger.FieldError, err)
			}
			return
		}
		if handle != nil {
			handle(data)
		}
	}
}

// reply 将消息排入发送队列；任一泵退出后丢弃消息并返回false
func (c *wsClient) reply(msg Message) bool {
	msg.Timestamp = time.Now()
	select {
	case c.send <- msg:
		return true
	case <-c.done:
	case <-c.writerDone:
	}
	return false
}

func handlePredictSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Named("ws").Warnw("upgrade failed", logger.FieldError, err)
		return
	}

	client := newClient(conn)
	go client.writePump()
	client.readPump(func(data []byte) {
		var sel vocab.Selection
		if err := json.Unmarshal(data, &sel); err != nil {
			client.reply(Message{Type: ErrorMessage, Error: &errorBody{Error: "invalid JSON message"}})
			return
		}
		pred, status, err := predict(r.Context(), sel)
		if err != nil {
			body := errorPayload(status, err)
			client.reply(Message{Type: ErrorMessage, Error: &body})
			return
		}
		client.reply(Message{Type: PredictionMessage, Prediction: pred})
	})
}

func handleMetricsSocket(w http.ResponseWriter, r *http.Request) {
	m := currentMetrics()
	if m == nil {
		writeError(w, http.StatusServiceUnavailable, "metrics not enabled")
		return
	}

	// 先订阅再升级，避免丢失握手期间的更新
	updates, cancel := m.Subscribe()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		cancel()
		logger.Named("ws").Warnw("upgrade failed", logger.FieldError, err)
		return
	}

	client := newClient(conn)
	go client.writePump()
	go func() {
		defer cancel()
		snap := m.Snapshot()
		if !client.reply(Message{Type: MetricsMessage, Metrics: &snap}) {
			return
		}
		for {
			select {
			case snap, ok := <-updates:
				if !ok || !client.reply(Message{Type: MetricsMessage, Metrics: &snap}) {
					return
				}
			case <-client.done:
				return
			case <-client.writerDone:
				return
			}
		}
	}()
	client.readPump(nil)
}
