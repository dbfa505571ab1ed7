package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"eyecare_backend/internal/util"
	"eyecare_backend/pkg/logger"
	"eyecare_backend/pkg/monitoring"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 16 << 10
	chatTimeout    = 90 * time.Second
)

// WSMessage is the frame exchanged on the assistant socket.
//
//	client -> server: {"type":"chat","data":{"message":"...","history":[...]}} | {"type":"ping"}
//	server -> client: {"type":"typing"} {"type":"reply","data":{"reply":"..."}} {"type":"error","data":{"message":"..."}} {"type":"pong"}
type WSMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type wsOutgoing struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

type wsError struct {
	Message string `json:"message"`
}

// AssistantHub serves the chatbot over websocket connections. Each
// connection answers one chat turn at a time.
type AssistantHub struct {
	Assistant *AssistantService

	upgrader websocket.Upgrader
	ctx      context.Context
	cancel   context.CancelFunc

	mu      sync.Mutex
	clients map[*assistantClient]struct{}
}

// NewAssistantHub accepts upgrades from the listed origins. A "*" entry or
// an empty list accepts any origin.
func NewAssistantHub(assistant *AssistantService, allowedOrigins []string) *AssistantHub {
	ctx, cancel := context.WithCancel(context.Background())
	h := &AssistantHub{
		Assistant: assistant,
		ctx:       ctx,
		cancel:    cancel,
		clients:   make(map[*assistantClient]struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 {
			return true
		}
		for _, o := range allowed {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}

type assistantClient struct {
	hub      *AssistantHub
	conn     *websocket.Conn
	send     chan []byte
	requests chan ChatRequest
	userID   uint
	limiter  *rate.Limiter
}

// ServeWS upgrades the request and starts the connection's pumps. On error
// the upgrader has already answered the HTTP request.
func (h *AssistantHub) ServeWS(w http.ResponseWriter, r *http.Request, userID uint) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	c := &assistantClient{
		hub:      h,
		conn:     conn,
		send:     make(chan []byte, 16),
		requests: make(chan ChatRequest, 1),
		userID:   userID,
		limiter:  rate.NewLimiter(rate.Every(time.Second), 5),
	}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	logger.Log.Debug("assistant socket connected", zap.Uint("user_id", userID))

	go c.writePump()
	go c.serve()
	go c.readPump()
	return nil
}

// Count reports the open connections.
func (h *AssistantHub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close cancels in-flight chat turns and drops every connection.
func (h *AssistantHub) Close() {
	h.cancel()
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.conn.Close()
	}
}

func (h *AssistantHub) unregister(c *assistantClient) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

func (c *assistantClient) readPump() {
	defer func() {
		close(c.requests)
		c.hub.unregister(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Log.Warn("assistant socket closed unexpectedly", zap.Error(err), zap.Uint("user_id", c.userID))
			}
			return
		}
		if !c.limiter.Allow() {
			c.fail("too many messages, slow down")
			continue
		}

		var msg WSMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.fail("malformed message")
			continue
		}
		monitoring.AssistantSocketMessages.WithLabelValues(msg.Type, "in").Inc()

		switch msg.Type {
		case "ping":
			c.push(wsOutgoing{Type: "pong"})
		case "chat":
			var req ChatRequest
			if err := json.Unmarshal(msg.Data, &req); err != nil {
				c.fail("malformed chat request")
				continue
			}
			if req.Message == "" || len(req.Message) > 2000 || len(req.History) > 20 {
				c.fail("message must be 1-2000 characters with at most 20 history turns")
				continue
			}
			select {
			case c.requests <- req:
			default:
				c.fail("a reply is still in progress")
			}
		default:
			c.fail("unknown message type")
		}
	}
}

// serve answers queued chat turns. It owns closing send, which happens only
// after readPump has stopped queueing.
func (c *assistantClient) serve() {
	defer close(c.send)
	for req := range c.requests {
		c.push(wsOutgoing{Type: "typing"})

		ctx, cancel := context.WithTimeout(c.hub.ctx, chatTimeout)
		reply, err := c.hub.Assistant.Chat(ctx, req)
		cancel()

		switch {
		case errors.Is(err, util.ErrAssistantUnavailable):
			c.fail("Assistant unavailable, please try again later")
		case err != nil:
			logger.Log.Error("assistant socket chat failed", zap.Error(err), zap.Uint("user_id", c.userID))
			c.fail("assistant error")
		default:
			c.push(wsOutgoing{Type: "reply", Data: reply})
		}
	}
}

func (c *assistantClient) fail(message string) {
	c.push(wsOutgoing{Type: "error", Data: wsError{Message: message}})
}

// push queues a frame and drops it when the client is not keeping up.
func (c *assistantClient) push(msg wsOutgoing) {
	data, err := json.Marshal(msg)
	if err != nil {
		logger.Log.Error("encode assistant frame", zap.Error(err))
		return
	}
	select {
	case c.send <- data:
		monitoring.AssistantSocketMessages.WithLabelValues(msg.Type, "out").Inc()
	default:
		logger.Log.Warn("assistant socket send buffer full", zap.Uint("user_id", c.userID))
	}
}

func (c *assistantClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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
