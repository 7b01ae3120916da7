package web

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"mentor/pkg/api"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // decoupled UI, any origin
	},
}

type WebConfig struct {
	Port int `json:"port"` // Default: 8080
}

// IncomingMessage is one JSON frame from the UI.
type IncomingMessage struct {
	User   string `json:"user"`
	Text   string `json:"text"`
	Mode   string `json:"mode,omitempty"`
	Memory *bool  `json:"memory,omitempty"` // nil means on
}

// OutgoingMessage is one JSON frame to the UI.
type OutgoingMessage struct {
	Text   string `json:"text"`
	Source string `json:"source"`
}

// SafeConn serializes concurrent writes on one websocket.
type SafeConn struct {
	*websocket.Conn
	mu sync.Mutex
}

func (sc *SafeConn) WriteMessage(messageType int, data []byte) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.Conn.WriteMessage(messageType, data)
}

// WebChannel implements gateway.Channel over a websocket endpoint.
type WebChannel struct {
	config      WebConfig
	server      *http.Server
	connections map[string]*SafeConn // UserID -> connection
	mu          sync.RWMutex
}

func NewWebChannel(cfg WebConfig) *WebChannel {
	return &WebChannel{
		config:      cfg,
		connections: make(map[string]*SafeConn),
	}
}

func (c *WebChannel) ID() string {
	return "web"
}

func (c *WebChannel) Start(ctx api.ChannelContext) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		c.handleWebSocket(w, r, ctx)
	})

	addr := fmt.Sprintf(":%d", c.config.Port)
	c.server = &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	slog.Info("Web API listening", "port", c.config.Port)

	go func() {
		if err := c.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Web API server error", "error", err)
		}
	}()

	return nil
}

func (c *WebChannel) Stop() error {
	if c.server != nil {
		return c.server.Close()
	}
	return nil
}

func (c *WebChannel) Send(session api.SessionContext, resp api.Response) error {
	c.mu.RLock()
	conn, ok := c.connections[session.UserID]
	c.mu.RUnlock()

	if !ok {
		return fmt.Errorf("web user %s not connected", session.UserID)
	}

	data, err := json.Marshal(OutgoingMessage{
		Text:   resp.Text,
		Source: string(resp.Source),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal response: %w", err)
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}

func (c *WebChannel) handleWebSocket(w http.ResponseWriter, r *http.Request, ctx api.ChannelContext) {
	rawConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("WS Upgrade failed", "error", err)
		return
	}

	conn := &SafeConn{Conn: rawConn}
	userID := r.RemoteAddr

	c.mu.Lock()
	c.connections[userID] = conn
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.connections, userID)
		c.mu.Unlock()
		conn.Close()
	}()

	for {
		_, msgBytes, err := conn.ReadMessage()
		if err != nil {
			break
		}

		var incoming IncomingMessage
		if err := json.Unmarshal(msgBytes, &incoming); err != nil {
			// plain text frame, backward compatible
			incoming = IncomingMessage{Text: string(msgBytes)}
		}
		if incoming.Text == "" {
			continue
		}

		username := incoming.User
		if username == "" {
			username = "WebUser"
		}

		useMemory := true
		if incoming.Memory != nil {
			useMemory = *incoming.Memory
		}

		ctx.OnMessage(c.ID(), &api.UnifiedMessage{
			Session: api.SessionContext{
				ChannelID: c.ID(),
				UserID:    userID,
				ChatID:    userID,
				Username:  username,
			},
			Content:   incoming.Text,
			Mode:      api.ParseMode(incoming.Mode),
			UseMemory: useMemory,
		})
	}
}
