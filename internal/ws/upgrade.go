package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"civicadmin/config"
	"civicadmin/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// InitialState produces the first message sent to a new connection.
type InitialState func(ctx context.Context) (interface{}, error)

// UpgradeDashboardWS streams dashboard events to admins. The token comes from
// the "token" query parameter (browsers cannot set headers on websockets) or
// the Authorization header.
func UpgradeDashboardWS(cfg *config.JWTConfig, hub *Hub, initial InitialState, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			token = strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token required"})
			return
		}
		claims, err := auth.ParseAccessToken(cfg, token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		if !claims.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Debug("ws upgrade failed", zap.Error(err))
			return
		}
		defer conn.Close()

		client := NewClient(claims.UserID())
		hub.Register(client)
		defer client.Close()
		log.Info("dashboard ws connected", zap.String("user_id", client.UserID), zap.Int("clients", hub.ClientCount()))

		if initial != nil {
			state, err := initial(c.Request.Context())
			if err != nil {
				state = map[string]string{"type": "error", "error": err.Error()}
			}
			if data, err := json.Marshal(state); err == nil {
				client.deliver(data)
			}
		}
		go writePump(client, conn)
		readPump(conn)
	}
}

// writePump copies messages from client.Send to the connection.
func writePump(c *Client, conn *websocket.Conn) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case msg, ok := <-c.Send:
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump drains the connection until the peer goes away. Admins never send
// anything we act on.
func readPump(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
