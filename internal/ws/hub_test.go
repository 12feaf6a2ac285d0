package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"civicadmin/config"
	"civicadmin/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHub_BroadcastAll(t *testing.T) {
	h := NewHub()
	a, b := NewClient("u1"), NewClient("u2")
	h.Register(a)
	h.Register(b)
	assert.Equal(t, 2, h.ClientCount())

	h.BroadcastAll(map[string]string{"type": "snapshot"})
	assert.JSONEq(t, `{"type":"snapshot"}`, string(<-a.Send))
	assert.JSONEq(t, `{"type":"snapshot"}`, string(<-b.Send))

	// Two tabs of the same admin each get their own copy.
	a2 := NewClient("u1")
	h.Register(a2)
	h.BroadcastAll(map[string]int{"n": 1})
	for _, c := range []*Client{a, a2, b} {
		assert.JSONEq(t, `{"n":1}`, string(<-c.Send))
	}
}

func TestHub_CloseUnregisters(t *testing.T) {
	h := NewHub()
	c := NewClient("u1")
	h.Register(c)
	c.Close()
	c.Close()

	assert.Zero(t, h.ClientCount())
	// Broadcasting after close must not panic on the closed channel.
	h.BroadcastAll("x")
	assert.False(t, c.deliver([]byte("y")))
}

func TestHub_SlowClientDropsMessages(t *testing.T) {
	h := NewHub()
	c := NewClient("u1")
	h.Register(c)
	for i := 0; i < cap(c.Send)+10; i++ {
		h.BroadcastAll(i)
	}
	assert.Len(t, c.Send, cap(c.Send))
}

func TestUpgradeDashboardWS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.JWTConfig{AccessSecret: "s3cret", AccessExpiry: time.Hour}
	hub := NewHub()

	r := gin.New()
	r.GET("/ws", UpgradeDashboardWS(cfg, hub, func(ctx context.Context) (interface{}, error) {
		return map[string]string{"type": "snapshot"}, nil
	}, zap.NewNop()))
	srv := httptest.NewServer(r)
	defer srv.Close()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	tok, err := auth.GenerateAccessToken(cfg, "admin-1", "a@city.gov")
	require.NoError(t, err)
	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?token="+tok, nil)
	require.NoError(t, err)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var first map[string]string
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, "snapshot", first["type"])

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)
	hub.BroadcastAll(map[string]string{"type": "status_changed"})

	var next map[string]json.RawMessage
	require.NoError(t, conn.ReadJSON(&next))
	assert.JSONEq(t, `"status_changed"`, string(next["type"]))
}
