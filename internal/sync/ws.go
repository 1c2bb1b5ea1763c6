package sync

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// browser clients are served from other origins
	CheckOrigin: func(*http.Request) bool { return true },
}

// WSHandler upgrades the request and keeps the socket subscribed until the
// peer goes away or stops answering pings.
func WSHandler(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			hub.logger.Debug("websocket upgrade failed", zap.Error(err))
			return
		}

		sub := &wsSubscriber{conn: conn}
		if err := hub.welcome(sub); err != nil {
			sub.close()
			return
		}
		hub.subscribe(sub)
		defer hub.unsubscribe(sub)

		done := make(chan struct{})
		defer close(done)
		go keepAlive(sub, done)

		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})

		// incoming messages are ignored
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}
}

func keepAlive(sub *wsSubscriber, done <-chan struct{}) {
	t := time.NewTicker(pingPeriod)
	defer t.Stop()
	for {
		select {
		case <-done:
			return
		case <-t.C:
			if err := sub.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
