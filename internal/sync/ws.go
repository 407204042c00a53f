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
	CheckOrigin: func(r *http.Request) bool {
		return true // admin UI is served from another origin in development
	},
}

type wsWelcome struct {
	Type      string `json:"type"`
	Transport string `json:"transport"`
	SearchID  string `json:"search_id,omitempty"`
}

// WSHandler streams hub events over a WebSocket. ?search_id= narrows the
// stream to one search session.
func WSHandler(hub *Hub) gin.HandlerFunc {
	logger := hub.logger.Named("ws")
	return func(c *gin.Context) {
		searchID := c.Query("search_id")
		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Debug("upgrade failed", zap.Error(err))
			return
		}

		// written before AddWS: after that only the hub writes data frames
		_ = ws.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := ws.WriteJSON(wsWelcome{Type: "welcome", Transport: "websocket", SearchID: searchID}); err != nil {
			_ = ws.Close()
			return
		}

		hub.AddWS(ws, searchID)
		logger.Info("client connected", zap.Stringer("addr", ws.RemoteAddr()), zap.String("search_id", searchID))
		defer func() {
			hub.RemoveWS(ws)
			logger.Info("client disconnected", zap.Stringer("addr", ws.RemoteAddr()))
		}()

		ws.SetReadLimit(512)
		_ = ws.SetReadDeadline(time.Now().Add(pongWait))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(pongWait))
		})

		done := make(chan struct{})
		defer close(done)
		go func() {
			t := time.NewTicker(pingPeriod)
			defer t.Stop()
			for {
				select {
				case <-done:
					return
				case <-t.C:
					if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
						return
					}
				}
			}
		}()

		// subscribers only read control frames; data frames are ignored
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}
}
