package server

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/atikulmunna/esoloom/internal/encounter"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Per-connection send pacing; a backlog is delivered in bursts of sendBurst.
const (
	sendInterval = 100 * time.Millisecond
	sendBurst    = 5
)

// handleWebSocket upgrades to WebSocket and streams finalized reports to the
// client, starting with the kept backlog.
func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	reports := s.hub.Subscribe()
	defer s.hub.Unsubscribe(reports)

	// Read pump: detect client disconnect.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.hub.Unsubscribe(reports)
				return
			}
		}
	}()

	ctx := c.Request.Context()
	limiter := rate.NewLimiter(rate.Every(sendInterval), sendBurst)

	err = streamReports(s.hub.Recent(), reports, func(r encounter.Report) error {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}
		return conn.WriteJSON(r)
	})
	if err != nil && ctx.Err() == nil {
		log.Printf("websocket write failed: %v", err)
	}
}

// streamReports sends the backlog (newest first, as kept by the hub) oldest
// first, then every live report. Reports already sent from the backlog are
// skipped when they also arrive live.
func streamReports(recent []encounter.Report, live <-chan encounter.Report, send func(encounter.Report) error) error {
	sent := make(map[uuid.UUID]struct{}, len(recent))
	for i := len(recent) - 1; i >= 0; i-- {
		if err := send(recent[i]); err != nil {
			return err
		}
		sent[recent[i].ID] = struct{}{}
	}

	for r := range live {
		if _, dup := sent[r.ID]; dup {
			delete(sent, r.ID)
			continue
		}
		if err := send(r); err != nil {
			return err
		}
	}
	return nil
}
