package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/codepractice/codepractice-backend/internal/model"
	ws "github.com/codepractice/codepractice-backend/internal/websocket"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// ChangeFeed opens a subscription to problem change events.
type ChangeFeed interface {
	Subscribe(ctx context.Context) *redis.PubSub
}

// WSHandler streams problem change events so open list views can refresh.
type WSHandler struct {
	feed     ChangeFeed
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(feed ChangeFeed, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		feed:     feed,
		log:      log.With().Str("component", "ws_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// ProblemStream godoc
// WS /ws/v1/problems/stream?token=...
// Pushes a problems.changed event after every structural change.
func (h *WSHandler) ProblemStream(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()
	ws.Prepare(conn)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub := h.feed.Subscribe(ctx)
	defer sub.Close()

	wsLog := h.log.With().Str("user_id", sess.UserID.String()).Logger()

	// Subscribe is lazy; Receive confirms the subscription before we report ready.
	if _, err := sub.Receive(ctx); err != nil {
		wsLog.Error().Err(err).Msg("Change feed subscribe failed")
		_ = ws.WriteError(conn, "change feed unavailable")
		return
	}
	if err := ws.WriteTyped(conn, ws.ReadyResponse{Event: ws.EventReady}); err != nil {
		return
	}
	wsLog.Info().Msg("Change feed connected")

	// The read side only answers pings and notices the close; all writes
	// happen on this goroutine.
	pings := make(chan struct{}, 1)
	go func() {
		defer cancel()
		for {
			var msg ws.RequestEnvelope
			if err := ws.ReadJSON(conn, &msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					wsLog.Warn().Err(err).Msg("Unexpected close")
				} else {
					wsLog.Debug().Msg("Connection closed")
				}
				return
			}
			if msg.Action == ws.ActionPing {
				select {
				case pings <- struct{}{}:
				default:
				}
			}
		}
	}()

	events := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case <-pings:
			if err := ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong}); err != nil {
				return
			}
		case msg, ok := <-events:
			if !ok {
				return
			}
			var ev model.ProblemEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				wsLog.Warn().Err(err).Msg("Dropping malformed change event")
				continue
			}
			if err := ws.WriteTyped(conn, ws.ChangedResponse{Event: ws.EventChanged, Change: ev}); err != nil {
				return
			}
		}
	}
}
