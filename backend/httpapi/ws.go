package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/arbdesk/arbdesk/backend/engines"
	"github.com/arbdesk/arbdesk/backend/service"
	"github.com/arbdesk/arbdesk/core"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The reference backend serves local development; origin checks belong
	// to the production deployment.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type wsEnvelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// StatusFeed streams engine status to authenticated sockets. The token
// arrives as a query parameter because browser websockets cannot set
// headers; an invalid one is refused before the upgrade.
type StatusFeed struct {
	auth *service.AuthService
	sup  *engines.Supervisor
	sub  message.Subscriber
	log  zerolog.Logger
}

// NewStatusFeed creates the feed over a subscriber delivering StatusTopic
// snapshots.
func NewStatusFeed(auth *service.AuthService, sup *engines.Supervisor, sub message.Subscriber, log zerolog.Logger) *StatusFeed {
	return &StatusFeed{
		auth: auth,
		sup:  sup,
		sub:  sub,
		log:  log.With().Str("component", "ws").Logger(),
	}
}

// Handle upgrades the connection and pushes status snapshots until the
// client goes away.
func (f *StatusFeed) Handle(c *gin.Context) {
	token := c.Query("token")
	identity, err := f.auth.ValidateToken(c.Request.Context(), token)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		f.log.Warn().Err(err).Msg("upgrade failed")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	msgs, err := f.sub.Subscribe(ctx, engines.StatusTopic)
	if err != nil {
		f.log.Error().Err(err).Msg("subscribe failed")
		return
	}

	// Drain client frames solely to notice the close.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	log := f.log.With().Str("address", identity.Address).Logger()
	log.Debug().Msg("status feed opened")

	// First frame is the current snapshot so the client never waits for a
	// state change to learn the baseline.
	if err := conn.WriteJSON(wsEnvelope{Type: "status", Payload: f.sup.Snapshot()}); err != nil {
		return
	}

	for msg := range msgs {
		var status core.EngineStatus
		if err := json.Unmarshal(msg.Payload, &status); err != nil {
			log.Warn().Err(err).Msg("dropping malformed snapshot")
			msg.Ack()
			continue
		}
		msg.Ack()

		if err := conn.WriteJSON(wsEnvelope{Type: "status", Payload: status}); err != nil {
			log.Debug().Err(err).Msg("status feed closed")
			return
		}
	}
}
