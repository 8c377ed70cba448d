package ws

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/ovrsee/spyglass/internal/app"
	"github.com/ovrsee/spyglass/internal/config"
	"github.com/ovrsee/spyglass/internal/core"
)

// Controller owns the websocket side of the relay: it upgrades dashboard
// connections, binds them as sessions, and feeds inbound events to the
// dispatcher.
type Controller struct {
	Dispatcher *app.Dispatcher
	Cfg        *config.Config
}

func NewController(dispatcher *app.Dispatcher, cfg *config.Config) *Controller {
	return &Controller{Dispatcher: dispatcher, Cfg: cfg}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleRelay upgrades the request and starts the connection pumps.
// Every socket gets its own session id; the client token from the HTTP
// middleware only names the viewer behind it, so two tabs of one browser
// never share connection state.
func (ctl *Controller) HandleRelay(ctx context.Context, c *gin.Context) {
	token := c.GetString("client_token")
	sid := core.SessionID(uuid.NewString())
	log.Info().Str("module", "ws").Str("sid", string(sid)).Str("viewer", token).Msg("new relay connection")

	sock, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("ws upgrade")
		return
	}
	sock.SetReadLimit(ctl.Cfg.ReadLimit)

	conn := NewRelayConn(sock, ctl.Cfg.SendBuffer)
	viewer := ctl.Dispatcher.Sessions.GetOrCreateViewer(token)
	sess := core.NewViewerSession(viewer, conn)

	ctx, cancel := context.WithCancel(ctx)
	ctl.Dispatcher.Sessions.Bind(sid, sess, cancel)

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, sid, conn)
}
